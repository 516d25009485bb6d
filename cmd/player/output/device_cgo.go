//go:build (linux && cgo) || windows || darwin

package output

import (
	"fmt"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

// Available indicates whether audio playback is supported in this build.
const Available = true

const deviceRate = beep.SampleRate(44100)

// Device owns the speaker and at most one playing voice.
type Device struct {
	mu sync.Mutex

	sampleRate beep.SampleRate
	streamer   beep.StreamSeekCloser
	ctrl       *beep.Ctrl
}

// Open initializes the speaker. Failing here is fatal for the player.
func Open() (*Device, error) {
	if err := speaker.Init(deviceRate, deviceRate.N(time.Second/10)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAudioUnavailable, err)
	}
	return &Device{sampleRate: deviceRate}, nil
}

// Start releases the current voice, then plays data from its beginning.
func (d *Device) Start(name string, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.haltLocked()

	streamer, format, err := Decode(name, data)
	if err != nil {
		return err
	}
	d.streamer = streamer

	// Resample if needed to match speaker sample rate
	resampled := beep.Resample(4, format.SampleRate, d.sampleRate, streamer)
	d.ctrl = &beep.Ctrl{Streamer: resampled, Paused: false}
	speaker.Play(d.ctrl)
	return nil
}

// Halt stops and releases the current voice, if any.
func (d *Device) Halt() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.haltLocked()
}

// haltLocked must be called with d.mu held.
func (d *Device) haltLocked() {
	if d.ctrl != nil {
		speaker.Lock()
		d.ctrl.Paused = true
		d.ctrl.Streamer = nil
		speaker.Unlock()
	}
	speaker.Clear()
	if d.streamer != nil {
		_ = d.streamer.Close()
		d.streamer = nil
	}
	d.ctrl = nil
}

// Close halts playback and shuts the speaker down.
func (d *Device) Close() {
	d.Halt()
	speaker.Close()
}
