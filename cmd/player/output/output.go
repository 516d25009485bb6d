// Package output plays the decoded source through the system audio device.
package output

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/wav"
)

var ErrAudioUnavailable = errors.New("audio output unavailable")

// Silent accepts every command and produces no sound. Used with --mute.
type Silent struct{}

func (Silent) Start(name string, data []byte) error { return nil }
func (Silent) Halt()                                {}
func (Silent) Close()                               {}

// Decode opens data as a beep stream. MP3 is picked by extension, everything else is WAV.
func Decode(name string, data []byte) (beep.StreamSeekCloser, beep.Format, error) {
	reader := nopCloser{bytes.NewReader(data)}
	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
		err      error
	)
	if strings.HasSuffix(strings.ToLower(name), ".mp3") {
		streamer, format, err = mp3.Decode(reader)
	} else {
		streamer, format, err = wav.Decode(reader)
	}
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("cannot decode audio %s: %w", name, err)
	}
	return streamer, format, nil
}

// Validate decodes name once with the playback decoder and releases the stream.
func Validate(name string, data []byte) error {
	streamer, _, err := Decode(name, data)
	if err != nil {
		return err
	}
	return streamer.Close()
}

// nopCloser wraps a bytes.Reader to implement io.ReadCloser.
type nopCloser struct {
	*bytes.Reader
}

func (nopCloser) Close() error { return nil }
