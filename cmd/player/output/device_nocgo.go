//go:build !((linux && cgo) || windows || darwin)

package output

import "fmt"

// Available indicates whether audio playback is supported in this build.
// Audio requires CGO for native sound libraries.
const Available = false

// Device is never usable in builds without cgo; run with --mute instead.
type Device struct{}

// Open always fails when cgo is disabled.
func Open() (*Device, error) {
	return nil, fmt.Errorf("%w: built without cgo (use --mute)", ErrAudioUnavailable)
}

func (d *Device) Start(name string, data []byte) error { return ErrAudioUnavailable }
func (d *Device) Halt()                                {}
func (d *Device) Close()                               {}
