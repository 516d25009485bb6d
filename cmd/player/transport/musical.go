package transport

import (
	"fmt"
	"math"
	"time"
)

const defaultBeatsPerBar = 4

// BarBeat converts an elapsed position into a 1-based bar and beat-in-bar.
// Without a tempo (bpm <= 0) the result is always bar 1, beat 1.
func BarBeat(position time.Duration, bpm float64, beatsPerBar int) (bar, beat uint32) {
	if bpm <= 0 {
		return 1, 1
	}
	if beatsPerBar <= 0 {
		beatsPerBar = defaultBeatsPerBar
	}
	if position < 0 {
		position = 0
	}

	beats := position.Seconds() * bpm / 60
	perBar := float64(beatsPerBar)
	bar = uint32(math.Floor(beats/perBar)) + 1
	beat = uint32(math.Floor(math.Mod(beats, perBar))) + 1
	return bar, beat
}

// FormatClock renders a position as mm:ss.d
func FormatClock(position time.Duration) string {
	if position < 0 {
		position = 0
	}
	secs := int(position.Seconds())
	tenths := int(position.Seconds()*10) % 10
	return fmt.Sprintf("%02d:%02d.%01d", secs/60, secs%60, tenths)
}
