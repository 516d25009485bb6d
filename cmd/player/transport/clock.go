// Package transport implements the playback clock: play/stop/loop state, wall-clock
// anchored position, and the per-tick status publishing.
//
// Position is derived from the time Play was issued, never from the audio engine's
// own cursor. Scheduling jitter or a slow audio start can therefore make the displayed
// position drift slightly from what is audible; that is accepted.
package transport

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gigurra/cornwall-player/cmd/player/project"
	"github.com/gigurra/cornwall-player/cmd/player/status"
)

// Output is the audio engine. Start must release any previous voice before
// starting a new one from the beginning of data.
type Output interface {
	Start(name string, data []byte) error
	Halt()
}

// Meter answers instantaneous levels for a position.
type Meter interface {
	Lookup(position time.Duration) (left, right float64)
}

// Publisher receives a snapshot every playing tick and is cleared on stop.
type Publisher interface {
	Publish(s status.Snapshot)
	Clear()
}

// Source is the single pre-rendered file being played.
type Source struct {
	Path     string
	Data     []byte
	Duration time.Duration
}

// Options configure a Clock.
type Options struct {
	Looping bool
	// Now defaults to time.Now.
	Now func() time.Time
	// OnFinish is called when a non-looping play reaches the end of the source.
	OnFinish func()
}

// Clock owns all mutable playback state. It is not safe for concurrent use;
// the transport loop is its only caller.
type Clock struct {
	source      Source
	project     project.Project
	beatsPerBar int

	output    Output
	meter     Meter
	publisher Publisher

	now      func() time.Time
	onFinish func()

	playing   bool
	looping   bool
	position  time.Duration
	offset    time.Duration
	startedAt time.Time
	levelL    float64
	levelR    float64
}

// New creates a stopped Clock.
func New(src Source, proj project.Project, out Output, m Meter, pub Publisher, opts Options) *Clock {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Clock{
		source:      src,
		project:     proj,
		beatsPerBar: proj.BeatsPerBar(),
		output:      out,
		meter:       m,
		publisher:   pub,
		now:         now,
		onFinish:    opts.OnFinish,
		looping:     opts.Looping,
	}
}

// Play (re)starts playback from the beginning. Calling it while playing restarts.
// If the output refuses to start, the clock is left stopped.
func (c *Clock) Play() error {
	if err := c.output.Start(c.source.Path, c.source.Data); err != nil {
		c.reset()
		return fmt.Errorf("failed to start audio output: %w", err)
	}
	c.playing = true
	c.offset = 0
	c.position = 0
	c.startedAt = c.now()
	slog.Debug("playback started", "file", c.source.Path)
	return nil
}

// Stop halts playback, zeroes position and levels, and clears the published status.
func (c *Clock) Stop() {
	c.output.Halt()
	c.reset()
	c.publisher.Clear()
}

func (c *Clock) reset() {
	c.playing = false
	c.position = 0
	c.startedAt = time.Time{}
	c.levelL = 0
	c.levelR = 0
}

// TogglePlay stops when playing, plays otherwise.
func (c *Clock) TogglePlay() error {
	if c.playing {
		c.Stop()
		return nil
	}
	return c.Play()
}

// Tick advances the derived position. At the end of the source it either restarts
// (looping) or stops; otherwise it refreshes the levels and publishes a snapshot.
func (c *Clock) Tick() error {
	if !c.playing {
		return nil
	}

	c.position = c.offset + c.now().Sub(c.startedAt)
	if c.position >= c.source.Duration {
		if c.looping {
			slog.Debug("looping back to start")
			if err := c.Play(); err != nil {
				c.Stop()
				return err
			}
			return nil
		}
		slog.Debug("reached end of source")
		c.Stop()
		if c.onFinish != nil {
			c.onFinish()
		}
		return nil
	}

	c.levelL, c.levelR = c.meter.Lookup(c.position)
	c.publisher.Publish(c.Snapshot())
	return nil
}

// SetLooping sets whether reaching the end restarts playback.
func (c *Clock) SetLooping(looping bool) {
	c.looping = looping
}

// ToggleLoop flips looping and returns the new value.
func (c *Clock) ToggleLoop() bool {
	c.looping = !c.looping
	return c.looping
}

func (c *Clock) Playing() bool {
	return c.playing
}

func (c *Clock) Looping() bool {
	return c.looping
}

func (c *Clock) Position() time.Duration {
	return c.position
}

func (c *Clock) Duration() time.Duration {
	return c.source.Duration
}

func (c *Clock) Project() project.Project {
	return c.project
}

func (c *Clock) SourcePath() string {
	return c.source.Path
}

// Levels returns the most recent left/right meter reading.
func (c *Clock) Levels() (left, right float64) {
	return c.levelL, c.levelR
}

// Progress returns position/duration clamped to [0,1].
func (c *Clock) Progress() float64 {
	if c.source.Duration <= 0 {
		return 0
	}
	return min(1, max(0, float64(c.position)/float64(c.source.Duration)))
}

// BarBeat returns the musical position of the current playback position.
func (c *Clock) BarBeat() (bar, beat uint32) {
	return BarBeat(c.position, c.project.BPM, c.beatsPerBar)
}

// Snapshot captures the current transport state for publishing.
func (c *Clock) Snapshot() status.Snapshot {
	bar, beat := c.BarBeat()
	return status.Snapshot{
		Playing:     c.playing,
		PositionSec: c.position.Seconds(),
		Bar:         bar,
		Beat:        beat,
		BPM:         c.project.BPM,
		TimeSig:     c.project.TimeSig,
		LevelL:      c.levelL,
		LevelR:      c.levelR,
		File:        c.source.Path,
	}
}
