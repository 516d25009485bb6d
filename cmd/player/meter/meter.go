// Package meter decodes audio files and precomputes chunked RMS loudness so the
// transport view can read left/right levels for any position in constant time.
package meter

import (
	"fmt"
	"math"
	"time"
)

const DefaultChunkMs = 50

// Levels holds one RMS value per chunk and channel, normalized to [0,1].
// Right duplicates Left for mono sources.
type Levels struct {
	Left  []float64
	Right []float64
	Chunk time.Duration
}

// Normalize scales a raw PCM sample into [-1,1] based on its source bit depth.
func Normalize(sample, bitDepth int) float64 {
	if bitDepth <= 16 {
		return float64(sample) / 32768.0
	}
	return float64(sample) / 2147483648.0
}

// Build computes the chunked RMS levels of w. A chunkMs <= 0 falls back to DefaultChunkMs.
func Build(w *Waveform, chunkMs int) (*Levels, error) {
	if w == nil || w.Channels < 1 || w.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: need at least one channel and a positive sample rate", ErrInvalidWaveform)
	}
	if chunkMs <= 0 {
		chunkMs = DefaultChunkMs
	}

	chunkSamples := max(1, w.SampleRate*chunkMs/1000)
	channels := w.Channels
	frames := w.Frames()
	chunks := (frames + chunkSamples - 1) / chunkSamples

	levels := &Levels{
		Left:  make([]float64, 0, chunks),
		Right: make([]float64, 0, chunks),
		Chunk: time.Duration(chunkMs) * time.Millisecond,
	}

	for start := 0; start < frames; start += chunkSamples {
		end := min(start+chunkSamples, frames)
		var sumL, sumR float64
		for f := start; f < end; f++ {
			l := Normalize(w.Data[f*channels], w.BitDepth)
			r := l
			if channels > 1 {
				r = Normalize(w.Data[f*channels+1], w.BitDepth)
			}
			sumL += l * l
			sumR += r * r
		}
		count := float64(end - start)
		levels.Left = append(levels.Left, math.Sqrt(sumL/count))
		levels.Right = append(levels.Right, math.Sqrt(sumR/count))
	}

	return levels, nil
}

// Len returns the number of chunks.
func (l *Levels) Len() int {
	return len(l.Left)
}

// Span returns the total time covered by the precomputed chunks.
func (l *Levels) Span() time.Duration {
	return time.Duration(l.Len()) * l.Chunk
}

// Lookup returns the levels of the chunk containing position, or (0,0) outside the metered range.
func (l *Levels) Lookup(position time.Duration) (left, right float64) {
	if l == nil || l.Chunk <= 0 || position < 0 {
		return 0, 0
	}
	idx := int(position / l.Chunk)
	if idx >= len(l.Left) || idx >= len(l.Right) {
		return 0, 0
	}
	return l.Left[idx], l.Right[idx]
}
