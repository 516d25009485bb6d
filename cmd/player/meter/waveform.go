package meter

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
)

var ErrInvalidWaveform = errors.New("invalid waveform")

// Waveform is a decoded audio file: interleaved integer PCM plus the format needed to interpret it.
type Waveform struct {
	SampleRate int
	Channels   int
	BitDepth   int
	Data       []int
}

// Frames returns the number of multi-channel frames.
func (w *Waveform) Frames() int {
	if w.Channels < 1 {
		return 0
	}
	return len(w.Data) / w.Channels
}

// Duration returns the playback length implied by the frame count and sample rate.
func (w *Waveform) Duration() time.Duration {
	if w.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(w.Frames()) / float64(w.SampleRate) * float64(time.Second))
}

// LoadWaveform decodes the audio file at path. MP3 is detected by extension; everything else is read as WAV.
func LoadWaveform(path string) (*Waveform, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeWaveform(filepath.Base(path), data)
}

// DecodeWaveform decodes in-memory audio data. name is only used to pick the codec.
func DecodeWaveform(name string, data []byte) (*Waveform, error) {
	if strings.HasSuffix(strings.ToLower(name), ".mp3") {
		return decodeMP3(data)
	}
	return decodeWAV(data)
}

func decodeWAV(data []byte) (*Waveform, error) {
	decoder := wav.NewDecoder(bytes.NewReader(data))
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("%w: not a WAV file", ErrInvalidWaveform)
	}
	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to decode WAV: %w", err)
	}
	if buf.Format == nil || buf.Format.NumChannels < 1 || buf.Format.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: missing format", ErrInvalidWaveform)
	}

	bitDepth := int(decoder.BitDepth)
	samples := buf.Data
	if bitDepth == 8 {
		// 8-bit WAV is unsigned; recentre around zero.
		for i, s := range samples {
			samples[i] = s - 128
		}
	}

	return &Waveform{
		SampleRate: buf.Format.SampleRate,
		Channels:   buf.Format.NumChannels,
		BitDepth:   bitDepth,
		Data:       samples,
	}, nil
}

// go-mp3 always produces 16-bit little-endian stereo.
const (
	mp3Channels = 2
	mp3BitDepth = 16
)

func decodeMP3(data []byte) (*Waveform, error) {
	decoder, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode MP3: %w", err)
	}
	pcm, err := io.ReadAll(decoder)
	if err != nil {
		return nil, fmt.Errorf("failed to decode MP3: %w", err)
	}

	samples := make([]int, len(pcm)/2)
	for i := range samples {
		samples[i] = int(int16(binary.LittleEndian.Uint16(pcm[i*2:])))
	}
	// Drop a trailing partial frame.
	samples = samples[:len(samples)-len(samples)%mp3Channels]

	return &Waveform{
		SampleRate: decoder.SampleRate(),
		Channels:   mp3Channels,
		BitDepth:   mp3BitDepth,
		Data:       samples,
	}, nil
}
