// Package project reads the Cornwall project and track metadata kept in the state directory.
package project

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

const (
	ProjectFile = "project.json"
	TracksFile  = "tracks.json"
	MixFile     = "mix.wav"

	defaultBeatsPerBar = 4
)

var ErrNoAudioSource = errors.New("no audio file found: pass a WAV file as argument or create a mix first")

// Project mirrors state/project.json.
type Project struct {
	Name       string  `json:"name"`
	BPM        float64 `json:"bpm"`
	SampleRate uint32  `json:"sample_rate"`
	TimeSig    string  `json:"time_sig"`
}

// Track mirrors one entry of state/tracks.json.
type Track struct {
	ID     uint32  `json:"id"`
	Name   string  `json:"name"`
	Type   string  `json:"type"`
	Source *string `json:"source"`
	Volume float64 `json:"volume"`
	Pan    float64 `json:"pan"`
	Mute   bool    `json:"mute"`
	Solo   bool    `json:"solo"`
}

// BeatsPerBar returns the time signature numerator, or 4 if it can't be parsed.
func (p Project) BeatsPerBar() int {
	num, _, _ := strings.Cut(p.TimeSig, "/")
	n, err := strconv.Atoi(strings.TrimSpace(num))
	if err != nil || n <= 0 {
		return defaultBeatsPerBar
	}
	return n
}

// HasTempo reports whether the project defines a usable tempo.
func (p Project) HasTempo() bool {
	return p.BPM > 0
}

// SourceName returns the base name of the track source, or "(empty)".
func (t Track) SourceName() string {
	if t.Source == nil || *t.Source == "" {
		return "(empty)"
	}
	return filepath.Base(*t.Source)
}

// LoadProject reads project.json from stateDir. Missing or malformed files yield the zero Project.
func LoadProject(stateDir string) Project {
	var p Project
	if !readJSON(filepath.Join(stateDir, ProjectFile), &p) {
		return Project{}
	}
	return p
}

// LoadTracks reads tracks.json from stateDir. Missing or malformed files yield an empty list.
func LoadTracks(stateDir string) []Track {
	var tracks []Track
	if !readJSON(filepath.Join(stateDir, TracksFile), &tracks) {
		return []Track{}
	}
	if tracks == nil {
		return []Track{}
	}
	return tracks
}

func readJSON(path string, v any) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Debug("failed to read metadata, using defaults", "path", path, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		slog.Debug("malformed metadata, using defaults", "path", path, "error", err)
		return false
	}
	return true
}

// ResolveAudioSource picks the file to play: the explicit path if given, else the
// rendered mix of the current project, else the first track source that exists.
func ResolveAudioSource(stateDir, explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", err
		}
		return explicit, nil
	}

	p := LoadProject(stateDir)
	mix := filepath.Join(filepath.Dir(stateDir), "projects", p.Name, MixFile)
	if fileExists(mix) {
		return mix, nil
	}

	sources := lo.FilterMap(LoadTracks(stateDir), func(t Track, _ int) (string, bool) {
		if t.Source == nil || *t.Source == "" {
			return "", false
		}
		return *t.Source, true
	})
	found, ok := lo.Find(sources, fileExists)
	if !ok {
		return "", ErrNoAudioSource
	}
	return found, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
