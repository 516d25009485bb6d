// Package status publishes the player's transport state to a well-known file in the
// state directory, and reads it back for other processes.
//
// The file is a best-effort broadcast: the player overwrites it every tick while
// playing and removes it when stopping or exiting. Readers treat a missing file as
// "no player active" and must tolerate a stale read.
package status

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/shirou/gopsutil/v3/process"
)

const FileName = ".player.json"

// Snapshot is the published transport state at one tick.
type Snapshot struct {
	Playing     bool    `json:"playing"`
	PositionSec float64 `json:"position_secs"`
	Bar         uint32  `json:"bar"`
	Beat        uint32  `json:"beat"`
	BPM         float64 `json:"bpm"`
	TimeSig     string  `json:"time_sig"`
	LevelL      float64 `json:"level_l"`
	LevelR      float64 `json:"level_r"`
	File        string  `json:"file"`

	// Set by the publisher; omitted from the zero snapshot.
	PID      int    `json:"pid,omitempty"`
	Instance string `json:"instance,omitempty"`
}

// Path returns the status file location inside stateDir.
func Path(stateDir string) string {
	return filepath.Join(stateDir, FileName)
}

// Publisher writes snapshots for one player process.
type Publisher struct {
	path     string
	pid      int
	instance string
}

// NewPublisher creates a publisher for stateDir, stamping snapshots with this process id
// and a fresh instance id.
func NewPublisher(stateDir string) *Publisher {
	return &Publisher{
		path:     Path(stateDir),
		pid:      os.Getpid(),
		instance: uuid.New().String(),
	}
}

// Instance returns the id stamped on every published snapshot.
func (p *Publisher) Instance() string {
	return p.instance
}

// Publish overwrites the status file. Failures are dropped: publishing must never
// interrupt playback.
func (p *Publisher) Publish(s Snapshot) {
	s.PID = p.pid
	s.Instance = p.instance
	data, err := json.Marshal(s)
	if err != nil {
		slog.Debug("failed to encode status", "error", err)
		return
	}
	if err := atomicWrite(p.path, data); err != nil {
		slog.Debug("failed to publish status", "path", p.path, "error", err)
	}
}

// Clear removes the status file, signalling that no player is active.
func (p *Publisher) Clear() {
	if err := os.Remove(p.path); err != nil && !os.IsNotExist(err) {
		slog.Debug("failed to clear status", "path", p.path, "error", err)
	}
}

// atomicWrite replaces path through a temp file in the same directory so readers
// never see a partial snapshot. The temp file is removed on any failure.
func atomicWrite(path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp.*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Query returns the status file verbatim, or the encoded zero Snapshot when no player
// has published one.
func Query(stateDir string) []byte {
	data, err := os.ReadFile(Path(stateDir))
	if err == nil {
		return data
	}
	zero, _ := json.Marshal(Snapshot{})
	return zero
}

// Read parses the status file. The boolean is false when the file is absent, unreadable,
// or was left behind by a player process that no longer exists.
func Read(stateDir string) (Snapshot, bool) {
	data, err := os.ReadFile(Path(stateDir))
	if err != nil {
		return Snapshot{}, false
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		slog.Debug("unreadable status file", "error", err)
		return Snapshot{}, false
	}
	if !s.Alive() {
		slog.Debug("status file is stale", "pid", s.PID)
		return Snapshot{}, false
	}
	return s, true
}

// Alive reports whether the publishing process still exists. Snapshots without a pid
// (older players) are assumed alive.
func (s Snapshot) Alive() bool {
	if s.PID <= 0 {
		return true
	}
	exists, err := process.PidExists(int32(s.PID))
	if err != nil {
		return true
	}
	return exists
}
