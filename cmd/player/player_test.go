package player

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/gigurra/cornwall-player/cmd/player/project"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func writeWAV(t *testing.T, path string, sampleRate, frames int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, 2, 1)
	data := make([]int, frames*2)
	for i := range data {
		data[i] = 8192
	}
	if err := enc.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 2, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder: %v", err)
	}
}

func TestLoadSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mix.wav")
	writeWAV(t, path, 8000, 16000)

	src, levels, err := loadSource(path, 50)
	if err != nil {
		t.Fatalf("loadSource returned error: %v", err)
	}
	if src.Path != path || len(src.Data) == 0 {
		t.Errorf("unexpected source: path=%q bytes=%d", src.Path, len(src.Data))
	}
	if src.Duration != 2*time.Second {
		t.Errorf("Duration = %v, want 2s", src.Duration)
	}
	if levels.Len() != 40 {
		t.Errorf("expected 40 chunks, got %d", levels.Len())
	}
}

func TestLoadSource_Errors(t *testing.T) {
	dir := t.TempDir()

	if _, _, err := loadSource(filepath.Join(dir, "missing.wav"), 50); err == nil {
		t.Errorf("expected error for missing file")
	}

	garbage := filepath.Join(dir, "garbage.wav")
	if err := os.WriteFile(garbage, []byte("RIFF but not really"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, _, err := loadSource(garbage, 50); err == nil {
		t.Errorf("expected error for undecodable file")
	}
}

func TestRun_LogsBeforeLoadingMetadata(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	home := t.TempDir()
	t.Setenv("HOME", home)

	stateDir := filepath.Join(t.TempDir(), "state")
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(stateDir, project.ProjectFile), []byte(`{`), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	err := Run(t.Context(), &Params{StateDir: stateDir, Verbose: true, Mute: true})
	if !errors.Is(err, project.ErrNoAudioSource) {
		t.Fatalf("expected ErrNoAudioSource, got %v", err)
	}

	logData, err := os.ReadFile(filepath.Join(home, ".cornwall", "player.log"))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(logData), "malformed metadata") {
		t.Errorf("expected metadata fallback in log, got:\n%s", logData)
	}
}

func TestQuitOnSignal_StopReleasesGoroutine(t *testing.T) {
	quit := make(chan struct{}, 1)
	stop := quitOnSignal(func() { quit <- struct{}{} }, syscall.SIGHUP)

	finished := make(chan struct{})
	go func() {
		stop()
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("stop did not return")
	}
	select {
	case <-quit:
		t.Errorf("quit should not be called without a signal")
	default:
	}
}

func TestQuitOnSignal_QuitsOnSignal(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("cannot send SIGHUP on windows")
	}

	quit := make(chan struct{}, 1)
	stop := quitOnSignal(func() { quit <- struct{}{} }, syscall.SIGHUP)
	defer stop()

	self, err := os.FindProcess(os.Getpid())
	if err != nil {
		t.Fatalf("find process: %v", err)
	}
	if err := self.Signal(syscall.SIGHUP); err != nil {
		t.Fatalf("signal: %v", err)
	}

	select {
	case <-quit:
	case <-time.After(2 * time.Second):
		t.Fatal("quit was not called after SIGHUP")
	}
}
