package common

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// LogPath returns the path of the player log file (~/.cornwall/player.log).
func LogPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "player.log")
}

// SetupFileLogging points slog at logPath, since the terminal belongs to the UI
// while the player runs. If the file can't be opened, logs are discarded.
// The returned func closes the file.
func SetupFileLogging(logPath string, verbose bool) func() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	var out io.Writer = io.Discard
	closeFn := func() {}

	if logPath != "" {
		if err := os.MkdirAll(filepath.Dir(logPath), 0755); err == nil {
			logFile, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
			if err == nil {
				out = logFile
				closeFn = func() { _ = logFile.Close() }
			}
		}
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})))
	return closeFn
}

// SetupStderrLogging configures slog for non-interactive commands.
func SetupStderrLogging(verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
