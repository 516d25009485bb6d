package common

import (
	"os"
	"path/filepath"
)

const (
	StateDirName    = "state"
	projectFileName = "project.json"
)

// ConfigDir returns the player's config directory (~/.cornwall).
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".cornwall")
}

// FindStateDir walks up from start looking for a state/ directory holding a
// project.json. Falls back to the relative "state".
func FindStateDir(start string) string {
	dir, err := filepath.Abs(start)
	if err != nil {
		return StateDirName
	}
	for {
		candidate := filepath.Join(dir, StateDirName)
		if _, err := os.Stat(filepath.Join(candidate, projectFileName)); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return StateDirName
}

// ResolveStateDir returns explicit when set, else searches from the working directory.
func ResolveStateDir(explicit string) string {
	if explicit != "" {
		return explicit
	}
	cwd, err := os.Getwd()
	if err != nil {
		return StateDirName
	}
	return FindStateDir(cwd)
}
