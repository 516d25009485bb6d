package status

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Follow calls fn with the current status and again every time the status file is
// written, replaced or removed, until ctx is done. active is false when no player is
// publishing.
func Follow(ctx context.Context, stateDir string, fn func(s Snapshot, active bool)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Watch the directory: the file comes and goes, and is replaced by rename.
	if err := watcher.Add(stateDir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", stateDir, err)
	}

	target := filepath.Clean(Path(stateDir))
	fn(Read(stateDir))

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				fn(Read(stateDir))
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch error: %w", err)
		}
	}
}
