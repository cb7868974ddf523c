package ml

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const reloadDebounce = 200 * time.Millisecond

// WatchArtifact reloads the service whenever the artifact file is rewritten.
// Retraining always produces a whole new blob behind a rename, so a
// successful reload swaps the artifact atomically under in-flight requests.
// The watcher stops when ctx is cancelled.
func (s *InferenceService) WatchArtifact(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	// Watch the directory: trainers replace the file via rename, which would
	// detach a watch on the file itself.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		var pending <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(path) {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				// Writers emit several events per save; debounce them.
				pending = time.After(reloadDebounce)
			case <-pending:
				pending = nil
				if err := s.Load(path); err != nil {
					s.log.Warn("artifact reload failed", zap.Error(err))
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.log.Warn("artifact watcher error", zap.Error(err))
			}
		}
	}()
	return nil
}
