package claude

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/toolbridge/toolbridge/internal/log"
)

// Watch reports external edits to the config file until ctx is done. The
// file is owned by the external client, so the store only observes: on every
// change the cached path is dropped and onChange is invoked.
func (s *Store) Watch(ctx context.Context, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	path := s.Path()

	// watch the directory; editors replace files and break file watches
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name != path {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				log.Debugf("config file changed: %s %s\n", event.Op, event.Name)
				s.Invalidate()
				if onChange != nil {
					onChange()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Errorf("config watch error: %v\n", err)
			}
		}
	}()

	return nil
}
