package notes

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

const watchDebounce = 100 * time.Millisecond

// Watch reloads the store whenever a note file in the folder is created,
// changed, removed or renamed by another program, then calls onChange.
// Bursts of events are coalesced. It returns once the watcher is running;
// the watcher stops when ctx is done.
func (s *Store) Watch(ctx context.Context, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(s.dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", s.dir, err)
	}

	go func() {
		defer watcher.Close()

		timer := time.NewTimer(watchDebounce)
		timer.Stop()
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if isNoteEvent(event) {
					timer.Reset(watchDebounce)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("Notes: watcher error: %v", err)
			case <-timer.C:
				if err := s.LoadAll(); err != nil {
					log.Printf("Notes: reload failed: %v", err)
					continue
				}
				if onChange != nil {
					onChange()
				}
			}
		}
	}()

	log.Printf("Notes: watching %s", s.dir)
	return nil
}

func isNoteEvent(event fsnotify.Event) bool {
	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, tempFilePrefix) || filepath.Ext(name) != Ext {
		return false
	}
	return event.Has(fsnotify.Create) || event.Has(fsnotify.Write) ||
		event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
}
