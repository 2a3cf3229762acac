package store

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchExternalEdits watches the store's data directory for changes made
// outside the engine process (an operator hand-editing an artifact on
// disk) and reloads the affected in-memory state, debounced to coalesce
// bursts of writes from a single edit. Adapted from the filesystem
// watcher idiom used elsewhere in the pack for config/compose-file
// change detection; here it watches JSON artifacts instead.
func (s *Store) WatchExternalEdits(ctx context.Context, debounce time.Duration) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(s.dataDir); err != nil {
		watcher.Close()
		return err
	}
	if debounce <= 0 {
		debounce = 2 * time.Second
	}

	go s.watchLoop(ctx, watcher, debounce)
	return nil
}

func (s *Store) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, debounce time.Duration) {
	defer watcher.Close()

	var timer *time.Timer
	var timerCh <-chan time.Time
	pending := map[string]bool{}

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			pending[ev.Name] = true
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			timerCh = timer.C
		case <-timerCh:
			s.reloadChangedLocked(pending)
			pending = map[string]bool{}
			timerCh = nil
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			slog.WarnContext(ctx, "store: filesystem watcher error", "error", err)
		}
	}
}

func (s *Store) reloadChangedLocked(pending map[string]bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name := range pending {
		switch filepath.Base(name) {
		case configFile:
			_ = s.loadConfig()
		case quarantineFile:
			_ = s.loadQuarantine()
		case eventsFile:
			_ = s.loadEvents()
		case maintenanceFile:
			_ = s.loadMaintenance()
		}
	}
}
