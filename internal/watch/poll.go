package watch

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"time"
)

// startPollLocked switches to the polling backend and records the files
// that already exist so they are not reported. Caller must hold the lock.
func (w *Watcher) startPollLocked() {
	w.backend = ModePoll
	w.watched = make(map[string]struct{})

	files, err := scanTree(w.root)
	if err != nil {
		w.logger.Warn("initial scan incomplete", "root", w.root, "error", err)
	}
	w.snapshot = make(map[string]struct{}, len(files))
	for _, f := range files {
		w.snapshot[f] = struct{}{}
	}
}

// SetPollInterval sets the polling interval. It takes effect on the next
// Start.
func (w *Watcher) SetPollInterval(interval time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if interval > 0 {
		w.pollInterval = interval
	}
}

// pollLoop is the main polling loop.
func (w *Watcher) pollLoop(ctx context.Context, stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	w.mu.RLock()
	interval := w.pollInterval
	w.mu.RUnlock()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-ticker.C:
			w.checkForChanges()
		}
	}
}

// checkForChanges scans the tree and delivers files that were not present
// in the previous scan, in walk order.
func (w *Watcher) checkForChanges() {
	w.mu.RLock()
	root := w.root
	previous := w.snapshot
	w.mu.RUnlock()

	files, err := scanTree(root)
	if err != nil {
		w.fault(&DeliveryFault{Path: root, Cause: err})
		if len(files) == 0 {
			// Keep the old snapshot so a transient failure does not make
			// every file look new on the next scan.
			return
		}
	}

	current := make(map[string]struct{}, len(files))
	var created []string
	for _, f := range files {
		current[f] = struct{}{}
		if _, seen := previous[f]; !seen {
			created = append(created, f)
		}
	}

	w.mu.Lock()
	w.snapshot = current
	w.mu.Unlock()

	for _, path := range created {
		w.created.Add(1)
		w.deliver(path)
	}
}

// scanTree lists regular files below root in lexical walk order.
// Unreadable subdirectories are skipped; the first such error is returned
// alongside the files that could be listed.
func scanTree(root string) ([]string, error) {
	var files []string
	var errs []error

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			errs = append(errs, err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if walkErr != nil {
		return files, walkErr
	}
	if len(errs) > 0 {
		return files, errors.Join(errs...)
	}
	return files, nil
}
