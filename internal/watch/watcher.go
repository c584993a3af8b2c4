package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/fsnotify/fsnotify"

	"github.com/jmylchreest/shotwatch/internal/match"
	"github.com/jmylchreest/shotwatch/internal/notify"
)

// Mode selects the event backend.
type Mode string

const (
	// ModeAuto uses native events and falls back to polling when the
	// native backend cannot be set up.
	ModeAuto Mode = "auto"
	// ModeNative uses native events only.
	ModeNative Mode = "native"
	// ModePoll scans the tree at a fixed interval.
	ModePoll Mode = "poll"
)

// ValidModes returns all valid mode values.
func ValidModes() []Mode {
	return []Mode{ModeAuto, ModeNative, ModePoll}
}

// DefaultPollInterval is the polling fallback interval.
const DefaultPollInterval = 1 * time.Second

// seenTTL is how long a path found by scanning a new directory suppresses
// a native create event for the same path.
const seenTTL = 2 * time.Second

// Options configures a Watcher.
type Options struct {
	Root         string
	Mode         Mode
	PollInterval time.Duration
}

// Stats counts what the watcher has seen since Start.
type Stats struct {
	Created  uint64 // create events (or new files found by polling)
	Matched  uint64 // paths that satisfied the rule
	Emitted  uint64 // successful sink deliveries
	Dropped  uint64 // sink deliveries that failed
	Faults   uint64 // delivery faults
	Watching int    // directories with a native watch
}

// Watcher reports qualifying files created under a root directory.
type Watcher struct {
	mu     sync.RWMutex
	logger *slog.Logger

	rule *match.Rule
	sink notify.Sink

	root         string
	mode         Mode
	backend      Mode
	pollInterval time.Duration

	// Native backend
	fsw     *fsnotify.Watcher
	watched map[string]struct{}

	// Poll backend: files seen in the previous scan
	snapshot map[string]struct{}

	// Native backend: paths delivered by a new-directory scan
	seenMu sync.Mutex
	seen   map[string]time.Time
	now    func() time.Time

	// Control channels
	stopCh chan struct{}
	doneCh chan struct{}

	running bool

	created atomic.Uint64
	matched atomic.Uint64
	emitted atomic.Uint64
	dropped atomic.Uint64
	faults  atomic.Uint64
}

// New creates a Watcher. A nil rule uses match.Default().
func New(opts Options, rule *match.Rule, sink notify.Sink, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	if rule == nil {
		rule = match.Default()
	}
	if opts.Mode == "" {
		opts.Mode = ModeAuto
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}

	return &Watcher{
		logger:       logger,
		rule:         rule,
		sink:         sink,
		root:         opts.Root,
		mode:         opts.Mode,
		pollInterval: opts.PollInterval,
		watched:      make(map[string]struct{}),
		snapshot:     make(map[string]struct{}),
		seen:         make(map[string]time.Time),
		now:          time.Now,
	}
}

// Root returns the watched directory.
func (w *Watcher) Root() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.root
}

// Backend returns the backend in use: ModeNative or ModePoll once
// started, empty before.
func (w *Watcher) Backend() Mode {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.backend
}

// IsRunning returns whether the watcher is currently running.
func (w *Watcher) IsRunning() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

// Stats returns a snapshot of the counters.
func (w *Watcher) Stats() Stats {
	w.mu.RLock()
	watching := len(w.watched)
	w.mu.RUnlock()

	return Stats{
		Created:  w.created.Load(),
		Matched:  w.matched.Load(),
		Emitted:  w.emitted.Load(),
		Dropped:  w.dropped.Load(),
		Faults:   w.faults.Load(),
		Watching: watching,
	}
}

// Start validates the root and begins delivering events. An unwatchable
// root returns a *SetupError wrapping ErrSetupFailed.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return ErrAlreadyRunning
	}
	if w.sink == nil {
		return &SetupError{Root: w.root, Cause: errors.New("no sink configured")}
	}

	root, err := checkRoot(w.root)
	if err != nil {
		return err
	}
	w.root = root

	switch w.mode {
	case ModePoll:
		w.startPollLocked()
	case ModeNative:
		if err := w.startNativeLocked(); err != nil {
			return &SetupError{Root: w.root, Cause: err}
		}
	default:
		if err := w.startNativeLocked(); err != nil {
			w.logger.Warn("native file events unavailable, polling instead",
				"root", w.root, "interval", w.pollInterval, "error", err)
			w.startPollLocked()
		}
	}

	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})

	if w.backend == ModeNative {
		go w.nativeLoop(ctx, w.fsw, w.stopCh, w.doneCh)
	} else {
		go w.pollLoop(ctx, w.stopCh, w.doneCh)
	}

	w.logger.Info("screenshot watcher started",
		"root", w.root,
		"backend", w.backend,
		"rule", w.rule.String(),
	)
	return nil
}

// Stop ends the watch and releases the OS subscription.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	close(w.stopCh)
	fsw := w.fsw
	w.fsw = nil
	doneCh := w.doneCh
	w.mu.Unlock()

	var err error
	if fsw != nil {
		err = fsw.Close()
	}

	// Wait for goroutine to finish
	<-doneCh
	w.logger.Debug("screenshot watcher stopped")
	return err
}

// checkRoot resolves root to an absolute, readable directory.
func checkRoot(root string) (string, error) {
	if root == "" {
		return "", &SetupError{Root: root, Cause: errors.New("empty root")}
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return "", &SetupError{Root: root, Cause: err}
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", &SetupError{Root: abs, Cause: err}
	}
	if !info.IsDir() {
		return "", &SetupError{Root: abs, Cause: errNotDirectory}
	}

	// Listing proves we can read it.
	f, err := os.Open(abs)
	if err != nil {
		return "", &SetupError{Root: abs, Cause: err}
	}
	defer func() { _ = f.Close() }()
	if _, err := f.ReadDir(1); err != nil && !errors.Is(err, io.EOF) {
		return "", &SetupError{Root: abs, Cause: err}
	}

	return abs, nil
}

// startNativeLocked creates the fsnotify watcher and adds the tree.
// Caller must hold the lock.
func (w *Watcher) startNativeLocked() error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	if err := fsw.Add(w.root); err != nil {
		_ = fsw.Close()
		return fmt.Errorf("failed to watch root: %w", err)
	}

	w.fsw = fsw
	w.backend = ModeNative
	w.watched = map[string]struct{}{w.root: {}}
	w.addTreeLocked(w.root)
	return nil
}

// addTreeLocked adds native watches for every directory below dir.
// Subdirectories that cannot be watched are skipped. Caller must hold
// the lock.
func (w *Watcher) addTreeLocked(dir string) {
	skipped := 0
	var firstErr error

	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			skipped++
			if firstErr == nil {
				firstErr = err
			}
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if _, ok := w.watched[path]; ok {
			return nil
		}
		if err := w.fsw.Add(path); err != nil {
			skipped++
			if firstErr == nil {
				firstErr = err
			}
			return fs.SkipDir
		}
		w.watched[path] = struct{}{}
		return nil
	})

	if skipped > 0 {
		w.logger.Warn("some directories could not be watched",
			"dir", dir, "skipped", skipped, "first_error", firstErr)
	}
}

// nativeLoop drains fsnotify until stopped.
func (w *Watcher) nativeLoop(ctx context.Context, fsw *fsnotify.Watcher, stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.fault(&DeliveryFault{Cause: err})
		}
	}
}

// handleEvent processes one native event.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) {
		return
	}
	w.created.Add(1)

	// New directories join the recursive watch. Files written before
	// the watch was added only show up by scanning.
	if info, err := os.Lstat(event.Name); err == nil && info.IsDir() {
		w.mu.Lock()
		if w.fsw != nil {
			w.addTreeLocked(event.Name)
		}
		w.mu.Unlock()
		w.scanNewDir(event.Name)
		return
	}

	if w.seenRecently(event.Name, false) {
		w.logger.Debug("create event already delivered by directory scan", "path", event.Name)
		return
	}
	w.deliver(event.Name)
}

// scanNewDir delivers the regular files already inside a newly created
// directory tree.
func (w *Watcher) scanNewDir(dir string) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() && path != dir {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if w.seenRecently(path, true) {
			return nil
		}
		w.created.Add(1)
		w.deliver(path)
		return nil
	})
}

// seenRecently reports whether path was delivered by a scan within
// seenTTL. With remember set, an unseen path is recorded.
func (w *Watcher) seenRecently(path string, remember bool) bool {
	w.seenMu.Lock()
	defer w.seenMu.Unlock()

	now := w.now()
	for p, at := range w.seen {
		if now.Sub(at) > seenTTL {
			delete(w.seen, p)
		}
	}

	if _, ok := w.seen[path]; ok {
		return true
	}
	if remember {
		w.seen[path] = now
	}
	return false
}

// deliver checks one created path and emits it if it qualifies.
func (w *Watcher) deliver(path string) {
	if !utf8.ValidString(path) {
		w.fault(&DeliveryFault{Path: path, Cause: errInvalidPath})
		return
	}

	if !w.rule.Matches(path) {
		w.logger.Debug("ignoring created file", "path", path)
		return
	}
	w.matched.Add(1)

	if err := w.sink.Emit(notify.TopicScreenshotCreated, path); err != nil {
		w.dropped.Add(1)
		w.logger.Warn("failed to emit screenshot event", "path", path, "error", err)
		return
	}

	w.emitted.Add(1)
	w.logger.Info("screenshot detected", "path", path)
}

// fault logs a delivery fault; the watch continues.
func (w *Watcher) fault(err *DeliveryFault) {
	w.faults.Add(1)
	w.logger.Warn("file watcher error", "error", err)
}
