package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/shotwatch/internal/notify"
)

// recordingSink captures every Emit call.
type recordingSink struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (s *recordingSink) Emit(topic, payload string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if topic != notify.TopicScreenshotCreated {
		panic("unexpected topic " + topic)
	}
	s.calls = append(s.calls, payload)
	return s.err
}

func (s *recordingSink) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.calls))
	copy(out, s.calls)
	return out
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("png"), 0644))
}

func createEvent(path string) fsnotify.Event {
	return fsnotify.Event{Name: path, Op: fsnotify.Create}
}

func TestStart_MissingRoot(t *testing.T) {
	w := New(Options{Root: filepath.Join(t.TempDir(), "missing")}, nil, &recordingSink{}, nil)

	err := w.Start(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSetupFailed)
	assert.ErrorIs(t, err, os.ErrNotExist)

	var setupErr *SetupError
	require.ErrorAs(t, err, &setupErr)
	assert.Contains(t, setupErr.Root, "missing")
	assert.False(t, w.IsRunning())
}

func TestStart_RootIsFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	writeFile(t, file)

	w := New(Options{Root: file, Mode: ModePoll}, nil, &recordingSink{}, nil)
	err := w.Start(context.Background())
	assert.ErrorIs(t, err, ErrSetupFailed)
}

func TestStart_EmptyRoot(t *testing.T) {
	w := New(Options{}, nil, &recordingSink{}, nil)
	assert.ErrorIs(t, w.Start(context.Background()), ErrSetupFailed)
}

func TestStart_NoSink(t *testing.T) {
	w := New(Options{Root: t.TempDir()}, nil, nil, nil)
	assert.ErrorIs(t, w.Start(context.Background()), ErrSetupFailed)
}

func TestStart_Twice(t *testing.T) {
	w := New(Options{Root: t.TempDir(), Mode: ModePoll}, nil, &recordingSink{}, nil)
	require.NoError(t, w.Start(context.Background()))
	defer func() { _ = w.Stop() }()

	assert.ErrorIs(t, w.Start(context.Background()), ErrAlreadyRunning)
}

func TestHandleEvent_NonMatchingNeverEmits(t *testing.T) {
	sink := &recordingSink{}
	w := New(Options{Root: "/x"}, nil, sink, nil)

	for _, p := range []string{"/x/image.PNG", "/x/01.02.03.jpg", "/x/01.02.3.png", "/x/notes.txt"} {
		w.handleEvent(createEvent(p))
	}

	assert.Empty(t, sink.Calls())
	stats := w.Stats()
	assert.Equal(t, uint64(4), stats.Created)
	assert.Equal(t, uint64(0), stats.Matched)
}

func TestHandleEvent_MatchingEmitsOnce(t *testing.T) {
	sink := &recordingSink{}
	w := New(Options{Root: "/x"}, nil, sink, nil)

	w.handleEvent(createEvent("/x/Screenshot 01.02.03.png"))

	assert.Equal(t, []string{"/x/Screenshot 01.02.03.png"}, sink.Calls())
	assert.Equal(t, uint64(1), w.Stats().Emitted)
}

func TestHandleEvent_IgnoresOtherOps(t *testing.T) {
	sink := &recordingSink{}
	w := New(Options{Root: "/x"}, nil, sink, nil)

	for _, op := range []fsnotify.Op{fsnotify.Write, fsnotify.Remove, fsnotify.Rename, fsnotify.Chmod} {
		w.handleEvent(fsnotify.Event{Name: "/x/01.02.03.png", Op: op})
	}

	assert.Empty(t, sink.Calls())
	assert.Equal(t, uint64(0), w.Stats().Created)
}

func TestHandleEvent_PreservesOrder(t *testing.T) {
	sink := &recordingSink{}
	w := New(Options{Root: "/x"}, nil, sink, nil)

	paths := []string{"/x/03.00.00.png", "/x/01.00.00.png", "/x/02.00.00.png"}
	for _, p := range paths {
		w.handleEvent(createEvent(p))
	}

	assert.Equal(t, paths, sink.Calls())
}

func TestHandleEvent_InvalidPathIsAFault(t *testing.T) {
	sink := &recordingSink{}
	w := New(Options{Root: "/x"}, nil, sink, nil)

	w.handleEvent(createEvent("/x/\xff\xfe 01.02.03.png"))
	w.handleEvent(createEvent("/x/01.02.03.png"))

	assert.Equal(t, []string{"/x/01.02.03.png"}, sink.Calls())
	assert.Equal(t, uint64(1), w.Stats().Faults)
}

func TestHandleEvent_SinkErrorIsContained(t *testing.T) {
	sink := &recordingSink{err: notify.NoListener(notify.TopicScreenshotCreated, "")}
	w := New(Options{Root: "/x"}, nil, sink, nil)

	w.handleEvent(createEvent("/x/01.02.03.png"))
	w.handleEvent(createEvent("/x/04.05.06.png"))

	assert.Len(t, sink.Calls(), 2)
	stats := w.Stats()
	assert.Equal(t, uint64(2), stats.Dropped)
	assert.Equal(t, uint64(0), stats.Emitted)
}

func TestDeliveryFault_Error(t *testing.T) {
	err := &DeliveryFault{Path: "/x/a", Cause: errInvalidPath}
	assert.ErrorIs(t, err, ErrDeliveryFault)
	assert.ErrorIs(t, err, errInvalidPath)
	assert.Contains(t, err.Error(), "/x/a")

	backend := &DeliveryFault{Cause: os.ErrClosed}
	assert.NotContains(t, backend.Error(), `""`)
}

func TestNativeWatcher_DetectsScreenshots(t *testing.T) {
	root := t.TempDir()
	sink := &recordingSink{}
	w := New(Options{Root: root, Mode: ModeNative}, nil, sink, nil)

	require.NoError(t, w.Start(context.Background()))
	defer func() { _ = w.Stop() }()
	assert.Equal(t, ModeNative, w.Backend())

	writeFile(t, filepath.Join(root, "notes.txt"))
	shot := filepath.Join(root, "Screenshot 10.11.12.png")
	writeFile(t, shot)

	assert.Eventually(t, func() bool {
		return len(sink.Calls()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{shot}, sink.Calls())
}

func TestNativeWatcher_Recursive(t *testing.T) {
	root := t.TempDir()
	existing := filepath.Join(root, "existing")
	require.NoError(t, os.Mkdir(existing, 0755))

	sink := &recordingSink{}
	w := New(Options{Root: root, Mode: ModeNative}, nil, sink, nil)
	require.NoError(t, w.Start(context.Background()))
	defer func() { _ = w.Stop() }()
	assert.Equal(t, 2, w.Stats().Watching)

	// Directories created after start join the watch.
	later := filepath.Join(root, "later")
	require.NoError(t, os.Mkdir(later, 0755))
	assert.Eventually(t, func() bool {
		return w.Stats().Watching == 3
	}, 2*time.Second, 10*time.Millisecond)

	a := filepath.Join(existing, "01.01.01.png")
	b := filepath.Join(later, "02.02.02.png")
	writeFile(t, a)
	writeFile(t, b)

	assert.Eventually(t, func() bool {
		return len(sink.Calls()) == 2
	}, 2*time.Second, 10*time.Millisecond)
	assert.ElementsMatch(t, []string{a, b}, sink.Calls())
}

func TestHandleEvent_NewDirectoryDeliversExistingFiles(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "2024", "05")
	require.NoError(t, os.MkdirAll(dir, 0755))
	shot := filepath.Join(dir, "Screenshot 10.11.12.png")
	writeFile(t, shot)
	writeFile(t, filepath.Join(dir, "notes.txt"))

	sink := &recordingSink{}
	w := New(Options{Root: root}, nil, sink, nil)
	now := time.Unix(1000, 0)
	w.now = func() time.Time { return now }

	w.handleEvent(createEvent(filepath.Join(root, "2024")))
	assert.Equal(t, []string{shot}, sink.Calls())

	// The create event for the same file arrives after the scan.
	w.handleEvent(createEvent(shot))
	assert.Equal(t, []string{shot}, sink.Calls())

	// A later re-creation is a new capture.
	now = now.Add(seenTTL + time.Second)
	w.handleEvent(createEvent(shot))
	assert.Equal(t, []string{shot, shot}, sink.Calls())
}

func TestNativeWatcher_FilesInFreshDirectories(t *testing.T) {
	root := t.TempDir()
	sink := &recordingSink{}
	w := New(Options{Root: root, Mode: ModeNative}, nil, sink, nil)
	require.NoError(t, w.Start(context.Background()))
	defer func() { _ = w.Stop() }()

	var want []string
	for i := range 20 {
		dir := filepath.Join(root, "d", fmt.Sprintf("x%02d", i))
		require.NoError(t, os.MkdirAll(dir, 0755))
		shot := filepath.Join(dir, "01.02.03.png")
		writeFile(t, shot)
		want = append(want, shot)
	}

	assert.Eventually(t, func() bool {
		return len(sink.Calls()) >= len(want)
	}, 5*time.Second, 10*time.Millisecond)

	// Late create events must not produce duplicates.
	time.Sleep(200 * time.Millisecond)
	assert.ElementsMatch(t, want, sink.Calls())
}

func TestPollWatcher_DetectsNewFilesOnly(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "00.00.00.png"))

	sink := &recordingSink{}
	w := New(Options{Root: root, Mode: ModePoll, PollInterval: 20 * time.Millisecond}, nil, sink, nil)
	require.NoError(t, w.Start(context.Background()))
	defer func() { _ = w.Stop() }()
	assert.Equal(t, ModePoll, w.Backend())

	sub := filepath.Join(root, "sub")
	require.NoError(t, os.Mkdir(sub, 0755))
	shot := filepath.Join(sub, "Screenshot 01.02.03.png")
	writeFile(t, shot)
	writeFile(t, filepath.Join(root, "image.PNG"))

	assert.Eventually(t, func() bool {
		return len(sink.Calls()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	// Later scans must not report it again.
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, []string{shot}, sink.Calls())
}

func TestPollWatcher_CheckForChanges(t *testing.T) {
	root := t.TempDir()
	sink := &recordingSink{}
	w := New(Options{Root: root, Mode: ModePoll}, nil, sink, nil)
	w.startPollLocked()

	writeFile(t, filepath.Join(root, "02.00.00.png"))
	writeFile(t, filepath.Join(root, "01.00.00.png"))
	w.checkForChanges()

	// Walk order is lexical.
	assert.Equal(t, []string{
		filepath.Join(root, "01.00.00.png"),
		filepath.Join(root, "02.00.00.png"),
	}, sink.Calls())

	w.checkForChanges()
	assert.Len(t, sink.Calls(), 2)
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	w := New(Options{Root: t.TempDir()}, nil, &recordingSink{}, nil)
	require.NoError(t, w.Start(context.Background()))
	assert.True(t, w.IsRunning())

	require.NoError(t, w.Stop())
	assert.False(t, w.IsRunning())
	assert.NoError(t, w.Stop())
}

func TestWatcher_ContextCancelEndsLoop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	w := New(Options{Root: t.TempDir(), Mode: ModePoll, PollInterval: 10 * time.Millisecond}, nil, &recordingSink{}, nil)
	require.NoError(t, w.Start(ctx))

	cancel()
	// Stop must still return once the loop has exited on its own.
	done := make(chan struct{})
	go func() {
		_ = w.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return after context cancellation")
	}
}
