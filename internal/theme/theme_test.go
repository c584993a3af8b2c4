package theme

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBundled(t *testing.T) {
	css, ok := Bundled("default")
	require.True(t, ok)
	assert.Contains(t, css, "window.shotwatch-popover")
	assert.Contains(t, css, "background-color: transparent")
	assert.Contains(t, css, ".capture-row")

	_, ok = Bundled("nonexistent")
	assert.False(t, ok)

	assert.Equal(t, []string{"default", "minimal"}, BundledNames())
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "default.css"), []byte(".override {}"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mine.css"), []byte(".mine {}"), 0644))

	tests := []struct {
		name    string
		theme   string
		userDir string
		wantCSS string
		bundled bool
	}{
		{"user overrides bundled", "default", dir, ".override {}", false},
		{"user only", "mine", dir, ".mine {}", false},
		{"bundled", "minimal", dir, "", true},
		{"empty name is default", "", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			th, err := Resolve(tt.theme, tt.userDir)
			require.NoError(t, err)
			assert.Equal(t, tt.bundled, th.IsBundled())
			if tt.wantCSS != "" {
				assert.Equal(t, tt.wantCSS, th.CSS)
			}
		})
	}
}

func TestResolve_NotFound(t *testing.T) {
	_, err := Resolve("nope", t.TempDir())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = Resolve("../etc/passwd", "")
	assert.Error(t, err)

	th, err := ResolveOrDefault("nope", "")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, DefaultThemeName, th.Name)
	assert.NotEmpty(t, th.CSS)
}

func TestTheme_Reload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mine.css")
	require.NoError(t, os.WriteFile(path, []byte(".a {}"), 0644))

	th, err := Resolve("mine", dir)
	require.NoError(t, err)

	changed, err := th.Reload()
	require.NoError(t, err)
	assert.False(t, changed)

	require.NoError(t, os.WriteFile(path, []byte(".b {}"), 0644))
	future := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, future, future))

	changed, err = th.Reload()
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, ".b {}", th.CSS)

	bundled, err := Resolve("default", "")
	require.NoError(t, err)
	changed, err = bundled.Reload()
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "minimal.css"), []byte(""), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "zebra.css"), []byte(""), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte(""), 0644))

	infos, err := List(dir)
	require.NoError(t, err)
	require.Len(t, infos, 3)

	assert.Equal(t, Info{Name: "default", Bundled: true}, infos[0])
	assert.Equal(t, "minimal", infos[1].Name)
	assert.False(t, infos[1].Bundled)
	assert.Equal(t, "zebra", infos[2].Name)

	infos, err = List(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Len(t, infos, 2)
}

func TestWatcher_ReportsChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mine.css")
	require.NoError(t, os.WriteFile(path, []byte(".a {}"), 0644))

	th, err := Resolve("mine", dir)
	require.NoError(t, err)

	var mu sync.Mutex
	var got []string
	w := NewWatcher(th, nil)
	w.SetPollInterval(10 * time.Millisecond)
	w.SetChangeCallback(func(css string) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, css)
	})
	w.Start(context.Background())
	defer w.Stop()
	require.True(t, w.IsRunning())

	require.NoError(t, os.WriteFile(path, []byte(".b {}"), 0644))
	future := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, future, future))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1 && got[0] == ".b {}"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWatcher_IgnoresBundled(t *testing.T) {
	th, err := Resolve("default", "")
	require.NoError(t, err)

	w := NewWatcher(th, nil)
	w.Start(context.Background())
	assert.False(t, w.IsRunning())
	w.Stop()
}
