package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/shotwatch/internal/dbus"
	"github.com/jmylchreest/shotwatch/internal/match"
	"github.com/jmylchreest/shotwatch/internal/model"
)

func plainStyles() matchStyles {
	return matchStyles{hit: lipgloss.NewStyle(), miss: lipgloss.NewStyle(), detail: lipgloss.NewStyle()}
}

func TestReportMatches(t *testing.T) {
	var buf bytes.Buffer

	all := reportMatches(&buf, match.Default(), []string{
		"/x/Screenshot 10.11.12.png",
		"/x/notes",
	}, plainStyles())
	assert.False(t, all)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "yes /x/Screenshot 10.11.12.png (ext: png)", lines[0])
	assert.Equal(t, "no  /x/notes (ext: -)", lines[1])

	buf.Reset()
	assert.True(t, reportMatches(&buf, match.Default(), []string{"/x/01.02.03.png"}, plainStyles()))
}

func TestGenerateStatus(t *testing.T) {
	st := generateStatus(dbus.Status{State: "hidden", Root: "/home/u/Desktop", Mode: "native", Count: 3})
	assert.Equal(t, WaybarStatus{
		Text:    "3",
		Alt:     "hidden",
		Tooltip: "Watching /home/u/Desktop (native)\n3 screenshots",
		Class:   "hidden",
	}, st)

	st = generateStatus(dbus.Status{State: "headless", Root: "/"})
	assert.Empty(t, st.Text)
	assert.Equal(t, "Watching /\nNo screenshots yet", st.Tooltip)

	st = generateStatus(dbus.Status{State: "absent", Root: "/nope", Mode: dbus.ModeDisabled})
	assert.Equal(t, "Cannot watch /nope\nNo screenshots yet", st.Tooltip)

	assert.Equal(t, "stopped", stoppedStatus().Class)
}

func TestCaptureFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "01.02.03.png")
	require.NoError(t, os.WriteFile(path, []byte("png"), 0644))
	mtime := time.Unix(1_700_000_000, 0)
	require.NoError(t, os.Chtimes(path, mtime, mtime))

	c := captureFromPath(path, model.SourceDBus)
	assert.Equal(t, "01.02.03.png", c.Filename)
	assert.Equal(t, filepath.Dir(path), c.Dir)
	assert.Equal(t, model.SourceDBus, c.Source)
	assert.Equal(t, mtime.Unix(), c.DetectedAt)

	missing := captureFromPath("/nonexistent/01.02.03.png", model.SourceDBus)
	assert.Zero(t, missing.DetectedAt)
}

func TestCaptureFromRecent(t *testing.T) {
	c := captureFromRecent(dbus.RecentCapture{
		Path:       "/home/u/Desktop/01.02.03.png",
		DetectedAt: 1_700_000_123,
		Source:     model.SourcePoll,
	})
	assert.Equal(t, "01.02.03.png", c.Filename)
	assert.Equal(t, "/home/u/Desktop", c.Dir)
	assert.Equal(t, model.SourcePoll, c.Source)
	assert.Equal(t, int64(1_700_000_123), c.DetectedAt)

	assert.Equal(t, model.SourceDBus, captureFromRecent(dbus.RecentCapture{Path: "/x/a.png"}).Source)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 2, exitCode(&exitError{code: 2}))
	assert.Equal(t, 1, exitCode(assert.AnError))
}
