package theme

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ErrNotFound means neither the user directory nor the bundle has the theme.
var ErrNotFound = errors.New("theme not found")

// Theme is a resolved CSS theme.
type Theme struct {
	Name    string    // Theme name (without .css extension)
	Path    string    // File path; empty for bundled themes
	CSS     string    // The CSS content
	ModTime time.Time // Last modification time of Path
}

// IsBundled reports whether the theme came from the embedded bundle.
func (t *Theme) IsBundled() bool {
	return t.Path == ""
}

// Resolve finds a theme by name. A file <userDir>/<name>.css wins over a
// bundled theme of the same name. An empty name means the default theme.
func Resolve(name, userDir string) (*Theme, error) {
	if name == "" {
		name = DefaultThemeName
	}
	if strings.ContainsAny(name, `/\`) {
		return nil, fmt.Errorf("invalid theme name %q", name)
	}

	if userDir != "" {
		p := filepath.Join(userDir, name+".css")
		t, err := load(name, p)
		if err == nil {
			return t, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load theme %q: %w", name, err)
		}
	}

	if css, ok := Bundled(name); ok {
		return &Theme{Name: name, CSS: css}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
}

// ResolveOrDefault is Resolve that falls back to the bundled default theme.
// The returned error, if any, explains why the fallback was used.
func ResolveOrDefault(name, userDir string) (*Theme, error) {
	t, err := Resolve(name, userDir)
	if err == nil {
		return t, nil
	}
	css, _ := Bundled(DefaultThemeName)
	return &Theme{Name: DefaultThemeName, CSS: css}, err
}

func load(name, path string) (*Theme, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	css, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &Theme{
		Name:    name,
		Path:    path,
		CSS:     string(css),
		ModTime: info.ModTime(),
	}, nil
}

// Reload rereads a user theme whose file changed since the last load.
// Returns true if the CSS changed. Bundled themes never change.
func (t *Theme) Reload() (bool, error) {
	if t.IsBundled() {
		return false, nil
	}

	info, err := os.Stat(t.Path)
	if err != nil {
		return false, err
	}
	if !info.ModTime().After(t.ModTime) {
		return false, nil
	}

	css, err := os.ReadFile(t.Path)
	if err != nil {
		return false, err
	}

	changed := string(css) != t.CSS
	t.CSS = string(css)
	t.ModTime = info.ModTime()
	return changed, nil
}

// Info describes an available theme.
type Info struct {
	Name    string `json:"name" yaml:"name"`
	Path    string `json:"path,omitempty" yaml:"path,omitempty"`
	Bundled bool   `json:"bundled" yaml:"bundled"`
}

// List returns bundled and user themes. A user theme that overrides a
// bundled one is listed once, with its path.
func List(userDir string) ([]Info, error) {
	byName := make(map[string]Info)
	for _, name := range BundledNames() {
		byName[name] = Info{Name: name, Bundled: true}
	}

	if userDir != "" {
		entries, err := os.ReadDir(userDir)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		for _, entry := range entries {
			name, ok := strings.CutSuffix(entry.Name(), ".css")
			if !ok || entry.IsDir() {
				continue
			}
			byName[name] = Info{Name: name, Path: filepath.Join(userDir, entry.Name())}
		}
	}

	infos := make([]Info, 0, len(byName))
	for _, info := range byName {
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}
