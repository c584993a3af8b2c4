package theme

import (
	"embed"
	"io/fs"
	"path"
	"sort"
	"strings"
)

//go:embed themes/*.css
var bundled embed.FS

// DefaultThemeName is the name of the built-in default theme.
const DefaultThemeName = "default"

// Bundled returns the CSS of a bundled theme.
func Bundled(name string) (string, bool) {
	data, err := bundled.ReadFile(path.Join("themes", name+".css"))
	if err != nil {
		return "", false
	}
	return string(data), true
}

// BundledNames returns the names of all bundled themes, sorted.
func BundledNames() []string {
	entries, err := fs.ReadDir(bundled, "themes")
	if err != nil {
		return []string{DefaultThemeName}
	}

	var names []string
	for _, entry := range entries {
		if name, ok := strings.CutSuffix(entry.Name(), ".css"); ok && !entry.IsDir() {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
