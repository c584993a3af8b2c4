package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRule_Matches(t *testing.T) {
	tests := []struct {
		name string
		path string
		want bool
	}{
		{"timestamped screenshot", "/x/Screenshot 01.02.03.png", true},
		{"bare timestamp", "/x/01.02.03.png", true},
		{"macos style", "/Users/u/Desktop/Screenshot 2024-05-01 at 14.22.09.png", true},
		{"nested directory", "/x/a/b/c/12.34.56.png", true},
		{"uppercase extension", "/x/image.PNG", false},
		{"uppercase timestamp extension", "/x/01.02.03.PNG", false},
		{"wrong extension", "/x/01.02.03.jpg", false},
		{"wrong digit count", "/x/01.02.3.png", false},
		{"no timestamp", "/x/image.png", false},
		{"no extension", "/x/01.02.03", false},
		{"directory", "/x/01.02.03.png/", false},
		{"empty", "", false},
		{"root", "/", false},
		{"dot", ".", false},
		{"relative", "01.02.03.png", true},
		{"timestamp not at end", "/x/01.02.03.png.bak", false},
		{"letters in timestamp", "/x/aa.bb.cc.png", false},
		{"non-ascii digits", "/x/١٢.٣٤.٥٦.png", false},
	}

	rule := Default()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rule.Matches(tt.path))
		})
	}
}

func TestNewCandidate(t *testing.T) {
	tests := []struct {
		path string
		want Candidate
	}{
		{"/x/Screenshot 01.02.03.png", Candidate{Path: "/x/Screenshot 01.02.03.png", Extension: "png", Filename: "Screenshot 01.02.03.png"}},
		{"/x/noext", Candidate{Path: "/x/noext", Extension: "", Filename: "noext"}},
		{"/x/dir/", Candidate{Path: "/x/dir/", Extension: "", Filename: ""}},
		{"", Candidate{Path: "", Extension: "", Filename: ""}},
		{"/", Candidate{Path: "/", Extension: "", Filename: ""}},
		{"/x/archive.tar.gz", Candidate{Path: "/x/archive.tar.gz", Extension: "gz", Filename: "archive.tar.gz"}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, NewCandidate(tt.path))
		})
	}
}

func TestNewRule(t *testing.T) {
	rule, err := NewRule([]string{"png", "jpg"}, `^shot-\d+\.(png|jpg)$`)
	require.NoError(t, err)

	assert.True(t, rule.Matches("/tmp/shot-1.png"))
	assert.True(t, rule.Matches("/tmp/shot-22.jpg"))
	assert.False(t, rule.Matches("/tmp/shot-22.gif"))
	assert.False(t, rule.Matches("/tmp/other-1.png"))
	assert.Equal(t, []string{"png", "jpg"}, rule.Extensions())
	assert.Equal(t, `^shot-\d+\.(png|jpg)$`, rule.Pattern())
}

func TestNewRule_Errors(t *testing.T) {
	_, err := NewRule(nil, DefaultPattern)
	assert.ErrorIs(t, err, ErrNoExtensions)

	_, err = NewRule([]string{".png"}, DefaultPattern)
	assert.ErrorIs(t, err, ErrBadExtension)

	_, err = NewRule([]string{"png"}, "")
	assert.ErrorIs(t, err, ErrEmptyPattern)

	_, err = NewRule([]string{"png"}, `(unclosed`)
	assert.Error(t, err)
}

func TestRule_ExtensionsIsCopy(t *testing.T) {
	exts := Default().Extensions()
	exts[0] = "gif"
	assert.Equal(t, []string{"png"}, Default().Extensions())
}
