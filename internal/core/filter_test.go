package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/shotwatch/internal/model"
)

func capture(path, source string, age time.Duration) model.Capture {
	c, _ := model.NewCapture(path, source)
	c.DetectedAt = time.Now().Add(-age).Unix()
	return *c
}

func testCaptures() []model.Capture {
	return []model.Capture{
		capture("/home/u/Desktop/Screenshot 10.00.01.png", model.SourceNative, time.Minute),
		capture("/home/u/Pictures/shots/12.30.45.png", model.SourcePoll, 2*time.Hour),
		capture("/home/u/Desktop/Screenshot 08.15.00.png", model.SourceNative, 3*24*time.Hour),
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"0", 0, false},
		{"", 0, false},
		{"48h", 48 * time.Hour, false},
		{"7d", 7 * 24 * time.Hour, false},
		{"1w", 7 * 24 * time.Hour, false},
		{"30m", 30 * time.Minute, false},
		{"xd", 0, true},
		{"abc", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDuration(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFilter_Since(t *testing.T) {
	got := Filter(testCaptures(), FilterOptions{Since: 24 * time.Hour})
	require.Len(t, got, 2)
	assert.Equal(t, "Screenshot 10.00.01.png", got[0].Filename)
	assert.Equal(t, "12.30.45.png", got[1].Filename)
}

func TestFilter_Limit(t *testing.T) {
	got := Filter(testCaptures(), FilterOptions{Limit: 1})
	require.Len(t, got, 1)
	assert.Equal(t, "Screenshot 10.00.01.png", got[0].Filename)

	assert.Len(t, Filter(testCaptures(), FilterOptions{}), 3)
}

func TestParseFilter(t *testing.T) {
	expr, err := ParseFilter("filename~screenshot, dir!=/tmp")
	require.NoError(t, err)
	require.Len(t, expr.Conditions, 2)
	assert.Equal(t, "filename", expr.Conditions[0].Field)
	assert.Equal(t, FilterOpContains, expr.Conditions[0].Operator)
	assert.Equal(t, "screenshot", expr.Conditions[0].Value)
	assert.Equal(t, FilterOpNotEqual, expr.Conditions[1].Operator)

	empty, err := ParseFilter("")
	require.NoError(t, err)
	assert.Empty(t, empty.Conditions)
}

func TestParseFilter_Errors(t *testing.T) {
	for _, in := range []string{
		"filename",
		"colour=red",
		"path~=(unclosed",
		"time=1h",
		"time>soon",
	} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseFilter(in)
			assert.Error(t, err)
		})
	}
}

func TestFilterWithExpr(t *testing.T) {
	tests := []struct {
		expr string
		want []string
	}{
		{"filename~SCREENSHOT", []string{"Screenshot 10.00.01.png", "Screenshot 08.15.00.png"}},
		{"dir=/home/u/Pictures/shots", []string{"12.30.45.png"}},
		{"source=poll", []string{"12.30.45.png"}},
		{`path~=^/home/u/Desktop/.*10\.00`, []string{"Screenshot 10.00.01.png"}},
		{"time>1d", []string{"Screenshot 10.00.01.png", "12.30.45.png"}},
		{"time<1d", []string{"Screenshot 08.15.00.png"}},
		{"filename~screenshot,time>1h", []string{"Screenshot 10.00.01.png"}},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			expr, err := ParseFilter(tt.expr)
			require.NoError(t, err)

			var names []string
			for _, c := range FilterWithExpr(testCaptures(), expr) {
				names = append(names, c.Filename)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestFilterWithExpr_Nil(t *testing.T) {
	assert.Len(t, FilterWithExpr(testCaptures(), nil), 3)
}
