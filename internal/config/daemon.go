package config

import (
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/jmylchreest/shotwatch/internal/match"
	"github.com/jmylchreest/shotwatch/internal/model"
	"github.com/jmylchreest/shotwatch/internal/popover"
	"github.com/jmylchreest/shotwatch/internal/watch"
)

// Duration is a time.Duration that can be unmarshaled from human-readable strings.
// Supports formats like "500ms", "1s", "1m" or integer milliseconds.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for TOML parsing.
func (d *Duration) UnmarshalText(text []byte) error {
	s := string(text)

	// Bare integers are milliseconds
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}

	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: must be like '500ms', '1s', '1m' or milliseconds: %w", s, err)
	}
	*d = Duration(dur)
	return nil
}

// MarshalText implements encoding.TextMarshaler for TOML output.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// DaemonConfig is the configuration for shotwatchd.
// Loaded from ~/.config/shotwatch/shotwatchd.toml
type DaemonConfig struct {
	Watch   WatchConfig   `toml:"watch" yaml:"watch"`
	Popover PopoverConfig `toml:"popover" yaml:"popover"`
	Tray    TrayConfig    `toml:"tray" yaml:"tray"`
	Notify  NotifyConfig  `toml:"notify" yaml:"notify"`
	Audio   AudioConfig   `toml:"audio" yaml:"audio"`
	Theme   ThemeConfig   `toml:"theme" yaml:"theme"`
	Log     LogConfig     `toml:"log" yaml:"log"`
}

// WatchConfig controls the screenshot watcher.
type WatchConfig struct {
	Root         string   `toml:"root" yaml:"root"`                   // Empty = resolved from HOME
	Mode         string   `toml:"mode" yaml:"mode"`                   // "auto", "native", "poll"
	PollInterval Duration `toml:"poll_interval" yaml:"poll_interval"` // Polling backend interval
	Extensions   []string `toml:"extensions" yaml:"extensions"`       // Without the leading dot
	Pattern      string   `toml:"pattern" yaml:"pattern"`             // Filename regex
}

// PopoverConfig contains popover window settings.
type PopoverConfig struct {
	Width         int    `toml:"width" yaml:"width"`
	Height        int    `toml:"height" yaml:"height"`
	Anchor        string `toml:"anchor" yaml:"anchor"`                 // "tray-bottom-center", "center", ...
	Offset        int    `toml:"offset" yaml:"offset"`                 // Gap between tray and window
	AllWorkspaces bool   `toml:"all_workspaces" yaml:"all_workspaces"` // Where the compositor supports it
	History       int    `toml:"history" yaml:"history"`               // Recent captures listed
}

// TrayConfig contains tray icon settings.
type TrayConfig struct {
	Tooltip  string `toml:"tooltip" yaml:"tooltip"`
	IconName string `toml:"icon_name" yaml:"icon_name"`
}

// NotifyConfig selects the additional capture listeners.
type NotifyConfig struct {
	Desktop    bool `toml:"desktop" yaml:"desktop"`         // freedesktop notification per capture
	DBusSignal bool `toml:"dbus_signal" yaml:"dbus_signal"` // ScreenshotCreated signal
}

// AudioConfig contains audio settings.
type AudioConfig struct {
	Enabled bool   `toml:"enabled" yaml:"enabled"`
	Volume  int    `toml:"volume" yaml:"volume"` // 0-100
	Sound   string `toml:"sound" yaml:"sound"`
}

// ThemeConfig contains theme settings.
type ThemeConfig struct {
	Name string `toml:"name" yaml:"name"` // Theme name without .css extension
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `toml:"level" yaml:"level"`
}

// ValidLogLevels returns all valid log level names.
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// DefaultDaemonConfig returns a new DaemonConfig with default values.
func DefaultDaemonConfig() *DaemonConfig {
	return &DaemonConfig{
		Watch: WatchConfig{
			Root:         "",
			Mode:         string(watch.ModeAuto),
			PollInterval: Duration(watch.DefaultPollInterval),
			Extensions:   slices.Clone(match.DefaultExtensions),
			Pattern:      match.DefaultPattern,
		},
		Popover: PopoverConfig{
			Width:         popover.DefaultWidth,
			Height:        popover.DefaultHeight,
			Anchor:        string(popover.AnchorTrayBottomCenter),
			Offset:        0,
			AllWorkspaces: true,
			History:       model.DefaultHistorySize,
		},
		Tray: TrayConfig{
			Tooltip:  "shotwatch",
			IconName: "camera-photo",
		},
		Notify: NotifyConfig{
			Desktop:    false,
			DBusSignal: true,
		},
		Audio: AudioConfig{
			Enabled: false,
			Volume:  80,
		},
		Theme: ThemeConfig{
			Name: "default",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate checks if the configuration is valid.
func (c *DaemonConfig) Validate() error {
	validMode := false
	for _, m := range watch.ValidModes() {
		if c.Watch.Mode == string(m) {
			validMode = true
			break
		}
	}
	if !validMode {
		return fmt.Errorf("invalid watch mode %q, must be one of: %v", c.Watch.Mode, watch.ValidModes())
	}

	if c.Watch.PollInterval.Duration() < 50*time.Millisecond {
		return fmt.Errorf("poll_interval must be at least 50ms, got %s", c.Watch.PollInterval.Duration())
	}

	if _, err := c.Rule(); err != nil {
		return fmt.Errorf("invalid match rule: %w", err)
	}

	if _, err := popover.ParseAnchor(c.Popover.Anchor); err != nil {
		return err
	}
	if c.Popover.Width < 100 || c.Popover.Width > 2000 {
		return fmt.Errorf("popover width must be between 100 and 2000, got %d", c.Popover.Width)
	}
	if c.Popover.Height < 100 || c.Popover.Height > 2000 {
		return fmt.Errorf("popover height must be between 100 and 2000, got %d", c.Popover.Height)
	}
	if c.Popover.Offset < 0 {
		return fmt.Errorf("popover offset cannot be negative, got %d", c.Popover.Offset)
	}
	if c.Popover.History < 1 || c.Popover.History > 100 {
		return fmt.Errorf("popover history must be between 1 and 100, got %d", c.Popover.History)
	}

	if c.Audio.Volume < 0 || c.Audio.Volume > 100 {
		return fmt.Errorf("volume must be between 0 and 100, got %d", c.Audio.Volume)
	}

	if !slices.Contains(ValidLogLevels(), strings.ToLower(c.Log.Level)) {
		return fmt.Errorf("invalid log level %q, must be one of: %v", c.Log.Level, ValidLogLevels())
	}

	return nil
}

// Rule compiles the configured match rule. The built-in rule is returned
// when the settings equal the defaults.
func (c *DaemonConfig) Rule() (*match.Rule, error) {
	if c.Watch.Pattern == match.DefaultPattern && slices.Equal(c.Watch.Extensions, match.DefaultExtensions) {
		return match.Default(), nil
	}
	return match.NewRule(c.Watch.Extensions, c.Watch.Pattern)
}

// WatchOptions returns the watcher options for this configuration.
func (c *DaemonConfig) WatchOptions() watch.Options {
	return watch.Options{
		Root:         c.WatchRoot(),
		Mode:         watch.Mode(c.Watch.Mode),
		PollInterval: c.Watch.PollInterval.Duration(),
	}
}

// WatchRoot returns the configured root, or the HOME-derived default.
func (c *DaemonConfig) WatchRoot() string {
	if c.Watch.Root != "" {
		return expandPath(c.Watch.Root)
	}
	return ResolveWatchRoot(nil)
}

// Anchor returns the parsed popover anchor. Validate has already rejected
// unknown values; anything else falls back to the default.
func (c *DaemonConfig) Anchor() popover.Anchor {
	a, err := popover.ParseAnchor(c.Popover.Anchor)
	if err != nil {
		return popover.AnchorTrayBottomCenter
	}
	return a
}

// LogLevel returns the configured slog level.
func (c *DaemonConfig) LogLevel() slog.Level {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SoundPath returns the capture sound path with ~ expanded.
func (c *DaemonConfig) SoundPath() string {
	return expandPath(c.Audio.Sound)
}
