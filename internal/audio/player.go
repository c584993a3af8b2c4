package audio

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"

	"github.com/jmylchreest/shotwatch/internal/notify"
)

// ErrUnsupportedFormat is returned for files that are not WAV, OGG or MP3.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// decoder decodes an audio stream.
type decoder func(r io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error)

// decoderFor picks a decoder from the file extension.
func decoderFor(path string) (decoder, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".wav":
		return func(r io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error) { return wav.Decode(r) }, nil
	case ".ogg", ".oga":
		return vorbis.Decode, nil
	case ".mp3":
		return mp3.Decode, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// Player plays one configured sound per capture.
type Player struct {
	mu     sync.Mutex
	logger *slog.Logger

	enabled bool
	volume  int // 0-100
	path    string

	// Decoded sound, reloaded when path or its mtime changes
	buffer  *beep.Buffer
	loaded  string
	modTime time.Time

	speakerRate beep.SampleRate
	initialized bool
}

// NewPlayer creates a disabled player.
func NewPlayer(logger *slog.Logger) *Player {
	if logger == nil {
		logger = slog.Default()
	}
	return &Player{
		logger: logger,
		volume: 100,
	}
}

// Configure updates the player settings. A volume outside 0-100 is clamped.
func (p *Player) Configure(enabled bool, volume int, path string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.enabled = enabled && path != ""
	p.volume = min(max(volume, 0), 100)
	p.path = path
	p.logger.Debug("audio configured", "enabled", p.enabled, "volume", p.volume, "sound", path)
}

// Enabled reports whether captures make a sound.
func (p *Player) Enabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enabled
}

// OnCapture is a notify.Listener that plays the sound off the caller's
// goroutine.
func (p *Player) OnCapture(notify.Event) {
	if !p.Enabled() {
		return
	}
	go func() {
		if err := p.Play(); err != nil {
			p.logger.Warn("failed to play capture sound", "error", err)
		}
	}()
}

// Play plays the configured sound once.
func (p *Player) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.enabled {
		return nil
	}

	if err := p.loadLocked(); err != nil {
		return err
	}

	var streamer beep.Streamer = p.buffer.Streamer(0, p.buffer.Len())
	if rate := p.buffer.Format().SampleRate; rate != p.speakerRate {
		streamer = beep.Resample(4, rate, p.speakerRate, streamer)
	}
	if p.volume < 100 {
		v := float64(p.volume) / 100
		streamer = &effects.Volume{
			Streamer: streamer,
			Base:     10,
			Volume:   volumeToDecibels(v) / 20,
			Silent:   p.volume == 0,
		}
	}

	speaker.Play(streamer)
	return nil
}

// loadLocked decodes the sound if it is not cached or changed on disk.
func (p *Player) loadLocked() error {
	info, err := os.Stat(p.path)
	if err != nil {
		return fmt.Errorf("failed to stat sound file: %w", err)
	}
	if p.buffer != nil && p.loaded == p.path && !info.ModTime().After(p.modTime) {
		return nil
	}

	decode, err := decoderFor(p.path)
	if err != nil {
		return err
	}

	f, err := os.Open(p.path)
	if err != nil {
		return fmt.Errorf("failed to open sound file: %w", err)
	}

	streamer, format, err := decode(f)
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to decode sound: %w", err)
	}
	defer func() { _ = streamer.Close() }()

	if err := p.initSpeakerLocked(format.SampleRate); err != nil {
		return err
	}

	buffer := beep.NewBuffer(format)
	buffer.Append(streamer)

	p.buffer = buffer
	p.loaded = p.path
	p.modTime = info.ModTime()
	p.logger.Debug("loaded capture sound", "path", p.path, "sample_rate", format.SampleRate)
	return nil
}

// initSpeakerLocked initializes the speaker once, at the first sound's rate.
func (p *Player) initSpeakerLocked(rate beep.SampleRate) error {
	if p.initialized {
		return nil
	}
	if err := speaker.Init(rate, rate.N(100*time.Millisecond)); err != nil {
		return fmt.Errorf("failed to initialize speaker: %w", err)
	}
	p.speakerRate = rate
	p.initialized = true
	return nil
}

// Close stops playback and releases the audio device.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.initialized {
		speaker.Close()
		p.initialized = false
	}
	p.buffer = nil
}

// volumeToDecibels converts a linear volume (0-1) to decibels.
func volumeToDecibels(volume float64) float64 {
	if volume <= 0 {
		return -100
	}
	return 20 * math.Log10(volume)
}
