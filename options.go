package storyplay

import (
	"io"
	"log"
	"time"

	intaudio "github.com/cbegin/storyplay-go/internal/audio"
	"github.com/cbegin/storyplay-go/internal/clock"
	"github.com/cbegin/storyplay-go/internal/score"
)

const (
	DefaultSampleRate  = 48000
	DefaultMasterGain  = 0.08
	DefaultLeadIn      = 50 * time.Millisecond
	DefaultSettleDelay = 50 * time.Millisecond
	DefaultFrameRate   = 60
)

// Option configures a Scheduler or Controller.
type Option func(*config)

type config struct {
	device      intaudio.Device
	deviceSet   bool
	sampleRate  int
	pattern     score.Pattern
	masterGain  float64
	volume      float64
	leadIn      time.Duration
	ambience    float32
	logger      *log.Logger
	frames      clock.FrameSource
	frameRate   int
	settleDelay time.Duration
	scheduler   *Scheduler
}

func defaultConfig() config {
	return config{
		sampleRate:  DefaultSampleRate,
		pattern:     score.Lullaby(),
		masterGain:  DefaultMasterGain,
		volume:      1,
		leadIn:      DefaultLeadIn,
		logger:      log.New(io.Discard, "", 0),
		frameRate:   DefaultFrameRate,
		settleDelay: DefaultSettleDelay,
	}
}

// WithDevice sets the sound facility. A nil device means the host has none;
// playback then runs visuals-only.
func WithDevice(d intaudio.Device) Option {
	return func(cfg *config) {
		cfg.device = d
		cfg.deviceSet = true
	}
}

func WithSampleRate(rate int) Option {
	return func(cfg *config) {
		cfg.sampleRate = rate
	}
}

func WithPattern(p score.Pattern) Option {
	return func(cfg *config) {
		cfg.pattern = p
	}
}

// WithMasterGain sets the fixed output attenuation of the accompaniment.
func WithMasterGain(gain float64) Option {
	return func(cfg *config) {
		cfg.masterGain = gain
	}
}

// WithVolume sets the initial user volume scalar applied on top of the master gain.
func WithVolume(volume float64) Option {
	return func(cfg *config) {
		cfg.volume = volume
	}
}

// WithLeadIn sets how far ahead on the audio clock the reference instant is
// placed when a session begins.
func WithLeadIn(d time.Duration) Option {
	return func(cfg *config) {
		cfg.leadIn = d
	}
}

// WithAmbience mixes in echo and reverb; 0 disables, 1 is the full room.
func WithAmbience(amount float32) Option {
	return func(cfg *config) {
		cfg.ambience = amount
	}
}

func WithLogger(l *log.Logger) Option {
	return func(cfg *config) {
		if l != nil {
			cfg.logger = l
		}
	}
}

// WithFrameSource sets the refresh signal driving the presentation clock.
// Without one the controller falls back to timer frames at the frame rate.
func WithFrameSource(fs clock.FrameSource) Option {
	return func(cfg *config) {
		cfg.frames = fs
	}
}

func WithFrameRate(fps int) Option {
	return func(cfg *config) {
		cfg.frameRate = fps
	}
}

// WithSettleDelay sets the pause between tearing down a session and starting
// its replacement on Replay.
func WithSettleDelay(d time.Duration) Option {
	return func(cfg *config) {
		cfg.settleDelay = d
	}
}

// WithScheduler makes a Controller use an existing scheduler instead of
// building one from its own options.
func WithScheduler(s *Scheduler) Option {
	return func(cfg *config) {
		cfg.scheduler = s
	}
}
