package storyplay

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	intaudio "github.com/cbegin/storyplay-go/internal/audio"
	intfx "github.com/cbegin/storyplay-go/internal/effects"
	"github.com/cbegin/storyplay-go/internal/score"
	intseq "github.com/cbegin/storyplay-go/internal/sequencer"
	"github.com/cbegin/storyplay-go/internal/synth"
)

// Scheduler turns the note pattern into sound. The note list is computed once
// at construction; each Begin hands all of it to a fresh sample-clock
// sequencer in one pass.
type Scheduler struct {
	mu         sync.Mutex
	device     intaudio.Device
	sampleRate int
	pattern    score.Pattern
	events     []score.NoteEvent
	masterGain float64
	volume     float64
	leadIn     time.Duration
	ambience   float32
	logger     *log.Logger
	live       *Handle
	warned     bool
}

func NewScheduler(opts ...Option) (*Scheduler, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return newScheduler(cfg)
}

func newScheduler(cfg config) (*Scheduler, error) {
	if cfg.sampleRate <= 0 {
		return nil, errors.New("sampleRate must be positive")
	}
	if err := cfg.pattern.Validate(); err != nil {
		return nil, err
	}
	if cfg.masterGain < 0 {
		return nil, fmt.Errorf("master gain %v must not be negative", cfg.masterGain)
	}
	if cfg.leadIn < 0 {
		cfg.leadIn = 0
	}
	device := cfg.device
	if !cfg.deviceSet {
		device = intaudio.NewEbitenDevice(cfg.sampleRate)
	}
	return &Scheduler{
		device:     device,
		sampleRate: cfg.sampleRate,
		pattern:    cfg.pattern,
		events:     cfg.pattern.Events(),
		masterGain: cfg.masterGain,
		volume:     clampVolume(cfg.volume),
		leadIn:     cfg.leadIn,
		ambience:   cfg.ambience,
		logger:     cfg.logger,
	}, nil
}

// Events returns the note sequence every session plays.
func (s *Scheduler) Events() []score.NoteEvent {
	out := make([]score.NoteEvent, len(s.events))
	copy(out, s.events)
	return out
}

// Begin starts a new accompaniment session whose reference instant is the
// lead-in point on the audio clock. It never fails: without a usable device
// the returned handle is silent and releasing it does nothing.
//
// Callers own the handle and must release it before beginning another.
func (s *Scheduler) Begin() *Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := &Handle{done: make(chan struct{}), logger: s.logger}
	if s.device == nil {
		s.warnLocked("no audio device; playing without sound")
		h.finish()
		return h
	}

	params := synth.DefaultParams()
	params.MasterGain = s.masterGain * s.volume
	engine := synth.New(s.sampleRate, params)

	tail := 0
	if s.ambience > 0 {
		tail = s.sampleRate * 3 / 2
	}
	seq := intseq.NewWithOptions(s.events, engine, s.sampleRate, intseq.Options{
		LeadIn:            s.leadIn,
		ReleaseTailFrames: tail,
		OnEvent: func(kind intseq.EventKind) {
			if kind == intseq.EventPlaybackEnded {
				h.finish()
			}
		},
	})
	src := &session{seq: seq}
	if s.ambience > 0 {
		beatMs := float64(s.pattern.Beat()) / float64(time.Millisecond)
		src.fx = intfx.Ambience(s.sampleRate, beatMs, s.ambience)
	}

	out, err := s.device.Open(src)
	if err != nil {
		s.warnLocked(fmt.Sprintf("audio unavailable: %v", err))
		h.finish()
		return h
	}
	if err := out.Play(); err != nil {
		s.warnLocked(fmt.Sprintf("audio unavailable: %v", err))
		seq.Silence()
		if cerr := out.Close(); cerr != nil {
			s.logger.Printf("warning: closing audio output: %v", cerr)
		}
		h.finish()
		return h
	}
	h.out = out
	h.seq = seq
	h.engine = engine
	s.live = h
	return h
}

// SetMasterVolume sets the runtime volume scalar. 1.0 is default. It applies
// to the live session immediately and to every later one.
func (s *Scheduler) SetMasterVolume(volume float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volume = clampVolume(volume)
	if s.live != nil && s.live.Live() {
		s.live.engine.SetMasterGain(s.masterGain * s.volume)
	}
}

func (s *Scheduler) MasterVolume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

func (s *Scheduler) warnLocked(msg string) {
	if s.warned {
		return
	}
	s.warned = true
	s.logger.Printf("warning: %s", msg)
}

func clampVolume(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

// session is the sample source of one Begin: the sequencer plus the optional
// ambience chain.
type session struct {
	seq *intseq.Sequencer
	fx  *intfx.Chain
}

func (s *session) Process(dst []float32) {
	s.seq.Process(dst)
	if s.fx != nil && !s.seq.Silenced() {
		s.fx.ProcessBuffer(dst)
	}
}

func (s *session) Finished() bool { return s.seq.Finished() }

// Handle is the live sound resource of one session.
type Handle struct {
	releaseOnce sync.Once
	doneOnce    sync.Once
	released    atomic.Bool
	done        chan struct{}
	out         intaudio.Output
	seq         *intseq.Sequencer
	engine      *synth.Engine
	logger      *log.Logger
}

// Release silences the session immediately and frees the output. It is safe
// on a nil handle and on repeated calls.
func (h *Handle) Release() {
	if h == nil {
		return
	}
	h.releaseOnce.Do(func() {
		h.released.Store(true)
		if h.seq != nil {
			h.seq.Silence()
		}
		if h.out != nil {
			if err := h.out.Close(); err != nil {
				h.logger.Printf("warning: closing audio output: %v", err)
			}
		}
		h.finish()
	})
}

// Live reports whether the handle still owns a sound-producing output.
func (h *Handle) Live() bool {
	return h != nil && h.out != nil && !h.released.Load()
}

// Silent reports whether the session was created without sound.
func (h *Handle) Silent() bool {
	return h == nil || h.out == nil
}

// Position is the audio clock time since the reference instant.
func (h *Handle) Position() time.Duration {
	if h == nil || h.seq == nil {
		return 0
	}
	return h.seq.Position()
}

// Done is closed once the scheduled notes have played out or the handle was
// released.
func (h *Handle) Done() <-chan struct{} {
	if h == nil {
		return closedDone
	}
	return h.done
}

var closedDone = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

func (h *Handle) finish() {
	h.doneOnce.Do(func() { close(h.done) })
}
