package sequencer

import (
	"math"
	"sort"
	"sync/atomic"
	"time"

	"github.com/cbegin/storyplay-go/internal/score"
)

type VoiceEngine interface {
	// NoteOn starts a note lasting frames samples and returns its voice id.
	NoteOn(freqHz float64, frames int) int
	RenderFrame() (float32, float32)
	SetMasterGain(gain float64)
	// ActiveVoiceCount returns the number of voices still sounding.
	// Used to detect when playback has fully ended including decay tails.
	ActiveVoiceCount() int
	AllOff()
}

// EventKind identifies sequencer lifecycle events.
type EventKind int

const (
	EventPlaybackEnded EventKind = iota
)

type Options struct {
	LeadIn            time.Duration // audio clock delay before the reference instant
	OnEvent           func(EventKind)
	ReleaseTailFrames int // extra frames to render after last voice ends (0 = use 0.1s default)
}

type cue struct {
	frame  int64
	freqHz float64
	frames int
}

// Sequencer plays a precomputed note list against the sample clock. All cues
// are resolved to frame indices once at construction; rendering only walks
// them in order, so timing depends on the number of frames rendered and
// nothing else.
type Sequencer struct {
	engine            VoiceEngine
	sampleRate        int
	leadFrames        int64
	cues              []cue
	next              int
	rendered          atomic.Int64
	silenced          atomic.Bool
	muted             bool
	finished          atomic.Bool
	onEvent           func(EventKind)
	releaseTailFrames int
}

func New(events []score.NoteEvent, engine VoiceEngine, sampleRate int) *Sequencer {
	return NewWithOptions(events, engine, sampleRate, Options{})
}

func NewWithOptions(events []score.NoteEvent, engine VoiceEngine, sampleRate int, opts Options) *Sequencer {
	s := &Sequencer{
		engine:            engine,
		sampleRate:        sampleRate,
		leadFrames:        durationToFrames(opts.LeadIn, sampleRate),
		onEvent:           opts.OnEvent,
		releaseTailFrames: opts.ReleaseTailFrames,
	}
	if s.releaseTailFrames <= 0 {
		s.releaseTailFrames = sampleRate / 10
	}
	s.cues = make([]cue, 0, len(events))
	for _, ev := range events {
		s.cues = append(s.cues, cue{
			frame:  s.leadFrames + durationToFrames(ev.Offset, sampleRate),
			freqHz: ev.FrequencyHz,
			frames: int(durationToFrames(ev.Duration, sampleRate)),
		})
	}
	sort.SliceStable(s.cues, func(i, j int) bool { return s.cues[i].frame < s.cues[j].frame })
	return s
}

// Process renders interleaved stereo frames into dst.
func (s *Sequencer) Process(dst []float32) {
	if s.silenced.Load() {
		if !s.muted {
			s.engine.AllOff()
			s.muted = true
		}
		clear(dst)
		return
	}
	frames := len(dst) / 2
	pos := s.rendered.Load()
	for f := 0; f < frames; f++ {
		for s.next < len(s.cues) && s.cues[s.next].frame <= pos {
			c := s.cues[s.next]
			s.engine.NoteOn(c.freqHz, c.frames)
			s.next++
		}
		l, r := s.engine.RenderFrame()
		dst[f*2] = l
		dst[f*2+1] = r
		pos++
		if s.next >= len(s.cues) && !s.finished.Load() && s.engine.ActiveVoiceCount() == 0 {
			if s.releaseTailFrames <= 0 {
				s.finished.Store(true)
				if s.onEvent != nil {
					s.onEvent(EventPlaybackEnded)
				}
			} else {
				s.releaseTailFrames--
			}
		}
	}
	s.rendered.Store(pos)
}

// Silence stops all sound from the next Process call on. Safe to call from any
// goroutine and any number of times.
func (s *Sequencer) Silence() {
	s.silenced.Store(true)
}

func (s *Sequencer) Silenced() bool {
	return s.silenced.Load()
}

// Finished reports whether every cue has played out or the sequencer was silenced.
func (s *Sequencer) Finished() bool {
	return s.finished.Load() || s.silenced.Load()
}

// Position is the audio clock time relative to the reference instant. It is
// negative during the lead-in.
func (s *Sequencer) Position() time.Duration {
	frames := s.rendered.Load() - s.leadFrames
	return time.Duration(frames) * time.Second / time.Duration(s.sampleRate)
}

// TotalFrames is the number of frames until the last note ends.
func (s *Sequencer) TotalFrames() int64 {
	var end int64
	for _, c := range s.cues {
		if e := c.frame + int64(c.frames); e > end {
			end = e
		}
	}
	return end
}

func durationToFrames(d time.Duration, sampleRate int) int64 {
	return int64(math.Round(d.Seconds() * float64(sampleRate)))
}
