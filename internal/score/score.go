package score

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var ErrInvalidPattern = errors.New("invalid note pattern")

// NoteEvent is one scheduled note, offset from the session's reference instant.
type NoteEvent struct {
	Offset      time.Duration
	FrequencyHz float64
	Duration    time.Duration
}

// Pattern is a fixed pitch sequence repeated for a number of cycles at a
// constant tempo, one beat per pitch.
type Pattern struct {
	Tempo   float64 // beats per minute
	Pitches []float64
	Cycles  int
}

// Lullaby is the accompaniment of the built-in story: a C major arpeggio,
// four quarter notes per bar for eight bars at 72 BPM.
func Lullaby() Pattern {
	return Pattern{
		Tempo:   72,
		Pitches: []float64{MidiToFreq(60), MidiToFreq(64), MidiToFreq(67), MidiToFreq(72)},
		Cycles:  8,
	}
}

func (p Pattern) Validate() error {
	if p.Tempo <= 0 || math.IsNaN(p.Tempo) || math.IsInf(p.Tempo, 0) {
		return fmt.Errorf("%w: tempo %v", ErrInvalidPattern, p.Tempo)
	}
	if len(p.Pitches) == 0 {
		return fmt.Errorf("%w: no pitches", ErrInvalidPattern)
	}
	for i, hz := range p.Pitches {
		if hz <= 0 || math.IsNaN(hz) || math.IsInf(hz, 0) {
			return fmt.Errorf("%w: pitch %d is %v Hz", ErrInvalidPattern, i, hz)
		}
	}
	if p.Cycles <= 0 {
		return fmt.Errorf("%w: %d cycles", ErrInvalidPattern, p.Cycles)
	}
	return nil
}

// Beat returns the nominal length of one beat, truncated to whole
// nanoseconds. Event offsets are not multiples of it; see BeatOffset.
func (p Pattern) Beat() time.Duration {
	return p.BeatOffset(1)
}

// BeatOffset returns the start of beat k, rounded once from the exact tempo
// so truncation never accumulates across the pattern.
func (p Pattern) BeatOffset(k int) time.Duration {
	return time.Duration(float64(k) * float64(time.Minute) / p.Tempo)
}

// Len returns the number of events the pattern produces.
func (p Pattern) Len() int {
	return len(p.Pitches) * p.Cycles
}

// Length returns the time from the reference instant to the end of the last note.
func (p Pattern) Length() time.Duration {
	return p.BeatOffset(p.Len())
}

// Events computes the full ordered note sequence. Event k starts k beats after
// the reference instant and lasts until beat k+1.
func (p Pattern) Events() []NoteEvent {
	if p.Validate() != nil {
		return nil
	}
	out := make([]NoteEvent, 0, p.Len())
	for cycle := 0; cycle < p.Cycles; cycle++ {
		for i, hz := range p.Pitches {
			k := cycle*len(p.Pitches) + i
			start := p.BeatOffset(k)
			out = append(out, NoteEvent{
				Offset:      start,
				FrequencyHz: hz,
				Duration:    p.BeatOffset(k+1) - start,
			})
		}
	}
	return out
}

func MidiToFreq(note int) float64 {
	return 440 * math.Pow(2, float64(note-69)/12)
}
