package score

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestLullabyProducesThirtyTwoBeatAlignedEvents(t *testing.T) {
	events := Lullaby().Events()
	if len(events) != 32 {
		t.Fatalf("events = %d, want 32", len(events))
	}
	beat := time.Minute / 72
	for k, ev := range events {
		if want := time.Duration(float64(k) * float64(time.Minute) / 72); ev.Offset != want {
			t.Fatalf("event %d offset = %v, want %v", k, ev.Offset, want)
		}
		if k > 0 && ev.Offset <= events[k-1].Offset {
			t.Fatalf("event %d not strictly after event %d", k, k-1)
		}
		if d := ev.Duration - beat; d < 0 || d > time.Nanosecond {
			t.Fatalf("event %d duration = %v, want about %v", k, ev.Duration, beat)
		}
		if k > 0 && events[k-1].Offset+events[k-1].Duration != ev.Offset {
			t.Fatalf("event %d does not start where event %d ends", k, k-1)
		}
		if ev.FrequencyHz <= 0 {
			t.Fatalf("event %d frequency = %v", k, ev.FrequencyHz)
		}
	}
}

func TestLullabyRepeatsPitchPattern(t *testing.T) {
	p := Lullaby()
	events := p.Events()
	for k, ev := range events {
		if want := p.Pitches[k%len(p.Pitches)]; ev.FrequencyHz != want {
			t.Fatalf("event %d pitch = %v, want %v", k, ev.FrequencyHz, want)
		}
	}
	if math.Abs(p.Pitches[0]-261.63) > 0.01 {
		t.Fatalf("first pitch = %v, want middle C", p.Pitches[0])
	}
	if math.Abs(p.Pitches[3]-2*p.Pitches[0]) > 1e-9 {
		t.Fatalf("last pitch should be an octave above the first")
	}
}

func TestEventsAreDeterministic(t *testing.T) {
	a := Lullaby().Events()
	b := Lullaby().Events()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("event %d differs between runs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestPatternLength(t *testing.T) {
	p := Lullaby()
	tempo := 72.0
	if got, want := p.Length(), time.Duration(32*float64(time.Minute)/tempo); got != want {
		t.Fatalf("length = %v, want %v", got, want)
	}
	events := p.Events()
	last := events[len(events)-1]
	if last.Offset+last.Duration != p.Length() {
		t.Fatalf("last note ends at %v, want %v", last.Offset+last.Duration, p.Length())
	}
}

func TestOffsetsDoNotDriftAtFractionalBeats(t *testing.T) {
	events := Lullaby().Events()
	// 72 BPM puts every sixth beat on a whole 5 s boundary.
	for k, want := range map[int]time.Duration{
		3:  2500 * time.Millisecond,
		6:  5 * time.Second,
		30: 25 * time.Second,
	} {
		if got := events[k].Offset; got != want {
			t.Fatalf("event %d offset = %v, want %v", k, got, want)
		}
	}
}

func TestValidateRejectsBadPatterns(t *testing.T) {
	for name, p := range map[string]Pattern{
		"tempo":   {Tempo: 0, Pitches: []float64{440}, Cycles: 1},
		"pitches": {Tempo: 60, Cycles: 1},
		"pitch":   {Tempo: 60, Pitches: []float64{-1}, Cycles: 1},
		"cycles":  {Tempo: 60, Pitches: []float64{440}},
	} {
		if err := p.Validate(); !errors.Is(err, ErrInvalidPattern) {
			t.Fatalf("%s: err = %v, want ErrInvalidPattern", name, err)
		}
		if ev := p.Events(); ev != nil {
			t.Fatalf("%s: invalid pattern produced %d events", name, len(ev))
		}
	}
}
