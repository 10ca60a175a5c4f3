package synth

import (
	"math"
	"testing"
)

const sr = 48000

func TestEngineGeneratesSignal(t *testing.T) {
	e := New(sr, DefaultParams())
	e.NoteOn(440, sr)

	var nonZero bool
	for i := 0; i < 2000; i++ {
		l, r := e.RenderFrame()
		if l != r {
			t.Fatalf("frame %d: channels differ l=%f r=%f", i, l, r)
		}
		if l != 0 {
			nonZero = true
		}
	}
	if !nonZero {
		t.Fatalf("expected non-zero output")
	}
}

func TestEnvelopeStartsSilentAndPeaksAfterAttack(t *testing.T) {
	p := DefaultParams()
	e := New(sr, p)
	e.NoteOn(440, sr)
	v := &e.voices[0]

	if got := e.advanceEnv(v); got != 0 {
		t.Fatalf("first envelope sample = %v, want 0", got)
	}
	attack := int(p.AttackSec * sr)
	for v.age < attack {
		e.advanceEnv(v)
	}
	if got := e.advanceEnv(v); got != p.PeakLevel {
		t.Fatalf("envelope after attack = %v, want %v", got, p.PeakLevel)
	}
}

func TestEnvelopeDecaysToFloorBeforeNoteEnd(t *testing.T) {
	p := DefaultParams()
	e := New(sr, p)
	length := sr / 2
	e.NoteOn(440, length)
	v := &e.voices[0]

	decayEnd := int(float64(length) * p.DecayFraction)
	var env float64
	for v.age < decayEnd {
		env = e.advanceEnv(v)
	}
	if math.Abs(env-p.FloorLevel) > p.FloorLevel*0.05 {
		t.Fatalf("envelope at decay end = %v, want ~%v", env, p.FloorLevel)
	}
	for v.active {
		e.advanceEnv(v)
	}
	if v.age != length {
		t.Fatalf("voice ran %d frames, want %d", v.age, length)
	}
}

func TestVoicesEndAfterTheirLength(t *testing.T) {
	e := New(sr, DefaultParams())
	e.NoteOn(440, 100)
	e.NoteOn(660, 300)
	for i := 0; i < 150; i++ {
		e.RenderFrame()
	}
	if n := e.ActiveVoiceCount(); n != 1 {
		t.Fatalf("active voices = %d, want 1", n)
	}
	for i := 0; i < 200; i++ {
		e.RenderFrame()
	}
	if n := e.ActiveVoiceCount(); n != 0 {
		t.Fatalf("active voices = %d, want 0", n)
	}
}

func TestMasterGainScalesOutput(t *testing.T) {
	peak := func(gain float64) float64 {
		e := New(sr, DefaultParams())
		e.SetMasterGain(gain)
		e.NoteOn(440, sr)
		var m float64
		for i := 0; i < 4000; i++ {
			l, _ := e.RenderFrame()
			m = math.Max(m, math.Abs(float64(l)))
		}
		return m
	}
	quiet, loud := peak(0.08), peak(0.8)
	if quiet <= 0 || loud <= quiet*5 {
		t.Fatalf("gain does not scale output: quiet=%v loud=%v", quiet, loud)
	}
	if quiet > 0.08*DefaultParams().PeakLevel+1e-6 {
		t.Fatalf("quiet peak %v exceeds gain*peak level", quiet)
	}
}

func TestNoteOffAndAllOffSilence(t *testing.T) {
	e := New(sr, DefaultParams())
	id := e.NoteOn(440, sr)
	e.NoteOn(550, sr)
	e.NoteOff(id)
	if n := e.ActiveVoiceCount(); n != 1 {
		t.Fatalf("active voices after NoteOff = %d, want 1", n)
	}
	e.AllOff()
	if l, r := e.RenderFrame(); l != 0 || r != 0 {
		t.Fatalf("output after AllOff = %f,%f", l, r)
	}
}

func TestVoiceStealingReusesOldest(t *testing.T) {
	p := DefaultParams()
	p.Voices = 2
	e := New(sr, p)
	first := e.NoteOn(440, sr)
	e.RenderFrame()
	e.NoteOn(550, sr)
	e.RenderFrame()
	e.NoteOn(660, sr)
	for i := range e.voices {
		if e.voices[i].id == first {
			t.Fatalf("oldest voice %d was not stolen", first)
		}
	}
}
