package synth

import (
	"math"
	"sync/atomic"
)

const twoPi = math.Pi * 2

// Params shapes every note the engine plays. Each note rises linearly from
// silence to PeakLevel over AttackSec, then decays exponentially to FloorLevel
// by DecayFraction of its length, and is cut at its full length.
type Params struct {
	Voices        int
	MasterGain    float64
	AttackSec     float64
	PeakLevel     float64
	FloorLevel    float64
	DecayFraction float64
}

func DefaultParams() Params {
	return Params{
		Voices:        8,
		MasterGain:    0.08,
		AttackSec:     0.02,
		PeakLevel:     0.3,
		FloorLevel:    0.001,
		DecayFraction: 0.95,
	}
}

type envState int

const (
	envAttack envState = iota
	envDecay
	envHold
	envOff
)

type voice struct {
	active     bool
	id         int
	age        int
	length     int
	attackEnd  int
	decayEnd   int
	phase      float64
	phaseStep  float64
	env        float64
	decayRatio float64
	envState   envState
}

// Engine is a small polyphonic sine synthesizer.
type Engine struct {
	sampleRate float64
	params     Params
	voices     []voice
	nextID     int
	masterGain uint64
}

func New(sampleRate int, params Params) *Engine {
	if params.Voices <= 0 {
		params.Voices = 8
	}
	if params.PeakLevel <= 0 {
		params.PeakLevel = 0.3
	}
	if params.FloorLevel <= 0 || params.FloorLevel >= params.PeakLevel {
		params.FloorLevel = params.PeakLevel / 300
	}
	if params.DecayFraction <= 0 || params.DecayFraction > 1 {
		params.DecayFraction = 0.95
	}
	return &Engine{
		sampleRate: float64(sampleRate),
		params:     params,
		voices:     make([]voice, params.Voices),
		masterGain: math.Float64bits(params.MasterGain),
	}
}

// NoteOn starts a note of the given frequency lasting frames samples and
// returns its voice id.
func (e *Engine) NoteOn(freqHz float64, frames int) int {
	slot := e.stealVoice()
	id := e.nextID
	e.nextID++
	if frames < 1 {
		frames = 1
	}
	attack := int(e.params.AttackSec * e.sampleRate)
	decayEnd := int(float64(frames) * e.params.DecayFraction)
	if attack >= decayEnd {
		attack = decayEnd / 2
	}
	v := &e.voices[slot]
	*v = voice{
		active:    true,
		id:        id,
		length:    frames,
		attackEnd: attack,
		decayEnd:  decayEnd,
		phaseStep: freqHz / e.sampleRate,
		envState:  envAttack,
	}
	if span := decayEnd - attack; span > 0 {
		v.decayRatio = math.Pow(e.params.FloorLevel/e.params.PeakLevel, 1/float64(span))
	}
	return id
}

// NoteOff cuts a voice immediately.
func (e *Engine) NoteOff(id int) {
	for i := range e.voices {
		if e.voices[i].active && e.voices[i].id == id {
			e.voices[i].active = false
			e.voices[i].envState = envOff
		}
	}
}

// AllOff silences every voice.
func (e *Engine) AllOff() {
	for i := range e.voices {
		e.voices[i].active = false
		e.voices[i].envState = envOff
	}
}

func (e *Engine) RenderFrame() (float32, float32) {
	gain := e.masterGainValue()
	var out float64
	for i := range e.voices {
		v := &e.voices[i]
		if !v.active {
			continue
		}
		env := e.advanceEnv(v)
		if !v.active {
			continue
		}
		out += math.Sin(twoPi*v.phase) * env
		v.phase += v.phaseStep
		if v.phase >= 1 {
			v.phase -= 1
		}
	}
	s := float32(clamp(out*gain, -1, 1))
	return s, s
}

func (e *Engine) advanceEnv(v *voice) float64 {
	if v.age >= v.length {
		v.active = false
		v.envState = envOff
		return 0
	}
	switch v.envState {
	case envAttack:
		if v.age >= v.attackEnd {
			v.env = e.params.PeakLevel
			v.envState = envDecay
			break
		}
		v.env = e.params.PeakLevel * float64(v.age) / float64(v.attackEnd)
	case envDecay:
		if v.age >= v.decayEnd {
			v.env = e.params.FloorLevel
			v.envState = envHold
			break
		}
		v.env *= v.decayRatio
	case envHold:
		v.env = e.params.FloorLevel
	}
	v.age++
	return v.env
}

func (e *Engine) SetMasterGain(gain float64) {
	atomic.StoreUint64(&e.masterGain, math.Float64bits(gain))
}

func (e *Engine) MasterGain() float64 { return e.masterGainValue() }

func (e *Engine) masterGainValue() float64 {
	return math.Float64frombits(atomic.LoadUint64(&e.masterGain))
}

func (e *Engine) ActiveVoiceCount() int {
	n := 0
	for i := range e.voices {
		if e.voices[i].active {
			n++
		}
	}
	return n
}

func (e *Engine) stealVoice() int {
	for i := range e.voices {
		if !e.voices[i].active {
			return i
		}
	}
	oldest := 0
	for i := range e.voices {
		if e.voices[i].age > e.voices[oldest].age {
			oldest = i
		}
	}
	return oldest
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
