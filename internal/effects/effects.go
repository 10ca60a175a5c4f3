package effects

// Effector processes one stereo frame.
type Effector interface {
	Process(l, r float32) (float32, float32)
	Reset()
}

// Chain applies a sequence of effects in order.
type Chain struct {
	effects []Effector
}

func NewChain(effects ...Effector) *Chain {
	return &Chain{effects: effects}
}

func (c *Chain) Process(l, r float32) (float32, float32) {
	for _, e := range c.effects {
		l, r = e.Process(l, r)
	}
	return l, r
}

// ProcessBuffer runs the chain over interleaved stereo samples in place.
func (c *Chain) ProcessBuffer(buf []float32) {
	for i := 0; i+1 < len(buf); i += 2 {
		buf[i], buf[i+1] = c.Process(buf[i], buf[i+1])
	}
}

func (c *Chain) Reset() {
	for _, e := range c.effects {
		e.Reset()
	}
}

func (c *Chain) Len() int { return len(c.effects) }

// Ambience is the accompaniment's room: a soft echo a dotted eighth behind
// the beat feeding a small reverb. amount scales both wet mixes (0..1).
func Ambience(sampleRate int, beatMs float64, amount float32) *Chain {
	amount = clamp(amount, 0, 1)
	if amount == 0 {
		return NewChain()
	}
	return NewChain(
		NewEcho(sampleRate, beatMs*0.75, 0.35, 0.25*amount),
		NewRoom(sampleRate, 0.6, 0.72, 0.3*amount),
	)
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
