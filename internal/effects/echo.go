package effects

// Echo is a feedback delay line shared by both channels, so repeats sit in
// the center of the mix.
type Echo struct {
	line     []float32
	pos      int
	feedback float32
	wet      float32
}

// NewEcho creates an echo delayMs behind the dry signal.
func NewEcho(sampleRate int, delayMs float64, feedback, wet float32) *Echo {
	n := int(delayMs * float64(sampleRate) / 1000)
	if n < 1 {
		n = 1
	}
	return &Echo{
		line:     make([]float32, n),
		feedback: clamp(feedback, 0, 0.9),
		wet:      clamp(wet, 0, 1),
	}
}

func (e *Echo) Process(l, r float32) (float32, float32) {
	tap := e.line[e.pos]
	e.line[e.pos] = (l+r)*0.5 + tap*e.feedback
	e.pos = (e.pos + 1) % len(e.line)
	dry := 1 - e.wet
	return l*dry + tap*e.wet, r*dry + tap*e.wet
}

func (e *Echo) Reset() {
	clear(e.line)
	e.pos = 0
}
