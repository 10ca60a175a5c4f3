package effects

// Room is a Schroeder reverb: four parallel combs into two series allpasses.
type Room struct {
	combs   [4]delayLine
	allpass [2]delayLine
	wet     float32
}

type delayLine struct {
	buf []float32
	pos int
	fb  float32
}

// comb and allpass lengths relative to the base length; mutually prime-ish
// ratios keep the comb resonances from lining up.
var (
	combRatios    = [4]int{1000, 1117, 1271, 1437}
	allpassRatios = [2]int{347, 213}
)

// NewRoom creates a reverb. size scales delay lengths (0..1), decay sets the
// comb feedback and wet is the mix.
func NewRoom(sampleRate int, size, decay, wet float32) *Room {
	base := int(float32(sampleRate) * clamp(size, 0, 1) * 0.05)
	if base < 10 {
		base = 10
	}
	r := &Room{wet: clamp(wet, 0, 1)}
	for i, ratio := range combRatios {
		r.combs[i] = delayLine{buf: make([]float32, base*ratio/1000), fb: clamp(decay, 0, 0.95)}
	}
	for i, ratio := range allpassRatios {
		n := base * ratio / 1000
		if n < 1 {
			n = 1
		}
		r.allpass[i] = delayLine{buf: make([]float32, n), fb: 0.5}
	}
	return r
}

func (r *Room) Process(l, rr float32) (float32, float32) {
	in := (l + rr) * 0.5
	var out float32
	for i := range r.combs {
		out += r.combs[i].comb(in)
	}
	out *= 0.25
	for i := range r.allpass {
		out = r.allpass[i].allpass(out)
	}
	dry := 1 - r.wet
	return l*dry + out*r.wet, rr*dry + out*r.wet
}

func (r *Room) Reset() {
	for i := range r.combs {
		r.combs[i].reset()
	}
	for i := range r.allpass {
		r.allpass[i].reset()
	}
}

func (d *delayLine) comb(in float32) float32 {
	out := d.buf[d.pos]
	d.buf[d.pos] = in + out*d.fb
	d.advance()
	return out
}

func (d *delayLine) allpass(in float32) float32 {
	held := d.buf[d.pos]
	d.buf[d.pos] = in + held*d.fb
	d.advance()
	return held - in
}

func (d *delayLine) advance() {
	d.pos++
	if d.pos >= len(d.buf) {
		d.pos = 0
	}
}

func (d *delayLine) reset() {
	clear(d.buf)
	d.pos = 0
}
