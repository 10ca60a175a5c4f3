package storyplay

import (
	"sync"
	"time"

	intaudio "github.com/cbegin/storyplay-go/internal/audio"
)

const testRate = 8000

// fakeDevice records every output it hands out so tests can count live
// sound resources.
type fakeDevice struct {
	mu       sync.Mutex
	outputs  []*fakeOutput
	openErr  error
	playErr  error
	openings int
}

func (d *fakeDevice) SampleRate() int { return testRate }

func (d *fakeDevice) Open(src intaudio.SampleSource) (intaudio.Output, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.openings++
	if d.openErr != nil {
		return nil, d.openErr
	}
	out := &fakeOutput{dev: d, src: src}
	d.outputs = append(d.outputs, out)
	return out, nil
}

func (d *fakeDevice) opened() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.openings
}

func (d *fakeDevice) live() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, o := range d.outputs {
		if !o.closed {
			n++
		}
	}
	return n
}

func (d *fakeDevice) last() *fakeOutput {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.outputs) == 0 {
		return nil
	}
	return d.outputs[len(d.outputs)-1]
}

type fakeOutput struct {
	dev     *fakeDevice
	src     intaudio.SampleSource
	playing bool
	closed  bool
	closes  int
}

func (o *fakeOutput) Play() error {
	o.dev.mu.Lock()
	defer o.dev.mu.Unlock()
	if o.dev.playErr != nil {
		return o.dev.playErr
	}
	o.playing = true
	return nil
}

func (o *fakeOutput) Close() error {
	o.dev.mu.Lock()
	o.closed = true
	o.playing = false
	o.closes++
	o.dev.mu.Unlock()
	return nil
}

func (o *fakeOutput) Position() time.Duration { return 0 }

// render pulls frames from the output's source the way the audio driver would.
func (o *fakeOutput) render(frames int) []float32 {
	buf := make([]float32, frames*2)
	o.src.Process(buf)
	return buf
}

func energy(buf []float32) float64 {
	var e float64
	for _, s := range buf {
		if s < 0 {
			e -= float64(s)
		} else {
			e += float64(s)
		}
	}
	return e
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(2 * time.Millisecond)
	}
	return cond()
}
