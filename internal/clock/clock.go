package clock

import (
	"sync"
	"time"
)

// Clock is the presentation clock. While playing it samples the frame source
// once per refresh and advances elapsed time up to a fixed duration.
//
// A Clock with a nil FrameSource is valid and never advances.
type Clock struct {
	mu       sync.Mutex
	frames   FrameSource
	duration time.Duration
	elapsed  time.Duration
	playing  bool
	anchored bool
	origin   time.Duration
	gen      uint64
	cancel   func()
	onTick   func(gen uint64, elapsed time.Duration)
}

func New(frames FrameSource, duration time.Duration) *Clock {
	if duration < 0 {
		duration = 0
	}
	return &Clock{frames: frames, duration: duration}
}

// OnTick installs a callback run after every frame that updated elapsed time.
// It runs without the clock's lock held, so by the time it runs the clock may
// already have been restarted; gen identifies the Start call the tick belongs
// to and matches the value that call returned.
func (c *Clock) OnTick(fn func(gen uint64, elapsed time.Duration)) {
	c.mu.Lock()
	c.onTick = fn
	c.mu.Unlock()
}

// Start begins advancing from zero. Any pending frame request is discarded and
// the start timestamp is re-captured on the next frame, so repeated calls never
// produce more than one tick chain. It returns the generation carried by the
// ticks of the new chain.
func (c *Clock) Start() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dropPendingLocked()
	c.elapsed = 0
	c.anchored = false
	c.playing = true
	if c.duration == 0 {
		c.playing = false
		return c.gen
	}
	c.requestLocked()
	return c.gen
}

// Stop halts advancement and resets the clock to zero.
func (c *Clock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dropPendingLocked()
	c.elapsed = 0
	c.anchored = false
	c.playing = false
}

// Sample returns the current elapsed time.
func (c *Clock) Sample() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.elapsed
}

// Playing reports whether the clock is still advancing.
func (c *Clock) Playing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playing
}

// Finished reports whether elapsed time reached the duration.
func (c *Clock) Finished() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.playing && c.duration > 0 && c.elapsed == c.duration
}

func (c *Clock) Duration() time.Duration { return c.duration }

func (c *Clock) dropPendingLocked() {
	c.gen++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Clock) requestLocked() {
	if c.frames == nil {
		return
	}
	gen := c.gen
	c.cancel = c.frames.RequestFrame(func(now time.Duration) {
		c.tick(gen, now)
	})
}

func (c *Clock) tick(gen uint64, now time.Duration) {
	c.mu.Lock()
	if gen != c.gen || !c.playing {
		// Stale request from a retired tick chain.
		c.mu.Unlock()
		return
	}
	c.cancel = nil
	if !c.anchored {
		c.origin = now
		c.anchored = true
	}
	elapsed := now - c.origin
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed > c.duration {
		elapsed = c.duration
	}
	if elapsed > c.elapsed {
		c.elapsed = elapsed
	}
	if c.elapsed < c.duration {
		c.requestLocked()
	} else {
		c.playing = false
	}
	cb := c.onTick
	sample := c.elapsed
	c.mu.Unlock()

	if cb != nil {
		cb(gen, sample)
	}
}
