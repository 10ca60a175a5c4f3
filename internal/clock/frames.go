package clock

import (
	"sort"
	"sync"
	"time"
)

// FrameSource delivers the host's refresh signal. RequestFrame arranges for fn
// to be called once on the next refresh with a monotonic timestamp, and returns
// a function that cancels the request if it has not fired yet.
//
// Implementations must never call fn synchronously from RequestFrame.
type FrameSource interface {
	RequestFrame(fn func(now time.Duration)) (cancel func())
}

// FrameLoop is a FrameSource pumped by the host, typically once per
// ebiten Update. Tests use it as a simulated refresh signal.
type FrameLoop struct {
	mu      sync.Mutex
	nextID  uint64
	pending map[uint64]func(time.Duration)
}

func NewFrameLoop() *FrameLoop {
	return &FrameLoop{pending: make(map[uint64]func(time.Duration))}
}

func (l *FrameLoop) RequestFrame(fn func(now time.Duration)) func() {
	l.mu.Lock()
	id := l.nextID
	l.nextID++
	l.pending[id] = fn
	l.mu.Unlock()
	return func() {
		l.mu.Lock()
		delete(l.pending, id)
		l.mu.Unlock()
	}
}

// Pump fires every request pending at the time of the call, in request order.
// Requests made by the callbacks themselves wait for the next Pump.
func (l *FrameLoop) Pump(now time.Duration) {
	l.mu.Lock()
	if len(l.pending) == 0 {
		l.mu.Unlock()
		return
	}
	due := l.pending
	l.pending = make(map[uint64]func(time.Duration))
	l.mu.Unlock()

	ids := make([]uint64, 0, len(due))
	for id := range due {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		due[id](now)
	}
}

// Pending returns the number of outstanding requests.
func (l *FrameLoop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pending)
}

// TimerFrames is a FrameSource backed by runtime timers at a fixed rate. It is
// the fallback refresh signal when no render loop is available.
type TimerFrames struct {
	interval time.Duration
	epoch    time.Time
}

// NewTimerFrames returns a source firing roughly fps times per second.
func NewTimerFrames(fps int) *TimerFrames {
	if fps <= 0 {
		fps = 60
	}
	return &TimerFrames{interval: time.Second / time.Duration(fps), epoch: time.Now()}
}

func (f *TimerFrames) RequestFrame(fn func(now time.Duration)) func() {
	t := time.AfterFunc(f.interval, func() {
		fn(time.Since(f.epoch))
	})
	return func() { t.Stop() }
}
