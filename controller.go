package storyplay

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/cbegin/storyplay-go/internal/clock"
	"github.com/cbegin/storyplay-go/internal/scene"
)

// State is the phase of a playback session.
type State int

const (
	StateIdle State = iota
	StatePlaying
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlaying:
		return "playing"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Snapshot is what the view layer renders each frame.
type Snapshot struct {
	Elapsed  time.Duration
	Scene    scene.Scene
	Progress float64
	Playing  bool
	Finished bool
	State    State
}

func (s Snapshot) ElapsedMs() int64 { return s.Elapsed.Milliseconds() }

// Controller ties the presentation clock and the accompaniment together. It is
// the only owner of the live audio handle.
type Controller struct {
	mu       sync.Mutex
	table    *scene.Table
	clock    *clock.Clock
	sched    *Scheduler
	handle   *Handle
	settle   time.Duration
	pending  bool
	session  uint64
	tickGen  uint64
	timer    *time.Timer
	logger   *log.Logger
	sceneID  int
	onScene  func(scene.Scene)
	onFinish func()
}

func NewController(table *scene.Table, opts ...Option) (*Controller, error) {
	if table == nil {
		return nil, errors.New("scene table is nil")
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	sched := cfg.scheduler
	if sched == nil {
		var err error
		sched, err = newScheduler(cfg)
		if err != nil {
			return nil, err
		}
	}
	frames := cfg.frames
	if frames == nil {
		cfg.logger.Printf("no frame source; using %d Hz timer frames", cfg.frameRate)
		frames = clock.NewTimerFrames(cfg.frameRate)
	}
	c := &Controller{
		table:   table,
		clock:   clock.New(frames, table.Duration()),
		sched:   sched,
		settle:  cfg.settleDelay,
		logger:  cfg.logger,
		sceneID: -1,
	}
	c.clock.OnTick(c.tick)
	return c, nil
}

// OnSceneChange installs a callback run from the frame path whenever the
// active scene changes, including the first scene of a session.
func (c *Controller) OnSceneChange(fn func(scene.Scene)) {
	c.mu.Lock()
	c.onScene = fn
	c.mu.Unlock()
}

// OnFinish installs a callback run once when a session reaches the end.
func (c *Controller) OnFinish(fn func()) {
	c.mu.Lock()
	c.onFinish = fn
	c.mu.Unlock()
}

// Start begins a session from Idle or Finished. It does nothing while a
// session is already playing.
func (c *Controller) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stateLocked() == StatePlaying {
		return
	}
	c.beginLocked()
}

// Replay tears the current session down and starts a new one from zero. It
// does nothing when no session has been started.
func (c *Controller) Replay() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stateLocked() == StateIdle {
		return
	}
	c.retireLocked()
	if c.settle <= 0 {
		c.beginLocked()
		return
	}
	c.pending = true
	sess := c.session
	c.timer = time.AfterFunc(c.settle, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.session != sess || !c.pending {
			return
		}
		c.beginLocked()
	})
}

// Stop ends any session and returns to Idle.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.retireLocked()
}

// Close releases every resource the controller holds.
func (c *Controller) Close() { c.Stop() }

// State returns the current phase.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

// Snapshot projects the clock onto the scene table.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	elapsed := c.clock.Sample()
	st := c.stateLocked()
	c.mu.Unlock()
	return Snapshot{
		Elapsed:  elapsed,
		Scene:    c.table.Resolve(elapsed),
		Progress: c.table.Progress(elapsed),
		Playing:  st == StatePlaying,
		Finished: st == StateFinished,
		State:    st,
	}
}

// AudioLive reports whether a session currently owns a sounding output.
func (c *Controller) AudioLive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handle.Live()
}

// AudioPosition is the accompaniment's own clock for the current session,
// negative during the lead-in and zero without a session.
func (c *Controller) AudioPosition() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handle.Position()
}

// AudioDone is closed once the current session's accompaniment has played
// out or was released. Without a session it is already closed.
func (c *Controller) AudioDone() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handle.Done()
}

// Scheduler returns the accompaniment scheduler, e.g. for volume control.
func (c *Controller) Scheduler() *Scheduler { return c.sched }

// Table returns the scene table the controller was built with.
func (c *Controller) Table() *scene.Table { return c.table }

func (c *Controller) stateLocked() State {
	if c.pending || c.clock.Playing() {
		return StatePlaying
	}
	if c.clock.Finished() {
		return StateFinished
	}
	return StateIdle
}

// beginLocked starts clock and audio at the same logical instant. A handle
// left over from a naturally finished session is released first so no two
// sessions ever sound together.
func (c *Controller) beginLocked() {
	c.session++
	c.pending = false
	c.handle.Release()
	c.handle = nil
	c.sceneID = -1
	c.tickGen = c.clock.Start()
	c.handle = c.sched.Begin()
}

// retireLocked invalidates the current session: pending restarts and stale
// ticks become no-ops, the handle is released and the clock reset.
func (c *Controller) retireLocked() {
	c.session++
	c.pending = false
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.handle.Release()
	c.handle = nil
	c.sceneID = -1
	c.tickGen = 0
	c.clock.Stop()
}

// tick runs on the frame path after the clock advanced. The clock hands over
// ticks without its lock held, so a tick may arrive after Stop or Replay began
// a new chain; gen ties it to the chain it was sampled from.
func (c *Controller) tick(gen uint64, elapsed time.Duration) {
	sc := c.table.Resolve(elapsed)
	finished := elapsed >= c.clock.Duration()

	c.mu.Lock()
	if gen != c.tickGen || c.stateLocked() == StateIdle {
		c.mu.Unlock()
		return
	}
	session := c.session
	var onScene func(scene.Scene)
	if sc.ID != c.sceneID {
		c.sceneID = sc.ID
		onScene = c.onScene
	}
	c.mu.Unlock()

	if onScene != nil {
		onScene(sc)
	}
	if !finished {
		return
	}

	// The scene callback may have stopped or restarted playback.
	c.mu.Lock()
	var onFinish func()
	if c.session == session && gen == c.tickGen {
		onFinish = c.onFinish
	}
	c.mu.Unlock()
	if onFinish != nil {
		onFinish()
	}
}
