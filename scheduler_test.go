package storyplay

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"strings"
	"testing"
	"time"

	intaudio "github.com/cbegin/storyplay-go/internal/audio"
	"github.com/cbegin/storyplay-go/internal/score"
)

func newTestScheduler(t *testing.T, opts ...Option) (*Scheduler, *fakeDevice) {
	t.Helper()
	dev := &fakeDevice{}
	opts = append([]Option{WithDevice(dev), WithSampleRate(testRate)}, opts...)
	s, err := NewScheduler(opts...)
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	return s, dev
}

func TestSchedulerPrecomputesLullaby(t *testing.T) {
	s, _ := newTestScheduler(t)
	events := s.Events()
	if len(events) != 32 {
		t.Fatalf("events = %d, want 32", len(events))
	}
	for k, ev := range events {
		if want := time.Duration(float64(k) * float64(time.Minute) / 72); ev.Offset != want {
			t.Fatalf("event %d offset = %v, want %v", k, ev.Offset, want)
		}
	}
}

func TestBeginOpensAndPlaysOneOutput(t *testing.T) {
	s, dev := newTestScheduler(t)
	h := s.Begin()
	if !h.Live() || h.Silent() {
		t.Fatalf("handle should be live")
	}
	if dev.live() != 1 || !dev.last().playing {
		t.Fatalf("expected one playing output, live=%d", dev.live())
	}
	if buf := dev.last().render(testRate); energy(buf) == 0 {
		t.Fatalf("session rendered silence")
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	s, dev := newTestScheduler(t)
	h := s.Begin()
	out := dev.last()
	h.Release()
	h.Release()
	h.Release()
	if out.closes != 1 {
		t.Fatalf("output closed %d times, want 1", out.closes)
	}
	if h.Live() {
		t.Fatalf("released handle still live")
	}
	select {
	case <-h.Done():
	default:
		t.Fatalf("Done not closed after release")
	}
	var nilHandle *Handle
	nilHandle.Release()
	if nilHandle.Live() {
		t.Fatalf("nil handle reports live")
	}
}

func TestReleasedSessionRendersSilence(t *testing.T) {
	s, dev := newTestScheduler(t)
	h := s.Begin()
	out := dev.last()
	if energy(out.render(testRate/2)) == 0 {
		t.Fatalf("expected sound before release")
	}
	h.Release()
	if e := energy(out.render(testRate)); e != 0 {
		t.Fatalf("released session produced sound, energy=%v", e)
	}
}

func TestReleasedAmbientSessionRendersSilence(t *testing.T) {
	s, dev := newTestScheduler(t, WithAmbience(1))
	h := s.Begin()
	out := dev.last()
	out.render(testRate)
	h.Release()
	if e := energy(out.render(testRate)); e != 0 {
		t.Fatalf("released session leaked reverb tail, energy=%v", e)
	}
}

func TestBeginWithoutDeviceIsSilent(t *testing.T) {
	var logs bytes.Buffer
	s, err := NewScheduler(WithDevice(nil), WithLogger(log.New(&logs, "", 0)))
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	h := s.Begin()
	if h.Live() || !h.Silent() {
		t.Fatalf("handle without device should be silent")
	}
	h.Release()
	h.Release()
	s.Begin().Release()
	if got := strings.Count(logs.String(), "warning"); got != 1 {
		t.Fatalf("warnings logged = %d, want 1: %q", got, logs.String())
	}
}

func TestBeginDegradesWhenOpenFails(t *testing.T) {
	dev := &fakeDevice{openErr: errors.New("no driver")}
	s, err := NewScheduler(WithDevice(dev))
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	h := s.Begin()
	if h.Live() {
		t.Fatalf("handle should not be live when open fails")
	}
	h.Release()
}

func TestBeginDegradesWhenDriverNeverStarts(t *testing.T) {
	var logs bytes.Buffer
	dev := &fakeDevice{playErr: fmt.Errorf("%w: driver did not start playback", intaudio.ErrUnavailable)}
	s, err := NewScheduler(WithDevice(dev), WithSampleRate(testRate), WithLogger(log.New(&logs, "", 0)))
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	h := s.Begin()
	if h.Live() || !h.Silent() {
		t.Fatalf("handle should be silent when the driver fails to start")
	}
	if dev.live() != 0 {
		t.Fatalf("failed output left open")
	}
	select {
	case <-h.Done():
	default:
		t.Fatalf("silent handle should be done")
	}
	s.Begin().Release()
	if got := strings.Count(logs.String(), "warning"); got != 1 {
		t.Fatalf("warnings logged = %d, want 1: %q", got, logs.String())
	}
	if dev.opened() != 2 {
		t.Fatalf("opened = %d, want 2", dev.opened())
	}
}

func TestSessionEndsAfterScheduledTail(t *testing.T) {
	p := score.Pattern{Tempo: 600, Pitches: []float64{440, 880}, Cycles: 1}
	s, dev := newTestScheduler(t, WithPattern(p), WithLeadIn(0))
	h := s.Begin()
	dev.last().render(testRate)
	select {
	case <-h.Done():
	default:
		t.Fatalf("session should be done after its notes played out")
	}
	if !h.Live() {
		t.Fatalf("natural end must not release the handle")
	}
	if got, want := h.Position(), time.Second; got != want {
		t.Fatalf("position = %v, want %v", got, want)
	}
}

func TestSetMasterVolumeReachesLiveSession(t *testing.T) {
	s, _ := newTestScheduler(t)
	h := s.Begin()
	s.SetMasterVolume(0.5)
	if got := h.engine.MasterGain(); got != DefaultMasterGain*0.5 {
		t.Fatalf("live gain = %v, want %v", got, DefaultMasterGain*0.5)
	}
	s.SetMasterVolume(-1)
	if got := s.MasterVolume(); got != 0 {
		t.Fatalf("volume should clamp to 0, got %v", got)
	}
	next := s.Begin()
	if got := next.engine.MasterGain(); got != 0 {
		t.Fatalf("new session gain = %v, want 0", got)
	}
}

func TestNewSchedulerValidates(t *testing.T) {
	if _, err := NewScheduler(WithDevice(nil), WithSampleRate(0)); err == nil {
		t.Fatalf("expected error for zero sample rate")
	}
	if _, err := NewScheduler(WithDevice(nil), WithPattern(score.Pattern{})); !errors.Is(err, score.ErrInvalidPattern) {
		t.Fatalf("err = %v, want ErrInvalidPattern", err)
	}
	if _, err := NewScheduler(WithDevice(nil), WithMasterGain(-1)); err == nil {
		t.Fatalf("expected error for negative gain")
	}
}
