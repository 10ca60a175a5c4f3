package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
)

// ErrUnavailable is returned by devices that cannot produce sound on this host.
var ErrUnavailable = errors.New("audio output unavailable")

// Channels is the interleaved channel count of every stream.
const Channels = 2

type SampleSource interface {
	Process(dst []float32)
}

// FinishingSource is a SampleSource that can signal when playback has ended.
// When Finished returns true, the stream will return io.EOF on the next Read.
type FinishingSource interface {
	SampleSource
	Finished() bool
}

// Device is the host's sound facility. Open wraps a source in a live output;
// the output starts paused.
type Device interface {
	SampleRate() int
	Open(source SampleSource) (Output, error)
}

// Output is one live sound-producing resource.
type Output interface {
	// Play starts the output. It fails when the host driver could not start
	// it; the output must still be closed.
	Play() error
	// Close silences the output immediately and releases it.
	Close() error
	// Position returns what the listener actually hears right now.
	Position() time.Duration
}

type StreamReader struct {
	mu     sync.Mutex
	source SampleSource
	buf    []float32
}

func NewStreamReader(source SampleSource) *StreamReader {
	return &StreamReader{source: source}
}

func (r *StreamReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	frames := len(p) / 8
	if frames == 0 {
		return 0, nil
	}
	need := frames * 2
	if cap(r.buf) < need {
		r.buf = make([]float32, need)
	}
	r.buf = r.buf[:need]
	r.source.Process(r.buf)
	for i := 0; i < need; i++ {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(r.buf[i]))
	}
	n := frames * 8
	if fs, ok := r.source.(FinishingSource); ok && fs.Finished() {
		return n, io.EOF
	}
	return n, nil
}

func (r *StreamReader) Close() error { return nil }

var (
	audioContextMu  sync.Mutex
	audioContext    *ebitaudio.Context
	audioSampleRate int
)

// sharedAudioContext returns the process-wide ebiten context. ebiten allows
// exactly one, so every device must agree on the sample rate.
func sharedAudioContext(sampleRate int) (ctx *ebitaudio.Context, err error) {
	audioContextMu.Lock()
	defer audioContextMu.Unlock()
	if audioContext == nil {
		if existing := ebitaudio.CurrentContext(); existing != nil {
			audioContext = existing
			audioSampleRate = existing.SampleRate()
		} else {
			defer func() {
				// NewContext panics only when another context already exists.
				// A missing driver surfaces later, from Player.Play.
				if r := recover(); r != nil {
					ctx, err = nil, fmt.Errorf("%w: %v", ErrUnavailable, r)
				}
			}()
			audioContext = ebitaudio.NewContext(sampleRate)
			audioSampleRate = sampleRate
		}
	}
	if audioSampleRate != sampleRate {
		return nil, fmt.Errorf("audio context already initialized at %d Hz (requested %d Hz)", audioSampleRate, sampleRate)
	}
	return audioContext, nil
}

// EbitenDevice plays through the shared ebiten audio context.
type EbitenDevice struct {
	sampleRate int
}

func NewEbitenDevice(sampleRate int) *EbitenDevice {
	return &EbitenDevice{sampleRate: sampleRate}
}

func (d *EbitenDevice) SampleRate() int { return d.sampleRate }

func (d *EbitenDevice) Open(source SampleSource) (Output, error) {
	ctx, err := sharedAudioContext(d.sampleRate)
	if err != nil {
		return nil, err
	}
	reader := NewStreamReader(source)
	pl, err := ctx.NewPlayerF32(reader)
	if err != nil {
		return nil, err
	}
	// Keep the driver buffer short so Close cuts sound promptly.
	pl.SetBufferSize(50 * time.Millisecond)
	return &Player{player: pl, reader: reader}, nil
}

type Player struct {
	player *ebitaudio.Player
	reader io.ReadCloser
}

// Play starts the player. ebiten opens the host driver lazily on the first
// Play and records a failure on the context instead of returning it, leaving
// the player stopped, so a player that is not playing afterwards has no driver.
func (p *Player) Play() error {
	p.player.Play()
	if !p.player.IsPlaying() {
		return fmt.Errorf("%w: driver did not start playback", ErrUnavailable)
	}
	return nil
}

// Position returns the current playback position (what the listener actually hears).
func (p *Player) Position() time.Duration {
	return p.player.Position()
}

func (p *Player) Close() error {
	p.player.Pause()
	if err := p.player.Close(); err != nil {
		return err
	}
	return p.reader.Close()
}

// NullDevice stands in for a host without sound. Open always fails with
// ErrUnavailable.
type NullDevice struct{}

func (NullDevice) SampleRate() int { return 0 }

func (NullDevice) Open(SampleSource) (Output, error) { return nil, ErrUnavailable }
