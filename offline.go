package storyplay

import (
	"encoding/binary"
	"errors"
	"math"
	"time"

	intfx "github.com/cbegin/storyplay-go/internal/effects"
	"github.com/cbegin/storyplay-go/internal/score"
	intseq "github.com/cbegin/storyplay-go/internal/sequencer"
	"github.com/cbegin/storyplay-go/internal/synth"
)

// RenderAccompaniment renders one full session of the pattern to interleaved
// stereo samples, without lead-in. The buffer runs until the last note ends
// plus a tail long enough for the ambience to decay.
func RenderAccompaniment(p score.Pattern, sampleRate int, ambience float32) ([]float32, error) {
	if sampleRate <= 0 {
		return nil, errors.New("sampleRate must be positive")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	params := synth.DefaultParams()
	params.MasterGain = DefaultMasterGain
	engine := synth.New(sampleRate, params)
	seq := intseq.New(p.Events(), engine, sampleRate)

	tail := int64(sampleRate / 10)
	var fx *intfx.Chain
	if ambience > 0 {
		tail = int64(sampleRate) * 3 / 2
		fx = intfx.Ambience(sampleRate, float64(p.Beat())/float64(time.Millisecond), ambience)
	}
	frames := seq.TotalFrames() + tail
	out := make([]float32, frames*2)
	seq.Process(out)
	if fx != nil {
		fx.ProcessBuffer(out)
	}
	return out, nil
}

// EncodeWAVFloat32LE wraps interleaved samples in a 32-bit float WAV container.
func EncodeWAVFloat32LE(samples []float32, sampleRate int, channels int) []byte {
	dataSize := len(samples) * 4
	byteRate := sampleRate * channels * 4
	blockAlign := channels * 4
	out := make([]byte, 44+dataSize)
	copy(out[0:], "RIFF")
	binary.LittleEndian.PutUint32(out[4:], uint32(36+dataSize))
	copy(out[8:], "WAVE")
	copy(out[12:], "fmt ")
	binary.LittleEndian.PutUint32(out[16:], 16)
	binary.LittleEndian.PutUint16(out[20:], 3) // IEEE float
	binary.LittleEndian.PutUint16(out[22:], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:], 32)
	copy(out[36:], "data")
	binary.LittleEndian.PutUint32(out[40:], uint32(dataSize))
	for i, s := range samples {
		binary.LittleEndian.PutUint32(out[44+i*4:], math.Float32bits(s))
	}
	return out
}
