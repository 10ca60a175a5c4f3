package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/cbegin/storyplay-go"
	intaudio "github.com/cbegin/storyplay-go/internal/audio"
	"github.com/cbegin/storyplay-go/internal/config"
	"github.com/cbegin/storyplay-go/internal/scene"
	"github.com/cbegin/storyplay-go/internal/score"
	"github.com/cbegin/storyplay-go/internal/settings"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	prefs := settings.Open(cfg.AppName, log.Default()).Load()

	var (
		sampleRate = flag.Int("sample-rate", cfg.SampleRate, "output sample rate")
		volume     = flag.Float64("volume", prefs.Volume, "master volume scalar")
		mute       = flag.Bool("mute", cfg.Mute || prefs.Muted, "play visuals only")
		ambience   = flag.Bool("ambience", cfg.Ambience || prefs.Ambience, "add echo and reverb")
		replays    = flag.Int("replays", 0, "replay the story N more times after it finishes")
		wavPath    = flag.String("wav", "", "render the accompaniment to a WAV file and exit")
	)
	flag.Parse()

	amount := float32(0)
	if *ambience {
		amount = 1
	}
	if *wavPath != "" {
		if err := exportWAV(*wavPath, *sampleRate, amount); err != nil {
			log.Fatal(err)
		}
		return
	}

	opts := []storyplay.Option{
		storyplay.WithSampleRate(*sampleRate),
		storyplay.WithMasterGain(cfg.MasterGain),
		storyplay.WithVolume(*volume),
		storyplay.WithAmbience(amount),
		storyplay.WithSettleDelay(cfg.SettleDelay),
		storyplay.WithFrameRate(cfg.FrameRate),
		storyplay.WithLogger(log.Default()),
	}
	if *mute {
		opts = append(opts, storyplay.WithDevice(nil))
	}
	if err := run(opts, *replays); err != nil {
		log.Fatal(err)
	}
}

func run(opts []storyplay.Option, replays int) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	ctrl, err := storyplay.NewController(scene.Story, opts...)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	finished := make(chan struct{}, 1)
	ctrl.OnSceneChange(func(s scene.Scene) {
		fmt.Printf("[%5.1fs] %d/%d %-10s %s\n", s.Start.Seconds(), s.ID, ctrl.Table().Len(), s.Visual, s.Caption)
	})
	ctrl.OnFinish(func() {
		select {
		case finished <- struct{}{}:
		default:
		}
	})

	ctrl.Start()
	for pass := 0; ; pass++ {
		select {
		case <-ctx.Done():
			fmt.Println("interrupted")
			return nil
		case <-finished:
		}
		if pass >= replays {
			break
		}
		fmt.Println("replay")
		ctrl.Replay()
	}
	fmt.Println("story completed")

	// The lullaby outlasts the pictures; let it play out.
	select {
	case <-ctx.Done():
	case <-ctrl.AudioDone():
	}
	return nil
}

func exportWAV(path string, sampleRate int, ambience float32) error {
	start := time.Now()
	samples, err := storyplay.RenderAccompaniment(score.Lullaby(), sampleRate, ambience)
	if err != nil {
		return err
	}
	wav := storyplay.EncodeWAVFloat32LE(samples, sampleRate, intaudio.Channels)
	if err := os.WriteFile(path, wav, 0o644); err != nil {
		return fmt.Errorf("write wav: %w", err)
	}
	frames := len(samples) / intaudio.Channels
	log.Printf("wrote %s: %.2fs of audio in %v", path, float64(frames)/float64(sampleRate), time.Since(start).Round(time.Millisecond))
	return nil
}
