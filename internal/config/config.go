package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Prefix is prepended to every variable name below.
const Prefix = "STORYPLAY_"

// Config holds process-level settings read from the environment. Commands
// layer their flags on top of it.
type Config struct {
	AppName     string        `env:"APP_NAME"     envDefault:"storyplay"`
	SampleRate  int           `env:"SAMPLE_RATE"  envDefault:"48000"`
	MasterGain  float64       `env:"MASTER_GAIN"  envDefault:"0.08"`
	SettleDelay time.Duration `env:"SETTLE_DELAY" envDefault:"50ms"`
	FrameRate   int           `env:"FRAME_RATE"   envDefault:"60"`
	Ambience    bool          `env:"AMBIENCE"     envDefault:"false"`
	Mute        bool          `env:"MUTE"         envDefault:"false"`
}

// DotEnv is the optional file Load merges under the process environment.
const DotEnv = ".env"

// Load reads STORYPLAY_* variables from the process environment and from a
// .env file in the working directory, if there is one.
func Load() (Config, error) {
	return LoadFile(DotEnv)
}

// LoadFile is Load with an explicit dotenv path. A missing file is not an
// error. Variables already set in the process environment take precedence;
// the process environment itself is left untouched.
func LoadFile(path string) (Config, error) {
	environ, err := godotenv.Read(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("read %s: %w", path, err)
		}
		environ = map[string]string{}
	}
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			environ[k] = v
		}
	}
	return LoadFrom(environ)
}

// LoadFrom reads the same variables from environ instead of the process
// environment. Keys carry the prefix.
func LoadFrom(environ map[string]string) (Config, error) {
	return parse(env.Options{Prefix: Prefix, Environment: environ})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("%sSAMPLE_RATE must be positive, got %d", Prefix, c.SampleRate)
	}
	if c.FrameRate <= 0 {
		return fmt.Errorf("%sFRAME_RATE must be positive, got %d", Prefix, c.FrameRate)
	}
	if c.MasterGain < 0 {
		return fmt.Errorf("%sMASTER_GAIN must not be negative, got %v", Prefix, c.MasterGain)
	}
	if c.SettleDelay < 0 {
		return fmt.Errorf("%sSETTLE_DELAY must not be negative, got %v", Prefix, c.SettleDelay)
	}
	return nil
}

// AmbienceAmount maps the on/off switch onto the effect mix amount.
func (c Config) AmbienceAmount() float32 {
	if c.Ambience {
		return 1
	}
	return 0
}
