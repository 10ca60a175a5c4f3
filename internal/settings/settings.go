package settings

import (
	"encoding/json"
	"log"

	"github.com/quasilyte/gdata"
)

const itemKey = "preferences"

// Preferences are the user choices kept between runs. Playback position is
// deliberately not among them: every launch starts the story from the top.
type Preferences struct {
	Volume   float64 `json:"volume"`
	Muted    bool    `json:"muted"`
	Ambience bool    `json:"ambience"`
}

func Defaults() Preferences {
	return Preferences{Volume: 1}
}

// EffectiveVolume is the scalar handed to the scheduler.
func (p Preferences) EffectiveVolume() float64 {
	if p.Muted {
		return 0
	}
	return p.Volume
}

// Session is the audio state of one run: the saved preferences plus overrides
// that must never be written back, such as a mute forced by the environment.
type Session struct {
	Prefs     Preferences
	ForceMute bool
}

func (s Session) Muted() bool { return s.ForceMute || s.Prefs.Muted }

func (s Session) EffectiveVolume() float64 {
	if s.ForceMute {
		return 0
	}
	return s.Prefs.EffectiveVolume()
}

// ToggleMute lifts a forced mute first; after that it flips the saved flag.
func (s *Session) ToggleMute() {
	if s.ForceMute {
		s.ForceMute = false
		return
	}
	s.Prefs.Muted = !s.Prefs.Muted
}

// Storage is the subset of gdata.Manager the store needs.
type Storage interface {
	LoadItem(key string) ([]byte, error)
	SaveItem(key string, data []byte) error
}

// Store loads and saves Preferences. A Store without storage is valid; it
// always reports defaults and discards saves.
type Store struct {
	storage Storage
	logger  *log.Logger
}

// Open creates a store backed by gdata under appName. If the platform has no
// usable data directory the returned store is inert and a warning is logged.
func Open(appName string, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Default()
	}
	m, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		logger.Printf("warning: could not initialize settings storage: %v", err)
		return &Store{logger: logger}
	}
	return &Store{storage: m, logger: logger}
}

func NewStore(storage Storage, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Default()
	}
	return &Store{storage: storage, logger: logger}
}

// Load returns saved preferences, or defaults when none are saved or they
// cannot be read.
func (s *Store) Load() Preferences {
	prefs := Defaults()
	if s == nil || s.storage == nil {
		return prefs
	}
	data, err := s.storage.LoadItem(itemKey)
	if err != nil {
		s.logger.Printf("warning: could not load settings: %v", err)
		return prefs
	}
	if len(data) == 0 {
		return prefs
	}
	if err := json.Unmarshal(data, &prefs); err != nil {
		s.logger.Printf("warning: could not parse saved settings: %v", err)
		return Defaults()
	}
	if prefs.Volume < 0 {
		prefs.Volume = 0
	}
	return prefs
}

func (s *Store) Save(p Preferences) error {
	if s == nil || s.storage == nil {
		return nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	if err := s.storage.SaveItem(itemKey, data); err != nil {
		s.logger.Printf("warning: could not save settings: %v", err)
		return err
	}
	return nil
}
