package scene

import (
	"errors"
	"fmt"
	"time"
)

// VisualTag names the motif drawn behind a scene's caption.
type VisualTag string

const (
	VisualCouple     VisualTag = "couple"
	VisualMother     VisualTag = "mother"
	VisualEyes       VisualTag = "eyes"
	VisualTransition VisualTag = "transition"
	VisualBaby       VisualTag = "baby"
	VisualParents    VisualTag = "parents"
	VisualFade       VisualTag = "fade"
)

var knownVisuals = map[VisualTag]struct{}{
	VisualCouple:     {},
	VisualMother:     {},
	VisualEyes:       {},
	VisualTransition: {},
	VisualBaby:       {},
	VisualParents:    {},
	VisualFade:       {},
}

// Valid reports whether v belongs to the closed set of motifs.
func (v VisualTag) Valid() bool {
	_, ok := knownVisuals[v]
	return ok
}

var (
	ErrEmptyTable    = errors.New("scene table is empty")
	ErrEmptyInterval = errors.New("scene interval is empty")
	ErrDuplicateID   = errors.New("duplicate scene id")
	ErrUnsorted      = errors.New("scenes are not sorted by start time")
	ErrNotContiguous = errors.New("scene intervals are not contiguous")
	ErrUnknownVisual = errors.New("unknown visual tag")
)

// Scene is one timed unit of the story. The interval [Start, End) is half-open.
type Scene struct {
	ID      int
	Start   time.Duration
	End     time.Duration
	Caption string
	Visual  VisualTag
}

// Contains reports whether t falls inside [Start, End).
func (s Scene) Contains(t time.Duration) bool {
	return t >= s.Start && t < s.End
}

// Table is an immutable ordered list of scenes covering [0, Duration].
type Table struct {
	scenes   []Scene
	duration time.Duration
}

// NewTable validates scenes and returns a table owning a private copy.
func NewTable(scenes []Scene) (*Table, error) {
	if len(scenes) == 0 {
		return nil, ErrEmptyTable
	}
	if scenes[0].Start != 0 {
		return nil, fmt.Errorf("%w: first scene starts at %v", ErrNotContiguous, scenes[0].Start)
	}
	// Scene changes are detected by ID, so IDs must be unique.
	seen := make(map[int]struct{}, len(scenes))
	for i, s := range scenes {
		if s.End <= s.Start {
			return nil, fmt.Errorf("%w: scene %d spans [%v, %v)", ErrEmptyInterval, s.ID, s.Start, s.End)
		}
		if _, dup := seen[s.ID]; dup {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateID, s.ID)
		}
		seen[s.ID] = struct{}{}
		if !s.Visual.Valid() {
			return nil, fmt.Errorf("%w: scene %d uses %q", ErrUnknownVisual, s.ID, s.Visual)
		}
		if i == 0 {
			continue
		}
		prev := scenes[i-1]
		if s.Start < prev.Start {
			return nil, fmt.Errorf("%w: scene %d before scene %d", ErrUnsorted, s.ID, prev.ID)
		}
		if s.Start != prev.End {
			return nil, fmt.Errorf("%w: scene %d ends at %v, scene %d starts at %v",
				ErrNotContiguous, prev.ID, prev.End, s.ID, s.Start)
		}
	}
	own := make([]Scene, len(scenes))
	copy(own, scenes)
	return &Table{scenes: own, duration: own[len(own)-1].End}, nil
}

// MustTable is NewTable for statically known content.
func MustTable(scenes []Scene) *Table {
	t, err := NewTable(scenes)
	if err != nil {
		panic(err)
	}
	return t
}

// Duration is the end of the last scene.
func (t *Table) Duration() time.Duration { return t.duration }

// Len returns the number of scenes.
func (t *Table) Len() int { return len(t.scenes) }

// At returns the i-th scene.
func (t *Table) At(i int) Scene { return t.scenes[i] }

// Scenes returns a copy of the table's scenes.
func (t *Table) Scenes() []Scene {
	out := make([]Scene, len(t.scenes))
	copy(out, t.scenes)
	return out
}

// Resolve maps an elapsed time to the active scene. Times at or past the end
// of the table, and negative times, resolve to the last and first scene.
func (t *Table) Resolve(elapsed time.Duration) Scene {
	if elapsed < 0 {
		return t.scenes[0]
	}
	// Tables are short; a linear scan matches the first-match policy exactly.
	for _, s := range t.scenes {
		if s.Contains(elapsed) {
			return s
		}
	}
	return t.scenes[len(t.scenes)-1]
}

// Progress returns elapsed/duration clamped to [0, 1].
func (t *Table) Progress(elapsed time.Duration) float64 {
	if t.duration <= 0 || elapsed <= 0 {
		return 0
	}
	if elapsed >= t.duration {
		return 1
	}
	return float64(elapsed) / float64(t.duration)
}
