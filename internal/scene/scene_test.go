package scene

import (
	"errors"
	"testing"
	"time"
)

func TestStoryTableInvariants(t *testing.T) {
	if got := Story.Duration(); got != 17*time.Second {
		t.Fatalf("duration = %v, want 17s", got)
	}
	scenes := Story.Scenes()
	if scenes[0].Start != 0 {
		t.Fatalf("first scene starts at %v", scenes[0].Start)
	}
	for i := 1; i < len(scenes); i++ {
		if scenes[i].Start != scenes[i-1].End {
			t.Fatalf("gap between scene %d and %d", scenes[i-1].ID, scenes[i].ID)
		}
		if scenes[i].Start <= scenes[i-1].Start {
			t.Fatalf("scene %d not sorted", scenes[i].ID)
		}
	}
	if last := scenes[len(scenes)-1]; last.End != Story.Duration() {
		t.Fatalf("last scene ends at %v, want %v", last.End, Story.Duration())
	}
}

func TestResolveBoundaries(t *testing.T) {
	cases := []struct {
		at   time.Duration
		want int
	}{
		{0, 1},
		{1000 * time.Millisecond, 1},
		{1999 * time.Millisecond, 1},
		{2000 * time.Millisecond, 2},
		{4000 * time.Millisecond, 3},
		{8999 * time.Millisecond, 4},
		{12000 * time.Millisecond, 6},
		{16999 * time.Millisecond, 7},
		{17000 * time.Millisecond, 7},
	}
	for _, tc := range cases {
		if got := Story.Resolve(tc.at).ID; got != tc.want {
			t.Fatalf("Resolve(%v) = scene %d, want %d", tc.at, got, tc.want)
		}
	}
}

func TestResolveIsTotalOverDuration(t *testing.T) {
	d := Story.Duration()
	for at := time.Duration(0); at <= d; at += 50 * time.Millisecond {
		s := Story.Resolve(at)
		if at == d {
			if s.ID != Story.At(Story.Len()-1).ID {
				t.Fatalf("Resolve(duration) = %d, want last scene", s.ID)
			}
			continue
		}
		if !s.Contains(at) {
			t.Fatalf("Resolve(%v) = scene %d [%v,%v) which does not contain it", at, s.ID, s.Start, s.End)
		}
		matches := 0
		for _, c := range Story.Scenes() {
			if c.Contains(at) {
				matches++
			}
		}
		if matches != 1 {
			t.Fatalf("%d scenes contain %v", matches, at)
		}
	}
}

func TestProgressClamps(t *testing.T) {
	if got := Story.Progress(-time.Second); got != 0 {
		t.Fatalf("progress(-1s) = %v", got)
	}
	if got := Story.Progress(8500 * time.Millisecond); got != 0.5 {
		t.Fatalf("progress(8.5s) = %v, want 0.5", got)
	}
	if got := Story.Progress(time.Minute); got != 1 {
		t.Fatalf("progress(1m) = %v, want 1", got)
	}
}

func TestNewTableRejectsBrokenTables(t *testing.T) {
	cases := []struct {
		name   string
		scenes []Scene
		want   error
	}{
		{"empty", nil, ErrEmptyTable},
		{"gap", []Scene{
			{ID: 1, Start: 0, End: time.Second, Visual: VisualFade},
			{ID: 2, Start: 2 * time.Second, End: 3 * time.Second, Visual: VisualFade},
		}, ErrNotContiguous},
		{"overlap", []Scene{
			{ID: 1, Start: 0, End: 2 * time.Second, Visual: VisualFade},
			{ID: 2, Start: time.Second, End: 3 * time.Second, Visual: VisualFade},
		}, ErrNotContiguous},
		{"late start", []Scene{
			{ID: 1, Start: time.Second, End: 2 * time.Second, Visual: VisualFade},
		}, ErrNotContiguous},
		{"visual", []Scene{
			{ID: 1, Start: 0, End: time.Second, Visual: "sunset"},
		}, ErrUnknownVisual},
		{"empty interval", []Scene{
			{ID: 1, Start: 0, End: 0, Visual: VisualFade},
		}, ErrEmptyInterval},
		{"inverted interval", []Scene{
			{ID: 1, Start: 0, End: time.Second, Visual: VisualFade},
			{ID: 2, Start: time.Second, End: 500 * time.Millisecond, Visual: VisualFade},
		}, ErrEmptyInterval},
		{"duplicate id", []Scene{
			{ID: 1, Start: 0, End: time.Second, Visual: VisualFade},
			{ID: 1, Start: time.Second, End: 2 * time.Second, Visual: VisualEyes},
		}, ErrDuplicateID},
		{"unsorted", []Scene{
			{ID: 1, Start: 0, End: time.Second, Visual: VisualFade},
			{ID: 2, Start: time.Second, End: 2 * time.Second, Visual: VisualFade},
			{ID: 3, Start: 0, End: time.Second, Visual: VisualFade},
		}, ErrUnsorted},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewTable(tc.scenes)
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestTableCopiesInput(t *testing.T) {
	in := []Scene{{ID: 1, Start: 0, End: time.Second, Caption: "a", Visual: VisualFade}}
	tbl, err := NewTable(in)
	if err != nil {
		t.Fatalf("new table: %v", err)
	}
	in[0].Caption = "mutated"
	if got := tbl.At(0).Caption; got != "a" {
		t.Fatalf("table shares caller slice, caption = %q", got)
	}
}
