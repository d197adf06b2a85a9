package queue

import (
	"errors"
	"reflect"
	"testing"
)

func TestApplyStatus(t *testing.T) {
	base := []Song{
		{ID: "a", Status: StatusPlaying},
		{ID: "b", Status: StatusQueued},
		{ID: "c", Status: StatusCompleted},
	}

	tests := []struct {
		name   string
		id     string
		status Status
		want   []Status
	}{
		{"promote demotes current", "b", StatusPlaying, []Status{StatusQueued, StatusPlaying, StatusCompleted}},
		{"replay completed", "c", StatusPlaying, []Status{StatusQueued, StatusQueued, StatusPlaying}},
		{"complete playing", "a", StatusCompleted, []Status{StatusCompleted, StatusQueued, StatusCompleted}},
		{"same song stays playing", "a", StatusPlaying, []Status{StatusPlaying, StatusQueued, StatusCompleted}},
		{"queue completed", "c", StatusQueued, []Status{StatusPlaying, StatusQueued, StatusQueued}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ApplyStatus(base, tt.id, tt.status)
			if err != nil {
				t.Fatalf("ApplyStatus returned error: %v", err)
			}
			if !reflect.DeepEqual(statuses(got), tt.want) {
				t.Fatalf("got %v, want %v", statuses(got), tt.want)
			}
			if CountPlaying(got) > 1 {
				t.Fatalf("more than one playing song: %v", statuses(got))
			}
		})
	}

	if base[0].Status != StatusPlaying || base[1].Status != StatusQueued {
		t.Fatal("ApplyStatus mutated its input")
	}
}

func TestApplyStatusErrors(t *testing.T) {
	songs := []Song{{ID: "a", Status: StatusQueued}}
	if _, err := ApplyStatus(songs, "zzz", StatusPlaying); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := ApplyStatus(songs, "a", Status("stopped")); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestDeriveStatusFromPosition(t *testing.T) {
	songs := []Song{
		{ID: "a", Status: StatusCompleted},
		{ID: "b", Status: StatusPlaying},
		{ID: "c", Status: StatusCompleted},
	}
	got := DeriveStatusFromPosition(songs)
	want := []Status{StatusPlaying, StatusQueued, StatusQueued}
	if !reflect.DeepEqual(statuses(got), want) {
		t.Fatalf("got %v, want %v", statuses(got), want)
	}
	if len(DeriveStatusFromPosition(nil)) != 0 {
		t.Fatal("expected empty result for empty queue")
	}
}

func TestReorderHelper(t *testing.T) {
	songs := []Song{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}}
	got := ids(reorder(songs, []string{"c", "x", "a", "c"}))
	want := []string{"c", "a", "b", "d"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestParseStatus(t *testing.T) {
	if s, ok := ParseStatus(" Playing "); !ok || s != StatusPlaying {
		t.Fatalf("ParseStatus = %q, %t", s, ok)
	}
	if _, ok := ParseStatus("paused"); ok {
		t.Fatal("expected paused to be rejected")
	}
}
