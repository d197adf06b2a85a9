package queue

import (
	"fmt"

	"github.com/samber/lo"
)

// ApplyStatus returns a copy of songs where the song with the given id has
// the requested status. Making a song playing demotes every other playing
// song to queued, so the result never has more than one playing song.
func ApplyStatus(songs []Song, id string, status Status) ([]Song, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}
	if _, found := lo.Find(songs, func(s Song) bool { return s.ID == id }); !found {
		return nil, fmt.Errorf("%w: song %s", ErrNotFound, id)
	}

	return lo.Map(songs, func(s Song, _ int) Song {
		switch {
		case s.ID == id:
			s.Status = status
		case status == StatusPlaying && s.Status == StatusPlaying:
			s.Status = StatusQueued
		}
		return s
	}), nil
}

// DeriveStatusFromPosition makes the first song playing and every other song
// queued, whatever their previous status was.
func DeriveStatusFromPosition(songs []Song) []Song {
	return lo.Map(songs, func(s Song, i int) Song {
		if i == 0 {
			s.Status = StatusPlaying
		} else {
			s.Status = StatusQueued
		}
		return s
	})
}

func CountPlaying(songs []Song) int {
	return lo.CountBy(songs, func(s Song) bool { return s.Status == StatusPlaying })
}

// reorder arranges songs in the order of ids. Unknown ids are ignored and
// songs missing from ids keep their relative order after the listed ones.
func reorder(songs []Song, ids []string) []Song {
	byID := lo.KeyBy(songs, func(s Song) string { return s.ID })
	seen := make(map[string]bool, len(ids))

	out := make([]Song, 0, len(songs))
	for _, id := range ids {
		s, ok := byID[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, s)
	}
	for _, s := range songs {
		if !seen[s.ID] {
			out = append(out, s)
		}
	}
	return out
}
