// Package queue holds the song queue of the now playing service: the song
// model, the status policy and the cached store backed by a repository.
package queue

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

const (
	DefaultTitle = "Untitled Song"
	DefaultImage = "/origin.jpg"
)

type Status string

const (
	StatusPlaying   Status = "playing"
	StatusQueued    Status = "queued"
	StatusCompleted Status = "completed"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPlaying, StatusQueued, StatusCompleted:
		return true
	}
	return false
}

// precedence orders statuses for presentation: playing, queued, completed.
func (s Status) precedence() int {
	switch s {
	case StatusPlaying:
		return 0
	case StatusQueued:
		return 1
	case StatusCompleted:
		return 2
	}
	return 3
}

func ParseStatus(v string) (Status, bool) {
	s := Status(strings.ToLower(strings.TrimSpace(v)))
	return s, s.Valid()
}

type Song struct {
	ID        string `json:"id" db:"id"`
	Title     string `json:"title" db:"title"`
	Artist    string `json:"artist" db:"artist"`
	Image     string `json:"image,omitempty" db:"image"`
	Status    Status `json:"status" db:"status"`
	CreatedAt string `json:"createdAt" db:"created_at"`
}

// NewSong is the input of Store.Add.
type NewSong struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Image  string `json:"image"`
}

// SongUpdate carries the fields to merge into an existing song. Nil fields
// are left untouched.
type SongUpdate struct {
	Title  *string `json:"title"`
	Artist *string `json:"artist"`
	Image  *string `json:"image"`
	Status *Status `json:"status"`
}

func (in NewSong) validate() error {
	if strings.TrimSpace(in.Artist) == "" {
		return fmt.Errorf("%w: artist name is required", ErrValidation)
	}
	return checkText(map[string]string{"title": in.Title, "artist": in.Artist, "image": in.Image})
}

func (u SongUpdate) validate() error {
	fields := map[string]string{}
	if u.Title != nil {
		fields["title"] = *u.Title
	}
	if u.Artist != nil {
		if strings.TrimSpace(*u.Artist) == "" {
			return fmt.Errorf("%w: artist name is required", ErrValidation)
		}
		fields["artist"] = *u.Artist
	}
	if u.Image != nil {
		fields["image"] = *u.Image
	}
	if u.Status != nil && !u.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, *u.Status)
	}
	return checkText(fields)
}

// checkText rejects control characters. Songs are stored one field per line,
// so a newline in a value would start a new record.
func checkText(fields map[string]string) error {
	for name, v := range fields {
		if strings.IndexFunc(v, unicode.IsControl) >= 0 {
			return fmt.Errorf("%w: %s contains control characters", ErrValidation, name)
		}
	}
	return nil
}

// withDefaults fills a blank title or image with the placeholders.
func (s Song) withDefaults() Song {
	s.Title = strings.TrimSpace(s.Title)
	s.Artist = strings.TrimSpace(s.Artist)
	s.Image = strings.TrimSpace(s.Image)
	if s.Title == "" {
		s.Title = DefaultTitle
	}
	if s.Image == "" {
		s.Image = DefaultImage
	}
	return s
}

func (u SongUpdate) apply(s Song) Song {
	if u.Title != nil {
		s.Title = *u.Title
	}
	if u.Artist != nil {
		s.Artist = *u.Artist
	}
	if u.Image != nil {
		s.Image = *u.Image
	}
	return s.withDefaults()
}

func formatCreatedAt(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func cloneSongs(songs []Song) []Song {
	out := make([]Song, len(songs))
	copy(out, songs)
	return out
}
