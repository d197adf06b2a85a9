package queue

import "time"

// Snapshot is the in-memory copy of the persisted collection together with
// the time it was taken.
type Snapshot struct {
	songs    []Song
	loadedAt time.Time
	valid    bool
}

// Fresh reports whether the snapshot can be served at now given ttl.
func (s *Snapshot) Fresh(now time.Time, ttl time.Duration) bool {
	return s.valid && now.Sub(s.loadedAt) < ttl
}

// Songs returns a copy so callers can't mutate the cached slice.
func (s *Snapshot) Songs() []Song {
	return cloneSongs(s.songs)
}

func (s *Snapshot) Replace(songs []Song, at time.Time) {
	s.songs = cloneSongs(songs)
	s.loadedAt = at
	s.valid = true
}

func (s *Snapshot) Invalidate() {
	s.songs = nil
	s.loadedAt = time.Time{}
	s.valid = false
}
