package queue

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/labstack/gommon/log"
)

func quietLogger() *log.Logger {
	l := log.New("test")
	l.SetOutput(io.Discard)
	return l
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 17, 20, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// countingRepository wraps a repository and counts Load calls.
type countingRepository struct {
	Repository
	loads   int
	saves   int
	loadErr error
	saveErr error
}

func (r *countingRepository) Load(ctx context.Context) ([]Song, error) {
	r.loads++
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	return r.Repository.Load(ctx)
}

func (r *countingRepository) Save(ctx context.Context, songs []Song) error {
	r.saves++
	if r.saveErr != nil {
		return r.saveErr
	}
	return r.Repository.Save(ctx, songs)
}

func sequentialIDs() func() (string, error) {
	n := 0
	return func() (string, error) {
		n++
		return fmt.Sprintf("song-%03d", n), nil
	}
}

func newTestStore(t *testing.T, opts ...Option) (*Store, *MarkdownRepository, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	repo := NewMarkdownRepository(filepath.Join(t.TempDir(), "data", "songs.md"), quietLogger())
	base := []Option{WithClock(clock.Now), WithLogger(quietLogger()), WithIDGenerator(sequentialIDs())}
	return NewStore(repo, append(base, opts...)...), repo, clock
}

func mustAdd(t *testing.T, s *Store, artist, title string) Song {
	t.Helper()
	song, err := s.Add(context.Background(), NewSong{Title: title, Artist: artist})
	if err != nil {
		t.Fatalf("Add(%q) returned error: %v", artist, err)
	}
	return song
}

func statuses(songs []Song) []Status {
	out := make([]Status, len(songs))
	for i, s := range songs {
		out[i] = s.Status
	}
	return out
}

func ids(songs []Song) []string {
	out := make([]string, len(songs))
	for i, s := range songs {
		out[i] = s.ID
	}
	return out
}
