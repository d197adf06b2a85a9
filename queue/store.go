package queue

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/gommon/log"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("song not found")
	ErrStorage    = errors.New("storage failure")
)

const DefaultCacheTTL = 5 * time.Second

// Logger is the subset of the gommon logger used by this package.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

type Option func(*Store)

// WithClock replaces time.Now, for the cache window and createdAt stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

func WithLogger(logger Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithIDGenerator replaces the uuid v7 id source.
func WithIDGenerator(gen func() (string, error)) Option {
	return func(s *Store) { s.newID = gen }
}

// Store is the authoritative ordered song queue. Reads are served from a
// snapshot for the cache ttl; every write replaces the snapshot with what
// was just saved.
type Store struct {
	repo   Repository
	ttl    time.Duration
	now    func() time.Time
	newID  func() (string, error)
	logger Logger

	mu       sync.Mutex
	snapshot Snapshot
}

func NewStore(repo Repository, opts ...Option) *Store {
	s := &Store{
		repo:   repo,
		ttl:    DefaultCacheTTL,
		now:    time.Now,
		newID:  newSongID,
		logger: log.New("queue"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func newSongID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func (s *Store) Close() error {
	return s.repo.Close()
}

// load returns the cached collection or reads it from the repository.
// Callers hold s.mu.
func (s *Store) load(ctx context.Context) ([]Song, error) {
	now := s.now()
	if s.snapshot.Fresh(now, s.ttl) {
		return s.snapshot.Songs(), nil
	}

	songs, err := s.repo.Load(ctx)
	if err != nil {
		s.snapshot.Invalidate()
		return nil, err
	}
	if n := CountPlaying(songs); n > 1 {
		s.logger.Warnf("stored queue has %d playing songs", n)
	}
	s.snapshot.Replace(songs, now)
	s.logger.Debugf("loaded %d songs from storage", len(songs))
	return s.snapshot.Songs(), nil
}

// save persists songs and makes them the current snapshot. Callers hold s.mu.
func (s *Store) save(ctx context.Context, songs []Song) error {
	if err := s.repo.Save(ctx, songs); err != nil {
		s.snapshot.Invalidate()
		return err
	}
	s.snapshot.Replace(songs, s.now())
	return nil
}

// List returns the queue sorted for presentation: playing first, then
// queued, then completed, keeping stored order within a status. A storage
// failure is logged and yields an empty queue.
func (s *Store) List(ctx context.Context) []Song {
	songs, err := s.ListStrict(ctx)
	if err != nil {
		s.logger.Errorf("listing songs: %v", err)
		return []Song{}
	}
	return songs
}

// ListStrict is List without the degradation to an empty queue.
func (s *Store) ListStrict(ctx context.Context) ([]Song, error) {
	s.mu.Lock()
	songs, err := s.load(ctx)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	sort.SliceStable(songs, func(i, j int) bool {
		return songs[i].Status.precedence() < songs[j].Status.precedence()
	})
	return songs, nil
}

// Songs returns the queue in stored order.
func (s *Store) Songs(ctx context.Context) ([]Song, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *Store) Add(ctx context.Context, in NewSong) (Song, error) {
	if err := in.validate(); err != nil {
		return Song{}, err
	}

	id, err := s.newID()
	if err != nil {
		return Song{}, fmt.Errorf("generate song id: %w", err)
	}

	song := Song{
		ID:        id,
		Title:     in.Title,
		Artist:    in.Artist,
		Image:     in.Image,
		Status:    StatusQueued,
		CreatedAt: formatCreatedAt(s.now()),
	}.withDefaults()

	s.mu.Lock()
	defer s.mu.Unlock()

	songs, err := s.load(ctx)
	if err != nil {
		return Song{}, err
	}
	if err := s.save(ctx, append(songs, song)); err != nil {
		return Song{}, err
	}
	s.logger.Infof("added song %s (%s - %s)", song.ID, song.Artist, song.Title)
	return song, nil
}

// Update merges upd into the song with the given id. A status change goes
// through ApplyStatus so a new playing song demotes the previous one.
func (s *Store) Update(ctx context.Context, id string, upd SongUpdate) (Song, error) {
	if err := upd.validate(); err != nil {
		return Song{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	songs, err := s.load(ctx)
	if err != nil {
		return Song{}, err
	}

	idx := indexOf(songs, id)
	if idx < 0 {
		return Song{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	songs[idx] = upd.apply(songs[idx])

	if upd.Status != nil {
		songs, err = ApplyStatus(songs, id, *upd.Status)
		if err != nil {
			return Song{}, err
		}
	}

	if err := s.save(ctx, songs); err != nil {
		return Song{}, err
	}
	s.logger.Infof("updated song %s", id)
	return songs[idx], nil
}

// Remove reports whether a song was deleted.
func (s *Store) Remove(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	songs, err := s.load(ctx)
	if err != nil {
		return false, err
	}

	idx := indexOf(songs, id)
	if idx < 0 {
		return false, nil
	}
	songs = append(songs[:idx], songs[idx+1:]...)

	if err := s.save(ctx, songs); err != nil {
		return false, err
	}
	s.logger.Infof("removed song %s", id)
	return true, nil
}

// Reorder puts the queue in the order of ids. Songs not named in ids are
// kept after the reordered ones. With deriveStatus the first song becomes
// playing and the rest queued.
func (s *Store) Reorder(ctx context.Context, ids []string, deriveStatus bool) ([]Song, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	songs, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	songs = reorder(songs, ids)
	if deriveStatus {
		songs = DeriveStatusFromPosition(songs)
	}

	if err := s.save(ctx, songs); err != nil {
		return nil, err
	}
	s.logger.Infof("reordered %d songs (derive status: %t)", len(songs), deriveStatus)
	return cloneSongs(songs), nil
}

// Replace overwrites the whole collection. The songs must have unique ids,
// an artist, a known status and at most one of them may be playing. Blank
// titles and images get the placeholders.
func (s *Store) Replace(ctx context.Context, songs []Song) error {
	if err := validateCollection(songs); err != nil {
		return err
	}

	songs = cloneSongs(songs)
	for i := range songs {
		songs[i] = songs[i].withDefaults()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.save(ctx, songs); err != nil {
		return err
	}
	s.logger.Infof("replaced queue with %d songs", len(songs))
	return nil
}

func validateCollection(songs []Song) error {
	seen := make(map[string]bool, len(songs))
	for _, song := range songs {
		if song.ID == "" {
			return fmt.Errorf("%w: song without id", ErrValidation)
		}
		if err := checkText(map[string]string{"id": song.ID}); err != nil {
			return err
		}
		if seen[song.ID] {
			return fmt.Errorf("%w: duplicate song id %s", ErrValidation, song.ID)
		}
		seen[song.ID] = true

		if !song.Status.Valid() {
			return fmt.Errorf("%w: song %s has unknown status %q", ErrValidation, song.ID, song.Status)
		}
		err := NewSong{Title: song.Title, Artist: song.Artist, Image: song.Image}.validate()
		if err != nil {
			return fmt.Errorf("song %s: %w", song.ID, err)
		}
	}
	if n := CountPlaying(songs); n > 1 {
		return fmt.Errorf("%w: %d songs are playing", ErrValidation, n)
	}
	return nil
}

// CurrentlyPlaying returns the first playing song, if any.
func (s *Store) CurrentlyPlaying(ctx context.Context) (Song, bool, error) {
	s.mu.Lock()
	songs, err := s.load(ctx)
	s.mu.Unlock()
	if err != nil {
		return Song{}, false, err
	}

	for _, song := range songs {
		if song.Status == StatusPlaying {
			return song, true, nil
		}
	}
	return Song{}, false, nil
}

func indexOf(songs []Song, id string) int {
	for i, s := range songs {
		if s.ID == id {
			return i
		}
	}
	return -1
}
