package queue

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const songsTable = `
	  create table if not exists songs (
		id text primary key,
		position integer not null,
		title text not null,
		artist text not null,
		image text,
		status text not null,
		created_at text not null
	  );`

// sqlRepository stores the queue as one row per song, ordered by position.
// Save rewrites every row inside a single transaction.
type sqlRepository struct {
	db *sqlx.DB
}

func newSQLRepository(db *sqlx.DB) (*sqlRepository, error) {
	if _, err := db.Exec(songsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: create songs table: %v", ErrStorage, err)
	}
	return &sqlRepository{db: db}, nil
}

func (r *sqlRepository) Load(ctx context.Context) ([]Song, error) {
	query := `
	  select id, title, artist, coalesce(image, '') as image, status, created_at
	  from songs
	  order by position;`

	songs := make([]Song, 0)
	if err := r.db.SelectContext(ctx, &songs, query); err != nil {
		return nil, fmt.Errorf("%w: select songs: %v", ErrStorage, err)
	}
	return songs, nil
}

func (r *sqlRepository) Save(ctx context.Context, songs []Song) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", ErrStorage, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `delete from songs;`); err != nil {
		return fmt.Errorf("%w: clear songs: %v", ErrStorage, err)
	}

	insert := tx.Rebind(`
	  insert into songs (id, position, title, artist, image, status, created_at)
	  values (?, ?, ?, ?, ?, ?, ?);`)
	for i, s := range songs {
		_, err := tx.ExecContext(ctx, insert,
			s.ID, i, s.Title, s.Artist, s.Image, string(s.Status), s.CreatedAt)
		if err != nil {
			return fmt.Errorf("%w: insert song %s: %v", ErrStorage, s.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", ErrStorage, err)
	}
	return nil
}

func (r *sqlRepository) Close() error {
	return r.db.Close()
}
