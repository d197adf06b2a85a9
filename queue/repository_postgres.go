package queue

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type PostgresRepository struct {
	*sqlRepository
}

func NewPostgresRepository(dbURL string) (*PostgresRepository, error) {
	db, err := sqlx.Open("postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("%w: open postgres: %v", ErrStorage, err)
	}

	repo, err := newSQLRepository(db)
	if err != nil {
		return nil, err
	}
	return &PostgresRepository{sqlRepository: repo}, nil
}
