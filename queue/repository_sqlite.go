package queue

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

type SQLiteRepository struct {
	*sqlRepository
}

func NewSQLiteRepository(filePath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return nil, fmt.Errorf("%w: create %s: %v", ErrStorage, filepath.Dir(filePath), err)
	}

	db, err := sqlx.Open("sqlite3", filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite %s: %v", ErrStorage, filePath, err)
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)

	repo, err := newSQLRepository(db)
	if err != nil {
		return nil, err
	}
	return &SQLiteRepository{sqlRepository: repo}, nil
}
