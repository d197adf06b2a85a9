package queue

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// Repository persists the whole ordered collection of songs.
type Repository interface {
	Load(ctx context.Context) ([]Song, error)
	Save(ctx context.Context, songs []Song) error
	Close() error
}

// OpenRepository picks a repository from the scheme of storeURL:
// file://path/songs.md, sqlite://path/songs.db or postgres://...
func OpenRepository(storeURL string, logger Logger) (Repository, error) {
	u, err := url.Parse(storeURL)
	if err != nil {
		return nil, fmt.Errorf("parse store url: %w", err)
	}

	switch u.Scheme {
	case "file", "":
		return NewMarkdownRepository(localPath(u), logger), nil
	case "sqlite", "sqlite3":
		return NewSQLiteRepository(localPath(u))
	case "postgres", "postgresql":
		return NewPostgresRepository(storeURL)
	default:
		return nil, fmt.Errorf("unsupported store scheme %q", u.Scheme)
	}
}

// localPath accepts both file://relative/path and file:///absolute/path.
func localPath(u *url.URL) string {
	p := u.Host + u.Path
	if u.Opaque != "" {
		p = u.Opaque
	}
	p = strings.TrimPrefix(p, "//")
	return filepath.FromSlash(p)
}
