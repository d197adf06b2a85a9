package queue

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
)

func TestOpenRepositorySchemes(t *testing.T) {
	dir := t.TempDir()

	repo, err := OpenRepository("file://"+filepath.ToSlash(filepath.Join(dir, "songs.md")), quietLogger())
	if err != nil {
		t.Fatalf("OpenRepository(file) returned error: %v", err)
	}
	md, ok := repo.(*MarkdownRepository)
	if !ok {
		t.Fatalf("expected markdown repository, got %T", repo)
	}
	if md.Path() != filepath.Join(dir, "songs.md") {
		t.Fatalf("unexpected path %q", md.Path())
	}

	rel, err := OpenRepository("file://data/songs.md", quietLogger())
	if err != nil {
		t.Fatalf("OpenRepository(relative) returned error: %v", err)
	}
	if got := rel.(*MarkdownRepository).Path(); got != filepath.Join("data", "songs.md") {
		t.Fatalf("unexpected relative path %q", got)
	}

	if _, err := OpenRepository("redis://localhost", quietLogger()); err == nil {
		t.Fatal("expected unsupported scheme error")
	}
}

func TestSQLiteRepositoryRoundTrip(t *testing.T) {
	repo, err := OpenRepository("sqlite://"+filepath.ToSlash(filepath.Join(t.TempDir(), "songs.db")), quietLogger())
	if err != nil {
		t.Fatalf("OpenRepository(sqlite) returned error: %v", err)
	}
	defer repo.Close()
	ctx := context.Background()

	empty, err := repo.Load(ctx)
	if err != nil || len(empty) != 0 {
		t.Fatalf("Load on fresh db = %v, %v", empty, err)
	}

	want := sampleSongs()
	if err := repo.Save(ctx, want); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	// reversed order must replace, not append
	reversed := []Song{want[2], want[1], want[0]}
	if err := repo.Save(ctx, reversed); err != nil {
		t.Fatalf("second Save returned error: %v", err)
	}

	got, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !reflect.DeepEqual(got, reversed) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, reversed)
	}
}
