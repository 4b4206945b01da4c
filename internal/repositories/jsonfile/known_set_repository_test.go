package jsonfile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ticketwatch/internal/model"
	"ticketwatch/internal/repositories"
)

func TestLoadMissingFileReturnsEmptySet(t *testing.T) {
	repo := NewKnownSetRepository(filepath.Join(t.TempDir(), "absent"))

	known, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if known.Len() != 0 {
		t.Errorf("expected empty set, got %d items", known.Len())
	}
}

func TestLoadCorruptFileFails(t *testing.T) {
	cases := map[string]string{
		"truncated":    `[{"id":"42",`,
		"object":       `{}`,
		"null":         `null`,
		"null entry":   `[null]`,
		"empty entry":  `[{}]`,
		"missing id":   `[{"id":"42"},{"homeTeam":"AEK"}]`,
		"empty string": ``,
	}

	for name, content := range cases {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, DefaultFilename), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}

		known, err := NewKnownSetRepository(dir).Load(context.Background())
		if !errors.Is(err, repositories.ErrCorruptState) {
			t.Errorf("%s: expected ErrCorruptState, got err=%v known=%v", name, err, known)
		}
	}
}

func TestLoadEmptyArray(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, DefaultFilename), []byte(`[]`), 0o644); err != nil {
		t.Fatal(err)
	}

	known, err := NewKnownSetRepository(dir).Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if known.Len() != 0 {
		t.Errorf("expected empty set, got %d", known.Len())
	}
}

func TestLoadReadsFileWithoutSource(t *testing.T) {
	dir := t.TempDir()
	content := `[
  {"homeTeam":"Olympiacos","awayTeam":"AEK","venue":"SEF","date":"12/10","link":"https://x/1","id":"42"}
]`
	if err := os.WriteFile(filepath.Join(dir, DefaultFilename), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	known, err := NewKnownSetRepository(dir).Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !known.Has("42") || known.Items()[0].HomeTeam != "Olympiacos" {
		t.Errorf("unexpected known set: %+v", known.Items())
	}
}

func TestSaveCreatesDirAndRoundTrips(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	repo := NewKnownSetRepository(dir)
	ctx := context.Background()

	known := model.NewKnownSet([]model.Listing{
		{ID: "42", HomeTeam: "Olympiacos", Link: "https://x/42"},
		{ID: "43", HomeTeam: "Olympiacos", Link: "https://x/43"},
	})
	if err := repo.Save(ctx, known); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Len() != 2 || !loaded.Has("42") || !loaded.Has("43") {
		t.Errorf("unexpected round trip: %+v", loaded.Items())
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".tmp") {
			t.Errorf("temp file left behind: %s", entry.Name())
		}
	}
}

func TestSaveOmitsEmptySource(t *testing.T) {
	dir := t.TempDir()
	repo := NewKnownSetRepository(dir)
	if err := repo.Save(context.Background(), model.NewKnownSet([]model.Listing{{ID: "1"}})); err != nil {
		t.Fatal(err)
	}

	content, err := os.ReadFile(repo.Path())
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(content), `"source"`) {
		t.Errorf("expected source to be omitted, got %s", content)
	}
}
