package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"ticketwatch/internal/model"
	"ticketwatch/internal/repositories"
)

const DefaultFilename = "known_tickets.json"

// KnownSetRepository keeps the known set in a single JSON array file.
type KnownSetRepository struct {
	path string
}

func NewKnownSetRepository(dir string) *KnownSetRepository {
	return &KnownSetRepository{path: filepath.Join(dir, DefaultFilename)}
}

func (r *KnownSetRepository) Path() string {
	return r.path
}

func (r *KnownSetRepository) Load(ctx context.Context) (*model.KnownSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	content, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return model.NewKnownSet(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read known set: %w", err)
	}

	var items []*model.Listing
	if err := json.Unmarshal(content, &items); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", repositories.ErrCorruptState, r.path, err)
	}
	if items == nil {
		return nil, fmt.Errorf("%w: %s: not a json array", repositories.ErrCorruptState, r.path)
	}

	listings := make([]model.Listing, 0, len(items))
	for i, item := range items {
		if item == nil || item.ID == "" {
			return nil, fmt.Errorf("%w: %s: entry %d has no id", repositories.ErrCorruptState, r.path, i)
		}
		listings = append(listings, *item)
	}
	return model.NewKnownSet(listings), nil
}

// Save writes to a temp file in the same directory and renames it over the
// target, so a crash never leaves a half-written file behind.
func (r *KnownSetRepository) Save(ctx context.Context, known *model.KnownSet) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	content, err := json.MarshalIndent(known.Items(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode known set: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".known_tickets-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		return fmt.Errorf("replace known set: %w", err)
	}

	log.Printf("saved %d known listings to %s", known.Len(), r.path)
	return nil
}
