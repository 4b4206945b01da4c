package repositories

import (
	"context"
	"errors"

	"ticketwatch/internal/model"
)

// ErrCorruptState is returned when persisted known-set data cannot be
// parsed. Callers must not treat it as an empty set.
var ErrCorruptState = errors.New("known set state is corrupt")

type KnownSetRepository interface {
	// Load returns the persisted set, or an empty set if nothing was saved yet.
	Load(ctx context.Context) (*model.KnownSet, error)
	// Save replaces the persisted set with known.
	Save(ctx context.Context, known *model.KnownSet) error
}
