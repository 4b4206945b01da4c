package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"ticketwatch/internal/model"
)

const selectKnownListings = `SELECT id, home_team, away_team, venue, event_date, link, source
FROM known_listings
ORDER BY position`

var knownListingColumns = []string{"position", "id", "home_team", "away_team", "venue", "event_date", "link", "source"}

// DB is the subset of *pgxpool.Pool used by the repository.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type KnownSetRepository struct {
	db DB
}

func NewKnownSetRepository(db DB) *KnownSetRepository {
	return &KnownSetRepository{db: db}
}

func (r *KnownSetRepository) Load(ctx context.Context) (*model.KnownSet, error) {
	rows, err := r.db.Query(ctx, selectKnownListings)
	if err != nil {
		return nil, fmt.Errorf("query known listings: %w", err)
	}

	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Listing, error) {
		var l model.Listing
		err := row.Scan(&l.ID, &l.HomeTeam, &l.AwayTeam, &l.Venue, &l.Date, &l.Link, &l.Source)
		return l, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan known listings: %w", err)
	}
	return model.NewKnownSet(items), nil
}

// Save replaces the table contents inside one transaction.
func (r *KnownSetRepository) Save(ctx context.Context, known *model.KnownSet) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM known_listings"); err != nil {
		return fmt.Errorf("clear known listings: %w", err)
	}

	items := known.Items()
	rows := make([][]any, 0, len(items))
	for i, l := range items {
		rows = append(rows, []any{i, l.ID, l.HomeTeam, l.AwayTeam, l.Venue, l.Date, l.Link, l.Source})
	}
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"known_listings"}, knownListingColumns, pgx.CopyFromRows(rows)); err != nil {
		return fmt.Errorf("copy known listings: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
