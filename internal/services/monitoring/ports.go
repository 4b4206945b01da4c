package monitoring

import (
	"context"

	"ticketwatch/internal/model"
)

type Fetcher interface {
	Fetch(ctx context.Context, url string) (model.Page, error)
}

type PageParser interface {
	Scan(page model.Page) (model.PageScan, error)
}

// Notifier delivers alerts. Delivery is best effort; an error only means
// this one message was not handed off.
type Notifier interface {
	NotifyNewListing(ctx context.Context, listing model.Listing) error
	NotifyQueueDetected(ctx context.Context, sourceURL string) error
}
