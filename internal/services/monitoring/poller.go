package monitoring

import (
	"context"
	"fmt"
	"log"

	"ticketwatch/internal/model"
)

// PollResult is the outcome of one source for one cycle. Err is set when
// the source failed; Listings is then empty and Queued false.
type PollResult struct {
	Source   string
	Queued   bool
	Listings []model.Listing
	Err      error
}

type Poller struct {
	fetcher Fetcher
	parser  PageParser
}

func NewPoller(fetcher Fetcher, parser PageParser) *Poller {
	return &Poller{fetcher: fetcher, parser: parser}
}

// Poll never returns listings for a queued page and never reports a queue
// for a page that failed to load.
func (p *Poller) Poll(ctx context.Context, source string) (result PollResult) {
	result.Source = source
	defer func() {
		if r := recover(); r != nil {
			result = PollResult{Source: source, Err: fmt.Errorf("panic while polling: %v", r)}
		}
		if result.Err != nil {
			log.Printf("[%s] poll failed: %v", source, result.Err)
		}
	}()

	page, err := p.fetcher.Fetch(ctx, source)
	if err != nil {
		result.Err = err
		return result
	}

	scan, err := p.parser.Scan(page)
	if err != nil {
		result.Err = err
		return result
	}
	if scan.Queued {
		log.Printf("[%s] queue detected", source)
		result.Queued = true
		return result
	}

	listings := make([]model.Listing, 0, len(scan.Listings))
	for i, r := range scan.Listings {
		listing, fallback := model.NewListing(r, i, source)
		if fallback {
			log.Printf("[%s] listing %d has no usable id, using %s", source, i, listing.ID)
		}
		listings = append(listings, listing)
	}
	result.Listings = listings
	log.Printf("[%s] found %d listings", source, len(listings))
	return result
}
