package monitoring

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"ticketwatch/internal/model"
)

type fakeSource struct {
	queued   bool
	raw      []model.RawListing
	fetchErr error
	panics   bool
}

// fakeSite serves as both Fetcher and PageParser. The page HTML carries the
// source URL so the parser can find the fixture again.
type fakeSite struct {
	mu      sync.Mutex
	sources map[string]fakeSource
	block   chan struct{}
	started chan struct{}
	scans   int
}

func newFakeSite() *fakeSite {
	return &fakeSite{sources: map[string]fakeSource{}}
}

func (f *fakeSite) set(url string, src fakeSource) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sources[url] = src
}

func (f *fakeSite) get(url string) (fakeSource, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	src, ok := f.sources[url]
	return src, ok
}

func (f *fakeSite) Fetch(ctx context.Context, url string) (model.Page, error) {
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return model.Page{}, ctx.Err()
		}
	}

	src, ok := f.get(url)
	if !ok {
		return model.Page{}, fmt.Errorf("no fixture for %s", url)
	}
	if src.fetchErr != nil {
		return model.Page{}, src.fetchErr
	}
	return model.Page{URL: url, ResolvedURL: url, HTML: url}, nil
}

func (f *fakeSite) Scan(page model.Page) (model.PageScan, error) {
	src, _ := f.get(page.HTML)
	f.mu.Lock()
	f.scans++
	f.mu.Unlock()
	if src.queued {
		return model.PageScan{Queued: true}, nil
	}
	if src.panics {
		panic("malformed record")
	}
	return model.PageScan{Listings: src.raw}, nil
}

type fakeRepo struct {
	mu      sync.Mutex
	items   []model.Listing
	loadErr error
	saveErr error
	saves   int
}

func (r *fakeRepo) Load(ctx context.Context) (*model.KnownSet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	return model.NewKnownSet(append([]model.Listing(nil), r.items...)), nil
}

func (r *fakeRepo) Save(ctx context.Context, known *model.KnownSet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves++
	if r.saveErr != nil {
		return r.saveErr
	}
	r.items = known.Items()
	return nil
}

func (r *fakeRepo) ids() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return listingIDs(r.items)
}

type fakeNotifier struct {
	mu       sync.Mutex
	listings []string
	queues   []string
	failOn   map[string]bool
}

func (n *fakeNotifier) NotifyNewListing(ctx context.Context, listing model.Listing) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.listings = append(n.listings, listing.ID)
	if n.failOn[listing.ID] {
		return errors.New("telegram unavailable")
	}
	return nil
}

func (n *fakeNotifier) NotifyQueueDetected(ctx context.Context, sourceURL string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.queues = append(n.queues, sourceURL)
	return nil
}

func (n *fakeNotifier) sent() ([]string, []string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.listings...), append([]string(nil), n.queues...)
}

func listingIDs(items []model.Listing) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.ID)
	}
	return out
}

func raw(ids ...string) []model.RawListing {
	out := make([]model.RawListing, 0, len(ids))
	for _, id := range ids {
		rawID := ""
		if id != "" {
			rawID = "product_" + id
		}
		out = append(out, model.RawListing{HomeTeam: "Olympiacos", AwayTeam: "Team " + id, Href: "event/" + id, RawID: rawID})
	}
	return out
}
