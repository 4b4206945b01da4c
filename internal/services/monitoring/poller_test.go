package monitoring

import (
	"context"
	"errors"
	"testing"
)

func TestPollQueuedPageHasNoListings(t *testing.T) {
	site := newFakeSite()
	site.set(basketball, fakeSource{queued: true, raw: raw("1", "2")})

	res := NewPoller(site, site).Poll(context.Background(), basketball)
	if !res.Queued || len(res.Listings) != 0 || res.Err != nil {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestPollAssignsIDsAndSource(t *testing.T) {
	site := newFakeSite()
	site.set(football, fakeSource{raw: raw("30", "", "31")})

	res := NewPoller(site, site).Poll(context.Background(), football)
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}

	got := listingIDs(res.Listings)
	want := []string{"30", "unknown-1", "31"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ids = %v, want %v", got, want)
		}
	}
	if site.scans != 1 {
		t.Errorf("expected the page to be scanned once, got %d", site.scans)
	}
	if res.Listings[0].Source != football || res.Listings[0].Link != football+"event/30" {
		t.Errorf("unexpected listing: %+v", res.Listings[0])
	}
}

func TestPollFetchFailureIsContained(t *testing.T) {
	site := newFakeSite()
	fetchErr := errors.New("connection reset")
	site.set(basketball, fakeSource{fetchErr: fetchErr, queued: true})

	res := NewPoller(site, site).Poll(context.Background(), basketball)
	if !errors.Is(res.Err, fetchErr) {
		t.Fatalf("expected fetch error, got %v", res.Err)
	}
	if res.Queued || len(res.Listings) != 0 {
		t.Errorf("failed poll must not report queue or listings: %+v", res)
	}
}
