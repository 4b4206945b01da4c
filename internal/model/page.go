package model

// Page is a fetched source page. ResolvedURL is the final URL after
// redirects, which may point at a waiting room instead of the source.
type Page struct {
	URL         string
	ResolvedURL string
	HTML        string
}

// PageScan is what a parser found on a page. Listings is empty when Queued.
type PageScan struct {
	Queued   bool
	Listings []RawListing
}
