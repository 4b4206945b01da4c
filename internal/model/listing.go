package model

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Listing is one ticket/event entry as stored in the known set.
// Two listings are the same listing iff their IDs are equal.
type Listing struct {
	ID       string `json:"id"`
	HomeTeam string `json:"homeTeam"`
	AwayTeam string `json:"awayTeam"`
	Venue    string `json:"venue"`
	Date     string `json:"date"`
	Link     string `json:"link"`
	Source   string `json:"source,omitempty"`
}

// RawListing is what an extractor pulls out of a page before validation.
// RawID is the unparsed identifying attribute, Href the unresolved link.
type RawListing struct {
	HomeTeam string
	AwayTeam string
	Venue    string
	Date     string
	Href     string
	RawID    string
}

var whitespaceRun = regexp.MustCompile(`\s*\n\s*`)

// FallbackID is the synthetic id of a listing without a usable identifier.
// Positions are not stable between polls, so such listings may be reported
// again on a later cycle.
func FallbackID(index int) string {
	return fmt.Sprintf("unknown-%d", index)
}

// ParseExternalID extracts the id from attributes shaped like "product_12345".
// Only the segment between the first and second underscore is used.
func ParseExternalID(raw string) (string, bool) {
	parts := strings.Split(strings.TrimSpace(raw), "_")
	if len(parts) < 2 {
		return "", false
	}
	id := strings.TrimSpace(parts[1])
	if id == "" || strings.ContainsAny(id, " \t\n") {
		return "", false
	}
	return id, true
}

// NewListing validates a raw record found at position index on source.
// The bool reports whether the id is the positional fallback.
func NewListing(raw RawListing, index int, source string) (Listing, bool) {
	id, ok := ParseExternalID(raw.RawID)
	if !ok {
		id = FallbackID(index)
	}

	return Listing{
		ID:       id,
		HomeTeam: strings.TrimSpace(raw.HomeTeam),
		AwayTeam: strings.TrimSpace(raw.AwayTeam),
		Venue:    strings.TrimSpace(raw.Venue),
		Date:     cleanDate(raw.Date),
		Link:     resolveLink(source, strings.TrimSpace(raw.Href)),
		Source:   source,
	}, !ok
}

func cleanDate(value string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(value, " "))
}

func resolveLink(source, href string) string {
	base, err := url.Parse(source)
	if err != nil || href == "" {
		return source
	}
	ref, err := url.Parse(href)
	if err != nil {
		return source
	}
	return base.ResolveReference(ref).String()
}
