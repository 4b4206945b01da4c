package ticketmaster

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"ticketwatch/internal/model"
)

const (
	productSelector   = ".product, .productListItem, .clubTemplateSliderProduct"
	homeTeamSelector  = ".productTeamsFirstTeam > span"
	awayTeamSelector  = ".productTeamsSecondTeam > span"
	venueSelector     = ".productVenue"
	dateSelector      = ".productType"
	linkSelector      = ".productInnerRight > a"
	queueSelector     = ".queueElement"
	DefaultQueueMatch = "queue-it"
)

// Parser reads ticketmaster club pages.
type Parser struct {
	queuePattern string
}

func NewParser(queuePattern string) *Parser {
	return &Parser{queuePattern: strings.ToLower(strings.TrimSpace(queuePattern))}
}

// Scan parses page once. A waiting room is either a redirect to a URL
// matching the queue pattern or a page carrying the queue element; listings
// are not extracted from it.
func (p *Parser) Scan(page model.Page) (model.PageScan, error) {
	if p.queuePattern != "" && strings.Contains(strings.ToLower(page.ResolvedURL), p.queuePattern) {
		return model.PageScan{Queued: true}, nil
	}

	doc, err := parse(page.HTML)
	if err != nil {
		return model.PageScan{}, err
	}
	if doc.Find(queueSelector).Length() > 0 {
		return model.PageScan{Queued: true}, nil
	}
	return model.PageScan{Listings: extract(doc)}, nil
}

func extract(doc *goquery.Document) []model.RawListing {
	var listings []model.RawListing
	doc.Find(productSelector).Each(func(_ int, sel *goquery.Selection) {
		link := sel.Find(linkSelector).First()
		href, _ := link.Attr("href")
		rawID, _ := link.Attr("id")

		listings = append(listings, model.RawListing{
			HomeTeam: sel.Find(homeTeamSelector).Text(),
			AwayTeam: sel.Find(awayTeamSelector).Text(),
			Venue:    sel.Find(venueSelector).Text(),
			Date:     sel.Find(dateSelector).Text(),
			Href:     href,
			RawID:    rawID,
		})
	})
	return listings
}

func parse(html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}
