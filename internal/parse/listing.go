package parse

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/fundbase/fundscan/internal/model"
)

// Selectors for the paginated fund listing.
const (
	selListingCard     = "a.f22Link"
	selListingName     = "div.contentPrimary.bodyBaseHeavy"
	selListingBadge    = "div.contentSecondary.bodySmallHeavy"
	selListingReturn   = "div.contentPrimary.center-align.bodyBaseHeavy"
	listingPathMarker  = "mutual-funds/"
	maxListingReturns  = 3
)

// ListingEntry is one fund card from the listing page.
type ListingEntry struct {
	Slug     model.FundID
	Name     string
	Risk     string
	Category string
	Link     string
	Returns  []*float64 // 1Y, 3Y, 5Y in card order; nil where the card shows NA
}

// Listing extracts the fund cards from one listing page. An empty page (no
// cards) is malformed: either the pagination ran out upstream-side or the
// page structure changed.
func Listing(page *model.RawPage) ([]ListingEntry, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return nil, &MalformedError{Kind: page.Kind, Reason: "not parseable as HTML"}
	}

	var entries []ListingEntry
	doc.Find(selListingCard).Each(func(_ int, card *goquery.Selection) {
		name := strings.TrimSpace(card.Find(selListingName).First().Text())
		link, _ := card.Attr("href")
		if name == "" || link == "" {
			return
		}

		entry := ListingEntry{
			Name: name,
			Link: link,
			Slug: SlugFromLink(link),
		}

		badges := card.Find(selListingBadge)
		if badges.Length() > 0 {
			entry.Risk = strings.TrimSpace(badges.Eq(0).Text())
		}
		if badges.Length() > 1 {
			entry.Category = strings.TrimSpace(badges.Eq(1).Text())
		}

		card.Find(selListingReturn).Each(func(i int, ret *goquery.Selection) {
			if i >= maxListingReturns {
				return
			}
			entry.Returns = append(entry.Returns, Number(ret.Text()))
		})

		entries = append(entries, entry)
	})

	if len(entries) == 0 {
		return nil, &MalformedError{Kind: page.Kind, Reason: "no fund cards found"}
	}
	return entries, nil
}

// SlugFromLink extracts the fund slug from a listing card link, dropping any
// query string.
func SlugFromLink(link string) model.FundID {
	slug := link
	if idx := strings.LastIndex(slug, listingPathMarker); idx >= 0 {
		slug = slug[idx+len(listingPathMarker):]
	}
	if idx := strings.IndexByte(slug, '?'); idx >= 0 {
		slug = slug[:idx]
	}
	return model.FundID(strings.Trim(slug, "/"))
}
