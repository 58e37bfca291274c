package parse

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/fundbase/fundscan/internal/model"
)

// Selector constants pin the upstream detail-page contract. They change only
// when the source redesigns, which surfaces as MalformedError.
const (
	selFundName      = "h1"
	selCategoryBadge = "div.fundBadges span.badgeCategory"
	selRiskBadge     = "div.fundBadges span.badgeRisk"
	selLabelCell     = "td.contentSecondary, div.contentSecondary"
	selValueCell     = "td.bodyLargeHeavy, div.bodyLargeHeavy"
	selRatingCell    = "td.fd12Ratings"
	selFactText      = "p.bodyLarge"
	selReturnsRow    = "table.returnsTable tbody tr"
	selHoldingsRow   = "table.holdings101Table tbody tr"
	selHoldingName   = "div.pc543Links"
)

var (
	schemeCodeRe = regexp.MustCompile(`"scheme_code"\s*:\s*"(\d+)"`)
	percentRe    = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%`)
)

// Detail extracts identity, scalar metrics, trailing returns and top holdings
// from the statically served fund detail page.
func Detail(page *model.RawPage) (*model.RawRecord, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return nil, &MalformedError{Fund: page.Fund, Kind: page.Kind, Reason: "not parseable as HTML"}
	}

	rec := &model.RawRecord{Fund: page.Fund}

	rec.Name = strings.TrimSpace(doc.Find(selFundName).First().Text())
	rec.Category = strings.TrimSpace(doc.Find(selCategoryBadge).First().Text())
	rec.Risk = strings.TrimSpace(doc.Find(selRiskBadge).First().Text())

	rec.AUM = labelledAmount(doc, "Fund size")
	rec.NAV = labelledNumber(doc, "NAV")
	rec.MinInvest = labelledNumber(doc, "Min. for 1st investment")
	rec.MinSIP = labelledNumber(doc, "Min. for SIP")
	if rec.MinInvest == nil {
		rec.MinInvest = rec.MinSIP
	}

	rec.Rating = parseRating(doc)
	rec.ExpenseRatio = factPercent(doc, "Expense ratio")
	rec.ExitLoad = parseExitLoad(doc)
	rec.Returns = parseReturns(doc)
	rec.Holdings = parseHoldings(doc)

	if m := schemeCodeRe.FindSubmatch(page.Body); m != nil {
		rec.SchemeCode = string(m[1])
	}

	if rec.Name == "" && !hasLabelledValues(doc) {
		return nil, &MalformedError{Fund: page.Fund, Kind: page.Kind, Reason: "no fund title or fact table found"}
	}

	return rec, nil
}

// labelledNumber finds the value cell whose preceding label cell contains
// label, and parses it as a plain number.
func labelledNumber(doc *goquery.Document, label string) *float64 {
	return labelledValue(doc, label, Number)
}

// labelledAmount is labelledNumber with magnitude-suffix handling (Cr/L/k).
func labelledAmount(doc *goquery.Document, label string) *float64 {
	return labelledValue(doc, label, CroreAmount)
}

func labelledValue(doc *goquery.Document, label string, parseFn func(string) *float64) *float64 {
	var out *float64
	doc.Find(selValueCell).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		prev := sel.PrevFiltered(selLabelCell)
		if prev.Length() == 0 || !strings.Contains(prev.Text(), label) {
			return true
		}
		if v := parseFn(sel.Text()); v != nil {
			out = v
			return false
		}
		return true
	})
	return out
}

func hasLabelledValues(doc *goquery.Document) bool {
	found := false
	doc.Find(selValueCell).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if sel.PrevFiltered(selLabelCell).Length() > 0 {
			found = true
			return false
		}
		return true
	})
	return found
}

func parseRating(doc *goquery.Document) *float64 {
	var out *float64
	doc.Find(selRatingCell).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if v := Number(sel.Text()); v != nil {
			out = v
			return false
		}
		return true
	})
	return out
}

// factPercent scans the free-text fact paragraphs for one starting with the
// given label and extracts its percentage.
func factPercent(doc *goquery.Document, label string) *float64 {
	var out *float64
	doc.Find(selFactText).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := strings.TrimSpace(sel.Text())
		if !strings.Contains(text, label) {
			return true
		}
		if m := percentRe.FindStringSubmatch(text); m != nil {
			out = Number(m[1])
			return false
		}
		return true
	})
	return out
}

func parseExitLoad(doc *goquery.Document) *float64 {
	var out *float64
	doc.Find(selFactText).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := strings.TrimSpace(sel.Text())
		if !strings.Contains(text, "Exit load") {
			return true
		}
		if m := percentRe.FindStringSubmatch(text); m != nil {
			out = Number(m[1])
			return false
		}
		if strings.Contains(text, "No exit load") {
			zero := 0.0
			out = &zero
			return false
		}
		return true
	})
	return out
}

func parseReturns(doc *goquery.Document) map[model.Period]*float64 {
	returns := make(map[model.Period]*float64)
	doc.Find(selReturnsRow).Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		period := model.Period(strings.TrimSpace(cells.Eq(0).Text()))
		if !model.ValidPeriod(period) {
			return
		}
		returns[period] = Number(cells.Eq(1).Text())
	})
	if len(returns) == 0 {
		return nil
	}
	return returns
}

func parseHoldings(doc *goquery.Document) []model.Holding {
	var holdings []model.Holding
	doc.Find(selHoldingsRow).Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 4 {
			return
		}
		name := strings.TrimSpace(cells.Eq(0).Find(selHoldingName).Text())
		if name == "" {
			name = strings.TrimSpace(cells.Eq(0).Text())
		}
		weight := Number(cells.Eq(3).Text())
		if name == "" || weight == nil {
			return
		}
		holdings = append(holdings, model.Holding{Name: name, Weight: *weight})
	})
	return holdings
}
