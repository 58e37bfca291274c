package parse

import (
	"bytes"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/fundbase/fundscan/internal/model"
)

// Selectors for the client-side-rendered analysis section. Only present in a
// browser-rendered fetch of the detail page.
const (
	selAnalysisRoot  = "section.analysisSection"
	selRatioRow      = "div.ratioRow"
	selRatioName     = "span.ratioName"
	selRatioValue    = "span.ratioValue"
	selAllocationRow = "div.allocationRow"
	selAllocName     = "span.allocationName"
	selAllocValue    = "span.allocationValue"
	selSectorRow     = "table.sectorTable tbody tr"
)

// maxSectors caps the sector allocation at the most heavily weighted entries,
// matching what the dashboard displays.
const maxSectors = 4

// Analysis extracts risk ratios, valuation ratios and allocations from the
// rendered analysis section.
func Analysis(page *model.RawPage) (*model.RawRecord, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return nil, &MalformedError{Fund: page.Fund, Kind: page.Kind, Reason: "not parseable as HTML"}
	}

	root := doc.Find(selAnalysisRoot)
	if root.Length() == 0 {
		return nil, &MalformedError{Fund: page.Fund, Kind: page.Kind, Reason: "analysis section missing from rendered page"}
	}

	rec := &model.RawRecord{Fund: page.Fund}

	root.Find(selRatioRow).Each(func(_ int, row *goquery.Selection) {
		name := strings.TrimSpace(row.Find(selRatioName).Text())
		value := Number(row.Find(selRatioValue).Text())
		switch strings.ToLower(name) {
		case "alpha":
			rec.Alpha = value
		case "beta":
			rec.Beta = value
		case "sharpe ratio", "sharpe":
			rec.Sharpe = value
		case "p/e ratio", "pe ratio":
			rec.PE = value
		case "p/b ratio", "pb ratio":
			rec.PB = value
		}
	})

	root.Find(selAllocationRow).Each(func(_ int, row *goquery.Selection) {
		name := strings.TrimSpace(row.Find(selAllocName).Text())
		value := Number(row.Find(selAllocValue).Text())
		switch strings.ToLower(name) {
		case "equity":
			rec.Assets.Equity = value
		case "debt":
			rec.Assets.Debt = value
		case "cash", "cash & others":
			rec.Assets.Cash = value
		}
	})

	rec.Sectors = parseSectors(root)

	return rec, nil
}

func parseSectors(root *goquery.Selection) []model.SectorWeight {
	var sectors []model.SectorWeight
	root.Find(selSectorRow).Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		name := strings.TrimSpace(cells.Eq(0).Text())
		weight := Number(cells.Eq(1).Text())
		if name == "" || weight == nil {
			return
		}
		sectors = append(sectors, model.SectorWeight{Sector: name, Weight: *weight})
	})

	// Heaviest sectors first; the tail is an "others" bucket upstream.
	sort.SliceStable(sectors, func(i, j int) bool {
		return sectors[i].Weight > sectors[j].Weight
	})
	if len(sectors) > maxSectors {
		sectors = sectors[:maxSectors]
	}
	return sectors
}
