package model

import "time"

// FundID is the source-site slug uniquely addressing one fund,
// e.g. "parag-parikh-flexi-cap-direct-growth".
type FundID string

// Fund is one entry in the configured fund universe.
type Fund struct {
	ID   FundID `yaml:"id" json:"id"`
	Name string `yaml:"name,omitempty" json:"name,omitempty"`
}

// ContentKind identifies which upstream content is being fetched for a fund.
// Each kind maps to a fixed fetch strategy.
type ContentKind string

const (
	// ContentListing is a page of the paginated fund listing. Used only by
	// universe discovery, not by per-fund runs.
	ContentListing ContentKind = "listing"

	// ContentDetail is the fund detail page: identity, AUM, NAV, expense
	// ratio, returns, holdings. Present in the initial page load.
	ContentDetail ContentKind = "detail"

	// ContentAnalysis is the detail page's analysis section: alpha, beta,
	// Sharpe, PE/PB, allocations. Populated client-side, needs a render.
	ContentAnalysis ContentKind = "analysis"

	// ContentHistory is the historical NAV graph payload (JSON).
	ContentHistory ContentKind = "history"
)

// AllContentKinds returns every defined content kind.
func AllContentKinds() []ContentKind {
	return []ContentKind{ContentListing, ContentDetail, ContentAnalysis, ContentHistory}
}

// Dynamic reports whether this content kind requires a browser-rendered fetch.
func (k ContentKind) Dynamic() bool {
	return k == ContentAnalysis
}

// FetchMethod records which strategy produced a RawPage.
type FetchMethod string

const (
	FetchStatic  FetchMethod = "static"
	FetchDynamic FetchMethod = "dynamic"
)

// RawPage is fetched content plus provenance. It lives only for the
// fetch -> parse handoff and is never persisted.
type RawPage struct {
	Fund      FundID
	Kind      ContentKind
	URL       string
	Body      []byte
	Status    int
	Method    FetchMethod
	FetchedAt time.Time
}
