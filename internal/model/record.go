package model

import "time"

// Period is a holding-period return label. The set is fixed; normalization
// drops any other key.
type Period string

const (
	Period1Y Period = "1Y"
	Period3Y Period = "3Y"
	Period5Y Period = "5Y"
)

// AllPeriods returns the allowed holding-period labels in display order.
func AllPeriods() []Period {
	return []Period{Period1Y, Period3Y, Period5Y}
}

// ValidPeriod reports whether p is one of the allowed labels.
func ValidPeriod(p Period) bool {
	switch p {
	case Period1Y, Period3Y, Period5Y:
		return true
	}
	return false
}

// NAVPoint is one (date, NAV) observation. Date is a calendar day in
// "2006-01-02" form once normalized; parsers may leave it in source form.
type NAVPoint struct {
	Date string  `json:"date"`
	NAV  float64 `json:"nav"`
}

// Holding is one portfolio position with its weight percentage.
type Holding struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
}

// SectorWeight is one sector allocation entry.
type SectorWeight struct {
	Sector string  `json:"sector"`
	Weight float64 `json:"weight"`
}

// AssetAllocation is the equity/debt/cash split, percentages of AUM.
type AssetAllocation struct {
	Equity *float64 `json:"equity,omitempty"`
	Debt   *float64 `json:"debt,omitempty"`
	Cash   *float64 `json:"cash,omitempty"`
}

// RawRecord is the parser output for one fund: loosely typed, any field may
// be absent. A nil pointer means the source did not provide the value or it
// was unparsable; it is never coerced to zero. Each page kind fills a subset
// and the pipeline merges the partials.
type RawRecord struct {
	Fund       FundID
	Name       string
	Category   string
	Risk       string
	SchemeCode string

	AUM          *float64 // as printed, magnitude suffix already applied (crore)
	NAV          *float64
	PE           *float64
	PB           *float64
	ExpenseRatio *float64
	ExitLoad     *float64
	Rating       *float64
	MinInvest    *float64
	MinSIP       *float64

	Alpha  *float64
	Beta   *float64
	Sharpe *float64

	Returns map[Period]*float64

	History  []NAVPoint
	Holdings []Holding
	Sectors  []SectorWeight
	Assets   AssetAllocation
}

// Merge folds non-empty fields of other into r. Scalars in r win when both
// are set; slices and maps are taken from other only when r has none. Used
// to union the per-page partial records for a single fund.
func (r *RawRecord) Merge(other *RawRecord) {
	if other == nil {
		return
	}
	if r.Fund == "" {
		r.Fund = other.Fund
	}
	if r.Name == "" {
		r.Name = other.Name
	}
	if r.Category == "" {
		r.Category = other.Category
	}
	if r.Risk == "" {
		r.Risk = other.Risk
	}
	if r.SchemeCode == "" {
		r.SchemeCode = other.SchemeCode
	}

	mergeFloat(&r.AUM, other.AUM)
	mergeFloat(&r.NAV, other.NAV)
	mergeFloat(&r.PE, other.PE)
	mergeFloat(&r.PB, other.PB)
	mergeFloat(&r.ExpenseRatio, other.ExpenseRatio)
	mergeFloat(&r.ExitLoad, other.ExitLoad)
	mergeFloat(&r.Rating, other.Rating)
	mergeFloat(&r.MinInvest, other.MinInvest)
	mergeFloat(&r.MinSIP, other.MinSIP)
	mergeFloat(&r.Alpha, other.Alpha)
	mergeFloat(&r.Beta, other.Beta)
	mergeFloat(&r.Sharpe, other.Sharpe)

	if len(other.Returns) > 0 {
		if r.Returns == nil {
			r.Returns = make(map[Period]*float64, len(other.Returns))
		}
		for k, v := range other.Returns {
			if _, ok := r.Returns[k]; !ok {
				r.Returns[k] = v
			}
		}
	}

	if len(r.History) == 0 {
		r.History = other.History
	}
	if len(r.Holdings) == 0 {
		r.Holdings = other.Holdings
	}
	if len(r.Sectors) == 0 {
		r.Sectors = other.Sectors
	}
	mergeFloat(&r.Assets.Equity, other.Assets.Equity)
	mergeFloat(&r.Assets.Debt, other.Assets.Debt)
	mergeFloat(&r.Assets.Cash, other.Assets.Cash)
}

func mergeFloat(dst **float64, src *float64) {
	if *dst == nil && src != nil {
		*dst = src
	}
}

// CanonicalRecord is the normalized, schema-conformant representation of one
// fund. Nil pointers are explicit "source had no value" markers so consumers
// can tell missing from zero. FetchedAt is provenance only and excluded from
// canonical output comparison.
type CanonicalRecord struct {
	ID       FundID `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
	Risk     string `json:"risk,omitempty"`

	AUM          *float64 `json:"aum,omitempty"` // crore, base currency
	NAV          *float64 `json:"nav,omitempty"`
	PE           *float64 `json:"pe,omitempty"`
	PB           *float64 `json:"pb,omitempty"`
	ExpenseRatio *float64 `json:"expense_ratio,omitempty"`
	ExitLoad     *float64 `json:"exit_load,omitempty"`
	Rating       *float64 `json:"rating,omitempty"`
	MinInvest    *float64 `json:"min_invest,omitempty"`
	MinSIP       *float64 `json:"min_sip,omitempty"`

	Alpha  *float64 `json:"alpha,omitempty"`
	Beta   *float64 `json:"beta,omitempty"`
	Sharpe *float64 `json:"sharpe,omitempty"`

	Returns map[Period]float64 `json:"returns,omitempty"`

	History  []NAVPoint      `json:"history,omitempty"` // ascending, unique dates
	Holdings []Holding       `json:"holdings,omitempty"`
	Sectors  []SectorWeight  `json:"sectors,omitempty"`
	Assets   AssetAllocation `json:"assets"`

	FetchedAt time.Time `json:"fetched_at"`
}

// Float returns a pointer to v. Convenience for building nullable fields.
func Float(v float64) *float64 { return &v }
