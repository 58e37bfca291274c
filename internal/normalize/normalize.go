// Package normalize reconciles raw records into the canonical schema:
// consistent units, one date format, explicit nulls for missing values, and
// invariant validation. Records that violate identity or history invariants
// are rejected and dropped from the dataset.
package normalize

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/fundbase/fundscan/internal/model"
)

// InvariantError rejects a record that cannot be represented canonically.
type InvariantError struct {
	Fund   model.FundID
	Reason string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("normalize %s: invariant violation: %s", e.Fund, e.Reason)
}

// IsInvariant reports whether err is an invariant violation.
func IsInvariant(err error) bool {
	var ie *InvariantError
	return errors.As(err, &ie)
}

// acceptedDateLayouts are the calendar formats the source has been seen to
// use for NAV history dates.
var acceptedDateLayouts = []string{
	"2006-01-02",
	"02-Jan-2006",
	"02 Jan 2006",
}

// Record turns one merged raw record into a canonical record.
//
// Policy: absent fields stay nil (missing is not zero); negative AUM/NAV are
// nulled; weight percentages outside [0,100] drop that entry; history dates
// are normalized to YYYY-MM-DD, deduplicated later-fetched-wins and sorted
// ascending. Missing identity or a history that is not strictly increasing
// after dedup rejects the record.
func Record(raw *model.RawRecord, fetchedAt time.Time) (*model.CanonicalRecord, error) {
	if raw == nil {
		return nil, &InvariantError{Reason: "nil raw record"}
	}
	if raw.Fund == "" || raw.Name == "" {
		return nil, &InvariantError{Fund: raw.Fund, Reason: "identity fields missing"}
	}

	log := zap.L().With(zap.String("fund", string(raw.Fund)))

	rec := &model.CanonicalRecord{
		ID:        raw.Fund,
		Name:      raw.Name,
		Category:  raw.Category,
		Risk:      raw.Risk,
		FetchedAt: fetchedAt,

		AUM:          nonNegative(log, "aum", raw.AUM),
		NAV:          nonNegative(log, "nav", raw.NAV),
		PE:           raw.PE,
		PB:           raw.PB,
		ExpenseRatio: percentage(log, "expense_ratio", raw.ExpenseRatio),
		ExitLoad:     percentage(log, "exit_load", raw.ExitLoad),
		Rating:       raw.Rating,
		MinInvest:    nonNegative(log, "min_invest", raw.MinInvest),
		MinSIP:       nonNegative(log, "min_sip", raw.MinSIP),
		Alpha:        raw.Alpha,
		Beta:         raw.Beta,
		Sharpe:       raw.Sharpe,
	}

	rec.Returns = normalizeReturns(raw.Returns)
	rec.Holdings = filterWeights(log, "holding", raw.Holdings, func(h model.Holding) float64 { return h.Weight })
	rec.Sectors = filterSectorWeights(log, raw.Sectors)
	rec.Assets = model.AssetAllocation{
		Equity: percentage(log, "asset_equity", raw.Assets.Equity),
		Debt:   percentage(log, "asset_debt", raw.Assets.Debt),
		Cash:   percentage(log, "asset_cash", raw.Assets.Cash),
	}

	history, err := normalizeHistory(raw.Fund, raw.History)
	if err != nil {
		return nil, err
	}
	rec.History = history

	return rec, nil
}

// nonNegative nulls negative values: the canonical schema allows missing or
// >= 0, and a negative scalar from the source is noise, not a zero.
func nonNegative(log *zap.Logger, field string, v *float64) *float64 {
	if v == nil {
		return nil
	}
	if *v < 0 {
		log.Warn("negative value nulled", zap.String("field", field), zap.Float64("value", *v))
		return nil
	}
	return v
}

// percentage nulls values outside [0,100].
func percentage(log *zap.Logger, field string, v *float64) *float64 {
	if v == nil {
		return nil
	}
	if *v < 0 || *v > 100 {
		log.Warn("out-of-range percentage nulled", zap.String("field", field), zap.Float64("value", *v))
		return nil
	}
	return v
}

// normalizeReturns keeps only the fixed holding-period label set and drops
// absent values.
func normalizeReturns(raw map[model.Period]*float64) map[model.Period]float64 {
	if len(raw) == 0 {
		return nil
	}
	out := make(map[model.Period]float64)
	for period, v := range raw {
		if !model.ValidPeriod(period) || v == nil {
			continue
		}
		out[period] = *v
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func filterWeights(log *zap.Logger, kind string, in []model.Holding, weight func(model.Holding) float64) []model.Holding {
	var out []model.Holding
	for _, h := range in {
		w := weight(h)
		if w < 0 || w > 100 {
			log.Warn("out-of-range weight dropped",
				zap.String("kind", kind),
				zap.String("name", h.Name),
				zap.Float64("weight", w),
			)
			continue
		}
		out = append(out, h)
	}
	return out
}

func filterSectorWeights(log *zap.Logger, in []model.SectorWeight) []model.SectorWeight {
	var out []model.SectorWeight
	for _, s := range in {
		if s.Weight < 0 || s.Weight > 100 {
			log.Warn("out-of-range weight dropped",
				zap.String("kind", "sector"),
				zap.String("name", s.Sector),
				zap.Float64("weight", s.Weight),
			)
			continue
		}
		out = append(out, s)
	}
	return out
}

// normalizeHistory parses dates to YYYY-MM-DD, deduplicates (the later entry
// in fetch order wins) and sorts ascending. The result must be strictly
// increasing by date; anything else rejects the record.
func normalizeHistory(fund model.FundID, in []model.NAVPoint) ([]model.NAVPoint, error) {
	if len(in) == 0 {
		return nil, nil
	}

	byDate := make(map[string]float64, len(in))
	for _, p := range in {
		date, ok := parseDate(p.Date)
		if !ok {
			zap.L().Warn("unparsable history date dropped",
				zap.String("fund", string(fund)),
				zap.String("date", p.Date),
			)
			continue
		}
		byDate[date] = p.NAV // later-fetched value wins
	}

	out := make([]model.NAVPoint, 0, len(byDate))
	for date, nav := range byDate {
		out = append(out, model.NAVPoint{Date: date, NAV: nav})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })

	for i := 1; i < len(out); i++ {
		if out[i].Date <= out[i-1].Date {
			return nil, &InvariantError{Fund: fund, Reason: "history not strictly increasing after dedup"}
		}
	}

	return out, nil
}

func parseDate(s string) (string, bool) {
	for _, layout := range acceptedDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	return "", false
}
