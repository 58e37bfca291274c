// Package pipeline drives fetch -> parse -> normalize across the fund
// universe with bounded parallelism. One fund's failure never aborts the run:
// it is recorded in the run summary and the fund is skipped.
package pipeline

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fundbase/fundscan/internal/fetch"
	"github.com/fundbase/fundscan/internal/model"
	"github.com/fundbase/fundscan/internal/normalize"
	"github.com/fundbase/fundscan/internal/parse"
)

// Options configures the run.
type Options struct {
	// Workers bounds how many funds are processed concurrently. The shared
	// pacer still spaces individual requests globally. Default: 4.
	Workers int
}

// Runner aggregates canonical records over the fund universe.
type Runner struct {
	fetcher fetch.Fetcher
	pacer   *fetch.Pacer
	workers int
}

// New creates a Runner. pacer must be the pacer the fetcher waits on; the
// runner widens it when the upstream signals blocking.
func New(fetcher fetch.Fetcher, pacer *fetch.Pacer, opts Options) *Runner {
	workers := opts.Workers
	if workers <= 0 {
		workers = 4
	}
	return &Runner{fetcher: fetcher, pacer: pacer, workers: workers}
}

// Run processes every fund and returns the dataset snapshot plus the run
// summary. Funds that hit a block signal are requeued once and retried
// sequentially after the main pass, with the pacer widened in between.
func (r *Runner) Run(ctx context.Context, runID string, funds []model.Fund) (*model.Dataset, *model.RunSummary) {
	summary := &model.RunSummary{
		RunID:     runID,
		StartedAt: time.Now().UTC(),
		Universe:  len(funds),
	}

	var (
		mu      sync.Mutex
		records []model.CanonicalRecord
		seen    = make(map[model.FundID]struct{})
		blocked []model.Fund
	)

	// Caller holds mu. A duplicate identifier is recorded as a failure so the
	// summary counts still add up to the universe size.
	accept := func(rec *model.CanonicalRecord) {
		if _, dup := seen[rec.ID]; dup {
			summary.Record(model.FundFailure{
				Fund:   rec.ID,
				Reason: model.FailDuplicateID,
				Detail: "duplicate fund identifier in universe",
			})
			zap.L().Warn("duplicate fund identifier skipped", zap.String("fund", string(rec.ID)))
			return
		}
		seen[rec.ID] = struct{}{}
		records = append(records, *rec)
		summary.Succeeded++
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for _, fund := range funds {
		fund := fund
		g.Go(func() error {
			rec, err := r.processFund(gctx, fund)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if fetch.IsBlocked(err) {
					r.pacer.Widen()
					blocked = append(blocked, fund)
					zap.L().Warn("fund blocked, requeued for end-of-run retry",
						zap.String("fund", string(fund.ID)),
						zap.Duration("interval", r.pacer.Interval()),
					)
					return nil
				}
				summary.Record(failureFor(fund.ID, err))
				zap.L().Warn("fund failed", zap.String("fund", string(fund.ID)), zap.Error(err))
				return nil
			}
			accept(rec)
			return nil
		})
	}
	_ = g.Wait()

	// Second pass: blocked funds retried one at a time under the widened pacer.
	for _, fund := range blocked {
		if ctx.Err() != nil {
			summary.Record(model.FundFailure{
				Fund:   fund.ID,
				Reason: model.FailFetchBlocked,
				Detail: "run cancelled before blocked retry",
			})
			continue
		}
		rec, err := r.processFund(ctx, fund)
		mu.Lock()
		if err != nil {
			summary.Record(failureFor(fund.ID, err))
			zap.L().Warn("blocked fund failed on retry", zap.String("fund", string(fund.ID)), zap.Error(err))
		} else {
			accept(rec)
		}
		mu.Unlock()
	}

	summary.FinishedAt = time.Now().UTC()

	zap.L().Info("run finished",
		zap.String("run_id", runID),
		zap.Int("universe", summary.Universe),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed()),
	)

	return &model.Dataset{RunID: runID, Records: records}, summary
}

// processFund builds one fund's canonical record. The detail page is
// required. Analysis and history are optional documents: their failure leaves
// the corresponding fields null, except a block signal, which propagates so
// the run can adapt.
func (r *Runner) processFund(ctx context.Context, fund model.Fund) (*model.CanonicalRecord, error) {
	log := zap.L().With(zap.String("fund", string(fund.ID)))

	detail, err := r.fetcher.Fetch(ctx, fetch.Target{Fund: fund.ID, Kind: model.ContentDetail})
	if err != nil {
		return nil, err
	}
	merged, err := parse.Page(detail)
	if err != nil {
		return nil, err
	}

	if analysis, err := r.fetcher.Fetch(ctx, fetch.Target{Fund: fund.ID, Kind: model.ContentAnalysis}); err != nil {
		if fetch.IsBlocked(err) {
			return nil, err
		}
		log.Warn("analysis unavailable, fields stay null", zap.Error(err))
	} else if rec, err := parse.Page(analysis); err != nil {
		log.Warn("analysis malformed, fields stay null", zap.Error(err))
	} else {
		merged.Merge(rec)
	}

	if merged.SchemeCode == "" {
		log.Warn("no scheme code on detail page, history stays empty")
	} else if history, err := r.fetcher.Fetch(ctx, fetch.Target{
		Fund:       fund.ID,
		Kind:       model.ContentHistory,
		SchemeCode: merged.SchemeCode,
	}); err != nil {
		if fetch.IsBlocked(err) {
			return nil, err
		}
		log.Warn("history unavailable, series stays empty", zap.Error(err))
	} else if rec, err := parse.Page(history); err != nil {
		log.Warn("history malformed, series stays empty", zap.Error(err))
	} else {
		merged.Merge(rec)
	}

	if merged.Name == "" && fund.Name != "" {
		merged.Name = fund.Name
	}

	return normalize.Record(merged, detail.FetchedAt)
}

func failureFor(fund model.FundID, err error) model.FundFailure {
	failure := model.FundFailure{Fund: fund, Detail: err.Error()}
	switch {
	case fetch.IsNotFound(err):
		failure.Reason = model.FailFetchNotFound
	case fetch.IsBlocked(err):
		failure.Reason = model.FailFetchBlocked
	case parse.IsMalformed(err):
		failure.Reason = model.FailParseMalformed
	case normalize.IsInvariant(err):
		failure.Reason = model.FailInvariant
	default:
		failure.Reason = model.FailFetchTransient
	}
	return failure
}
