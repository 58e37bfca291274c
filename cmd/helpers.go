package main

import (
	"context"
	"time"

	"github.com/fundbase/fundscan/internal/fetch"
	"github.com/fundbase/fundscan/internal/resilience"
	"github.com/fundbase/fundscan/internal/store"
)

// initStore opens the configured run-history store.
func initStore(ctx context.Context) (store.Store, error) {
	return store.Open(ctx, cfg.Store.Driver, cfg.Store.DSN)
}

// newPacer builds the shared request pacer from configuration.
func newPacer() *fetch.Pacer {
	return fetch.NewPacer(time.Duration(cfg.Fetch.IntervalMs)*time.Millisecond, cfg.Fetch.WidenCap)
}

// newFetcher wires the combined fetch client from configuration.
func newFetcher(pacer *fetch.Pacer) *fetch.Client {
	eps := fetch.DefaultEndpoints()
	if cfg.Fetch.ListingURL != "" {
		eps.ListingURL = cfg.Fetch.ListingURL
	}
	if cfg.Fetch.DetailURL != "" {
		eps.DetailURL = cfg.Fetch.DetailURL
	}
	if cfg.Fetch.AnalysisURL != "" {
		eps.AnalysisURL = cfg.Fetch.AnalysisURL
	}
	if cfg.Fetch.HistoryURL != "" {
		eps.HistoryURL = cfg.Fetch.HistoryURL
	}

	return fetch.NewClient(fetch.Options{
		Static: fetch.StaticOptions{
			UserAgent: cfg.Fetch.UserAgent,
			Timeout:   time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
		},
		Browser: fetch.BrowserOptions{
			WaitSelector: cfg.Browser.WaitSelector,
			Settle:       time.Duration(cfg.Browser.SettleMs) * time.Millisecond,
			Timeout:      time.Duration(cfg.Browser.TimeoutSecs) * time.Second,
			UserAgent:    cfg.Fetch.UserAgent,
		},
		Endpoints: eps,
		Retry: resilience.RetryConfig{
			MaxAttempts:    cfg.Retry.MaxAttempts,
			InitialBackoff: time.Duration(cfg.Retry.InitialBackoffMs) * time.Millisecond,
			MaxBackoff:     time.Duration(cfg.Retry.MaxBackoffSecs) * time.Second,
			Multiplier:     cfg.Retry.Multiplier,
			JitterFraction: cfg.Retry.JitterFraction,
		},
		HistoryMonths: cfg.Fetch.HistoryMonths,
	}, pacer)
}
