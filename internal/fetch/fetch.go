// Package fetch retrieves raw upstream content for fund identifiers, picking
// a static or browser-rendered strategy per content kind, under one shared
// rate-limit pacer with bounded retry of transient failures.
package fetch

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fundbase/fundscan/internal/model"
	"github.com/fundbase/fundscan/internal/resilience"
)

// Endpoints holds the upstream URL templates. They are an external, versioned
// contract; overridable via configuration.
type Endpoints struct {
	// ListingURL takes the zero-based page number.
	ListingURL string
	// DetailURL takes the fund slug.
	DetailURL string
	// AnalysisURL takes the fund slug. Same document as the detail page; the
	// analysis section only exists after client-side rendering.
	AnalysisURL string
	// HistoryURL takes the scheme code and the lookback months.
	HistoryURL string
}

// DefaultEndpoints returns the production upstream templates.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		ListingURL:  "https://groww.in/mutual-funds/filter?q=&fundSize=&pageNo=%d&sortBy=0",
		DetailURL:   "https://groww.in/mutual-funds/%s",
		AnalysisURL: "https://groww.in/mutual-funds/%s",
		HistoryURL:  "https://groww.in/v1/api/data/mf/web/v1/scheme/%s/graph?benchmark=false&months=%d",
	}
}

// Target addresses one fetchable document.
type Target struct {
	Fund model.FundID
	Kind model.ContentKind

	// Page applies to ContentListing only.
	Page int
	// SchemeCode applies to ContentHistory only.
	SchemeCode string
	// Months applies to ContentHistory only; 0 means the configured default.
	Months int
}

// Fetcher retrieves one raw page per target.
type Fetcher interface {
	Fetch(ctx context.Context, t Target) (*model.RawPage, error)
}

// Options configures the combined fetch client.
type Options struct {
	Static    StaticOptions
	Browser   BrowserOptions
	Endpoints Endpoints
	Retry     resilience.RetryConfig
	// HistoryMonths is the default NAV history lookback.
	HistoryMonths int
}

// Client dispatches to the static or dynamic strategy by content kind.
type Client struct {
	static  *StaticClient
	browser *Browser
	pacer   *Pacer
	eps     Endpoints
	retry   resilience.RetryConfig
	months  int
}

// NewClient wires both strategies to the shared pacer.
func NewClient(opts Options, pacer *Pacer) *Client {
	if opts.Endpoints == (Endpoints{}) {
		opts.Endpoints = DefaultEndpoints()
	}
	if opts.HistoryMonths == 0 {
		opts.HistoryMonths = 12
	}
	retry := opts.Retry
	if retry.MaxAttempts == 0 {
		retry = resilience.DefaultRetryConfig()
	}
	retry.ShouldRetry = IsTransient
	retry.OnRetry = resilience.RetryLogger("upstream", "fetch")

	return &Client{
		static:  NewStaticClient(opts.Static, pacer),
		browser: NewBrowser(opts.Browser, pacer),
		pacer:   pacer,
		eps:     opts.Endpoints,
		retry:   retry,
		months:  opts.HistoryMonths,
	}
}

// Pacer exposes the shared pacer so the pipeline can widen it on block
// signals.
func (c *Client) Pacer() *Pacer { return c.pacer }

// Close releases the browser session.
func (c *Client) Close() {
	if c.browser != nil {
		c.browser.Close()
	}
}

func (c *Client) urlFor(t Target) string {
	switch t.Kind {
	case model.ContentListing:
		return fmt.Sprintf(c.eps.ListingURL, t.Page)
	case model.ContentDetail:
		return fmt.Sprintf(c.eps.DetailURL, t.Fund)
	case model.ContentAnalysis:
		return fmt.Sprintf(c.eps.AnalysisURL, t.Fund)
	case model.ContentHistory:
		months := t.Months
		if months == 0 {
			months = c.months
		}
		return fmt.Sprintf(c.eps.HistoryURL, t.SchemeCode, months)
	}
	return ""
}

// Fetch retrieves the target, retrying transient failures with backoff.
// NotFound and Blocked surface immediately.
func (c *Client) Fetch(ctx context.Context, t Target) (*model.RawPage, error) {
	rawURL := c.urlFor(t)
	if rawURL == "" {
		return nil, &Error{Kind: NotFound, Fund: t.Fund, Err: fmt.Errorf("no endpoint for kind %q", t.Kind)}
	}

	method := model.FetchStatic
	if t.Kind.Dynamic() {
		method = model.FetchDynamic
	}

	type result struct {
		body   []byte
		status int
	}
	res, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) (result, error) {
		if t.Kind.Dynamic() {
			body, err := c.browser.Render(ctx, rawURL)
			return result{body: body, status: 200}, err
		}
		body, status, err := c.static.Get(ctx, rawURL)
		return result{body: body, status: status}, err
	})
	if err != nil {
		if fe, ok := AsError(err); ok && fe.Fund == "" {
			fe.Fund = t.Fund
		}
		return nil, err
	}

	c.pacer.Ease()
	zap.L().Debug("fetched",
		zap.String("fund", string(t.Fund)),
		zap.String("kind", string(t.Kind)),
		zap.String("method", string(method)),
		zap.Int("bytes", len(res.body)),
	)

	return &model.RawPage{
		Fund:      t.Fund,
		Kind:      t.Kind,
		URL:       rawURL,
		Body:      res.body,
		Status:    res.status,
		Method:    method,
		FetchedAt: time.Now().UTC(),
	}, nil
}
