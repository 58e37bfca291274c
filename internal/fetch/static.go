package fetch

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// StaticOptions configures the plain-HTTP fetch strategy.
type StaticOptions struct {
	UserAgent string
	Timeout   time.Duration
}

// StaticClient fetches content that is present in the initial page load.
type StaticClient struct {
	client *http.Client
	ua     string
	pacer  *Pacer
}

// NewStaticClient creates the static strategy sharing the given pacer.
func NewStaticClient(opts StaticOptions, pacer *Pacer) *StaticClient {
	if opts.Timeout == 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	transport := &http.Transport{
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     20,
		IdleConnTimeout:     90 * time.Second,
	}
	return &StaticClient{
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		ua:    opts.UserAgent,
		pacer: pacer,
	}
}

// Get performs one rate-limited request and classifies the outcome into the
// fetch error taxonomy. It does not retry; the caller owns retry policy.
func (c *StaticClient) Get(ctx context.Context, rawURL string) ([]byte, int, error) {
	if err := c.pacer.Wait(ctx); err != nil {
		return nil, 0, eris.Wrap(err, "pacer wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, eris.Wrap(err, "create request")
	}
	req.Header.Set("User-Agent", c.ua)
	req.Header.Set("Accept", "text/html,application/json;q=0.9,*/*;q=0.8")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, &Error{Kind: Transient, URL: rawURL, Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, &Error{Kind: Transient, URL: rawURL, Err: eris.Wrap(err, "read body")}
	}

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return nil, resp.StatusCode, &Error{Kind: NotFound, URL: rawURL, Err: eris.Errorf("http %d", resp.StatusCode)}
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests:
		return nil, resp.StatusCode, &Error{Kind: Blocked, URL: rawURL, Err: eris.Errorf("http %d", resp.StatusCode)}
	case resp.StatusCode >= 500:
		return nil, resp.StatusCode, &Error{Kind: Transient, URL: rawURL, Err: eris.Errorf("http %d", resp.StatusCode)}
	case resp.StatusCode != http.StatusOK:
		return nil, resp.StatusCode, &Error{Kind: Transient, URL: rawURL, Err: eris.Errorf("unexpected http %d", resp.StatusCode)}
	}

	if looksBlocked(body) {
		return nil, resp.StatusCode, &Error{Kind: Blocked, URL: rawURL, Err: eris.New("interstitial block page")}
	}

	return body, resp.StatusCode, nil
}

// looksBlocked sniffs anti-bot interstitials served with a 200 status.
func looksBlocked(body []byte) bool {
	if len(body) > 4096 {
		body = body[:4096]
	}
	lower := strings.ToLower(string(body))
	for _, marker := range []string{
		"captcha",
		"access denied",
		"unusual traffic",
		"verify you are a human",
	} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
