package fetch

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// BrowserOptions configures the headless-browser fetch strategy.
type BrowserOptions struct {
	// WaitSelector is the CSS selector whose visibility marks the page as
	// rendered. Render is considered failed (transient) if it never shows.
	WaitSelector string

	// Settle is an extra delay after the selector appears, letting late
	// scripts finish populating values.
	Settle time.Duration

	// Timeout bounds one full render attempt.
	Timeout time.Duration

	UserAgent string
}

// Browser renders client-side-populated pages via a shared headless browser.
// One browser process is reused across fetches; cookies and storage are
// cleared before each navigation so state cannot leak between funds.
type Browser struct {
	opts  BrowserOptions
	pacer *Pacer

	once        sync.Once
	allocCtx    context.Context
	allocCancel context.CancelFunc
	browserCtx  context.Context
	browserStop context.CancelFunc
	initErr     error
}

// NewBrowser creates the dynamic strategy sharing the given pacer. The
// browser process starts lazily on the first render.
func NewBrowser(opts BrowserOptions, pacer *Pacer) *Browser {
	if opts.Timeout == 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.Settle == 0 {
		opts.Settle = 500 * time.Millisecond
	}
	if opts.WaitSelector == "" {
		opts.WaitSelector = "body"
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	return &Browser{opts: opts, pacer: pacer}
}

func (b *Browser) init() {
	execOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserAgent(b.opts.UserAgent),
		chromedp.Flag("blink-settings", "imagesEnabled=false"),
	)
	b.allocCtx, b.allocCancel = chromedp.NewExecAllocator(context.Background(), execOpts...)
	b.browserCtx, b.browserStop = chromedp.NewContext(b.allocCtx)

	// Start the browser process up front so later renders only open tabs.
	if err := chromedp.Run(b.browserCtx); err != nil {
		b.initErr = eris.Wrap(err, "start browser")
	}
}

// pageOrigin reduces a URL to its origin, the unit the browser partitions
// local storage by.
func pageOrigin(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", eris.Errorf("no origin in url %q", rawURL)
	}
	return u.Scheme + "://" + u.Host, nil
}

// Render fetches rawURL in a fresh tab, waits for the ready selector and
// returns the rendered document. An empty render or an expired wait is a
// transient failure.
func (b *Browser) Render(ctx context.Context, rawURL string) ([]byte, error) {
	b.once.Do(b.init)
	if b.initErr != nil {
		return nil, &Error{Kind: Transient, URL: rawURL, Err: b.initErr}
	}

	origin, err := pageOrigin(rawURL)
	if err != nil {
		return nil, &Error{Kind: Transient, URL: rawURL, Err: err}
	}

	if err := b.pacer.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "pacer wait")
	}

	tabCtx, closeTab := chromedp.NewContext(b.browserCtx)
	defer closeTab()

	runCtx, cancel := context.WithTimeout(tabCtx, b.opts.Timeout)
	defer cancel()

	// Propagate caller cancellation into the tab.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-done:
		}
	}()

	// Tabs share the browser profile, so cookies and origin storage are both
	// wiped before navigating. Otherwise state written during one fund's
	// render survives into the next.
	var html string
	err = chromedp.Run(runCtx,
		network.ClearBrowserCookies(),
		storage.ClearDataForOrigin(origin, "all"),
		chromedp.Navigate(rawURL),
		chromedp.WaitVisible(b.opts.WaitSelector, chromedp.ByQuery),
		chromedp.Sleep(b.opts.Settle),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		zap.L().Warn("dynamic render failed",
			zap.String("url", rawURL),
			zap.Error(err),
		)
		return nil, &Error{Kind: Transient, URL: rawURL, Err: eris.Wrap(err, "render")}
	}

	if strings.TrimSpace(html) == "" {
		return nil, &Error{Kind: Transient, URL: rawURL, Err: eris.New("empty dynamic render")}
	}
	if looksBlocked([]byte(html)) {
		return nil, &Error{Kind: Blocked, URL: rawURL, Err: eris.New("interstitial block page")}
	}

	return []byte(html), nil
}

// Close shuts the browser process down.
func (b *Browser) Close() {
	if b.browserStop != nil {
		b.browserStop()
	}
	if b.allocCancel != nil {
		b.allocCancel()
	}
}
