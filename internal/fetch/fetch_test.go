package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundbase/fundscan/internal/model"
	"github.com/fundbase/fundscan/internal/resilience"
)

func fastRetry() resilience.RetryConfig {
	return resilience.RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Multiplier:     2.0,
	}
}

func newTestClient(srvURL string) *Client {
	return NewClient(Options{
		Endpoints: Endpoints{
			ListingURL:  srvURL + "/listing?pageNo=%d",
			DetailURL:   srvURL + "/funds/%s",
			AnalysisURL: srvURL + "/funds/%s",
			HistoryURL:  srvURL + "/graph/%s?months=%d",
		},
		Retry:         fastRetry(),
		HistoryMonths: 12,
	}, NewPacer(time.Millisecond, 1))
}

func TestClientFetchDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/funds/axis-bluechip-fund", r.URL.Path)
		_, _ = w.Write([]byte("<html><h1>Axis Bluechip Fund</h1></html>"))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	page, err := c.Fetch(context.Background(), Target{Fund: "axis-bluechip-fund", Kind: model.ContentDetail})
	require.NoError(t, err)

	assert.Equal(t, model.FundID("axis-bluechip-fund"), page.Fund)
	assert.Equal(t, model.ContentDetail, page.Kind)
	assert.Equal(t, model.FetchStatic, page.Method)
	assert.Equal(t, http.StatusOK, page.Status)
	assert.Contains(t, string(page.Body), "Axis Bluechip Fund")
	assert.False(t, page.FetchedAt.IsZero())
}

func TestClientFetchHistoryURL(t *testing.T) {
	var gotPath atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath.Store(r.URL.String())
		_, _ = w.Write([]byte(`{"folio":{"data":[]}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.Fetch(context.Background(), Target{
		Fund:       "axis-bluechip-fund",
		Kind:       model.ContentHistory,
		SchemeCode: "120503",
	})
	require.NoError(t, err)
	assert.Equal(t, "/graph/120503?months=12", gotPath.Load())
}

func TestClientFetchRetriesTransient(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	page, err := c.Fetch(context.Background(), Target{Fund: "some-fund", Kind: model.ContentDetail})
	require.NoError(t, err)
	assert.EqualValues(t, 3, calls.Load())
	assert.Contains(t, string(page.Body), "ok")
}

func TestClientFetchDoesNotRetryNotFound(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.Fetch(context.Background(), Target{Fund: "gone-fund", Kind: model.ContentDetail})
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.EqualValues(t, 1, calls.Load())

	fe, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, model.FundID("gone-fund"), fe.Fund)
}

func TestClientFetchDoesNotRetryBlocked(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.Fetch(context.Background(), Target{Fund: "some-fund", Kind: model.ContentDetail})
	require.Error(t, err)
	assert.True(t, IsBlocked(err))
	assert.EqualValues(t, 1, calls.Load())
}

func TestErrorTaxonomy(t *testing.T) {
	wrapped := fmt.Errorf("context: %w", &Error{Kind: Blocked, URL: "https://example.com"})

	assert.True(t, IsBlocked(wrapped))
	assert.False(t, IsTransient(wrapped))
	assert.False(t, IsNotFound(wrapped))
	assert.False(t, IsBlocked(fmt.Errorf("plain error")))

	fe, ok := AsError(wrapped)
	require.True(t, ok)
	assert.Equal(t, Blocked, fe.Kind)
}
