package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStaticClient(t *testing.T) *StaticClient {
	t.Helper()
	return NewStaticClient(StaticOptions{Timeout: 5 * time.Second}, NewPacer(time.Millisecond, 1))
}

func TestStaticGetOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte("<html><h1>Some Fund</h1></html>"))
	}))
	defer srv.Close()

	body, status, err := testStaticClient(t).Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "Some Fund")
}

func TestStaticGetClassifiesStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
		check  func(error) bool
	}{
		{name: "404 is not found", status: http.StatusNotFound, check: IsNotFound},
		{name: "410 is not found", status: http.StatusGone, check: IsNotFound},
		{name: "403 is blocked", status: http.StatusForbidden, check: IsBlocked},
		{name: "429 is blocked", status: http.StatusTooManyRequests, check: IsBlocked},
		{name: "500 is transient", status: http.StatusInternalServerError, check: IsTransient},
		{name: "503 is transient", status: http.StatusServiceUnavailable, check: IsTransient},
		{name: "302 is transient", status: http.StatusFound, check: IsTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			_, status, err := testStaticClient(t).Get(context.Background(), srv.URL)
			require.Error(t, err)
			assert.Equal(t, tt.status, status)
			assert.True(t, tt.check(err))
		})
	}
}

func TestStaticGetBlockedInterstitial(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>Please complete the CAPTCHA to continue</html>"))
	}))
	defer srv.Close()

	_, _, err := testStaticClient(t).Get(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, IsBlocked(err))
}

func TestStaticGetConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // immediately, so the port refuses connections

	_, _, err := testStaticClient(t).Get(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, IsTransient(err))
}
