package fetch

import (
	"errors"
	"fmt"

	"github.com/fundbase/fundscan/internal/model"
)

// ErrorKind classifies a fetch failure. The pipeline reacts differently to
// each kind: transient failures were already retried locally, not-found is a
// permanent skip, blocked widens the pacer and requeues the fund.
type ErrorKind string

const (
	// Transient covers timeouts, 5xx responses and empty dynamic renders,
	// after local retries are exhausted.
	Transient ErrorKind = "transient"

	// NotFound means the identifier does not exist upstream. Never retried.
	NotFound ErrorKind = "not_found"

	// Blocked means the upstream signalled rate limiting or anti-bot
	// filtering (403/429 or an interstitial page).
	Blocked ErrorKind = "blocked"
)

// Error is a classified fetch failure for one fund/content pair.
type Error struct {
	Kind ErrorKind
	Fund model.FundID
	URL  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s (%s): %v", e.URL, e.Kind, e.Err)
	}
	return fmt.Sprintf("fetch %s (%s)", e.URL, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// AsError extracts a fetch Error from err's chain.
func AsError(err error) (*Error, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// IsTransient reports whether err is a transient fetch failure.
func IsTransient(err error) bool {
	fe, ok := AsError(err)
	return ok && fe.Kind == Transient
}

// IsNotFound reports whether err is a permanent identifier-not-found failure.
func IsNotFound(err error) bool {
	fe, ok := AsError(err)
	return ok && fe.Kind == NotFound
}

// IsBlocked reports whether err is an upstream block signal.
func IsBlocked(err error) bool {
	fe, ok := AsError(err)
	return ok && fe.Kind == Blocked
}
