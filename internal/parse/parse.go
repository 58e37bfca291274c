// Package parse extracts typed fields from fetched upstream content. Parsers
// are stateless and per-page: a missing or unparsable individual field
// becomes a null in the raw record, never a zero and never a parse failure.
// MalformedError is reserved for content whose overall shape is not the
// expected page structure (upstream redesign, empty payload).
package parse

import (
	"errors"
	"fmt"

	"github.com/fundbase/fundscan/internal/model"
)

// MalformedError means the content does not match the expected structure for
// its kind at all. The fund is dropped from the run and reported.
type MalformedError struct {
	Fund   model.FundID
	Kind   model.ContentKind
	Reason string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("parse %s/%s: malformed: %s", e.Fund, e.Kind, e.Reason)
}

// IsMalformed reports whether err is a whole-page parse failure.
func IsMalformed(err error) bool {
	var me *MalformedError
	return errors.As(err, &me)
}

// Page extracts a partial raw record from one fetched page, dispatching on
// the page's content kind.
func Page(page *model.RawPage) (*model.RawRecord, error) {
	switch page.Kind {
	case model.ContentDetail:
		return Detail(page)
	case model.ContentAnalysis:
		return Analysis(page)
	case model.ContentHistory:
		return History(page)
	default:
		return nil, &MalformedError{Fund: page.Fund, Kind: page.Kind, Reason: "no parser for kind"}
	}
}
