package parse

import (
	"encoding/json"
	"time"

	"github.com/fundbase/fundscan/internal/model"
)

// historyPayload matches the NAV graph endpoint: epoch-millisecond/NAV pairs
// under folio.data.
type historyPayload struct {
	Folio struct {
		Data [][]json.Number `json:"data"`
	} `json:"folio"`
}

// History extracts the historical NAV series from the graph JSON payload.
// Entries with the wrong arity or unparsable members are skipped; dedup and
// ordering are the normalizer's job.
func History(page *model.RawPage) (*model.RawRecord, error) {
	var payload historyPayload
	if err := json.Unmarshal(page.Body, &payload); err != nil {
		return nil, &MalformedError{Fund: page.Fund, Kind: page.Kind, Reason: "not parseable as graph JSON"}
	}
	if payload.Folio.Data == nil {
		return nil, &MalformedError{Fund: page.Fund, Kind: page.Kind, Reason: "folio.data missing from payload"}
	}

	rec := &model.RawRecord{Fund: page.Fund}
	for _, entry := range payload.Folio.Data {
		if len(entry) != 2 {
			continue
		}
		ms, err := entry[0].Int64()
		if err != nil {
			continue
		}
		nav, err := entry[1].Float64()
		if err != nil {
			continue
		}
		date := time.UnixMilli(ms).UTC().Format("2006-01-02")
		rec.History = append(rec.History, model.NAVPoint{Date: date, NAV: nav})
	}

	return rec, nil
}
