// Package export persists a dataset snapshot as one multi-sheet XLSX file.
// The write is atomic: a temp file in the target directory is renamed over
// the destination only once fully written, so a crash mid-run never leaves a
// partial output.
package export

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/fundbase/fundscan/internal/model"
)

// Sheet names in the persisted workbook. Funds holds the flattened scalar
// fields; the nested structures get one sheet each; Run carries run metadata
// and is the only sheet with timestamps.
const (
	SheetFunds    = "Funds"
	SheetHistory  = "NAV_History"
	SheetHoldings = "Holdings"
	SheetSectors  = "Sectors"
	SheetRun      = "Run"
)

var fundColumns = []string{
	"id", "name", "category", "risk",
	"aum_cr", "nav", "pe", "pb",
	"expense_ratio", "exit_load", "rating",
	"min_invest", "min_sip",
	"alpha", "beta", "sharpe",
	"return_1y", "return_3y", "return_5y",
	"asset_equity", "asset_debt", "asset_cash",
}

// Write persists the dataset and summary to path.
func Write(path string, ds *model.Dataset, summary *model.RunSummary) error {
	f, err := build(ds, summary)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".fundscan-*.xlsx")
	if err != nil {
		return eris.Wrap(err, "export: create temp file")
	}
	tmpName := tmp.Name()

	if err := f.Write(tmp); err != nil {
		tmp.Close()           //nolint:errcheck
		os.Remove(tmpName)    //nolint:errcheck
		return eris.Wrap(err, "export: write workbook")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName) //nolint:errcheck
		return eris.Wrap(err, "export: close temp file")
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName) //nolint:errcheck
		return eris.Wrapf(err, "export: rename into %s", path)
	}
	return nil
}

func build(ds *model.Dataset, summary *model.RunSummary) (*xlsx.File, error) {
	// Stable record order keeps identical data byte-comparable sheet-wise.
	records := make([]model.CanonicalRecord, len(ds.Records))
	copy(records, ds.Records)
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })

	f := xlsx.NewFile()

	if err := buildFunds(f, records); err != nil {
		return nil, err
	}
	if err := buildHistory(f, records); err != nil {
		return nil, err
	}
	if err := buildHoldings(f, records); err != nil {
		return nil, err
	}
	if err := buildSectors(f, records); err != nil {
		return nil, err
	}
	if err := buildRun(f, summary); err != nil {
		return nil, err
	}
	return f, nil
}

func buildFunds(f *xlsx.File, records []model.CanonicalRecord) error {
	sheet, err := f.AddSheet(SheetFunds)
	if err != nil {
		return eris.Wrap(err, "export: add funds sheet")
	}
	addHeader(sheet, fundColumns)

	for _, rec := range records {
		row := sheet.AddRow()
		row.AddCell().SetString(string(rec.ID))
		row.AddCell().SetString(rec.Name)
		row.AddCell().SetString(rec.Category)
		row.AddCell().SetString(rec.Risk)

		addFloat(row, rec.AUM)
		addFloat(row, rec.NAV)
		addFloat(row, rec.PE)
		addFloat(row, rec.PB)
		addFloat(row, rec.ExpenseRatio)
		addFloat(row, rec.ExitLoad)
		addFloat(row, rec.Rating)
		addFloat(row, rec.MinInvest)
		addFloat(row, rec.MinSIP)
		addFloat(row, rec.Alpha)
		addFloat(row, rec.Beta)
		addFloat(row, rec.Sharpe)

		for _, period := range model.AllPeriods() {
			if v, ok := rec.Returns[period]; ok {
				row.AddCell().SetFloat(v)
			} else {
				row.AddCell()
			}
		}

		addFloat(row, rec.Assets.Equity)
		addFloat(row, rec.Assets.Debt)
		addFloat(row, rec.Assets.Cash)
	}
	return nil
}

func buildHistory(f *xlsx.File, records []model.CanonicalRecord) error {
	sheet, err := f.AddSheet(SheetHistory)
	if err != nil {
		return eris.Wrap(err, "export: add history sheet")
	}
	addHeader(sheet, []string{"id", "date", "nav"})

	for _, rec := range records {
		for _, p := range rec.History {
			row := sheet.AddRow()
			row.AddCell().SetString(string(rec.ID))
			row.AddCell().SetString(p.Date)
			row.AddCell().SetFloat(p.NAV)
		}
	}
	return nil
}

func buildHoldings(f *xlsx.File, records []model.CanonicalRecord) error {
	sheet, err := f.AddSheet(SheetHoldings)
	if err != nil {
		return eris.Wrap(err, "export: add holdings sheet")
	}
	addHeader(sheet, []string{"id", "holding", "weight_pct"})

	for _, rec := range records {
		for _, h := range rec.Holdings {
			row := sheet.AddRow()
			row.AddCell().SetString(string(rec.ID))
			row.AddCell().SetString(h.Name)
			row.AddCell().SetFloat(h.Weight)
		}
	}
	return nil
}

func buildSectors(f *xlsx.File, records []model.CanonicalRecord) error {
	sheet, err := f.AddSheet(SheetSectors)
	if err != nil {
		return eris.Wrap(err, "export: add sectors sheet")
	}
	addHeader(sheet, []string{"id", "sector", "weight_pct"})

	for _, rec := range records {
		for _, s := range rec.Sectors {
			row := sheet.AddRow()
			row.AddCell().SetString(string(rec.ID))
			row.AddCell().SetString(s.Sector)
			row.AddCell().SetFloat(s.Weight)
		}
	}
	return nil
}

func buildRun(f *xlsx.File, summary *model.RunSummary) error {
	sheet, err := f.AddSheet(SheetRun)
	if err != nil {
		return eris.Wrap(err, "export: add run sheet")
	}

	kv := func(key, value string) {
		row := sheet.AddRow()
		row.AddCell().SetString(key)
		row.AddCell().SetString(value)
	}

	if summary == nil {
		return nil
	}
	kv("run_id", summary.RunID)
	kv("started_at", summary.StartedAt.UTC().Format("2006-01-02T15:04:05Z"))
	kv("finished_at", summary.FinishedAt.UTC().Format("2006-01-02T15:04:05Z"))

	row := sheet.AddRow()
	row.AddCell().SetString("universe")
	row.AddCell().SetInt(summary.Universe)
	row = sheet.AddRow()
	row.AddCell().SetString("succeeded")
	row.AddCell().SetInt(summary.Succeeded)
	row = sheet.AddRow()
	row.AddCell().SetString("failed")
	row.AddCell().SetInt(summary.Failed())

	for _, failure := range summary.Failures {
		row := sheet.AddRow()
		row.AddCell().SetString("failure")
		row.AddCell().SetString(string(failure.Fund))
		row.AddCell().SetString(string(failure.Reason))
		row.AddCell().SetString(failure.Detail)
	}
	return nil
}

func addHeader(sheet *xlsx.Sheet, columns []string) {
	row := sheet.AddRow()
	for _, c := range columns {
		row.AddCell().SetString(c)
	}
}

func addFloat(row *xlsx.Row, v *float64) {
	if v == nil {
		row.AddCell()
		return
	}
	row.AddCell().SetFloat(*v)
}
