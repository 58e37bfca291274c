package universe

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fundbase/fundscan/internal/fetch"
	"github.com/fundbase/fundscan/internal/model"
)

func TestLoadSaveRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "universe.yaml")

	funds := []model.Fund{
		{ID: "axis-bluechip-fund-direct-growth", Name: "Axis Bluechip Fund"},
		{ID: "parag-parikh-flexi-cap-fund-direct-growth", Name: "Parag Parikh Flexi Cap Fund"},
	}

	require.NoError(t, Save(path, funds))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, funds, got)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadEmptyUniverse(t *testing.T) {
	path := filepath.Join(t.TempDir(), "universe.yaml")
	require.NoError(t, Save(path, nil))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestCanonicalSlug(t *testing.T) {
	tests := []struct {
		in   model.FundID
		want string
	}{
		{in: "axis-bluechip-fund-direct-growth", want: "axis-bluechip"},
		{in: "axis-bluechip-growth", want: "axis-bluechip"},
		{in: "sbi-small-cap-fund-regular-plan", want: "sbi-small-cap-regular"},
		{in: "quant-active", want: "quant-active"},
	}

	for _, tt := range tests {
		t.Run(string(tt.in), func(t *testing.T) {
			assert.Equal(t, tt.want, CanonicalSlug(tt.in))
		})
	}
}

// listingFetcher serves scripted listing pages and fails every other kind.
type listingFetcher struct {
	pages []string
}

func (f *listingFetcher) Fetch(_ context.Context, t fetch.Target) (*model.RawPage, error) {
	if t.Kind != model.ContentListing {
		return nil, &fetch.Error{Kind: fetch.NotFound, Fund: t.Fund}
	}
	body := `<html><body></body></html>` // past the last page
	if t.Page < len(f.pages) {
		body = f.pages[t.Page]
	}
	return &model.RawPage{Kind: t.Kind, Body: []byte(body)}, nil
}

func listingCard(slug, name string) string {
	return fmt.Sprintf(`<a class="f22Link" href="/mutual-funds/%s">
<div class="contentPrimary bodyBaseHeavy">%s</div>
</a>`, slug, name)
}

func listingBody(cards ...string) string {
	return "<html><body>" + strings.Join(cards, "\n") + "</body></html>"
}

func TestDiscoverWalksPagesAndDedups(t *testing.T) {
	f := &listingFetcher{pages: []string{
		listingBody(
			listingCard("axis-bluechip-fund-direct-growth", "Axis Bluechip Fund"),
			listingCard("axis-bluechip-growth", "Axis Bluechip Fund"), // same scheme, other share class
		),
		listingBody(
			listingCard("sbi-small-cap-fund-direct-growth", "SBI Small Cap Fund"),
		),
	}}

	funds, err := Discover(context.Background(), f, 10)
	require.NoError(t, err)

	require.Len(t, funds, 2)
	assert.Equal(t, model.FundID("axis-bluechip-fund-direct-growth"), funds[0].ID)
	assert.Equal(t, "Axis Bluechip Fund", funds[0].Name)
	assert.Equal(t, model.FundID("sbi-small-cap-fund-direct-growth"), funds[1].ID)
}

func TestDiscoverStopsAtCap(t *testing.T) {
	var cards []string
	for i := 0; i < 10; i++ {
		cards = append(cards, listingCard(fmt.Sprintf("fund-%d-direct-growth", i), fmt.Sprintf("Fund %d", i)))
	}
	f := &listingFetcher{pages: []string{listingBody(cards...)}}

	funds, err := Discover(context.Background(), f, 3)
	require.NoError(t, err)
	assert.Len(t, funds, 3)
}

// repeatingFetcher ignores the page number and serves the same cards forever,
// as an upstream that silently drops the paging parameter would.
type repeatingFetcher struct {
	body  string
	calls int
}

func (f *repeatingFetcher) Fetch(_ context.Context, t fetch.Target) (*model.RawPage, error) {
	f.calls++
	return &model.RawPage{Kind: t.Kind, Body: []byte(f.body)}, nil
}

func TestDiscoverStopsOnRepeatingPages(t *testing.T) {
	f := &repeatingFetcher{body: listingBody(
		listingCard("axis-bluechip-fund-direct-growth", "Axis Bluechip Fund"),
		listingCard("sbi-small-cap-fund-direct-growth", "SBI Small Cap Fund"),
	)}

	funds, err := Discover(context.Background(), f, 10)
	require.NoError(t, err)

	assert.Len(t, funds, 2)
	// Page 0 yields both funds, page 1 repeats them and ends the walk.
	assert.Equal(t, 2, f.calls)
}

func TestDiscoverEmptyListing(t *testing.T) {
	f := &listingFetcher{}
	_, err := Discover(context.Background(), f, 5)
	assert.Error(t, err)
}
