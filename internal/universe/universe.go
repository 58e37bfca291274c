// Package universe manages the fixed fund-identifier universe: loading and
// saving the universe file, and discovering identifiers from the upstream
// listing pages.
package universe

import (
	"context"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/fundbase/fundscan/internal/fetch"
	"github.com/fundbase/fundscan/internal/model"
	"github.com/fundbase/fundscan/internal/parse"
)

// File is the on-disk universe document.
type File struct {
	Funds []model.Fund `yaml:"funds"`
}

// Load reads the universe file.
func Load(path string) ([]model.Fund, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "universe: read %s", path)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrapf(err, "universe: unmarshal %s", path)
	}
	if len(f.Funds) == 0 {
		return nil, eris.Errorf("universe: %s contains no funds", path)
	}
	return f.Funds, nil
}

// Save writes the universe file.
func Save(path string, funds []model.Fund) error {
	data, err := yaml.Marshal(File{Funds: funds})
	if err != nil {
		return eris.Wrap(err, "universe: marshal")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "universe: write %s", path)
	}
	return nil
}

// marketingSuffixes are slug fragments that vary across share classes of the
// same scheme. Stripping them before comparison keeps one entry per scheme.
var marketingSuffixes = []string{"-fund", "-direct", "-growth", "-plan", "-scheme"}

// CanonicalSlug reduces a fund slug to its dedup key.
func CanonicalSlug(id model.FundID) string {
	slug := string(id)
	for _, suffix := range marketingSuffixes {
		slug = strings.ReplaceAll(slug, suffix, "")
	}
	parts := strings.Split(slug, "-")
	kept := parts[:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "-")
}

// Discover walks the listing pages until maxFunds unique funds are collected
// or the listing runs out. Duplicate share classes of one scheme are folded
// by canonical slug.
func Discover(ctx context.Context, fetcher fetch.Fetcher, maxFunds int) ([]model.Fund, error) {
	if maxFunds <= 0 {
		maxFunds = 200
	}

	var funds []model.Fund
	seen := make(map[string]struct{})

	for page := 0; len(funds) < maxFunds; page++ {
		raw, err := fetcher.Fetch(ctx, fetch.Target{Kind: model.ContentListing, Page: page})
		if err != nil {
			return funds, eris.Wrapf(err, "universe: fetch listing page %d", page)
		}

		entries, err := parse.Listing(raw)
		if err != nil {
			// An empty page means pagination ran out; what we have is the universe.
			if parse.IsMalformed(err) {
				zap.L().Info("listing exhausted", zap.Int("page", page), zap.Int("funds", len(funds)))
				break
			}
			return funds, eris.Wrapf(err, "universe: parse listing page %d", page)
		}

		added := 0
		for _, entry := range entries {
			key := entry.Name + "|" + CanonicalSlug(entry.Slug)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			funds = append(funds, model.Fund{ID: entry.Slug, Name: entry.Name})
			added++
			if len(funds) >= maxFunds {
				break
			}
		}

		zap.L().Info("listing page discovered",
			zap.Int("page", page),
			zap.Int("entries", len(entries)),
			zap.Int("total", len(funds)),
		)

		// A non-empty page with nothing new means the upstream is repeating
		// itself (paging parameter ignored). Stop rather than loop.
		if added == 0 {
			zap.L().Warn("listing page added no new funds, stopping discovery",
				zap.Int("page", page),
				zap.Int("total", len(funds)),
			)
			break
		}
	}

	if len(funds) == 0 {
		return nil, eris.New("universe: discovery found no funds")
	}
	return funds, nil
}
