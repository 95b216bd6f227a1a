// Package tracker runs the whole fetch-merge-price pipeline for a configured
// set of sources. One URL, one page, or one price lookup failing costs only
// that unit's contribution; the run always finishes with whatever subset of
// data was obtainable.
package tracker

import (
	"time"

	"cardpool/internal/config"
	"cardpool/internal/utils"
	"cardpool/pkg/inventory"
	"cardpool/pkg/moxfield"
	"cardpool/pkg/scryfall"
)

// sourceDelay is the pause after processing each source URL, independent of
// the collection reader's per-page delay and the fetch client's backoff.
const sourceDelay = 1 * time.Second

type Stats struct {
	Sources       int
	URLs          int
	SkippedURLs   int
	Printings     int
	PricesFetched int
}

// PricePercent reports how much of the aggregate got a price. An empty
// aggregate reports 0, never a division by zero.
func (s Stats) PricePercent() float64 {
	if s.Printings == 0 {
		return 0
	}
	return float64(s.PricesFetched) / float64(s.Printings) * 100
}

type Pipeline struct {
	Mox  *moxfield.Client
	Scry *scryfall.Client

	// SourceDelay is the pause after each source URL, overridable in tests.
	SourceDelay time.Duration
	// SkipPrices leaves every price nil instead of querying Scryfall.
	SkipPrices bool
}

func New(mox *moxfield.Client, scry *scryfall.Client) *Pipeline {
	return &Pipeline{
		Mox:         mox,
		Scry:        scry,
		SourceDelay: sourceDelay,
	}
}

// Run fetches every configured source, merges the results, enriches prices
// and assembles the snapshot. Errors below the per-URL granularity are
// logged and skipped, never returned.
func (p *Pipeline) Run(cfg *config.Config) (*inventory.Snapshot, Stats) {
	agg := inventory.NewAggregator()
	var stats Stats

	for _, source := range cfg.Sources {
		stats.Sources++
		agg.AddOwner(source.Owner, cfg.PhoneFor(source.Owner))

		for _, rawURL := range source.AllURLs() {
			stats.URLs++

			ref, ok := moxfield.Classify(rawURL)
			if !ok {
				utils.Log.Error("Cannot classify source URL, skipping: ", rawURL)
				stats.SkippedURLs++
				continue
			}

			utils.Log.Info("Fetching ", ref.Kind.String(), " ", ref.ID, " for ", source.Owner)
			entries, err := p.Mox.Read(ref)
			if err != nil {
				utils.Log.Error("Fetch failed for ", rawURL, ", skipping: ", err)
				stats.SkippedURLs++
			} else {
				agg.Merge(source.Owner, entries)
				utils.Log.Info("Merged ", len(entries), " entries from ", ref.Kind.String(), " ", ref.ID)
			}

			time.Sleep(p.SourceDelay)
		}
	}

	stats.Printings = agg.Printings()
	if !p.SkipPrices {
		stats.PricesFetched, _ = p.Scry.EnrichPrices(agg.Cards())
	}

	snap := agg.Snapshot(time.Now().UTC().Format(time.RFC3339))
	return snap, stats
}
