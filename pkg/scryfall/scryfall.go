// Package scryfall enriches aggregated printings with market prices from the
// Scryfall card API. Scryfall serves permissive CORS headers, so unlike the
// Moxfield traffic these lookups skip the relay gateway and go direct.
package scryfall

import (
	"time"

	"github.com/tidwall/gjson"

	"cardpool/internal/utils"
	"cardpool/pkg/fetch"
	"cardpool/pkg/inventory"
)

const (
	APIBase = "https://api.scryfall.com"

	// Scryfall asks for at most ~10 requests per second; a flat pause after
	// every lookup keeps us under that without a scheduler.
	lookupDelay = 100 * time.Millisecond
)

type Client struct {
	f *fetch.Client

	// Base is the API root, overridable in tests.
	Base string
	// Delay is the pause after every attempted lookup.
	Delay time.Duration
}

func NewClient(f *fetch.Client) *Client {
	return &Client{
		f:     f,
		Base:  APIBase,
		Delay: lookupDelay,
	}
}

// EnrichPrices walks every printing of every owner of every card, strictly in
// sequence, and fills in prices where Scryfall knows one. A failed or
// unusable lookup leaves the price nil and never aborts the pass. Returns how
// many prices were fetched out of how many printings exist.
func (c *Client) EnrichPrices(cards map[string]*inventory.Card) (fetched, total int) {
	for name, card := range cards {
		for _, printings := range card.Owners {
			for _, p := range printings {
				total++

				var lookupURL string
				switch {
				case p.ScryfallID != "":
					lookupURL = c.Base + "/cards/" + p.ScryfallID
				case p.Set != "" && p.CollectorNumber != "":
					lookupURL = c.Base + "/cards/" + p.Set + "/" + p.CollectorNumber
				default:
					// Nothing to query by; no network call for this one.
					utils.Log.Debug("No price lookup key for ", name, " (", p.Set, ")")
					continue
				}

				res, err := c.f.GetJSON(lookupURL)
				time.Sleep(c.Delay)

				if err != nil {
					utils.Log.Warn("Price lookup failed for ", name, ": ", err)
					continue
				}

				if price, ok := priceFrom(res, p.Foil); ok {
					p.Price = &price
					fetched++
				}
			}
		}
	}

	return fetched, total
}

// priceFrom picks the USD price matching the printing's finish, falling back
// to the other finish when the preferred one is missing.
func priceFrom(card gjson.Result, foil bool) (float64, bool) {
	order := []string{"prices.usd", "prices.usd_foil"}
	if foil {
		order = []string{"prices.usd_foil", "prices.usd"}
	}
	for _, path := range order {
		v := card.Get(path)
		if v.Exists() && v.Type != gjson.Null && v.String() != "" {
			return v.Float(), true
		}
	}
	return 0, false
}
