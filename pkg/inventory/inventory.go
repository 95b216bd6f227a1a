// Package inventory holds the normalized card model and the merge logic that
// folds every owner's raw card lists into one per-card, per-owner mapping.
package inventory

import (
	"sort"
	"strings"
)

// Entry is one raw card record as a reader produced it, before any merging.
type Entry struct {
	Name            string
	Quantity        int
	Set             string
	SetName         string
	CollectorNumber string
	ScryfallID      string
	Foil            bool
}

// Printing is the unit of deduplication: one owner's holdings of one card in
// a specific set/foil variant. Price stays nil until the enrichment pass
// fills it; a printing with no fetchable price keeps nil, that is not an
// error state.
type Printing struct {
	Quantity        int      `json:"qty"`
	Set             string   `json:"set"`
	SetName         string   `json:"setName"`
	Foil            bool     `json:"isFoil"`
	CollectorNumber string   `json:"collectorNumber"`
	ScryfallID      string   `json:"scryfallId"`
	Price           *float64 `json:"price"`
}

// Card groups every owner's printings of one card name.
type Card struct {
	// Name keeps the casing of whichever source introduced the card first.
	Name   string                 `json:"name"`
	Owners map[string][]*Printing `json:"owners"`
}

type Owner struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	// CardCount is the raw, pre-dedup entry count contributed across all of
	// this owner's fetched URLs. An activity metric, not a distinct total.
	CardCount int `json:"cardCount"`
}

// Snapshot is the artifact persisted at the end of a run. It is fully
// regenerated every time; nothing is carried over from a previous run.
type Snapshot struct {
	LastUpdated string           `json:"lastUpdated"`
	Owners      []*Owner         `json:"owners"`
	Cards       map[string]*Card `json:"cards"`
}

// Aggregator owns the accumulator maps for one run.
type Aggregator struct {
	owners     map[string]*Owner
	ownerOrder []string
	cards      map[string]*Card
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		owners: make(map[string]*Owner),
		cards:  make(map[string]*Card),
	}
}

// AddOwner resolves or creates the owner record. The phone from the first
// call wins; later calls never overwrite it.
func (a *Aggregator) AddOwner(name, phone string) *Owner {
	if o, ok := a.owners[name]; ok {
		return o
	}
	o := &Owner{Name: name, Phone: phone}
	a.owners[name] = o
	a.ownerOrder = append(a.ownerOrder, name)
	return o
}

// Merge folds one successfully fetched URL's entries into the aggregate and
// bumps the owner's raw card count. Entries for the same card collapse into
// one printing iff set and foil status both match; their quantities sum.
func (a *Aggregator) Merge(owner string, entries []Entry) {
	o := a.AddOwner(owner, "")
	o.CardCount += len(entries)

	for _, e := range entries {
		key := strings.ToLower(strings.TrimSpace(e.Name))
		if key == "" {
			continue
		}

		card, ok := a.cards[key]
		if !ok {
			card = &Card{
				Name:   strings.TrimSpace(e.Name),
				Owners: make(map[string][]*Printing),
			}
			a.cards[key] = card
		}

		var printing *Printing
		for _, p := range card.Owners[owner] {
			if p.Set == e.Set && p.Foil == e.Foil {
				printing = p
				break
			}
		}

		if printing != nil {
			printing.Quantity += e.Quantity
			continue
		}

		card.Owners[owner] = append(card.Owners[owner], &Printing{
			Quantity:        e.Quantity,
			Set:             e.Set,
			SetName:         e.SetName,
			Foil:            e.Foil,
			CollectorNumber: e.CollectorNumber,
			ScryfallID:      e.ScryfallID,
		})
	}
}

// Cards exposes the live aggregate mapping for the enrichment pass.
func (a *Aggregator) Cards() map[string]*Card {
	return a.cards
}

// Owners returns the owner records in the order they first appeared.
func (a *Aggregator) Owners() []*Owner {
	owners := make([]*Owner, 0, len(a.ownerOrder))
	for _, name := range a.ownerOrder {
		owners = append(owners, a.owners[name])
	}
	return owners
}

// Printings counts every printing of every owner of every card.
func (a *Aggregator) Printings() int {
	n := 0
	for _, card := range a.cards {
		for _, ps := range card.Owners {
			n += len(ps)
		}
	}
	return n
}

// Snapshot assembles the final document.
func (a *Aggregator) Snapshot(lastUpdated string) *Snapshot {
	return &Snapshot{
		LastUpdated: lastUpdated,
		Owners:      a.Owners(),
		Cards:       a.cards,
	}
}

// SortedNames returns the aggregate's card keys in lexical order. Handy for
// deterministic iteration in logs and tests.
func (a *Aggregator) SortedNames() []string {
	names := make([]string, 0, len(a.cards))
	for name := range a.cards {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
