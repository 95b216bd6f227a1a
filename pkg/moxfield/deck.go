package moxfield

import (
	"github.com/tidwall/gjson"

	"cardpool/pkg/inventory"
)

// deckSections are the named sub-collections of a deck document, each a
// mapping from card name to a card-detail object.
var deckSections = []string{"mainboard", "sideboard", "commanders", "considering", "maybeboard"}

// Deck reads a whole deck document and returns one entry per card per
// section. A card sitting in both mainboard and sideboard produces two
// entries; merging them is the aggregator's job, not ours.
func (c *Client) Deck(id string) ([]inventory.Entry, error) {
	doc, err := c.gw.GetJSON(c.Base + "/v2/decks/all/" + id)
	if err != nil {
		return nil, err
	}

	var entries []inventory.Entry
	for _, section := range deckSections {
		board := doc.Get(section)
		if !board.IsObject() {
			continue
		}
		board.ForEach(func(name, detail gjson.Result) bool {
			entries = append(entries, entryFrom(name.String(), detail))
			return true
		})
	}

	return entries, nil
}
