// Package moxfield reads public deck and collection card lists from the
// Moxfield API. All requests go through the relay gateway; the API has no
// permissive CORS policy and we keep a single code path with the front-end.
package moxfield

import (
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"cardpool/pkg/gateway"
	"cardpool/pkg/inventory"
)

const (
	APIBase = "https://api.moxfield.com"

	collectionPageSize = 50
	// Politeness delay between collection pages, distinct from the fetch
	// client's retry backoff.
	collectionPageDelay = 300 * time.Millisecond
)

type RefKind int

const (
	RefDeck RefKind = iota
	RefCollection
)

func (k RefKind) String() string {
	if k == RefDeck {
		return "deck"
	}
	return "collection"
}

// Ref identifies one upstream resource, derived from a configured URL.
type Ref struct {
	Kind RefKind
	ID   string
}

// URL rebuilds a canonical source URL for the reference.
func (r Ref) URL() string {
	if r.Kind == RefDeck {
		return "https://moxfield.com/decks/" + r.ID
	}
	return "https://moxfield.com/collection/" + r.ID
}

var (
	deckRe       = regexp.MustCompile(`/decks/([A-Za-z0-9_-]+)`)
	collectionRe = regexp.MustCompile(`/collection/([A-Za-z0-9_-]+)`)
)

// Classify determines whether a source URL references a deck or a collection
// and extracts its identifier. Deck is checked first; a URL matching neither
// pattern yields ok=false and must be skipped by the caller, not fatal.
func Classify(rawURL string) (Ref, bool) {
	if m := deckRe.FindStringSubmatch(rawURL); m != nil {
		return Ref{Kind: RefDeck, ID: m[1]}, true
	}
	if m := collectionRe.FindStringSubmatch(rawURL); m != nil {
		return Ref{Kind: RefCollection, ID: m[1]}, true
	}
	return Ref{}, false
}

type Client struct {
	gw *gateway.Gateway

	// Base is the upstream API root, overridable in tests.
	Base string
	// PageDelay is the wait between collection pages.
	PageDelay time.Duration
}

func NewClient(gw *gateway.Gateway) *Client {
	return &Client{
		gw:        gw,
		Base:      APIBase,
		PageDelay: collectionPageDelay,
	}
}

// Read dispatches a classified reference to the right reader.
func (c *Client) Read(ref Ref) ([]inventory.Entry, error) {
	if ref.Kind == RefDeck {
		return c.Deck(ref.ID)
	}
	return c.Collection(ref.ID)
}

// pick reads a printing-metadata field from the nested card-detail object,
// falling back to a sibling top-level field. Older API responses kept these
// fields on the entry itself; newer ones nest them under "card".
func pick(detail gjson.Result, field string) gjson.Result {
	if v := detail.Get("card." + field); v.Exists() {
		return v
	}
	return detail.Get(field)
}

// entryFrom normalizes one upstream card record. Quantity defaults to 1,
// a missing set becomes the literal "unknown", and foil status is derived
// from the finishes list.
func entryFrom(name string, detail gjson.Result) inventory.Entry {
	qty := 1
	if q := detail.Get("quantity"); q.Exists() && q.Type != gjson.Null {
		qty = int(q.Int())
	}

	set := pick(detail, "set").String()
	if set == "" {
		set = "unknown"
	}

	foil := false
	pick(detail, "finishes").ForEach(func(_, finish gjson.Result) bool {
		if finish.String() == "foil" {
			foil = true
			return false
		}
		return true
	})

	return inventory.Entry{
		Name:            strings.TrimSpace(name),
		Quantity:        qty,
		Set:             set,
		SetName:         pick(detail, "set_name").String(),
		CollectorNumber: pick(detail, "cn").String(),
		ScryfallID:      pick(detail, "scryfall_id").String(),
		Foil:            foil,
	}
}
