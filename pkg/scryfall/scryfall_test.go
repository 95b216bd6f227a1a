package scryfall

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"cardpool/pkg/fetch"
	"cardpool/pkg/inventory"
)

func testClient(t *testing.T, handler http.HandlerFunc) (*Client, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(fetch.NewClient(0))
	c.Base = srv.URL
	c.Delay = 0
	return c, &hits
}

func cardsWith(printings ...*inventory.Printing) map[string]*inventory.Card {
	return map[string]*inventory.Card{
		"test card": {
			Name:   "Test Card",
			Owners: map[string][]*inventory.Printing{"ann": printings},
		},
	}
}

func TestEnrichPrices_ByScryfallID(t *testing.T) {
	c, hits := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cards/abc-id" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Write([]byte(`{"prices": {"usd": "0.25", "usd_foil": "2.50"}}`))
	})

	p := &inventory.Printing{Quantity: 1, Set: "lea", CollectorNumber: "1", ScryfallID: "abc-id"}
	fetched, total := c.EnrichPrices(cardsWith(p))

	if fetched != 1 || total != 1 {
		t.Fatalf("expected 1/1, got %d/%d", fetched, total)
	}
	if p.Price == nil || *p.Price != 0.25 {
		t.Fatalf("expected price 0.25, got %v", p.Price)
	}
	if *hits != 1 {
		t.Fatalf("expected 1 lookup, got %d", *hits)
	}
}

func TestEnrichPrices_BySetAndCollectorNumber(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cards/lea/1" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Write([]byte(`{"prices": {"usd": "100.00"}}`))
	})

	p := &inventory.Printing{Quantity: 1, Set: "lea", CollectorNumber: "1"}
	c.EnrichPrices(cardsWith(p))

	if p.Price == nil || *p.Price != 100.00 {
		t.Fatalf("expected price 100.00, got %v", p.Price)
	}
}

func TestEnrichPrices_FoilPrefersFoilPrice(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"prices": {"usd": "1.00", "usd_foil": "3.00"}}`))
	})

	foil := &inventory.Printing{ScryfallID: "a", Foil: true}
	plain := &inventory.Printing{ScryfallID: "b", Foil: false}
	c.EnrichPrices(cardsWith(foil, plain))

	if foil.Price == nil || *foil.Price != 3.00 {
		t.Errorf("foil printing should take usd_foil, got %v", foil.Price)
	}
	if plain.Price == nil || *plain.Price != 1.00 {
		t.Errorf("nonfoil printing should take usd, got %v", plain.Price)
	}
}

func TestEnrichPrices_FallsBackAcrossFinishes(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"prices": {"usd": "1.00", "usd_foil": null}}`))
	})

	p := &inventory.Printing{ScryfallID: "a", Foil: true}
	c.EnrichPrices(cardsWith(p))

	if p.Price == nil || *p.Price != 1.00 {
		t.Fatalf("expected fallback to usd, got %v", p.Price)
	}
}

func TestEnrichPrices_NoUsablePriceStaysNil(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"prices": {"usd": null, "usd_foil": ""}}`))
	})

	p := &inventory.Printing{ScryfallID: "a"}
	fetched, total := c.EnrichPrices(cardsWith(p))

	if fetched != 0 || total != 1 {
		t.Fatalf("expected 0/1, got %d/%d", fetched, total)
	}
	if p.Price != nil {
		t.Fatalf("expected nil price, got %v", *p.Price)
	}
}

func TestEnrichPrices_SkipRuleMakesNoNetworkCall(t *testing.T) {
	c, hits := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	// No scryfall id, no (set, collector number) pair.
	p := &inventory.Printing{Quantity: 1, Set: "", CollectorNumber: ""}
	fetched, total := c.EnrichPrices(cardsWith(p))

	if *hits != 0 {
		t.Fatalf("skip rule violated: %d network calls", *hits)
	}
	if fetched != 0 || total != 1 {
		t.Fatalf("expected 0/1, got %d/%d", fetched, total)
	}
	if p.Price != nil {
		t.Fatal("skipped printing must keep a nil price")
	}
}

func TestEnrichPrices_FailureDoesNotAbortPass(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/cards/broken" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"prices": {"usd": "0.10"}}`))
	})

	broken := &inventory.Printing{ScryfallID: "broken"}
	good := &inventory.Printing{ScryfallID: "good"}
	fetched, total := c.EnrichPrices(cardsWith(broken, good))

	if broken.Price != nil {
		t.Error("failed lookup must leave price nil")
	}
	if good.Price == nil || *good.Price != 0.10 {
		t.Errorf("pass must continue past failures, got %v", good.Price)
	}
	if fetched != 1 || total != 2 {
		t.Errorf("expected 1/2, got %d/%d", fetched, total)
	}
}
