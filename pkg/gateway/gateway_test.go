package gateway

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cardpool/pkg/fetch"
)

func TestGetJSON_EmbedsTargetAsQueryParam(t *testing.T) {
	var gotTarget, gotRawQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTarget = r.URL.Query().Get("url")
		gotRawQuery = r.URL.RawQuery
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	gw := New(srv.URL, fetch.NewClient(0))
	target := "https://api.moxfield.com/v1/collections/search/abc?pageNumber=2&pageSize=50"
	if _, err := gw.GetJSON(target); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotTarget != target {
		t.Errorf("relay received target %q, want %q", gotTarget, target)
	}
	// The target must arrive percent-encoded, not as bare nested params.
	if !strings.Contains(gotRawQuery, "%3A%2F%2F") {
		t.Errorf("target was not percent-encoded: %q", gotRawQuery)
	}
}

func TestNew_DefaultBase(t *testing.T) {
	gw := New("", fetch.NewClient(0))
	if gw.base != DefaultBase {
		t.Fatalf("expected default base %q, got %q", DefaultBase, gw.base)
	}
}
