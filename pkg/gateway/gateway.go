// Package gateway routes upstream requests through a CORS relay. The card
// platform's API has no permissive CORS policy, so the deployed front-end
// (and this tool, to keep one code path) reaches it via a relay that forwards
// a GET to an arbitrary target URL and returns its body untouched.
package gateway

import (
	"net/url"

	"github.com/tidwall/gjson"

	"cardpool/pkg/fetch"
)

const DefaultBase = "https://corsproxy.io/"

type Gateway struct {
	base   string
	client *fetch.Client
}

func New(base string, client *fetch.Client) *Gateway {
	if base == "" {
		base = DefaultBase
	}
	return &Gateway{base: base, client: client}
}

// GetJSON fetches target through the relay.
func (g *Gateway) GetJSON(target string) (gjson.Result, error) {
	return g.client.GetJSON(g.base + "?url=" + url.QueryEscape(target))
}
