// Package fetch is the single HTTP/JSON client used for every upstream call.
// It buffers whole response bodies, retries 429 and 5xx responses with fixed
// waits, and maps everything else onto a small set of typed errors.
package fetch

import (
	"context"
	"fmt"
	"io"
	stdlog "log"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"
	"golang.org/x/net/html"

	"cardpool/internal/utils"
)

const (
	USER_AGENT = "Mozilla/5.0 (X11; Linux x86_64; rv:83.0) Gecko/20100101 Firefox/83.0"

	// DefaultRetries is the retry budget on top of the first attempt.
	DefaultRetries = 2

	// Upstreams answer 429 when we trip their rate limit; backing off a full
	// five seconds keeps the next attempt outside the limiting window.
	rateLimitBackoff   = 5 * time.Second
	serverErrorBackoff = 2 * time.Second

	excerptLen = 200
)

// TransportError is a connection-level failure (DNS, reset, timeout).
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error fetching %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// StatusError is a non-200 response outside the retryable class (e.g. 404).
// These are permanent: retrying a bad request won't fix it.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d fetching %s", e.StatusCode, e.URL)
}

// RetryExhaustedError means every attempt got a retryable status (429/5xx).
type RetryExhaustedError struct {
	URL        string
	StatusCode int
	Attempts   int
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("giving up on %s after %d attempt(s), last status %d", e.URL, e.Attempts, e.StatusCode)
}

// MalformedResponseError is a 200 whose body did not decode as JSON.
type MalformedResponseError struct {
	URL     string
	Excerpt string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response from %s: %s", e.URL, e.Excerpt)
}

// Client wraps retryablehttp with the retry policy described above.
type Client struct {
	http    *retryablehttp.Client
	retries int

	// Backoff waits, overridable in tests.
	rateLimitWait   time.Duration
	serverErrorWait time.Duration
}

func NewClient(retries int) *Client {
	c := &Client{
		retries:         retries,
		rateLimitWait:   rateLimitBackoff,
		serverErrorWait: serverErrorBackoff,
	}

	rc := retryablehttp.NewClient()
	rc.Logger = stdlog.New(io.Discard, "", 0)
	rc.RetryMax = retries
	rc.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if err != nil {
			// Transport failures are not retried.
			return false, nil
		}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return true, nil
		}
		return false, nil
	}
	rc.Backoff = func(min, max time.Duration, attemptNum int, resp *http.Response) time.Duration {
		if resp != nil && resp.StatusCode == http.StatusTooManyRequests {
			return c.rateLimitWait
		}
		return c.serverErrorWait
	}
	// Hand back the last response after exhaustion instead of a generic
	// "giving up" error, so GetJSON can report the final status code.
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	c.http = rc
	return c
}

// GetJSON fetches url and parses the body as JSON.
func (c *Client) GetJSON(url string) (gjson.Result, error) {
	req, err := retryablehttp.NewRequest("GET", url, nil)
	if err != nil {
		return gjson.Result{}, &TransportError{URL: url, Err: err}
	}
	req.Header.Set("User-Agent", USER_AGENT)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return gjson.Result{}, &TransportError{URL: url, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		// Failed bodies are discarded unread.
		resp.Body.Close()
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			// A retryable status can only escape Do once the budget is spent.
			return gjson.Result{}, &RetryExhaustedError{
				URL:        url,
				StatusCode: resp.StatusCode,
				Attempts:   c.retries + 1,
			}
		}
		return gjson.Result{}, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return gjson.Result{}, &TransportError{URL: url, Err: err}
	}

	if !gjson.ValidBytes(body) {
		return gjson.Result{}, &MalformedResponseError{URL: url, Excerpt: bodyExcerpt(body)}
	}

	return gjson.ParseBytes(body), nil
}

// bodyExcerpt labels a non-JSON body for the error message. Gateways tend to
// relay upstream HTML error pages, whose <title> is the useful part.
func bodyExcerpt(body []byte) string {
	s := strings.TrimSpace(string(body))
	if strings.HasPrefix(s, "<") {
		if title, ok := htmlTitle(s); ok && title != "" {
			return "html page: " + title
		}
	}
	return utils.Excerpt(s, excerptLen)
}

func htmlTitle(body string) (string, bool) {
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return "", false
	}
	return findTitle(doc)
}

func findTitle(n *html.Node) (string, bool) {
	if n.Type == html.ElementNode && n.Data == "title" {
		if n.FirstChild != nil {
			return strings.TrimSpace(n.FirstChild.Data), true
		}
		return "", true
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if title, ok := findTitle(c); ok {
			return title, ok
		}
	}
	return "", false
}
