// Package fetch retrieves source pages over HTTP with a fixed inter-request
// delay and an on-disk page cache. The hymn and scripture sites are single
// third-party hosts with rate limits, so requests go out sequentially.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/net/html/charset"
)

// FetchError reports a transport failure or a non-200 status on a source
// page. Whether it is fatal depends on the source: hymn pages are mandatory,
// scripture and song content degrade to empty.
type FetchError struct {
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.Status)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Client fetches pages sequentially, sleeping out the remainder of the
// configured delay between consecutive requests.
type Client struct {
	http  *http.Client
	delay time.Duration
	cache *PageCache
	last  time.Time
}

// NewClient creates a client. cache may be nil to disable page caching.
func NewClient(timeout, delay time.Duration, cache *PageCache) *Client {
	return &Client{
		http:  &http.Client{Timeout: timeout},
		delay: delay,
		cache: cache,
	}
}

// Get returns the body of the page at url, serving from the page cache when
// possible. Cache misses respect the inter-request delay.
func (c *Client) Get(ctx context.Context, url string) (string, error) {
	if c.cache != nil {
		if page, ok := c.cache.Get(url); ok {
			return page, nil
		}
	}

	c.waitTurn()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &FetchError{URL: url, Err: err}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &FetchError{URL: url, Status: resp.StatusCode}
	}

	// The hymn site still serves legacy encodings on some pages
	reader, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return "", &FetchError{URL: url, Err: err}
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return "", &FetchError{URL: url, Err: err}
	}

	page := string(body)
	if c.cache != nil {
		if err := c.cache.Put(url, page); err != nil {
			// Caching is best effort; the page itself is fine
			return page, nil
		}
	}
	return page, nil
}

// waitTurn sleeps until the configured delay has passed since the previous
// request.
func (c *Client) waitTurn() {
	if c.delay > 0 && !c.last.IsZero() {
		if elapsed := time.Since(c.last); elapsed < c.delay {
			time.Sleep(c.delay - elapsed)
		}
	}
	c.last = time.Now()
}
