package wikipedia

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrNoExtract indicates the article exists but has no intro extract.
var ErrNoExtract = errors.New("no extract for article")

// Client looks up article intro extracts from the MediaWiki API.
type Client struct {
	BaseURL string
	delay   time.Duration
	http    *http.Client
}

// New builds a client. timeout bounds each request; delay is waited before
// every call to stay polite with the public API.
func New(baseURL string, timeout, delay time.Duration) *Client {
	if baseURL == "" {
		baseURL = "https://en.wikipedia.org/w/api.php"
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		delay:   delay,
		http:    &http.Client{Timeout: timeout},
	}
}

// Extract fetches the plain-text intro extract for an article title.
func (c *Client) Extract(ctx context.Context, article string) (string, error) {
	if article == "" {
		return "", errors.New("missing article title")
	}
	if c.delay > 0 {
		select {
		case <-time.After(c.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	params := url.Values{}
	params.Set("action", "query")
	params.Set("prop", "extracts")
	params.Set("exintro", "true")
	params.Set("explaintext", "true")
	params.Set("format", "json")
	params.Set("redirects", "1")
	params.Set("titles", article)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("wikipedia status %d", resp.StatusCode)
	}
	var out struct {
		Query struct {
			Pages map[string]struct {
				Extract string `json:"extract"`
			} `json:"pages"`
		} `json:"query"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	for _, page := range out.Query.Pages {
		if text := strings.TrimSpace(page.Extract); text != "" {
			return text, nil
		}
	}
	return "", ErrNoExtract
}
