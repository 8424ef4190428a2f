// Package wikipedia provides a client for the MediaWiki action API used as
// the birth-date knowledge source.
package wikipedia

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/polycheck/internal/resilience"
)

// Defaults for the English Wikipedia API.
const (
	DefaultBaseURL   = "https://en.wikipedia.org/w/api.php"
	DefaultUserAgent = "PolyCheck/1.0 (birth date research tool)"
	SearchLimit      = 5

	pageBaseURL = "https://en.wikipedia.org/wiki/"
)

// Client defines the knowledge-source operations.
type Client interface {
	// Search returns up to limit page titles matching query, best first.
	Search(ctx context.Context, query string, limit int) ([]string, error)
	// Wikitext returns the raw wikitext of title. ok is false when the page
	// does not exist or has no revisions.
	Wikitext(ctx context.Context, title string) (text string, ok bool, err error)
}

// Option configures the Wikipedia client.
type Option func(*httpClient)

// WithBaseURL sets a custom API endpoint (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithUserAgent overrides the User-Agent header. Wikimedia rejects
// requests without a descriptive agent.
func WithUserAgent(ua string) Option {
	return func(c *httpClient) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

type httpClient struct {
	baseURL   string
	userAgent string
	http      *http.Client
}

// NewClient creates a new Wikipedia API client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL:   DefaultBaseURL,
		userAgent: DefaultUserAgent,
		http: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type searchResponse struct {
	Query struct {
		Search []struct {
			Title string `json:"title"`
		} `json:"search"`
	} `json:"query"`
}

type revisionsResponse struct {
	Query struct {
		Pages map[string]struct {
			Missing   *string `json:"missing"`
			Revisions []struct {
				Slots struct {
					Main struct {
						Content string `json:"*"`
					} `json:"main"`
				} `json:"slots"`
			} `json:"revisions"`
		} `json:"pages"`
	} `json:"query"`
}

func (c *httpClient) Search(ctx context.Context, query string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = SearchLimit
	}
	params := url.Values{
		"action":   {"query"},
		"list":     {"search"},
		"srsearch": {query},
		"srlimit":  {strconv.Itoa(limit)},
		"format":   {"json"},
	}

	var resp searchResponse
	if err := c.get(ctx, params, &resp); err != nil {
		return nil, eris.Wrap(err, "wikipedia: search")
	}

	titles := make([]string, 0, len(resp.Query.Search))
	for _, r := range resp.Query.Search {
		if r.Title != "" {
			titles = append(titles, r.Title)
		}
	}
	return titles, nil
}

func (c *httpClient) Wikitext(ctx context.Context, title string) (string, bool, error) {
	params := url.Values{
		"action":  {"query"},
		"titles":  {title},
		"prop":    {"revisions"},
		"rvprop":  {"content"},
		"rvslots": {"main"},
		"format":  {"json"},
	}

	var resp revisionsResponse
	if err := c.get(ctx, params, &resp); err != nil {
		return "", false, eris.Wrap(err, "wikipedia: fetch wikitext")
	}

	for id, page := range resp.Query.Pages {
		if id == "-1" || page.Missing != nil {
			return "", false, nil
		}
		if len(page.Revisions) > 0 && page.Revisions[0].Slots.Main.Content != "" {
			return page.Revisions[0].Slots.Main.Content, true, nil
		}
	}
	return "", false, nil
}

// get issues a GET against the API and decodes the JSON body into out.
// Transport failures and 5xx responses come back as TransientError.
func (c *httpClient) get(ctx context.Context, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return eris.Wrap(err, "create request")
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return resilience.NewTransientError(eris.Wrap(err, "request failed"), 0)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resilience.NewTransientError(eris.Wrap(err, "read response body"), resp.StatusCode)
	}

	if resilience.IsServerError(resp.StatusCode) {
		return resilience.NewTransientError(
			eris.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(body, 200)), resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(body, 200))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrap(err, "unmarshal response")
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n])
	}
	return string(b)
}

// BestTitle picks the search result to fetch: the first title containing
// the query (case-insensitive), else the first title. It returns "" for
// an empty result set.
func BestTitle(query string, titles []string) string {
	if len(titles) == 0 {
		return ""
	}
	q := strings.ToLower(strings.TrimSpace(query))
	for _, t := range titles {
		if strings.Contains(strings.ToLower(t), q) {
			return t
		}
	}
	return titles[0]
}

// PageURL returns the canonical article URL for title.
func PageURL(title string) string {
	return pageBaseURL + strings.ReplaceAll(title, " ", "_")
}
