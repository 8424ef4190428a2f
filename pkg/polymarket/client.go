// Package polymarket provides a client for the Polymarket Gamma markets API.
package polymarket

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

// DefaultBaseURL is the public Gamma API endpoint.
const DefaultBaseURL = "https://gamma-api.polymarket.com"

// Client defines the market listing operations.
type Client interface {
	// ListMarkets returns one page of active, open markets.
	ListMarkets(ctx context.Context, limit, offset int) ([]Market, error)
	// GetMarket returns the market with slug, or nil if it does not exist.
	GetMarket(ctx context.Context, slug string) (*Market, error)
}

// Market is a Gamma market. The API encodes several numeric and list
// fields as strings; Number and StringList accept either form.
type Market struct {
	ID            string     `json:"id"`
	Question      string     `json:"question"`
	Title         string     `json:"title"`
	Slug          string     `json:"slug"`
	Volume        Number     `json:"volume"`
	EndDate       string     `json:"endDate"`
	EndDateISO    string     `json:"end_date_iso"`
	Tokens        []Token    `json:"tokens"`
	Outcomes      StringList `json:"outcomes"`
	OutcomePrices StringList `json:"outcomePrices"`
}

// Token is one tradeable outcome.
type Token struct {
	Outcome string `json:"outcome"`
	Price   Number `json:"price"`
}

// DisplayTitle returns the question, falling back to the title.
func (m Market) DisplayTitle() string {
	switch {
	case m.Question != "":
		return m.Question
	case m.Title != "":
		return m.Title
	default:
		return "Unknown"
	}
}

// Identifier returns the slug, falling back to the ID.
func (m Market) Identifier() string {
	if m.Slug != "" {
		return m.Slug
	}
	return m.ID
}

// Number is a float that may arrive as a JSON number or numeric string.
type Number float64

func (n *Number) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return eris.Wrapf(err, "polymarket: parse number %s", data)
	}
	*n = Number(f)
	return nil
}

// StringList is a list that may arrive as a JSON array or as a string
// holding a JSON-encoded array. Malformed string forms decode as empty.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			return eris.Wrap(err, "polymarket: decode list string")
		}
		data = []byte(inner)
	}
	var raw []any
	if err := json.Unmarshal(data, &raw); err != nil {
		*l = nil
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		switch t := v.(type) {
		case string:
			out = append(out, t)
		case float64:
			out = append(out, strconv.FormatFloat(t, 'f', -1, 64))
		}
	}
	*l = out
	return nil
}

// Option configures the Polymarket client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a new Gamma API client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: DefaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
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

func (c *httpClient) ListMarkets(ctx context.Context, limit, offset int) ([]Market, error) {
	params := url.Values{
		"active": {"true"},
		"closed": {"false"},
		"limit":  {strconv.Itoa(limit)},
		"offset": {strconv.Itoa(offset)},
	}
	body, status, err := c.get(ctx, "/markets?"+params.Encode())
	if err != nil {
		return nil, eris.Wrap(err, "polymarket: list markets")
	}
	if status != http.StatusOK {
		return nil, statusError("polymarket: list markets", status, body)
	}

	var markets []Market
	if err := json.Unmarshal(body, &markets); err != nil {
		return nil, eris.Wrap(err, "polymarket: unmarshal markets")
	}
	return markets, nil
}

func (c *httpClient) GetMarket(ctx context.Context, slug string) (*Market, error) {
	body, status, err := c.get(ctx, "/markets/"+url.PathEscape(slug))
	if err != nil {
		return nil, eris.Wrap(err, "polymarket: get market")
	}
	if status == http.StatusNotFound {
		return nil, nil
	}
	if status != http.StatusOK {
		return nil, statusError("polymarket: get market", status, body)
	}

	var m Market
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, eris.Wrap(err, "polymarket: unmarshal market")
	}
	return &m, nil
}

func (c *httpClient) get(ctx context.Context, path string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, 0, eris.Wrap(err, "create request")
	}
	req.Header.Set("User-Agent", "PolyCheck/1.0")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, 0, ctx.Err()
		}
		return nil, 0, resilience.NewTransientError(eris.Wrap(err, "request failed"), 0)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, resilience.NewTransientError(eris.Wrap(err, "read response body"), resp.StatusCode)
	}
	return body, resp.StatusCode, nil
}

func statusError(op string, status int, body []byte) error {
	if len(body) > 200 {
		body = body[:200]
	}
	err := eris.Errorf("%s: unexpected status %d: %s", op, status, string(body))
	if resilience.IsServerError(status) || status == http.StatusTooManyRequests {
		return resilience.NewTransientError(err, status)
	}
	return err
}
