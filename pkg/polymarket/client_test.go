package polymarket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/polycheck/internal/resilience"
)

func TestListMarkets_Success(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/markets", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "true", q.Get("active"))
		assert.Equal(t, "false", q.Get("closed"))
		assert.Equal(t, "50", q.Get("limit"))
		assert.Equal(t, "100", q.Get("offset"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id":"1","question":"Who will be the next Fed chair?","slug":"next-fed-chair","volume":"125000.5",
			 "outcomes":"[\"Kevin Warsh\", \"Kevin Hassett\"]","outcomePrices":"[\"0.62\", \"0.31\"]"},
			{"id":"2","title":"Best band","slug":"best-band","volume":900,
			 "tokens":[{"outcome":"Obscure One Direction","price":0.4},{"outcome":"Yes","price":"0.6"}]}
		]`)) //nolint:errcheck
	}))
	defer srv.Close()

	markets, err := NewClient(WithBaseURL(srv.URL)).ListMarkets(context.Background(), 50, 100)
	require.NoError(t, err)
	require.Len(t, markets, 2)

	m := markets[0]
	assert.Equal(t, "Who will be the next Fed chair?", m.DisplayTitle())
	assert.Equal(t, "next-fed-chair", m.Identifier())
	assert.InDelta(t, 125000.5, float64(m.Volume), 0.001)
	assert.Equal(t, StringList{"Kevin Warsh", "Kevin Hassett"}, m.Outcomes)
	assert.Equal(t, StringList{"0.62", "0.31"}, m.OutcomePrices)

	assert.Equal(t, "Best band", markets[1].DisplayTitle())
	require.Len(t, markets[1].Tokens, 2)
	assert.InDelta(t, 0.6, float64(markets[1].Tokens[1].Price), 0.0001)
}

func TestListMarkets_ServerErrorIsTransient(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewClient(WithBaseURL(srv.URL)).ListMarkets(context.Background(), 10, 0)
	require.Error(t, err)
	assert.True(t, resilience.IsTransient(err))
}

func TestGetMarket(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/markets/next-fed-chair" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"id": "1", "slug": "next-fed-chair", "question": "Next Fed chair?"}) //nolint:errcheck
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))

	m, err := client.GetMarket(context.Background(), "next-fed-chair")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "Next Fed chair?", m.DisplayTitle())

	m, err = client.GetMarket(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestStringList_Forms(t *testing.T) {
	t.Parallel()

	var l StringList
	require.NoError(t, json.Unmarshal([]byte(`["a","b"]`), &l))
	assert.Equal(t, StringList{"a", "b"}, l)

	require.NoError(t, json.Unmarshal([]byte(`"[\"x\"]"`), &l))
	assert.Equal(t, StringList{"x"}, l)

	require.NoError(t, json.Unmarshal([]byte(`"not json"`), &l))
	assert.Empty(t, l)

	require.NoError(t, json.Unmarshal([]byte(`[0.25, "0.75"]`), &l))
	assert.Equal(t, StringList{"0.25", "0.75"}, l)
}

func TestNumber_Forms(t *testing.T) {
	t.Parallel()

	var n Number
	require.NoError(t, json.Unmarshal([]byte(`"12.5"`), &n))
	assert.InDelta(t, 12.5, float64(n), 0.0001)
	require.NoError(t, json.Unmarshal([]byte(`3`), &n))
	assert.InDelta(t, 3.0, float64(n), 0.0001)
	require.NoError(t, json.Unmarshal([]byte(`null`), &n))
	assert.Zero(t, float64(n))
	assert.Error(t, json.Unmarshal([]byte(`"abc"`), &n))
}

func TestMarket_Fallbacks(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Unknown", Market{}.DisplayTitle())
	assert.Equal(t, "42", Market{ID: "42"}.Identifier())
}
