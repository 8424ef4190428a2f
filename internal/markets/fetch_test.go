package markets

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/polycheck/internal/ratelimit"
	"github.com/sells-group/polycheck/internal/resilience"
	"github.com/sells-group/polycheck/pkg/polymarket"
)

type mockClient struct {
	mock.Mock
}

func (m *mockClient) ListMarkets(ctx context.Context, limit, offset int) ([]polymarket.Market, error) {
	args := m.Called(ctx, limit, offset)
	out, _ := args.Get(0).([]polymarket.Market)
	return out, args.Error(1)
}

func (m *mockClient) GetMarket(ctx context.Context, slug string) (*polymarket.Market, error) {
	args := m.Called(ctx, slug)
	out, _ := args.Get(0).(*polymarket.Market)
	return out, args.Error(1)
}

func page(n int) []polymarket.Market {
	out := make([]polymarket.Market, n)
	for i := range out {
		out[i] = polymarket.Market{ID: "m"}
	}
	return out
}

func newTestFetcher(client polymarket.Client, pageSize int) *Fetcher {
	limiter := ratelimit.New(ratelimit.Config{Name: "polymarket", MaxRequestsPerSecond: 1000})
	retry := resilience.RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
	return NewFetcher(client, limiter, retry, pageSize)
}

func TestFetchActive_PaginatesUntilShortPage(t *testing.T) {
	client := new(mockClient)
	client.On("ListMarkets", mock.Anything, 2, 0).Return(page(2), nil).Once()
	client.On("ListMarkets", mock.Anything, 2, 2).Return(page(1), nil).Once()

	got, err := newTestFetcher(client, 2).FetchActive(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, got, 3)
	client.AssertExpectations(t)
}

func TestFetchActive_StopsAtLimit(t *testing.T) {
	client := new(mockClient)
	client.On("ListMarkets", mock.Anything, 2, 0).Return(page(2), nil).Once()
	client.On("ListMarkets", mock.Anything, 1, 2).Return(page(1), nil).Once()

	got, err := newTestFetcher(client, 2).FetchActive(context.Background(), 3)
	require.NoError(t, err)
	assert.Len(t, got, 3)
	client.AssertExpectations(t)
}

func TestFetchActive_RetriesTransient(t *testing.T) {
	client := new(mockClient)
	transient := resilience.NewTransientError(errors.New("bad gateway"), 502)
	client.On("ListMarkets", mock.Anything, 10, 0).Return(nil, transient).Once()
	client.On("ListMarkets", mock.Anything, 10, 0).Return(page(3), nil).Once()

	got, err := newTestFetcher(client, 10).FetchActive(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, got, 3)
	client.AssertExpectations(t)
}

func TestFetchActive_ReturnsPartialOnError(t *testing.T) {
	client := new(mockClient)
	client.On("ListMarkets", mock.Anything, 2, 0).Return(page(2), nil).Once()
	client.On("ListMarkets", mock.Anything, 2, 2).Return(nil, errors.New("bad request")).Once()

	got, err := newTestFetcher(client, 2).FetchActive(context.Background(), 0)
	require.Error(t, err)
	assert.Len(t, got, 2)
	client.AssertExpectations(t)
}

func TestFetchBySlug(t *testing.T) {
	client := new(mockClient)
	client.On("GetMarket", mock.Anything, "fed-chair").
		Return(&polymarket.Market{Slug: "fed-chair", Volume: 1250.5}, nil).Once()
	client.On("GetMarket", mock.Anything, "gop-nominee").
		Return(&polymarket.Market{Slug: "gop-nominee"}, nil).Once()

	got, err := newTestFetcher(client, 10).FetchBySlug(context.Background(), "fed-chair", "gop-nominee")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "fed-chair", got[0].Slug)
	assert.InDelta(t, 1250.5, float64(got[0].Volume), 0.001)
	assert.Equal(t, "gop-nominee", got[1].Slug)
	client.AssertExpectations(t)
}

func TestFetchBySlug_NotFound(t *testing.T) {
	client := new(mockClient)
	client.On("GetMarket", mock.Anything, "gone").Return(nil, nil).Once()

	got, err := newTestFetcher(client, 10).FetchBySlug(context.Background(), "gone")
	assert.ErrorIs(t, err, ErrMarketNotFound)
	assert.Empty(t, got)
	client.AssertExpectations(t)
}

func TestFetchBySlug_RetriesTransient(t *testing.T) {
	client := new(mockClient)
	transient := resilience.NewTransientError(errors.New("bad gateway"), 502)
	client.On("GetMarket", mock.Anything, "fed-chair").Return(nil, transient).Once()
	client.On("GetMarket", mock.Anything, "fed-chair").Return(&polymarket.Market{Slug: "fed-chair"}, nil).Once()

	got, err := newTestFetcher(client, 10).FetchBySlug(context.Background(), "fed-chair")
	require.NoError(t, err)
	assert.Len(t, got, 1)
	client.AssertExpectations(t)
}
