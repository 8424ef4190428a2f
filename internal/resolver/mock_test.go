package resolver

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
)

// mockWiki implements wikipedia.Client for testing.
type mockWiki struct {
	mock.Mock
}

func (m *mockWiki) Search(ctx context.Context, query string, limit int) ([]string, error) {
	args := m.Called(ctx, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockWiki) Wikitext(ctx context.Context, title string) (string, bool, error) {
	args := m.Called(ctx, title)
	return args.String(0), args.Bool(1), args.Error(2)
}

// testClock is a settable time source shared by the layers under test.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}
