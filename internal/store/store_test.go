package store

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

// runStoreSuite exercises the Store contract against any backend.
func runStoreSuite(t *testing.T, s Store) {
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		v, err := s.Get(ctx, NamespaceCache, "nobody")
		require.NoError(t, err)
		assert.Nil(t, v)
	})

	t.Run("put and get", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, NamespaceCache, "donald trump", json.RawMessage(`{"found":true}`)))
		v, err := s.Get(ctx, NamespaceCache, "donald trump")
		require.NoError(t, err)
		assert.JSONEq(t, `{"found":true}`, string(v))
	})

	t.Run("overwrite", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, NamespaceCache, "k", json.RawMessage(`{"n":1}`)))
		require.NoError(t, s.Put(ctx, NamespaceCache, "k", json.RawMessage(`{"n":2}`)))
		v, err := s.Get(ctx, NamespaceCache, "k")
		require.NoError(t, err)
		assert.JSONEq(t, `{"n":2}`, string(v))
	})

	t.Run("namespaces are isolated", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, NamespaceRegistry, "shared", json.RawMessage(`{"ns":"registry"}`)))
		require.NoError(t, s.Put(ctx, NamespaceMisses, "shared", json.RawMessage(`{"ns":"misses"}`)))

		v, err := s.Get(ctx, NamespaceRegistry, "shared")
		require.NoError(t, err)
		assert.JSONEq(t, `{"ns":"registry"}`, string(v))

		v, err = s.Get(ctx, NamespaceCache, "shared")
		require.NoError(t, err)
		assert.Nil(t, v)
	})

	t.Run("list ordered by key", func(t *testing.T) {
		for _, k := range []string{"charlie", "alpha", "bravo"} {
			require.NoError(t, s.Put(ctx, NamespaceMisses, k, json.RawMessage(`{}`)))
		}
		recs, err := s.List(ctx, NamespaceMisses)
		require.NoError(t, err)
		var keys []string
		for _, r := range recs {
			keys = append(keys, r.Key)
		}
		assert.Equal(t, []string{"alpha", "bravo", "charlie", "shared"}, keys)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, NamespaceRegistry, "gone", json.RawMessage(`{}`)))
		ok, err := s.Delete(ctx, NamespaceRegistry, "gone")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = s.Delete(ctx, NamespaceRegistry, "gone")
		require.NoError(t, err)
		assert.False(t, ok)

		v, err := s.Get(ctx, NamespaceRegistry, "gone")
		require.NoError(t, err)
		assert.Nil(t, v)
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreSuite(t, NewMemory())
}

func TestSQLiteStore(t *testing.T) {
	runStoreSuite(t, newTestSQLiteStore(t))
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "reopen.db")

	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	require.NoError(t, st.Migrate(ctx))
	require.NoError(t, st.Put(ctx, NamespaceRegistry, "kevin warsh", json.RawMessage(`{"name":"Kevin Warsh"}`)))
	require.NoError(t, st.Close())

	st, err = NewSQLite(dbPath)
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck
	require.NoError(t, st.Migrate(ctx))

	v, err := st.Get(ctx, NamespaceRegistry, "kevin warsh")
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Kevin Warsh"}`, string(v))
}

func TestMemoryStore_Closed(t *testing.T) {
	s := NewMemory()
	require.NoError(t, s.Close())

	_, err := s.Get(context.Background(), NamespaceCache, "x")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, s.Put(context.Background(), NamespaceCache, "x", json.RawMessage(`{}`)), ErrClosed)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	in := json.RawMessage(`{"a":1}`)
	require.NoError(t, s.Put(ctx, NamespaceCache, "k", in))
	in[2] = 'b'

	v, err := s.Get(ctx, NamespaceCache, "k")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(v))
}

type sample struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	got, err := GetJSON[sample](ctx, s, NamespaceCache, "missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, PutJSON(ctx, s, NamespaceCache, "a", sample{Name: "A", Count: 1}))
	require.NoError(t, PutJSON(ctx, s, NamespaceCache, "b", sample{Name: "B", Count: 2}))

	got, err = GetJSON[sample](ctx, s, NamespaceCache, "a")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, sample{Name: "A", Count: 1}, *got)

	all, err := ListJSON[sample](ctx, s, NamespaceCache)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, 2, all["b"].Count)
}

func TestGetJSON_CorruptValue(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	require.NoError(t, s.Put(ctx, NamespaceCache, "bad", json.RawMessage(`{not json`)))

	_, err := GetJSON[sample](ctx, s, NamespaceCache, "bad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store: decode cache/bad")
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, Options{Driver: DriverMemory})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = Open(ctx, Options{Driver: DriverSQLite, DatabaseURL: filepath.Join(t.TempDir(), "open.db")})
	require.NoError(t, err)
	defer s.Close() //nolint:errcheck
	assert.IsType(t, &SQLiteStore{}, s)

	_, err = Open(ctx, Options{Driver: "cassandra"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown driver")
}
