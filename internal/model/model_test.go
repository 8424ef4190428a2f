package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptional_PresenceSurvivesJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"absent", `{"name":"x","found":false,"confidence":0,"status":"","result_source":""}`},
		{"null", `{"name":"x","found":false,"birth_date_iso":null,"confidence":0,"status":"","result_source":""}`},
		{"value", `{"name":"x","found":true,"birth_date_iso":"1946-06-14","confidence":100,"status":"Found","result_source":"live-fetch"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r BiographicalResult
			require.NoError(t, json.Unmarshal([]byte(tt.in), &r))
			out, err := json.Marshal(r)
			require.NoError(t, err)
			assert.JSONEq(t, tt.in, string(out))
		})
	}
}

func TestOptional_Accessors(t *testing.T) {
	var absent Optional[string]
	assert.True(t, absent.IsZero())
	assert.False(t, absent.IsNull())
	assert.False(t, absent.Valid())

	null := Null[string]()
	assert.False(t, null.IsZero())
	assert.True(t, null.IsNull())
	assert.Equal(t, "", null.OrZero())

	some := Some("1946-06-14")
	v, ok := some.Get()
	assert.True(t, ok)
	assert.Equal(t, "1946-06-14", v)
	assert.False(t, some.IsNull())
}

func TestBiographicalResult_Qualifies(t *testing.T) {
	r := BiographicalResult{Found: true, BirthDateISO: Some("1946-06-14"), Confidence: 80}
	assert.True(t, r.HasBirthDate())
	assert.True(t, r.Qualifies(80))
	assert.True(t, QualifiesForRegistry(r))
	assert.False(t, r.Qualifies(81))

	r.BirthDateISO = Null[string]()
	assert.False(t, r.HasBirthDate())
	assert.False(t, QualifiesForRegistry(r))

	r = BiographicalResult{Found: false, BirthDateISO: Some("1946-06-14"), Confidence: 100}
	assert.False(t, QualifiesForRegistry(r))
}

func TestBiographicalResult_WithSource(t *testing.T) {
	r := BiographicalResult{Name: "a", Source: SourceLiveFetch}
	c := r.WithSource(SourceCache)
	assert.Equal(t, SourceCache, c.Source)
	assert.Equal(t, SourceLiveFetch, r.Source)
}

func TestKnownMissStatus(t *testing.T) {
	assert.Equal(t, "Known miss (not-found)", KnownMissStatus(MissNotFound))
}

func TestMissEntry_Active(t *testing.T) {
	last := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	e := MissEntry{LastSeenAt: last}
	cooldown := 7 * 24 * time.Hour

	assert.True(t, e.Active(last.Add(cooldown-time.Second), cooldown))
	assert.False(t, e.Active(last.Add(cooldown), cooldown))
	assert.False(t, e.Resolved())

	e.ResolvedBirthDate = Some("1990-01-01")
	assert.True(t, e.Resolved())
}

func TestCacheEntry_Expired(t *testing.T) {
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	e := CacheEntry{CachedAt: at}
	ttl := 30 * 24 * time.Hour

	assert.False(t, e.Expired(at.Add(ttl-time.Nanosecond), ttl))
	assert.True(t, e.Expired(at.Add(ttl), ttl))
}
