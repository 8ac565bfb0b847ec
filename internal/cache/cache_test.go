package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharmasatrya/flightclaim/internal/models"
)

var query = models.FlightQuery{FromIATA: "JFK", ToIATA: "LHR", Date: "2025-06-01"}

func TestMemoryCacheRoundTrip(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	ctx := context.Background()

	_, ok := c.Get(ctx, query)
	assert.False(t, ok)

	flights := []models.RawFlight{{ID: "BA178-1", FlightNumberIATA: "BA178"}}
	require.NoError(t, c.Set(ctx, query, flights))
	flights[0].ID = "mutated"

	got, ok := c.Get(ctx, models.FlightQuery{FromIATA: "jfk", ToIATA: "lhr", Date: "2025-06-01"})
	require.True(t, ok)
	assert.Equal(t, "BA178-1", got[0].ID, "cache holds its own copy and keys are case-insensitive")

	_, ok = c.Get(ctx, models.FlightQuery{FromIATA: "JFK", ToIATA: "LHR", Date: "2025-06-02"})
	assert.False(t, ok)
}

func TestMemoryCacheExpires(t *testing.T) {
	c := NewMemoryCache(10 * time.Millisecond)
	require.NoError(t, c.Set(context.Background(), query, []models.RawFlight{{ID: "x"}}))
	time.Sleep(30 * time.Millisecond)
	_, ok := c.Get(context.Background(), query)
	assert.False(t, ok)
}

func TestNoOpCacheNeverHits(t *testing.T) {
	c := NewNoOpCache()
	require.NoError(t, c.Set(context.Background(), query, []models.RawFlight{{ID: "x"}}))
	_, ok := c.Get(context.Background(), query)
	assert.False(t, ok)
	assert.Equal(t, "none", c.Name())
}

func TestKeyIgnoresCodeCase(t *testing.T) {
	assert.Equal(t, generateKey(query), generateKey(models.FlightQuery{FromIATA: "jfk", ToIATA: "Lhr", Date: "2025-06-01"}))
	assert.NotEqual(t, generateKey(query), generateKey(models.FlightQuery{FromIATA: "LHR", ToIATA: "JFK", Date: "2025-06-01"}))
}
