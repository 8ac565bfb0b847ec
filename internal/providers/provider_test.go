package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharmasatrya/flightclaim/internal/models"
)

func TestHTTPProviderSearchFlights(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/flights", r.URL.Path)
		assert.Equal(t, "JFK", r.URL.Query().Get("from_iata"))
		assert.Equal(t, "LHR", r.URL.Query().Get("to_iata"))
		assert.Equal(t, "2025-06-01", r.URL.Query().Get("date"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[{"id":"BA178-1","flightnumber_iata":"BA178","dep_iata":"JFK","arr_iata":"LHR","duration":"n/a","stops":"1"}]}`))
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL+"/", WithAPIKey("secret"))
	got, err := p.SearchFlights(context.Background(), models.FlightQuery{FromIATA: "JFK", ToIATA: "LHR", Date: "2025-06-01"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "BA178", got[0].FlightNumberIATA)
	assert.False(t, got[0].Duration.Valid)
	assert.Equal(t, models.FlexInt{Value: 1, Valid: true}, got[0].Stops)
}

func TestHTTPProviderSearchAirports(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/airports", r.URL.Path)
		assert.Equal(t, "heath", r.URL.Query().Get("term"))
		assert.Equal(t, "de", r.URL.Query().Get("lang"))
		w.Write([]byte(`[{"name":"Heathrow","iata_code":"LHR","lat":51.47,"lng":-0.45}]`))
	}))
	defer srv.Close()

	got, err := NewHTTPProvider(srv.URL).SearchAirports(context.Background(), "heath", "de")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "LHR", got[0].IATACode)
}

func TestHTTPProviderNon2xxIsProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewHTTPProvider(srv.URL).SearchFlights(context.Background(), models.FlightQuery{})
	require.Error(t, err)

	var perr *ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "http", perr.Provider)

	var serr *StatusError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, http.StatusBadGateway, serr.StatusCode)
	assert.True(t, serr.Retryable())
}

func TestHTTPProviderMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":`))
	}))
	defer srv.Close()

	_, err := NewHTTPProvider(srv.URL).SearchFlights(context.Background(), models.FlightQuery{})
	var perr *ProviderError
	assert.True(t, errors.As(err, &perr))
}

func TestFixtureProviderEmbedded(t *testing.T) {
	p, err := NewFixtureProvider("")
	require.NoError(t, err)

	got, err := p.SearchFlights(context.Background(), models.FlightQuery{FromIATA: "jfk", ToIATA: "LHR", Date: "2025-06-01"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "BA178-1", got[0].ID)

	got, err = p.SearchFlights(context.Background(), models.FlightQuery{FromIATA: "JFK", ToIATA: "LHR", Date: "2025-06-02"})
	require.NoError(t, err)
	assert.Empty(t, got)

	airports, err := p.SearchAirports(context.Background(), "lon", "")
	require.NoError(t, err)
	require.Len(t, airports, 1)
	assert.Equal(t, "LHR", airports[0].IATACode)
}

func TestFixtureProviderFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixtures.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"flights":[{"id":"X1","dep_iata":"AAA","arr_iata":"BBB","dep_time_sched":"2025-01-04 10:00:00"}]}`), 0o600))

	p, err := NewFixtureProvider(path)
	require.NoError(t, err)
	got, err := p.SearchFlights(context.Background(), models.FlightQuery{FromIATA: "AAA", ToIATA: "BBB", Date: "2025-01-04"})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = NewFixtureProvider(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestFixtureProviderHonoursContext(t *testing.T) {
	p, err := NewFixtureProvider("")
	require.NoError(t, err)
	p.WithLatency(time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.SearchFlights(ctx, models.FlightQuery{FromIATA: "JFK", ToIATA: "LHR", Date: "2025-06-01"})
	assert.ErrorIs(t, err, context.Canceled)
}
