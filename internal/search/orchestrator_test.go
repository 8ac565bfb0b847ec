package search

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharmasatrya/flightclaim/internal/cache"
	"github.com/dharmasatrya/flightclaim/internal/locations"
	"github.com/dharmasatrya/flightclaim/internal/metrics"
	"github.com/dharmasatrya/flightclaim/internal/models"
	"github.com/dharmasatrya/flightclaim/internal/providers"
)

type fakeProvider struct {
	flights  func(ctx context.Context, q models.FlightQuery) ([]models.RawFlight, error)
	airports func(ctx context.Context, term, lang string) ([]models.RawAirport, error)
	calls    atomic.Int32
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) SearchFlights(ctx context.Context, q models.FlightQuery) ([]models.RawFlight, error) {
	f.calls.Add(1)
	return f.flights(ctx, q)
}

func (f *fakeProvider) SearchAirports(ctx context.Context, term, lang string) ([]models.RawAirport, error) {
	f.calls.Add(1)
	return f.airports(ctx, term, lang)
}

func ba178() models.RawFlight {
	return models.RawFlight{
		ID:               "BA178-1",
		FlightNumberIATA: "BA178",
		AirlineName:      "British Airways",
		DepIATA:          "JFK",
		DepTimeSched:     "2025-06-01T18:00:00Z",
		ArrIATA:          "LHR",
		ArrTimeSched:     "2025-06-02T06:00:00Z",
		DepCity:          "New York",
		ArrCity:          "London",
	}
}

func testConfig() Config {
	return Config{Timeout: time.Second, MaxRetries: 2, RetryDelays: []time.Duration{time.Millisecond}, Location: time.UTC}
}

func TestSearchNormalizesAndMaps(t *testing.T) {
	var got models.FlightQuery
	p := &fakeProvider{flights: func(_ context.Context, q models.FlightQuery) ([]models.RawFlight, error) {
		got = q
		return []models.RawFlight{ba178()}, nil
	}}
	reg, err := locations.NewRegistry(16)
	require.NoError(t, err)

	o := NewOrchestrator(p, testConfig(), WithLocations(reg))
	res, err := o.Search(context.Background(), Query{From: " jfk", To: "lhr", Date: "01.06.2025"})
	require.NoError(t, err)

	assert.Equal(t, models.FlightQuery{FromIATA: "JFK", ToIATA: "LHR", Date: "2025-06-01"}, got)
	assert.Equal(t, OutcomeOK, res.Outcome)
	require.Len(t, res.Flights, 1)
	assert.Equal(t, "BA178-1", res.Flights[0].ID)
	assert.Equal(t, "BA", res.Flights[0].Airline.Code)

	lhr, ok := reg.Lookup("LHR")
	require.True(t, ok, "newly seen locations are merged")
	assert.Equal(t, "London", lhr.City)
}

func TestSearchRequiredFields(t *testing.T) {
	p := &fakeProvider{}
	o := NewOrchestrator(p, testConfig())

	tests := []struct {
		q    Query
		want error
	}{
		{Query{To: "LHR", Date: "2025-06-01"}, models.ErrMissingOrigin},
		{Query{From: "JFK", Date: "2025-06-01"}, models.ErrMissingDestination},
		{Query{From: "JFK", To: "LHR", Date: "  "}, models.ErrMissingDate},
		{Query{From: "JFK", To: "LHR", Date: "someday"}, models.ErrInvalidDate},
	}
	for _, tt := range tests {
		res, err := o.Search(context.Background(), tt.q)
		assert.ErrorIs(t, err, tt.want)
		assert.Equal(t, OutcomeInvalid, res.Outcome)
		assert.NotNil(t, res.Flights)
	}
	assert.Zero(t, p.calls.Load(), "invalid input never reaches the collaborator")
}

func TestSearchUsesLocalCalendarDate(t *testing.T) {
	var got string
	p := &fakeProvider{flights: func(_ context.Context, q models.FlightQuery) ([]models.RawFlight, error) {
		got = q.Date
		return []models.RawFlight{ba178()}, nil
	}}
	o := NewOrchestrator(p, testConfig())

	_, err := o.Search(context.Background(), Query{From: "JFK", To: "LHR", Date: "2025-01-04T23:00:00.000Z", Timezone: "Europe/Berlin"})
	require.NoError(t, err)
	assert.Equal(t, "2025-01-05", got)

	_, err = o.Search(context.Background(), Query{From: "JFK", To: "LHR", Date: "2025-01-04T23:00:00.000Z"})
	require.NoError(t, err)
	assert.Equal(t, "2025-01-04", got, "configured zone is UTC")
}

func TestSearchEmptyIsDistinctFromFailure(t *testing.T) {
	p := &fakeProvider{flights: func(context.Context, models.FlightQuery) ([]models.RawFlight, error) {
		return nil, nil
	}}
	res, err := NewOrchestrator(p, testConfig()).Search(context.Background(), Query{From: "JFK", To: "LHR", Date: "2025-06-01"})
	assert.ErrorIs(t, err, models.ErrNoFlights)
	assert.Equal(t, OutcomeEmpty, res.Outcome)

	var perr *providers.ProviderError
	assert.False(t, errors.As(err, &perr))
}

func TestSearchRetriesThenSurfacesProviderError(t *testing.T) {
	p := &fakeProvider{flights: func(context.Context, models.FlightQuery) ([]models.RawFlight, error) {
		return nil, errors.New("connection reset")
	}}
	res, err := NewOrchestrator(p, testConfig()).Search(context.Background(), Query{From: "JFK", To: "LHR", Date: "2025-06-01"})

	var perr *providers.ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "fake", perr.Provider)
	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.Equal(t, int32(3), p.calls.Load())
}

func TestSearchDoesNotRetryClientErrors(t *testing.T) {
	p := &fakeProvider{flights: func(context.Context, models.FlightQuery) ([]models.RawFlight, error) {
		return nil, providers.NewProviderError("fake", &providers.StatusError{Endpoint: "flights", StatusCode: http.StatusBadRequest})
	}}
	_, err := NewOrchestrator(p, testConfig()).Search(context.Background(), Query{From: "JFK", To: "LHR", Date: "2025-06-01"})
	require.Error(t, err)
	assert.Equal(t, int32(1), p.calls.Load())
}

func TestSearchRecoversOnRetry(t *testing.T) {
	var n atomic.Int32
	p := &fakeProvider{flights: func(context.Context, models.FlightQuery) ([]models.RawFlight, error) {
		if n.Add(1) == 1 {
			return nil, errors.New("temporary")
		}
		return []models.RawFlight{ba178()}, nil
	}}
	res, err := NewOrchestrator(p, testConfig()).Search(context.Background(), Query{From: "JFK", To: "LHR", Date: "2025-06-01"})
	require.NoError(t, err)
	assert.Len(t, res.Flights, 1)
}

func TestSearchTimeout(t *testing.T) {
	p := &fakeProvider{flights: func(ctx context.Context, _ models.FlightQuery) ([]models.RawFlight, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	cfg := testConfig()
	cfg.Timeout = 20 * time.Millisecond

	_, err := NewOrchestrator(p, cfg).Search(context.Background(), Query{From: "JFK", To: "LHR", Date: "2025-06-01"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, int32(1), p.calls.Load())
}

func TestSearchCachesResults(t *testing.T) {
	p := &fakeProvider{flights: func(context.Context, models.FlightQuery) ([]models.RawFlight, error) {
		return []models.RawFlight{ba178()}, nil
	}}
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	o := NewOrchestrator(p, testConfig(), WithCache(cache.NewMemoryCache(time.Minute)), WithMetrics(m))

	first, err := o.Search(context.Background(), Query{From: "JFK", To: "LHR", Date: "2025-06-01"})
	require.NoError(t, err)
	assert.False(t, first.CacheHit)

	second, err := o.Search(context.Background(), Query{From: "jfk", To: "LHR", Date: "01.06.2025"})
	require.NoError(t, err)
	assert.True(t, second.CacheHit)
	assert.Equal(t, first.Flights, second.Flights)
	assert.Equal(t, int32(1), p.calls.Load())

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheHitsTotal.WithLabelValues("memory")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SearchRequestsTotal.WithLabelValues("ok")))
}

func TestSearchAirportsShortTermSkipsCall(t *testing.T) {
	p := &fakeProvider{}
	got, err := NewOrchestrator(p, testConfig()).SearchAirports(context.Background(), "lo", "en")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
	assert.Zero(t, p.calls.Load())
}

func TestSearchAirportsMapsRecords(t *testing.T) {
	p := &fakeProvider{airports: func(_ context.Context, term, lang string) ([]models.RawAirport, error) {
		assert.Equal(t, "lon", term)
		return []models.RawAirport{
			{Name: "Heathrow", IATACode: "lhr", City: "London"},
			{Name: "Munich", Code: "MUC"},
			{Name: "No code"},
		}, nil
	}}
	reg, err := locations.NewRegistry(16)
	require.NoError(t, err)

	got, err := NewOrchestrator(p, testConfig(), WithLocations(reg)).SearchAirports(context.Background(), "lon", "en")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "LHR", got[0].IATACode)
	assert.Equal(t, "Europe/London", got[0].Timezone)
	assert.Equal(t, "MUC", got[1].IATACode)
	assert.Equal(t, 2, reg.Len())
}
