package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dharmasatrya/flightclaim/internal/cache"
	"github.com/dharmasatrya/flightclaim/internal/locations"
	"github.com/dharmasatrya/flightclaim/internal/logging"
	"github.com/dharmasatrya/flightclaim/internal/metrics"
	"github.com/dharmasatrya/flightclaim/internal/models"
	"github.com/dharmasatrya/flightclaim/internal/normalize"
	"github.com/dharmasatrya/flightclaim/internal/providers"
	"github.com/dharmasatrya/flightclaim/internal/ratelimit"
	"github.com/dharmasatrya/flightclaim/internal/timezone"
)

// MinAirportTerm is the shortest term sent to the airport collaborator.
const MinAirportTerm = 3

type Outcome string

const (
	OutcomeOK      Outcome = "ok"
	OutcomeEmpty   Outcome = "empty"
	OutcomeFailed  Outcome = "failed"
	OutcomeInvalid Outcome = "invalid"
)

type Config struct {
	Timeout     time.Duration
	MaxRetries  int
	RetryDelays []time.Duration
	// Location decides the calendar date of zoned timestamps when a query
	// names no zone. Nil means the process zone.
	Location *time.Location
}

func DefaultConfig() Config {
	return Config{
		Timeout:     5 * time.Second,
		MaxRetries:  2,
		RetryDelays: []time.Duration{100 * time.Millisecond, 300 * time.Millisecond},
	}
}

type Orchestrator struct {
	provider  providers.Provider
	cache     cache.Cache
	locations *locations.Registry
	limiter   *ratelimit.Limiter
	metrics   *metrics.Registry
	config    Config
}

type Option func(*Orchestrator)

func WithCache(c cache.Cache) Option {
	return func(o *Orchestrator) {
		o.cache = c
	}
}

func WithLocations(r *locations.Registry) Option {
	return func(o *Orchestrator) {
		o.locations = r
	}
}

func WithRateLimiter(l *ratelimit.Limiter) Option {
	return func(o *Orchestrator) {
		o.limiter = l
	}
}

func WithMetrics(m *metrics.Registry) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

func NewOrchestrator(provider providers.Provider, config Config, opts ...Option) *Orchestrator {
	if config.Timeout <= 0 {
		config.Timeout = DefaultConfig().Timeout
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	o := &Orchestrator{
		provider: provider,
		cache:    cache.NewNoOpCache(),
		config:   config,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Query is a flight search as entered by the user. Date may be in any
// accepted format. Timezone is an optional IANA zone for date conversion.
type Query struct {
	From     string
	To       string
	Date     string
	Timezone string
}

type Result struct {
	Query    models.FlightQuery
	Flights  []models.Flight
	Outcome  Outcome
	CacheHit bool
}

// Search validates and normalizes q, calls the collaborator and maps the
// records to flights. Missing input yields a ValidationError, an empty
// result yields models.ErrNoFlights and a collaborator failure yields a
// *providers.ProviderError. The result is usable in every case.
func (o *Orchestrator) Search(ctx context.Context, q Query) (Result, error) {
	fq, err := o.normalizeQuery(q)
	if err != nil {
		o.metrics.ObserveSearch(string(OutcomeInvalid))
		return Result{Query: fq, Flights: []models.Flight{}, Outcome: OutcomeInvalid}, err
	}

	result := Result{Query: fq, Flights: []models.Flight{}}

	records, hit := o.cache.Get(ctx, fq)
	o.metrics.ObserveCache(o.cache.Name(), hit)
	result.CacheHit = hit

	if !hit {
		records, err = o.fetchFlights(ctx, fq)
		if err != nil {
			logging.Warn("flight search failed", "from", fq.FromIATA, "to", fq.ToIATA, "date", fq.Date, "error", err)
			result.Outcome = OutcomeFailed
			o.metrics.ObserveSearch(string(result.Outcome))
			return result, err
		}
		if len(records) > 0 {
			if err := o.cache.Set(ctx, fq, records); err != nil {
				logging.Warn("caching search result failed", "error", err)
			}
		}
	}

	for _, rec := range records {
		f := normalize.RawFlightRecordToFlight(rec, o.locations)
		o.locations.Merge(f.From, f.To)
		result.Flights = append(result.Flights, f)
	}

	if len(result.Flights) == 0 {
		result.Outcome = OutcomeEmpty
		o.metrics.ObserveSearch(string(result.Outcome))
		return result, models.ErrNoFlights
	}

	result.Outcome = OutcomeOK
	o.metrics.ObserveSearch(string(result.Outcome))
	return result, nil
}

// SearchAirports resolves an autocomplete term. Terms shorter than
// MinAirportTerm return nothing without calling the collaborator.
func (o *Orchestrator) SearchAirports(ctx context.Context, term, lang string) ([]models.Location, error) {
	term = strings.TrimSpace(term)
	if len([]rune(term)) < MinAirportTerm {
		return []models.Location{}, nil
	}

	var records []models.RawAirport
	err := o.withRetry(ctx, providers.EndpointAirports, func(ctx context.Context) error {
		var err error
		records, err = o.provider.SearchAirports(ctx, term, lang)
		return err
	})
	if err != nil {
		logging.Warn("airport search failed", "term", term, "error", err)
		return []models.Location{}, err
	}

	out := make([]models.Location, 0, len(records))
	for _, rec := range records {
		loc := normalize.RawSearchRecordToLocation(rec)
		if loc.IATACode == "" {
			logging.Debug("airport record without code", "name", rec.Name)
			continue
		}
		out = append(out, loc)
	}
	o.locations.Merge(out...)
	return out, nil
}

func (o *Orchestrator) normalizeQuery(q Query) (models.FlightQuery, error) {
	fq := models.FlightQuery{
		FromIATA: strings.ToUpper(strings.TrimSpace(q.From)),
		ToIATA:   strings.ToUpper(strings.TrimSpace(q.To)),
	}
	switch {
	case fq.FromIATA == "":
		return fq, models.ErrMissingOrigin
	case fq.ToIATA == "":
		return fq, models.ErrMissingDestination
	case strings.TrimSpace(q.Date) == "":
		return fq, models.ErrMissingDate
	}

	loc := timezone.GetLocationByName(q.Timezone, o.config.Location)
	date, err := timezone.NormalizeDate(q.Date, loc)
	if err != nil {
		logging.Debug("unrecognised search date", "value", q.Date, "error", err)
		return fq, models.ErrInvalidDate
	}
	fq.Date = date
	return fq, nil
}

func (o *Orchestrator) fetchFlights(ctx context.Context, fq models.FlightQuery) ([]models.RawFlight, error) {
	var records []models.RawFlight
	err := o.withRetry(ctx, providers.EndpointFlights, func(ctx context.Context) error {
		var err error
		records, err = o.provider.SearchFlights(ctx, fq)
		return err
	})
	return records, err
}

// withRetry runs call under the configured timeout, waiting on the
// endpoint's rate limit before every attempt. Failures always come back as
// a *providers.ProviderError.
func (o *Orchestrator) withRetry(ctx context.Context, endpoint string, call func(context.Context) error) error {
	searchCtx, cancel := context.WithTimeout(ctx, o.config.Timeout)
	defer cancel()

	var lastErr error
	for attempt := 0; attempt <= o.config.MaxRetries; attempt++ {
		if attempt > 0 {
			if !retryable(lastErr) {
				break
			}
			if err := o.sleep(searchCtx, attempt); err != nil {
				lastErr = err
				break
			}
		}

		if err := o.limiter.Wait(searchCtx, endpoint); err != nil {
			lastErr = err
			break
		}

		started := time.Now()
		err := call(searchCtx)
		o.metrics.ObserveCollaborator(endpoint, started)
		if err == nil {
			return nil
		}

		lastErr = err
		logging.Debug("collaborator attempt failed", "endpoint", endpoint, "attempt", attempt+1, "error", err)
	}

	var perr *providers.ProviderError
	if errors.As(lastErr, &perr) {
		return lastErr
	}
	return providers.NewProviderError(o.provider.Name(), fmt.Errorf("%s: %w", endpoint, lastErr))
}

func (o *Orchestrator) sleep(ctx context.Context, attempt int) error {
	if len(o.config.RetryDelays) == 0 {
		return ctx.Err()
	}
	delayIdx := attempt - 1
	if delayIdx >= len(o.config.RetryDelays) {
		delayIdx = len(o.config.RetryDelays) - 1
	}

	select {
	case <-time.After(o.config.RetryDelays[delayIdx]):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var serr *providers.StatusError
	if errors.As(err, &serr) {
		return serr.Retryable()
	}
	return true
}
