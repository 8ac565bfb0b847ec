// Package ratelimit throttles calls to the search collaborator with one
// token bucket per endpoint.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/dharmasatrya/flightclaim/internal/providers"
)

// AutocompleteFactor scales the airports bucket against the flights bucket.
// Autocomplete is queried per keystroke while a flight search runs once per
// segment.
const AutocompleteFactor = 2

// ErrThrottled is returned when the bucket cannot refill before ctx ends.
var ErrThrottled = errors.New("collaborator rate limit would outlast the request")

type Rate struct {
	PerSecond float64
	Burst     int
}

func (r Rate) valid() bool {
	return r.PerSecond > 0 && r.Burst > 0
}

func DefaultRate() Rate {
	return Rate{PerSecond: 5, Burst: 10}
}

// Limits configures the buckets. Endpoints without an entry, or with an
// invalid one, use Default.
type Limits struct {
	Default   Rate
	Endpoints map[string]Rate
}

// ForSearch derives the limits of every collaborator endpoint from the
// flight search rate.
func ForSearch(flights Rate) Limits {
	if !flights.valid() {
		flights = DefaultRate()
	}
	return Limits{
		Default: flights,
		Endpoints: map[string]Rate{
			providers.EndpointFlights: flights,
			providers.EndpointAirports: {
				PerSecond: flights.PerSecond * AutocompleteFactor,
				Burst:     flights.Burst * AutocompleteFactor,
			},
		},
	}
}

type Option func(*Limiter)

// WithObserver is told how long each throttled call waited for its token.
func WithObserver(fn func(endpoint string, waited time.Duration)) Option {
	return func(l *Limiter) {
		l.observe = fn
	}
}

// Limiter hands out tokens per endpoint. A nil *Limiter never blocks.
type Limiter struct {
	limits  Limits
	observe func(endpoint string, waited time.Duration)

	mu      sync.Mutex
	buckets map[string]*rate.Limiter
}

func New(limits Limits, opts ...Option) *Limiter {
	if !limits.Default.valid() {
		limits.Default = DefaultRate()
	}
	l := &Limiter{
		limits:  limits,
		buckets: make(map[string]*rate.Limiter),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Rate is the configured rate of endpoint.
func (l *Limiter) Rate(endpoint string) Rate {
	if r, ok := l.limits.Endpoints[endpoint]; ok && r.valid() {
		return r
	}
	return l.limits.Default
}

func (l *Limiter) bucket(endpoint string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[endpoint]
	if !ok {
		r := l.Rate(endpoint)
		b = rate.NewLimiter(rate.Limit(r.PerSecond), r.Burst)
		l.buckets[endpoint] = b
	}
	return b
}

// Wait blocks until endpoint may be called. It fails at once with
// ErrThrottled when the token would only arrive after ctx's deadline, and
// with ctx.Err() when ctx ends while waiting.
func (l *Limiter) Wait(ctx context.Context, endpoint string) error {
	if l == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	res := l.bucket(endpoint).Reserve()
	delay := res.Delay()
	if delay == 0 {
		return nil
	}
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < delay {
		res.Cancel()
		return fmt.Errorf("%w: %s needs %s", ErrThrottled, endpoint, delay.Round(time.Millisecond))
	}

	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-t.C:
		if l.observe != nil {
			l.observe(endpoint, delay)
		}
		return nil
	case <-ctx.Done():
		res.Cancel()
		return ctx.Err()
	}
}
