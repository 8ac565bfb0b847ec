package providers

import (
	"context"
	"fmt"

	"github.com/dharmasatrya/flightclaim/internal/models"
)

const (
	EndpointAirports = "airports"
	EndpointFlights  = "flights"
)

// Provider is the external search collaborator. Implementations return raw
// records; normalization happens in the caller.
type Provider interface {
	Name() string
	SearchAirports(ctx context.Context, term, lang string) ([]models.RawAirport, error)
	SearchFlights(ctx context.Context, q models.FlightQuery) ([]models.RawFlight, error)
}

type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return e.Provider + ": " + e.Err.Error()
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func NewProviderError(provider string, err error) *ProviderError {
	return &ProviderError{
		Provider: provider,
		Err:      err,
	}
}

// StatusError is a non-2xx answer from the collaborator.
type StatusError struct {
	Endpoint   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.Endpoint, e.StatusCode)
}

// Retryable reports whether repeating the call may succeed.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}
