package models

import "errors"

type ValidationError string

func (e ValidationError) Error() string {
	return string(e)
}

const (
	ErrMissingOrigin      ValidationError = "origin is required"
	ErrMissingDestination ValidationError = "destination is required"
	ErrMissingDate        ValidationError = "date is required"
	ErrInvalidDate        ValidationError = "date format is not recognised"
	ErrInvalidTripType    ValidationError = "trip type must be direct or multi"
	ErrSegmentIndex       ValidationError = "segment index is out of range"
	ErrTooManySegments    ValidationError = "trip has too many segments"
	ErrUnknownQuestion    ValidationError = "unknown question"
	ErrUnknownWizard      ValidationError = "unknown wizard"
	ErrUnknownFlight      ValidationError = "flight is not among the last search results"
	ErrInvalidAnswer      ValidationError = "answer value is not valid for this question"
	ErrFlightRoute        ValidationError = "flight does not serve the segment's route"
	ErrInvalidPhase       ValidationError = "phase must be a positive number"
)

var (
	// ErrClaimNotFound is returned when no live or persisted session exists for an id.
	ErrClaimNotFound = errors.New("claim not found")

	ErrSessionClosed = errors.New("claim session is closed")

	// ErrStaleSearch is returned when the segment changed while its search was in flight.
	ErrStaleSearch = errors.New("segment changed while search was pending")

	// ErrNoFlights marks a successful search with no matching flights.
	ErrNoFlights = errors.New("no flights found")

	// ErrSegmentRejected marks a store operation that would break a trip invariant. It is a no-op.
	ErrSegmentRejected = errors.New("segment operation rejected")
)
