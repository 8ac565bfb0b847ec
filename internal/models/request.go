package models

type SearchFilters struct {
	PriceMin *float64 `json:"price_min,omitempty" validate:"omitempty,gte=0"`
	PriceMax *float64 `json:"price_max,omitempty" validate:"omitempty,gte=0"`
	MaxStops *int     `json:"max_stops,omitempty" validate:"omitempty,gte=0"`
	Airlines []string `json:"airlines,omitempty"`
}

type CreateClaimRequest struct {
	Type TripType `json:"type" validate:"omitempty,oneof=direct multi"`
}

type TripTypeRequest struct {
	Type TripType `json:"type" validate:"required,oneof=direct multi"`
}

type SetSegmentsRequest struct {
	Segments []LegacySegment `json:"segments" validate:"required"`
}

type SearchSegmentRequest struct {
	Filters   *SearchFilters `json:"filters,omitempty"`
	SortBy    string         `json:"sort_by,omitempty" validate:"omitempty,oneof=price duration departure arrival stops best_value"`
	SortOrder string         `json:"sort_order,omitempty" validate:"omitempty,oneof=asc desc"`
	// Timezone is the IANA zone used to read zoned date input.
	Timezone string `json:"timezone,omitempty"`
}

// SelectFlightRequest names a flight from the segment's last results or
// carries a complete flight.
type SelectFlightRequest struct {
	FlightID string  `json:"flight_id" validate:"required_without=Flight"`
	Flight   *Flight `json:"flight,omitempty" validate:"required_without=FlightID"`
}

type AnswerRequest struct {
	QuestionID string `json:"question_id" validate:"required"`
	Value      any    `json:"value"`
}
