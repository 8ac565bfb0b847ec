package models

type LocationKind string

const LocationKindAirport LocationKind = "airport"

type Location struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	City     string       `json:"city"`
	Country  string       `json:"country"`
	IATACode string       `json:"iataCode"`
	Timezone string       `json:"timezone"`
	Kind     LocationKind `json:"kind"`
}

// PlaceholderLocation is the value held before the user has picked a place.
func PlaceholderLocation() Location {
	return Location{Kind: LocationKindAirport}
}

// Code returns the IATA code, falling back to the id for records that only carry one of them.
func (l *Location) Code() string {
	if l == nil {
		return ""
	}
	if l.IATACode != "" {
		return l.IATACode
	}
	return l.ID
}

// IsPlaceholder reports whether l must not be treated as a selection.
func (l *Location) IsPlaceholder() bool {
	return l == nil || l.IATACode == ""
}

// UiLocationValue is the shape an autocomplete control holds.
type UiLocationValue struct {
	Value         string `json:"value"`
	Label         string `json:"label"`
	Description   string `json:"description"`
	City          string `json:"city"`
	Country       string `json:"country,omitempty"`
	DropdownLabel string `json:"dropdownLabel"`
}

type Airline struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

type Price struct {
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
	Formatted string  `json:"formatted,omitempty"`
}

type FlightStatus string

const (
	FlightStatusScheduled FlightStatus = "scheduled"
	FlightStatusActive    FlightStatus = "active"
	FlightStatusLanded    FlightStatus = "landed"
	FlightStatusCancelled FlightStatus = "cancelled"
	FlightStatusDiverted  FlightStatus = "diverted"
	FlightStatusDelayed   FlightStatus = "delayed"
	FlightStatusUnknown   FlightStatus = "unknown"
)

const FlightTypeDirect = "direct"

// Flight is a concrete flight instance. DepartureTime and ArrivalTime are
// timestamps as returned by the search collaborator, never bare dates.
type Flight struct {
	ID            string       `json:"id"`
	FlightNumber  string       `json:"flightNumber"`
	Airline       Airline      `json:"airline"`
	From          Location     `json:"from"`
	To            Location     `json:"to"`
	DepartureTime string       `json:"departureTime"`
	ArrivalTime   string       `json:"arrivalTime"`
	Duration      string       `json:"duration"`
	Stops         int          `json:"stops"`
	Price         Price        `json:"price"`
	Status        FlightStatus `json:"status"`
	Type          string       `json:"type"`
}

// SameFlight compares flights by id. Re-rendered copies of the same flight are equal.
func SameFlight(a, b *Flight) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.ID == b.ID
}

type TripType string

const (
	TripTypeDirect TripType = "direct"
	TripTypeMulti  TripType = "multi"
)

func (t TripType) Valid() bool {
	return t == TripTypeDirect || t == TripTypeMulti
}
