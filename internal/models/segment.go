package models

// LegacySegment is the original flat representation of one leg.
//
// DepartureTime holds the user's travel date. Once a flight is chosen the real
// timestamps live only in SelectedFlight. Payloads from older clients may
// additionally carry the phase-specific keys, so those are presence-aware.
type LegacySegment struct {
	ID             string   `json:"id"`
	Origin         Location `json:"origin"`
	Destination    Location `json:"destination"`
	DepartureTime  string   `json:"departureTime"`
	ArrivalTime    string   `json:"arrivalTime"`
	FlightNumber   string   `json:"flightNumber"`
	Airline        Airline  `json:"airline"`
	Duration       string   `json:"duration"`
	Stops          int      `json:"stops"`
	Price          Price    `json:"price"`
	SelectedFlight *Flight  `json:"selectedFlight,omitempty"`

	FromLocation Opt[Location] `json:"fromLocation,omitzero"`
	ToLocation   Opt[Location] `json:"toLocation,omitzero"`
	Date         Opt[string]   `json:"date,omitzero"`
}

// PhaseSegment is the phase-specific representation. Date is calendar-date only.
type PhaseSegment struct {
	FromLocation   *Location `json:"fromLocation"`
	ToLocation     *Location `json:"toLocation"`
	Date           *string   `json:"date"`
	SelectedFlight *Flight   `json:"selectedFlight"`
}

// SegmentPatch is a partial write in either dialect. Only present keys are applied.
type SegmentPatch struct {
	Origin        Opt[Location] `json:"origin,omitzero"`
	Destination   Opt[Location] `json:"destination,omitzero"`
	DepartureTime Opt[string]   `json:"departureTime,omitzero"`
	ArrivalTime   Opt[string]   `json:"arrivalTime,omitzero"`
	FlightNumber  Opt[string]   `json:"flightNumber,omitzero"`
	Airline       Opt[Airline]  `json:"airline,omitzero"`
	Duration      Opt[string]   `json:"duration,omitzero"`
	Stops         Opt[int]      `json:"stops,omitzero"`
	Price         Opt[Price]    `json:"price,omitzero"`

	FromLocation   Opt[Location] `json:"fromLocation,omitzero"`
	ToLocation     Opt[Location] `json:"toLocation,omitzero"`
	Date           Opt[string]   `json:"date,omitzero"`
	SelectedFlight Opt[Flight]   `json:"selectedFlight,omitzero"`
}

func (p SegmentPatch) IsEmpty() bool {
	return !p.Origin.Present && !p.Destination.Present && !p.DepartureTime.Present &&
		!p.ArrivalTime.Present && !p.FlightNumber.Present && !p.Airline.Present &&
		!p.Duration.Present && !p.Stops.Present && !p.Price.Present &&
		!p.FromLocation.Present && !p.ToLocation.Present && !p.Date.Present &&
		!p.SelectedFlight.Present
}
