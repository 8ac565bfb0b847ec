package models

import (
	"encoding/json"
	"strconv"
	"strings"
)

// RawAirport is one record of the airport search collaborator.
type RawAirport struct {
	Name     string  `json:"name"`
	IATACode string  `json:"iata_code"`
	Code     string  `json:"code"`
	City     string  `json:"city"`
	Country  string  `json:"country"`
	Timezone string  `json:"timezone"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
}

// RawFlight is one record of the flight search collaborator.
type RawFlight struct {
	ID               string  `json:"id"`
	FlightNumberIATA string  `json:"flightnumber_iata"`
	AirlineName      string  `json:"airline_name"`
	AirlineIATA      string  `json:"airline_iata"`
	DepIATA          string  `json:"dep_iata"`
	DepTimeSched     string  `json:"dep_time_sched"`
	ArrIATA          string  `json:"arr_iata"`
	ArrTimeSched     string  `json:"arr_time_sched"`
	DepCity          string  `json:"dep_city"`
	DepCountry       string  `json:"dep_country"`
	ArrCity          string  `json:"arr_city"`
	ArrCountry       string  `json:"arr_country"`
	Duration         FlexInt `json:"duration"`
	Stops            FlexInt `json:"stops"`
	Status           string  `json:"status"`
	Price            float64 `json:"price"`
	Currency         string  `json:"currency"`
}

type RawFlightResponse struct {
	Data []RawFlight `json:"data"`
}

// FlightQuery is the normalized request sent to the flight search collaborator.
type FlightQuery struct {
	FromIATA string `json:"from_iata"`
	ToIATA   string `json:"to_iata"`
	Date     string `json:"date"`
}

// FlexInt accepts a number, a numeric string, or anything else (decoded as unset).
type FlexInt struct {
	Value int
	Valid bool
}

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		*f = FlexInt{}
		return nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		*f = FlexInt{Value: n, Valid: true}
		return nil
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		*f = FlexInt{Value: int(v), Valid: true}
		return nil
	}
	*f = FlexInt{}
	return nil
}

func (f FlexInt) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}
