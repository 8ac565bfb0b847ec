package normalize

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharmasatrya/flightclaim/internal/models"
)

var heathrow = models.Location{
	ID:       "LHR",
	Name:     "Heathrow Airport",
	City:     "London",
	Country:  "United Kingdom",
	IATACode: "LHR",
	Timezone: "Europe/London",
	Kind:     models.LocationKindAirport,
}

func TestToUIValue(t *testing.T) {
	assert.Nil(t, ToUIValue(nil))

	v := ToUIValue(&heathrow)
	require.NotNil(t, v)
	assert.Equal(t, "LHR", v.Value)
	assert.Equal(t, "Heathrow Airport", v.Label)
	assert.Equal(t, "London", v.Description)
	assert.Equal(t, "Heathrow Airport, London, United Kingdom (LHR)", v.DropdownLabel)
}

func TestFromUIValuePrefersKnownLocation(t *testing.T) {
	known := LocationList{heathrow}
	loc := FromUIValue(&models.UiLocationValue{Value: "lhr", Label: "Heathrow"}, known)
	require.NotNil(t, loc)
	assert.Equal(t, heathrow, *loc)
}

func TestFromUIValueSynthesizesAndRecoversCountry(t *testing.T) {
	v := &models.UiLocationValue{
		Value:         "MUC",
		Label:         "Munich Airport",
		Description:   "Munich",
		DropdownLabel: "Munich Airport, Munich, Germany (MUC)",
	}
	loc := FromUIValue(v, LocationList{heathrow})
	require.NotNil(t, loc)
	assert.Equal(t, "MUC", loc.ID)
	assert.Equal(t, "MUC", loc.IATACode)
	assert.Equal(t, "Munich", loc.City)
	assert.Equal(t, "Germany", loc.Country)
	assert.Equal(t, "Europe/Berlin", loc.Timezone)
}

func TestFromUIValueNil(t *testing.T) {
	assert.Nil(t, FromUIValue(nil, nil))
}

func TestFromUIValueShortLabelHasNoCountry(t *testing.T) {
	loc := FromUIValue(&models.UiLocationValue{Value: "XYZ", Label: "Somewhere", DropdownLabel: "Somewhere, Town (XYZ)"}, nil)
	assert.Equal(t, "", loc.Country)
}

func TestUIValueRoundTrip(t *testing.T) {
	loc := FromUIValue(ToUIValue(&heathrow), nil)
	assert.Equal(t, heathrow.IATACode, loc.IATACode)
	assert.Equal(t, heathrow.City, loc.City)
	assert.Equal(t, heathrow.Country, loc.Country)
}

func TestRawSearchRecordToLocation(t *testing.T) {
	loc := RawSearchRecordToLocation(models.RawAirport{Name: " John F. Kennedy International ", Code: "jfk"})
	assert.Equal(t, "JFK", loc.ID)
	assert.Equal(t, "JFK", loc.IATACode)
	assert.Equal(t, "John F. Kennedy International", loc.Name)
	assert.Equal(t, "", loc.City)
	assert.Equal(t, "", loc.Country)
	assert.Equal(t, "America/New_York", loc.Timezone)

	empty := RawSearchRecordToLocation(models.RawAirport{})
	assert.Equal(t, "", empty.ID)
	assert.True(t, empty.IsPlaceholder())
}

func TestRawFlightRecordToFlight(t *testing.T) {
	var rec models.RawFlight
	require.NoError(t, json.Unmarshal([]byte(`{
		"id": "BA178-1",
		"flightnumber_iata": "BA178",
		"airline_name": "British Airways",
		"dep_iata": "JFK",
		"dep_time_sched": "2025-06-01T18:00:00Z",
		"arr_iata": "LHR",
		"arr_time_sched": "2025-06-02T06:00:00Z",
		"dep_city": "New York",
		"stops": "0"
	}`), &rec))

	f := RawFlightRecordToFlight(rec, LocationList{heathrow})
	assert.Equal(t, "BA178-1", f.ID)
	assert.Equal(t, "BA178", f.FlightNumber)
	assert.Equal(t, models.Airline{Name: "British Airways", Code: "BA"}, f.Airline)
	assert.Equal(t, "JFK", f.From.IATACode)
	assert.Equal(t, "New York", f.From.City)
	assert.Equal(t, "", f.From.Country)
	assert.Equal(t, heathrow, f.To, "known location is used as-is")
	assert.Equal(t, "2025-06-01T18:00:00Z", f.DepartureTime)
	assert.Equal(t, "12h 0m", f.Duration)
	assert.Equal(t, 0, f.Stops)
	assert.Equal(t, models.FlightStatusScheduled, f.Status)
	assert.Equal(t, "EUR", f.Price.Currency)
	assert.Equal(t, models.FlightTypeDirect, f.Type)
}

func TestRawFlightRecordDurationFallbacks(t *testing.T) {
	f := RawFlightRecordToFlight(models.RawFlight{
		FlightNumberIATA: "lh400",
		DepTimeSched:     "2025-06-01 10:05",
		ArrTimeSched:     "2025-06-01 12:20",
		Status:           "Landed",
	}, nil)
	assert.Equal(t, "2h 15m", f.Duration)
	assert.Equal(t, "LH400-2025-06-01 10:05", f.ID)
	assert.Equal(t, "LH", f.Airline.Code)
	assert.Equal(t, models.FlightStatusLanded, f.Status)

	bad := RawFlightRecordToFlight(models.RawFlight{DepTimeSched: "soon", ArrTimeSched: "later", Status: "weird"}, nil)
	assert.Equal(t, "", bad.Duration)
	assert.Equal(t, models.FlightStatusUnknown, bad.Status)

	given := RawFlightRecordToFlight(models.RawFlight{Duration: models.FlexInt{Value: 95, Valid: true}}, nil)
	assert.Equal(t, "1h 35m", given.Duration)
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "7h 5m", FormatDuration("2025-06-01T08:00:00+02:00", "2025-06-01T13:05:00Z"))
	assert.Equal(t, "", FormatDuration("2025-06-01T13:00:00Z", "2025-06-01T08:00:00Z"))
}
