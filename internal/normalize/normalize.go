// Package normalize converts between raw collaborator records, canonical
// Location and Flight values, and the autocomplete value held by the UI.
// Nothing here fails: malformed input degrades to empty strings.
package normalize

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dharmasatrya/flightclaim/internal/logging"
	"github.com/dharmasatrya/flightclaim/internal/models"
	"github.com/dharmasatrya/flightclaim/internal/timezone"
	"github.com/dharmasatrya/flightclaim/pkg/currency"
)

const DefaultCurrency = "EUR"

type KnownLocations interface {
	Lookup(code string) (models.Location, bool)
}

// LocationList adapts a plain slice to KnownLocations.
type LocationList []models.Location

func (l LocationList) Lookup(code string) (models.Location, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return models.Location{}, false
	}
	for _, loc := range l {
		if strings.EqualFold(loc.Code(), code) || strings.EqualFold(loc.ID, code) {
			return loc, true
		}
	}
	return models.Location{}, false
}

// DropdownLabel renders "Name, City, Country (CODE)", skipping empty parts.
func DropdownLabel(loc models.Location) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{loc.Name, loc.City, loc.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	label := strings.Join(parts, ", ")
	if code := loc.Code(); code != "" {
		if label == "" {
			return code
		}
		label += " (" + code + ")"
	}
	return label
}

func ToUIValue(loc *models.Location) *models.UiLocationValue {
	if loc == nil {
		return nil
	}
	return &models.UiLocationValue{
		Value:         loc.Code(),
		Label:         loc.Name,
		Description:   loc.City,
		City:          loc.City,
		Country:       loc.Country,
		DropdownLabel: DropdownLabel(*loc),
	}
}

var trailingCountryRe = regexp.MustCompile(`,\s*([^,()]+?)\s*\(([^()]+)\)\s*$`)

// FromUIValue prefers a known location with the same code so city, country
// and timezone are not lost; otherwise it builds a minimal one.
func FromUIValue(v *models.UiLocationValue, known KnownLocations) *models.Location {
	if v == nil {
		return nil
	}
	code := strings.ToUpper(strings.TrimSpace(v.Value))
	if known != nil && code != "" {
		if loc, ok := known.Lookup(code); ok {
			return &loc
		}
	}

	city := v.Description
	if city == "" {
		city = v.City
	}
	country := v.Country
	if country == "" {
		country = countryFromDropdown(v.DropdownLabel)
	}

	return &models.Location{
		ID:       code,
		Name:     v.Label,
		City:     city,
		Country:  country,
		IATACode: code,
		Timezone: timezone.GetTimezoneByAirport(code),
		Kind:     models.LocationKindAirport,
	}
}

// countryFromDropdown reads the ", Country (CODE)" tail. Labels with fewer
// than three parts do not carry a country.
func countryFromDropdown(label string) string {
	if strings.Count(label, ",") < 2 {
		return ""
	}
	m := trailingCountryRe.FindStringSubmatch(label)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

func RawSearchRecordToLocation(rec models.RawAirport) models.Location {
	code := strings.ToUpper(strings.TrimSpace(rec.IATACode))
	if code == "" {
		code = strings.ToUpper(strings.TrimSpace(rec.Code))
	}
	tz := strings.TrimSpace(rec.Timezone)
	if tz == "" {
		tz = timezone.GetTimezoneByAirport(code)
	}
	return models.Location{
		ID:       code,
		Name:     strings.TrimSpace(rec.Name),
		City:     strings.TrimSpace(rec.City),
		Country:  strings.TrimSpace(rec.Country),
		IATACode: code,
		Timezone: tz,
		Kind:     models.LocationKindAirport,
	}
}

var airlinePrefixRe = regexp.MustCompile(`^([A-Z0-9]{2})\s?\d`)

func RawFlightRecordToFlight(rec models.RawFlight, known KnownLocations) models.Flight {
	flightNumber := strings.ToUpper(strings.TrimSpace(rec.FlightNumberIATA))

	airlineCode := strings.ToUpper(strings.TrimSpace(rec.AirlineIATA))
	if airlineCode == "" {
		if m := airlinePrefixRe.FindStringSubmatch(flightNumber); m != nil {
			airlineCode = m[1]
		}
	}

	id := strings.TrimSpace(rec.ID)
	if id == "" {
		id = flightNumber
		if rec.DepTimeSched != "" {
			id += "-" + rec.DepTimeSched
		}
	}

	var duration string
	if rec.Duration.Valid && rec.Duration.Value > 0 {
		duration = formatMinutes(rec.Duration.Value)
	} else {
		duration = FormatDuration(rec.DepTimeSched, rec.ArrTimeSched)
	}

	stops := 0
	if rec.Stops.Valid && rec.Stops.Value > 0 {
		stops = rec.Stops.Value
	}

	cur := strings.ToUpper(strings.TrimSpace(rec.Currency))
	if cur == "" {
		cur = DefaultCurrency
	}

	return models.Flight{
		ID:           id,
		FlightNumber: flightNumber,
		Airline: models.Airline{
			Name: strings.TrimSpace(rec.AirlineName),
			Code: airlineCode,
		},
		From:          resolveLocation(rec.DepIATA, rec.DepCity, rec.DepCountry, known),
		To:            resolveLocation(rec.ArrIATA, rec.ArrCity, rec.ArrCountry, known),
		DepartureTime: strings.TrimSpace(rec.DepTimeSched),
		ArrivalTime:   strings.TrimSpace(rec.ArrTimeSched),
		Duration:      duration,
		Stops:         stops,
		Price: models.Price{
			Amount:    rec.Price,
			Currency:  cur,
			Formatted: currency.Format(rec.Price, cur),
		},
		Status: status(rec.Status),
		Type:   models.FlightTypeDirect,
	}
}

func resolveLocation(code, city, country string, known KnownLocations) models.Location {
	code = strings.ToUpper(strings.TrimSpace(code))
	if known != nil && code != "" {
		if loc, ok := known.Lookup(code); ok {
			if loc.City == "" {
				loc.City = strings.TrimSpace(city)
			}
			if loc.Country == "" {
				loc.Country = strings.TrimSpace(country)
			}
			return loc
		}
	}
	return models.Location{
		ID:       code,
		Name:     code,
		City:     strings.TrimSpace(city),
		Country:  strings.TrimSpace(country),
		IATACode: code,
		Timezone: timezone.GetTimezoneByAirport(code),
		Kind:     models.LocationKindAirport,
	}
}

// FormatDuration returns "Hh Mm" between two scheduled timestamps, or "" when
// either cannot be parsed.
func FormatDuration(departure, arrival string) string {
	dep, err := timezone.ParseTimestamp(departure, nil)
	if err != nil {
		logging.Debug("duration: unparsable departure", "value", departure)
		return ""
	}
	arr, err := timezone.ParseTimestamp(arrival, nil)
	if err != nil {
		logging.Debug("duration: unparsable arrival", "value", arrival)
		return ""
	}
	minutes := int(arr.Sub(dep).Minutes())
	if minutes < 0 {
		logging.Debug("duration: arrival before departure", "departure", departure, "arrival", arrival)
		return ""
	}
	return formatMinutes(minutes)
}

func formatMinutes(total int) string {
	return fmt.Sprintf("%dh %dm", total/60, total%60)
}

func status(raw string) models.FlightStatus {
	switch s := models.FlightStatus(strings.ToLower(strings.TrimSpace(raw))); s {
	case "":
		return models.FlightStatusScheduled
	case models.FlightStatusScheduled, models.FlightStatusActive, models.FlightStatusLanded,
		models.FlightStatusCancelled, models.FlightStatusDiverted, models.FlightStatusDelayed:
		return s
	default:
		return models.FlightStatusUnknown
	}
}
