package filter

import (
	"sort"
	"strings"
	"time"

	"github.com/dharmasatrya/flightclaim/internal/logging"
	"github.com/dharmasatrya/flightclaim/internal/models"
	"github.com/dharmasatrya/flightclaim/internal/ranking"
	"github.com/dharmasatrya/flightclaim/internal/segment"
	"github.com/dharmasatrya/flightclaim/internal/timezone"
)

const DefaultMinConnection = 45 * time.Minute

// Criteria narrows a result list. Nil fields do not filter.
type Criteria struct {
	PriceMin *float64 `json:"price_min,omitempty"`
	PriceMax *float64 `json:"price_max,omitempty"`
	MaxStops *int     `json:"max_stops,omitempty"`
	Airlines []string `json:"airlines,omitempty"`
}

func Apply(flights []models.Flight, criteria *Criteria, sortBy, sortOrder string) []models.Flight {
	return applySort(applyFilters(flights, criteria), sortBy, sortOrder)
}

// FilterSelectable drops candidates that cannot be reached from the flight
// already selected on the previous leg. Anything with incomplete timing
// (no previous flight, a bare date, an unparsable timestamp) is kept.
func FilterSelectable(candidates []models.Flight, segments []segment.Segment, targetIndex int, minConnection time.Duration) []models.Flight {
	if targetIndex <= 0 || targetIndex > len(segments) {
		return candidates
	}
	prev := segments[targetIndex-1].SelectedFlight
	if prev == nil {
		return candidates
	}
	arrival, err := timezone.ParseTimestamp(prev.ArrivalTime, zoneOf(prev.To))
	if err != nil {
		logging.Debug("connection check skipped", "arrival", prev.ArrivalTime)
		return candidates
	}

	result := make([]models.Flight, 0, len(candidates))
	for _, f := range candidates {
		departure, err := timezone.ParseTimestamp(f.DepartureTime, zoneOf(f.From))
		if err != nil || departure.Sub(arrival) >= minConnection {
			result = append(result, f)
		}
	}
	return result
}

// zoneOf reads naive timestamps in the airport's zone, UTC when unknown.
func zoneOf(loc models.Location) *time.Location {
	name := loc.Timezone
	if name == "" {
		name = timezone.GetTimezoneByAirport(loc.Code())
	}
	return timezone.GetLocationByName(name, time.UTC)
}

func applyFilters(flights []models.Flight, criteria *Criteria) []models.Flight {
	if criteria == nil {
		return flights
	}

	result := make([]models.Flight, 0, len(flights))

	for _, f := range flights {
		if matchesCriteria(f, criteria) {
			result = append(result, f)
		}
	}

	return result
}

func matchesCriteria(f models.Flight, criteria *Criteria) bool {
	if criteria.PriceMin != nil && f.Price.Amount < *criteria.PriceMin {
		return false
	}
	if criteria.PriceMax != nil && f.Price.Amount > *criteria.PriceMax {
		return false
	}

	if criteria.MaxStops != nil && f.Stops > *criteria.MaxStops {
		return false
	}

	if len(criteria.Airlines) > 0 {
		found := false
		for _, airline := range criteria.Airlines {
			if strings.EqualFold(f.Airline.Code, airline) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	return true
}

// applySort sorts a copy of flights. Flights with unparsable times sort last
// when ordering by time.
func applySort(flights []models.Flight, sortBy, sortOrder string) []models.Flight {
	sorted := make([]models.Flight, len(flights))
	copy(sorted, flights)
	if len(sorted) == 0 {
		return sorted
	}

	ascending := strings.ToLower(sortOrder) != "desc"
	less := func(a, b float64) bool {
		if ascending {
			return a < b
		}
		return a > b
	}

	switch strings.ToLower(sortBy) {
	case "price":
		sort.SliceStable(sorted, func(i, j int) bool {
			return less(sorted[i].Price.Amount, sorted[j].Price.Amount)
		})

	case "duration":
		sort.SliceStable(sorted, func(i, j int) bool {
			return less(float64(ranking.DurationMinutes(sorted[i])), float64(ranking.DurationMinutes(sorted[j])))
		})

	case "arrival":
		sortByTime(sorted, func(f models.Flight) (time.Time, bool) {
			t, err := timezone.ParseTimestamp(f.ArrivalTime, zoneOf(f.To))
			return t, err == nil
		}, ascending)

	case "best_value":
		scores := ranking.CalculateScores(sorted)
		sort.SliceStable(sorted, func(i, j int) bool {
			return less(scores[sorted[i].ID], scores[sorted[j].ID])
		})

	case "stops":
		sort.SliceStable(sorted, func(i, j int) bool {
			return less(float64(sorted[i].Stops), float64(sorted[j].Stops))
		})

	default:
		sortByTime(sorted, func(f models.Flight) (time.Time, bool) {
			t, err := timezone.ParseTimestamp(f.DepartureTime, zoneOf(f.From))
			return t, err == nil
		}, ascending)
	}

	return sorted
}

func sortByTime(flights []models.Flight, at func(models.Flight) (time.Time, bool), ascending bool) {
	sort.SliceStable(flights, func(i, j int) bool {
		ti, okI := at(flights[i])
		tj, okJ := at(flights[j])
		if okI != okJ {
			return okI
		}
		if ascending {
			return ti.Before(tj)
		}
		return ti.After(tj)
	})
}
