package ranking

import (
	"math"
	"regexp"
	"strconv"

	"github.com/dharmasatrya/flightclaim/internal/models"
	"github.com/dharmasatrya/flightclaim/internal/timezone"
)

const (
	PriceWeight    = 0.5
	DurationWeight = 0.3
	StopsWeight    = 0.2
)

// CalculateScores returns the best-value score of every flight, keyed by id.
// Lower is better.
func CalculateScores(flights []models.Flight) map[string]float64 {
	scores := make(map[string]float64, len(flights))
	if len(flights) == 0 {
		return scores
	}

	maxPrice := findMaxPrice(flights)
	maxDuration := findMaxDuration(flights)

	for _, f := range flights {
		scores[f.ID] = CalculateBestValue(f, maxPrice, maxDuration)
	}
	return scores
}

func CalculateBestValue(flight models.Flight, maxPrice, maxDuration float64) float64 {
	priceScore := 0.0
	if maxPrice > 0 {
		priceScore = (flight.Price.Amount / maxPrice) * 100
	}

	durationScore := 0.0
	if minutes := DurationMinutes(flight); maxDuration > 0 && minutes >= 0 {
		durationScore = (float64(minutes) / maxDuration) * 100
	}

	stopsScore := float64(flight.Stops) * 15
	score := (priceScore * PriceWeight) + (durationScore * DurationWeight) + (stopsScore * StopsWeight)

	return math.Round(score*100) / 100
}

var durationRe = regexp.MustCompile(`^\s*(\d+)h\s*(\d+)m\s*$`)

// DurationMinutes returns the flight time in minutes, or -1 when unknown.
// Scheduled timestamps win over the display duration.
func DurationMinutes(f models.Flight) int {
	dep, depErr := timezone.ParseTimestamp(f.DepartureTime, nil)
	arr, arrErr := timezone.ParseTimestamp(f.ArrivalTime, nil)
	if depErr == nil && arrErr == nil && !arr.Before(dep) {
		return int(arr.Sub(dep).Minutes())
	}

	if m := durationRe.FindStringSubmatch(f.Duration); m != nil {
		h, _ := strconv.Atoi(m[1])
		mins, _ := strconv.Atoi(m[2])
		return h*60 + mins
	}
	return -1
}

func findMaxPrice(flights []models.Flight) float64 {
	maxPrice := 0.0
	for _, f := range flights {
		if f.Price.Amount > maxPrice {
			maxPrice = f.Price.Amount
		}
	}
	return maxPrice
}

func findMaxDuration(flights []models.Flight) float64 {
	maxDuration := 0.0
	for _, f := range flights {
		dur := float64(DurationMinutes(f))
		if dur > maxDuration {
			maxDuration = dur
		}
	}
	return maxDuration
}
