package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/dharmasatrya/flightclaim/internal/models"
	"github.com/dharmasatrya/flightclaim/internal/providers/data"
	"github.com/dharmasatrya/flightclaim/internal/timezone"
)

type fixtureFile struct {
	Airports []models.RawAirport `json:"airports"`
	Flights  []models.RawFlight  `json:"flights"`
}

// FixtureProvider answers searches from a static data set. It stands in for
// the collaborator in development and tests.
type FixtureProvider struct {
	airports []models.RawAirport
	flights  []models.RawFlight
	latency  time.Duration
}

// NewFixtureProvider loads path, or the embedded data set when path is empty.
func NewFixtureProvider(path string) (*FixtureProvider, error) {
	raw := data.Fixtures
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read fixtures: %w", err)
		}
		raw = b
	}

	var f fixtureFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	return &FixtureProvider{airports: f.Airports, flights: f.Flights}, nil
}

// WithLatency makes every call wait up to d, simulating a remote service.
func (p *FixtureProvider) WithLatency(d time.Duration) *FixtureProvider {
	p.latency = d
	return p
}

func (p *FixtureProvider) Name() string {
	return "fixture"
}

func (p *FixtureProvider) SearchAirports(ctx context.Context, term, lang string) ([]models.RawAirport, error) {
	if err := p.wait(ctx); err != nil {
		return nil, err
	}

	term = strings.ToLower(strings.TrimSpace(term))
	var results []models.RawAirport
	for _, a := range p.airports {
		if strings.Contains(strings.ToLower(a.Name), term) ||
			strings.Contains(strings.ToLower(a.City), term) ||
			strings.EqualFold(a.IATACode, term) || strings.EqualFold(a.Code, term) {
			results = append(results, a)
		}
	}
	return results, nil
}

func (p *FixtureProvider) SearchFlights(ctx context.Context, q models.FlightQuery) ([]models.RawFlight, error) {
	if err := p.wait(ctx); err != nil {
		return nil, err
	}

	var results []models.RawFlight
	for _, f := range p.flights {
		if !strings.EqualFold(f.DepIATA, q.FromIATA) ||
			!strings.EqualFold(f.ArrIATA, q.ToIATA) {
			continue
		}
		if timezone.DatePortion(f.DepTimeSched) != q.Date {
			continue
		}
		results = append(results, f)
	}
	return results, nil
}

func (p *FixtureProvider) wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil || p.latency <= 0 {
		return err
	}
	delay := time.Duration(rand.Int63n(int64(p.latency)))
	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
