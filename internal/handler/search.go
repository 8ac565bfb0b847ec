package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dharmasatrya/flightclaim/internal/filter"
	"github.com/dharmasatrya/flightclaim/internal/models"
	"github.com/dharmasatrya/flightclaim/internal/normalize"
	"github.com/dharmasatrya/flightclaim/internal/search"
	"github.com/dharmasatrya/flightclaim/internal/wizard"
)

// SearchSegment searches flights for one segment. A search that finds
// nothing is a normal answer offering manual entry.
func (h *ClaimHandler) SearchSegment(c echo.Context) error {
	startTime := time.Now()

	index, err := segmentIndex(c)
	if err != nil {
		return errorResponse(c, err)
	}
	var req models.SearchSegmentRequest
	if err := h.bind(c, &req); err != nil {
		return errorResponse(c, err)
	}
	s, err := h.session(c)
	if err != nil {
		return errorResponse(c, err)
	}

	res, err := s.Search(c.Request().Context(), index, wizard.SearchOptions{
		SortBy:    req.SortBy,
		SortOrder: req.SortOrder,
		Criteria:  buildCriteria(req.Filters),
		Timezone:  req.Timezone,
	})
	if err != nil && !errors.Is(err, models.ErrNoFlights) {
		return errorResponse(c, err)
	}

	resp := models.SegmentSearchResponse{
		State: "ok",
		Query: res.Query,
		Metadata: models.SearchMetadata{
			TotalResults: len(res.Flights),
			SearchTimeMs: time.Since(startTime).Milliseconds(),
			CacheHit:     res.CacheHit,
			Outcome:      string(res.Outcome),
		},
		Flights: res.Flights,
	}
	if errors.Is(err, models.ErrNoFlights) || res.Outcome == search.OutcomeEmpty {
		resp.State = "no_flights"
		resp.ManualEntry = true
	}
	return c.JSON(http.StatusOK, resp)
}

func buildCriteria(f *models.SearchFilters) *filter.Criteria {
	if f == nil {
		return nil
	}
	return &filter.Criteria{
		PriceMin: f.PriceMin,
		PriceMax: f.PriceMax,
		MaxStops: f.MaxStops,
		Airlines: f.Airlines,
	}
}

func (h *ClaimHandler) SelectFlight(c echo.Context) error {
	index, err := segmentIndex(c)
	if err != nil {
		return errorResponse(c, err)
	}
	var req models.SelectFlightRequest
	if err := h.bind(c, &req); err != nil {
		return errorResponse(c, err)
	}
	s, err := h.session(c)
	if err != nil {
		return errorResponse(c, err)
	}

	seg, err := s.Select(c.Request().Context(), index, wizard.SelectRequest{
		FlightID: strings.TrimSpace(req.FlightID),
		Flight:   req.Flight,
	})
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, newSegmentResponse(seg))
}

type AirportHandler struct {
	search AirportSearcher
}

func NewAirportHandler(s AirportSearcher) *AirportHandler {
	return &AirportHandler{search: s}
}

// Search answers autocomplete requests. Short terms yield an empty list.
func (h *AirportHandler) Search(c echo.Context) error {
	locs, err := h.search.SearchAirports(c.Request().Context(), c.QueryParam("term"), c.QueryParam("lang"))
	if err != nil {
		return errorResponse(c, err)
	}

	out := make([]models.UiLocationValue, 0, len(locs))
	for i := range locs {
		if v := normalize.ToUIValue(&locs[i]); v != nil {
			out = append(out, *v)
		}
	}
	return c.JSON(http.StatusOK, out)
}
