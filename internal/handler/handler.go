package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/dharmasatrya/flightclaim/internal/logging"
	"github.com/dharmasatrya/flightclaim/internal/models"
	"github.com/dharmasatrya/flightclaim/internal/providers"
	"github.com/dharmasatrya/flightclaim/internal/segment"
	"github.com/dharmasatrya/flightclaim/internal/wizard"
)

// Claims is the part of wizard.Manager the handlers use.
type Claims interface {
	Create(ctx context.Context, tripType models.TripType) (*wizard.Session, error)
	Get(ctx context.Context, id string) (*wizard.Session, error)
	Delete(ctx context.Context, id string) error
}

// AirportSearcher resolves autocomplete terms to locations.
type AirportSearcher interface {
	SearchAirports(ctx context.Context, term, lang string) ([]models.Location, error)
}

type ClaimHandler struct {
	claims   Claims
	validate *validator.Validate
}

func NewClaimHandler(claims Claims) *ClaimHandler {
	return &ClaimHandler{
		claims:   claims,
		validate: validator.New(),
	}
}

// Register mounts the claim routes on g.
func (h *ClaimHandler) Register(g *echo.Group) {
	g.POST("/claims", h.Create)
	g.GET("/claims/:id", h.Get)
	g.DELETE("/claims/:id", h.Delete)
	g.POST("/claims/:id/reset", h.Reset)
	g.PUT("/claims/:id/trip/type", h.SetTripType)
	g.PATCH("/claims/:id/trip/direct", h.SetDirect)
	g.PUT("/claims/:id/trip/segments", h.SetSegments)
	g.POST("/claims/:id/trip/segments", h.AddSegment)
	g.PATCH("/claims/:id/trip/segments/:index", h.UpdateSegment)
	g.DELETE("/claims/:id/trip/segments/:index", h.RemoveSegment)
	g.POST("/claims/:id/trip/segments/:index/search", h.SearchSegment)
	g.POST("/claims/:id/trip/segments/:index/select", h.SelectFlight)
	g.PUT("/claims/:id/answers/:wizard", h.Answer)
	g.GET("/wizards", h.Wizards)
}

// requestError is a body that could not be decoded or failed validation.
type requestError struct {
	kind string
	err  error
}

func (e *requestError) Error() string {
	return e.err.Error()
}

func (h *ClaimHandler) bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return &requestError{kind: "invalid_request", err: err}
	}
	if err := h.validate.Struct(req); err != nil {
		return &requestError{kind: "validation_error", err: err}
	}
	return nil
}

func (h *ClaimHandler) session(c echo.Context) (*wizard.Session, error) {
	return h.claims.Get(c.Request().Context(), c.Param("id"))
}

func segmentIndex(c echo.Context) (int, error) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 || index >= segment.MaxSegments {
		return 0, models.ErrSegmentIndex
	}
	return index, nil
}

// errorResponse maps domain errors onto HTTP responses.
func errorResponse(c echo.Context, err error) error {
	var (
		request    *requestError
		validation models.ValidationError
		provider   *providers.ProviderError
	)
	switch {
	case errors.As(err, &request):
		msg := request.Error()
		if request.kind == "invalid_request" {
			msg = "Failed to parse request body: " + msg
		}
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   request.kind,
			Message: msg,
			Code:    http.StatusBadRequest,
		})
	case errors.As(err, &validation):
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation_error",
			Message: validation.Error(),
			Code:    http.StatusBadRequest,
		})
	case errors.Is(err, models.ErrClaimNotFound):
		return c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "not_found",
			Message: err.Error(),
			Code:    http.StatusNotFound,
		})
	case errors.Is(err, models.ErrStaleSearch):
		return c.JSON(http.StatusConflict, models.ErrorResponse{
			Error:     "stale_search",
			Message:   err.Error(),
			Code:      http.StatusConflict,
			Retryable: true,
		})
	case errors.As(err, &provider):
		return c.JSON(http.StatusBadGateway, models.ErrorResponse{
			Error:     "search_error",
			Message:   "Failed to search flights: " + err.Error(),
			Code:      http.StatusBadGateway,
			Retryable: true,
		})
	case errors.Is(err, models.ErrSessionClosed), errors.Is(err, context.Canceled):
		return c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
			Error:     "unavailable",
			Message:   err.Error(),
			Code:      http.StatusServiceUnavailable,
			Retryable: true,
		})
	default:
		logging.Error("request failed", "path", c.Path(), "error", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: "Unexpected error",
			Code:    http.StatusInternalServerError,
		})
	}
}

func HealthHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}
