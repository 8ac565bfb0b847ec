package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/dharmasatrya/flightclaim/internal/models"
	"github.com/dharmasatrya/flightclaim/internal/questionnaire"
	"github.com/dharmasatrya/flightclaim/internal/reconcile"
	"github.com/dharmasatrya/flightclaim/internal/segment"
	"github.com/dharmasatrya/flightclaim/internal/validity"
	"github.com/dharmasatrya/flightclaim/internal/wizard"
)

// SegmentResponse shows one segment in the canonical form and both dialects.
type SegmentResponse struct {
	Segment segment.Segment      `json:"segment"`
	State   segment.State        `json:"state"`
	Legacy  models.LegacySegment `json:"legacy"`
	Phase   models.PhaseSegment  `json:"phase"`
}

func newSegmentResponse(seg segment.Segment) SegmentResponse {
	return SegmentResponse{
		Segment: seg,
		State:   seg.State(),
		Legacy:  reconcile.ToLegacy(seg),
		Phase:   reconcile.ToPhase(seg),
	}
}

func (h *ClaimHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	var req models.CreateClaimRequest
	if err := h.bind(c, &req); err != nil {
		return errorResponse(c, err)
	}

	s, err := h.claims.Create(ctx, req.Type)
	if err != nil {
		return errorResponse(c, err)
	}
	v, err := s.View(ctx, validity.InitialAssessmentPhase, wizard.RenderingContext{})
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusCreated, v)
}

// Get renders the claim for the phase in the query, phase 1 by default.
func (h *ClaimHandler) Get(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return errorResponse(c, err)
	}

	phase, rc, err := viewParams(c)
	if err != nil {
		return errorResponse(c, err)
	}
	v, err := s.View(c.Request().Context(), phase, rc)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

func viewParams(c echo.Context) (int, wizard.RenderingContext, error) {
	phase := validity.InitialAssessmentPhase
	if v := c.QueryParam("phase"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return 0, wizard.RenderingContext{}, models.ErrInvalidPhase
		}
		phase = n
	}

	var rc wizard.RenderingContext
	if v := c.QueryParam("suppress_flight_wizard"); v != "" {
		suppress, err := strconv.ParseBool(v)
		if err != nil {
			return 0, wizard.RenderingContext{}, &requestError{kind: "validation_error", err: err}
		}
		rc.SuppressFlightWizard = suppress
	}
	return phase, rc, nil
}

func (h *ClaimHandler) Delete(c echo.Context) error {
	if err := h.claims.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return errorResponse(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Reset starts the claim over under the same id.
func (h *ClaimHandler) Reset(c echo.Context) error {
	ctx := c.Request().Context()

	var req models.CreateClaimRequest
	if err := h.bind(c, &req); err != nil {
		return errorResponse(c, err)
	}
	s, err := h.session(c)
	if err != nil {
		return errorResponse(c, err)
	}
	if err := s.Reset(ctx, req.Type); err != nil {
		return errorResponse(c, err)
	}
	return h.render(c, s)
}

func (h *ClaimHandler) SetTripType(c echo.Context) error {
	var req models.TripTypeRequest
	if err := h.bind(c, &req); err != nil {
		return errorResponse(c, err)
	}
	s, err := h.session(c)
	if err != nil {
		return errorResponse(c, err)
	}
	if err := s.SetTripType(c.Request().Context(), req.Type); err != nil {
		return errorResponse(c, err)
	}
	return h.render(c, s)
}

func (h *ClaimHandler) render(c echo.Context, s *wizard.Session) error {
	phase, rc, err := viewParams(c)
	if err != nil {
		return errorResponse(c, err)
	}
	v, err := s.View(c.Request().Context(), phase, rc)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

func (h *ClaimHandler) SetDirect(c echo.Context) error {
	var patch models.SegmentPatch
	if err := h.bind(c, &patch); err != nil {
		return errorResponse(c, err)
	}
	s, err := h.session(c)
	if err != nil {
		return errorResponse(c, err)
	}
	seg, err := s.SetDirect(c.Request().Context(), patch)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, newSegmentResponse(seg))
}

func (h *ClaimHandler) SetSegments(c echo.Context) error {
	var req models.SetSegmentsRequest
	if err := h.bind(c, &req); err != nil {
		return errorResponse(c, err)
	}
	s, err := h.session(c)
	if err != nil {
		return errorResponse(c, err)
	}
	segs, err := s.SetSegments(c.Request().Context(), req.Segments)
	if err != nil {
		return errorResponse(c, err)
	}

	out := make([]SegmentResponse, len(segs))
	for i, seg := range segs {
		out[i] = newSegmentResponse(seg)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ClaimHandler) AddSegment(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return errorResponse(c, err)
	}
	seg, err := s.AddSegment(c.Request().Context())
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusCreated, newSegmentResponse(seg))
}

func (h *ClaimHandler) UpdateSegment(c echo.Context) error {
	index, err := segmentIndex(c)
	if err != nil {
		return errorResponse(c, err)
	}
	var patch models.SegmentPatch
	if err := h.bind(c, &patch); err != nil {
		return errorResponse(c, err)
	}
	s, err := h.session(c)
	if err != nil {
		return errorResponse(c, err)
	}
	seg, err := s.UpdateSegment(c.Request().Context(), index, patch)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, newSegmentResponse(seg))
}

// RemoveSegment answers 200 with applied=false when the trip would fall
// below its minimum number of legs.
func (h *ClaimHandler) RemoveSegment(c echo.Context) error {
	index, err := segmentIndex(c)
	if err != nil {
		return errorResponse(c, err)
	}
	s, err := h.session(c)
	if err != nil {
		return errorResponse(c, err)
	}
	applied, err := s.RemoveSegment(c.Request().Context(), index)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, models.RemoveSegmentResponse{Applied: applied})
}

func (h *ClaimHandler) Answer(c echo.Context) error {
	var req models.AnswerRequest
	if err := h.bind(c, &req); err != nil {
		return errorResponse(c, err)
	}
	s, err := h.session(c)
	if err != nil {
		return errorResponse(c, err)
	}
	st, err := s.Answer(c.Request().Context(), c.Param("wizard"), req.QuestionID, req.Value)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, st)
}

// Wizards lists the declared questions of every questionnaire.
func (h *ClaimHandler) Wizards(c echo.Context) error {
	out := make(map[string][]questionnaire.Question)
	for name, w := range questionnaire.Catalog() {
		out[name] = w.Questions
	}
	return c.JSON(http.StatusOK, out)
}
