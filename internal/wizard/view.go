package wizard

import (
	"context"

	"github.com/dharmasatrya/flightclaim/internal/models"
	"github.com/dharmasatrya/flightclaim/internal/questionnaire"
	"github.com/dharmasatrya/flightclaim/internal/reconcile"
	"github.com/dharmasatrya/flightclaim/internal/search"
	"github.com/dharmasatrya/flightclaim/internal/segment"
	"github.com/dharmasatrya/flightclaim/internal/validity"
)

// RenderingContext carries per-request rendering switches into View.
type RenderingContext struct {
	// SuppressFlightWizard omits the trip section, e.g. on pages that render
	// their own flight summary.
	SuppressFlightWizard bool
}

type SegmentView struct {
	Index           int                  `json:"index"`
	State           segment.State        `json:"state"`
	Canonical       segment.Segment      `json:"canonical"`
	Legacy          models.LegacySegment `json:"legacy"`
	Phase           models.PhaseSegment  `json:"phase"`
	SearchValid     bool                 `json:"searchValid"`
	CompletionValid bool                 `json:"completionValid"`
	Loading         bool                 `json:"loading"`
	Results         []models.Flight      `json:"results"`
	SearchOutcome   search.Outcome       `json:"searchOutcome,omitempty"`
	SearchError     string               `json:"searchError,omitempty"`
}

type TripView struct {
	Type     models.TripType `json:"type"`
	Segments []SegmentView   `json:"segments"`
}

type View struct {
	ClaimID             string                         `json:"claimId"`
	Phase               int                            `json:"phase"`
	TripType            models.TripType                `json:"tripType"`
	TripSearchValid     bool                           `json:"tripSearchValid"`
	TripCompletionValid bool                           `json:"tripCompletionValid"`
	Trip                *TripView                      `json:"trip,omitempty"`
	Wizards             map[string]questionnaire.State `json:"wizards"`
	LastUpdated         uint64                         `json:"lastUpdated"`
}

// View derives the claim view for phase from a fresh snapshot. It runs
// behind every queued command.
func (s *Session) View(ctx context.Context, phase int, rc RenderingContext) (View, error) {
	var v View
	err := s.Do(ctx, "", func() error {
		v = s.view(phase, rc)
		return nil
	})
	return v, err
}

func (s *Session) view(phase int, rc RenderingContext) View {
	snap := s.store.Snapshot()
	v := View{
		ClaimID:             s.id,
		Phase:               phase,
		TripType:            snap.Type,
		TripSearchValid:     validity.IsTripValid(snap, phase, validity.ModeSearch),
		TripCompletionValid: validity.IsTripValid(snap, phase, validity.ModeCompletion),
		Wizards:             make(map[string]questionnaire.State, len(s.wizards)),
		LastUpdated:         snap.LastUpdated,
	}
	for name, w := range s.wizards {
		v.Wizards[name] = w.Evaluate(s.answers[name], snap)
	}
	if rc.SuppressFlightWizard {
		return v
	}

	active := snap.Active()
	trip := &TripView{Type: snap.Type, Segments: make([]SegmentView, 0, len(active))}
	for i, seg := range active {
		sv := SegmentView{
			Index:           i,
			State:           seg.State(),
			Canonical:       seg,
			Legacy:          reconcile.ToLegacy(seg),
			Phase:           reconcile.ToPhase(seg),
			SearchValid:     validity.IsSegmentValid(seg, phase, snap.Type, validity.ModeSearch),
			CompletionValid: validity.IsSegmentValid(seg, phase, snap.Type, validity.ModeCompletion),
			Results:         []models.Flight{},
		}
		if st := s.results[i]; st != nil && st.fingerprint == segment.Fingerprint(seg) {
			sv.Loading = st.loading
			sv.Results = st.flights
			sv.SearchOutcome = st.outcome
			sv.SearchError = st.err
		}
		trip.Segments = append(trip.Segments, sv)
	}
	v.Trip = trip
	return v
}
