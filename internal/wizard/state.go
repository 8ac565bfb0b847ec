package wizard

import (
	"encoding/json"

	"github.com/dharmasatrya/flightclaim/internal/logging"
	"github.com/dharmasatrya/flightclaim/internal/models"
	"github.com/dharmasatrya/flightclaim/internal/questionnaire"
	"github.com/dharmasatrya/flightclaim/internal/reconcile"
	"github.com/dharmasatrya/flightclaim/internal/segment"
	"github.com/dharmasatrya/flightclaim/internal/validity"
)

const stateVersion = 1

func stateKey(id string) string {
	return "claim:" + id
}

// PersistedState is the part of a session that survives a reload. Search
// results and loading flags are left out and recomputed.
type PersistedState struct {
	Version        int                        `json:"version"`
	ClaimID        string                     `json:"claimId"`
	Trip           segment.Snapshot           `json:"trip"`
	FlightSegments []models.LegacySegment     `json:"flightSegments"`
	Wizards        map[string]PersistedWizard `json:"wizards"`
	TripValid      bool                       `json:"tripValid"`
}

type PersistedWizard struct {
	Answers     questionnaire.Answers `json:"answers"`
	IsValid     bool                  `json:"isValid"`
	IsComplete  bool                  `json:"isComplete"`
	CurrentStep int                   `json:"currentStep"`
}

// persistedState runs on the session goroutine.
func (s *Session) persistedState() PersistedState {
	snap := s.store.Snapshot()
	st := PersistedState{
		Version:   stateVersion,
		ClaimID:   s.id,
		Trip:      snap,
		Wizards:   make(map[string]PersistedWizard, len(s.wizards)),
		TripValid: validity.IsTripValid(snap, validity.InitialAssessmentPhase, validity.ModeSearch),
	}
	for _, seg := range snap.Segments {
		st.FlightSegments = append(st.FlightSegments, reconcile.ToLegacy(seg))
	}
	for name, w := range s.wizards {
		answers := s.answers[name]
		ev := w.Evaluate(answers, snap)
		st.Wizards[name] = PersistedWizard{
			Answers:     answers.Minimal(),
			IsValid:     ev.IsValid,
			IsComplete:  ev.IsComplete,
			CurrentStep: ev.CurrentStep,
		}
	}
	return st
}

func encodeState(st PersistedState) ([]byte, error) {
	return json.Marshal(st)
}

func decodeState(data []byte) (PersistedState, error) {
	var st PersistedState
	err := json.Unmarshal(data, &st)
	return st, err
}

// rehydrate turns a persisted record back into live session state. Records
// that only carry the legacy segment list are converted through the
// reconciliation layer. Answers are validated again against the catalog.
func rehydrate(st PersistedState, opts ...segment.Option) (*segment.Store, map[string]questionnaire.Answers) {
	snap := st.Trip
	if len(snap.Segments) == 0 && len(st.FlightSegments) > 0 {
		for _, l := range st.FlightSegments {
			snap.Segments = append(snap.Segments, reconcile.FromLegacy(l))
		}
	}
	if !snap.Type.Valid() {
		snap.Type = models.TripTypeDirect
	}
	store := segment.Restore(snap, opts...)

	catalog := questionnaire.Catalog()
	answers := make(map[string]questionnaire.Answers, len(st.Wizards))
	for name, pw := range st.Wizards {
		w, ok := catalog[name]
		if !ok {
			logging.Debug("dropping answers of unknown wizard", "wizard", name, "claim_id", st.ClaimID)
			continue
		}
		var restored questionnaire.Answers
		for _, a := range pw.Answers {
			q, ok := w.Question(a.QuestionID)
			if !ok {
				logging.Debug("dropping answer to unknown question", "question", a.QuestionID, "claim_id", st.ClaimID)
				continue
			}
			restored = restored.Upsert(questionnaire.NewAnswer(q, a.Value, a.Timestamp))
		}
		answers[name] = restored
	}
	return store, answers
}
