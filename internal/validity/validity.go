package validity

import (
	"strings"

	"github.com/dharmasatrya/flightclaim/internal/models"
	"github.com/dharmasatrya/flightclaim/internal/segment"
	"github.com/dharmasatrya/flightclaim/internal/timezone"
)

// InitialAssessmentPhase only needs a rough itinerary.
const InitialAssessmentPhase = 1

// Mode selects which gate a later phase is checked against.
type Mode string

const (
	ModeSearch     Mode = "search"
	ModeCompletion Mode = "completion"
)

func (m Mode) Valid() bool {
	return m == ModeSearch || m == ModeCompletion
}

// IsSegmentValid reports whether seg satisfies the gate for phase.
//
// Phase 1 needs both location codes. Later phases in search mode also need a
// non-blank date. Completion mode additionally needs a well-formed date and a
// selected flight carrying a flight number.
func IsSegmentValid(seg segment.Segment, phase int, tripType models.TripType, mode Mode) bool {
	if !tripType.Valid() {
		return false
	}
	if seg.OriginCode() == "" || seg.DestinationCode() == "" {
		return false
	}
	if phase <= InitialAssessmentPhase {
		return true
	}

	if mode == ModeSearch {
		return strings.TrimSpace(seg.Date) != ""
	}
	return timezone.IsValidDateFormat(seg.Date) && seg.FlightNumber() != ""
}

// IsTripValid checks every active segment. Multi-city trips need at least
// two of them.
func IsTripValid(snap segment.Snapshot, phase int, mode Mode) bool {
	active := snap.Active()
	if snap.Type == models.TripTypeMulti && len(active) < segment.MinMultiSegments {
		return false
	}
	if len(active) == 0 {
		return false
	}
	for _, seg := range active {
		if !IsSegmentValid(seg, phase, snap.Type, mode) {
			return false
		}
	}
	return true
}

// InvalidSegments returns the indexes of active segments failing the gate.
func InvalidSegments(snap segment.Snapshot, phase int, mode Mode) []int {
	var out []int
	for i, seg := range snap.Active() {
		if !IsSegmentValid(seg, phase, snap.Type, mode) {
			out = append(out, i)
		}
	}
	return out
}
