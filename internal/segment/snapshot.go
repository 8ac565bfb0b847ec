package segment

import (
	"strings"

	"github.com/dharmasatrya/flightclaim/internal/models"
)

// Snapshot is an immutable copy of the store. Derived state (validity,
// visible questions) is always computed from a fresh snapshot.
type Snapshot struct {
	Type        models.TripType `json:"type"`
	Direct      Segment         `json:"direct"`
	Segments    []Segment       `json:"segments"`
	LastUpdated uint64          `json:"lastUpdated"`
}

// Active returns the segments that matter for the selected trip type.
func (s Snapshot) Active() []Segment {
	if s.Type == models.TripTypeMulti {
		return s.Segments
	}
	return []Segment{s.Direct}
}

func (s Snapshot) At(index int) (Segment, bool) {
	active := s.Active()
	if index < 0 || index >= len(active) {
		return Segment{}, false
	}
	return active[index], true
}

func (s Snapshot) SegmentCount() int {
	return len(s.Active())
}

func (s Snapshot) HasSelectedFlight(index int) bool {
	seg, ok := s.At(index)
	return ok && seg.SelectedFlight != nil
}

// Fingerprint identifies the search-relevant content of a segment: a search
// issued against one fingerprint is stale once the fingerprint changes.
func (s Snapshot) Fingerprint(index int) (string, bool) {
	seg, ok := s.At(index)
	if !ok {
		return "", false
	}
	return Fingerprint(seg), true
}

func Fingerprint(seg Segment) string {
	return strings.Join([]string{seg.ID, seg.OriginCode(), seg.DestinationCode(), seg.Date}, "|")
}
