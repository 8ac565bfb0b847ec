package segment

import (
	"time"

	"github.com/google/uuid"

	"github.com/dharmasatrya/flightclaim/internal/models"
)

const (
	MinMultiSegments = 2
	// MaxSegments bounds the number of multi-city legs.
	MaxSegments = 10
)

// Store is the authoritative model of the user's flight segments for both
// trip types. It is not safe for concurrent use; a claim session applies all
// mutations from a single goroutine.
type Store struct {
	selectedType models.TripType
	direct       Segment
	multi        []Segment
	lastUpdated  uint64
	newID        func() string
	loc          *time.Location
}

type Option func(*Store)

// WithIDGenerator replaces the uuid generator used for new segment ids.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) {
		s.newID = fn
	}
}

// WithLocation sets the zone zoned date input is read in. The default is UTC.
func WithLocation(loc *time.Location) Option {
	return func(s *Store) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func NewStore(tripType models.TripType, opts ...Option) *Store {
	s := &Store{
		selectedType: models.TripTypeDirect,
		newID:        uuid.NewString,
		loc:          time.UTC,
	}
	for _, opt := range opts {
		opt(s)
	}
	if tripType.Valid() {
		s.selectedType = tripType
	}
	s.direct = s.emptySegment(nil)
	s.multi = []Segment{s.emptySegment(nil), s.emptySegment(nil)}
	return s
}

// Restore rebuilds a store from a snapshot, e.g. after a reload.
func Restore(snap Snapshot, opts ...Option) *Store {
	s := NewStore(snap.Type, opts...)
	s.direct = snap.Direct.Clone()
	if s.direct.ID == "" {
		s.direct.ID = s.newID()
	}
	s.multi = make([]Segment, 0, len(snap.Segments))
	for _, seg := range snap.Segments {
		seg = seg.Clone()
		if seg.ID == "" {
			seg.ID = s.newID()
		}
		s.multi = append(s.multi, seg)
	}
	if s.selectedType == models.TripTypeMulti {
		s.ensureMinimum()
	}
	s.lastUpdated = snap.LastUpdated
	return s
}

func (s *Store) SelectedType() models.TripType {
	return s.selectedType
}

func (s *Store) LastUpdated() uint64 {
	return s.lastUpdated
}

func (s *Store) Direct() Segment {
	return s.direct.Clone()
}

func (s *Store) Segments() []Segment {
	out := make([]Segment, len(s.multi))
	for i, seg := range s.multi {
		out[i] = seg.Clone()
	}
	return out
}

// Segment returns the active segment at index for the selected trip type.
func (s *Store) Segment(index int) (Segment, bool) {
	if s.selectedType == models.TripTypeDirect {
		if index != 0 {
			return Segment{}, false
		}
		return s.direct.Clone(), true
	}
	if index < 0 || index >= len(s.multi) {
		return Segment{}, false
	}
	return s.multi[index].Clone(), true
}

// SetDirectFlight merges p into the direct segment and mirrors the result
// into the first multi-city segment so a trip-type switch loses nothing.
func (s *Store) SetDirectFlight(p Patch) Segment {
	s.direct = ApplyIn(s.direct, p, s.loc)
	s.mirrorDirect()
	s.touch()
	return s.direct.Clone()
}

// LocalizeDate reads the zoned date input of the active segment at index
// again in loc. It reports whether the calendar date changed.
func (s *Store) LocalizeDate(index int, loc *time.Location) (Segment, bool) {
	seg, ok := s.Segment(index)
	if !ok || seg.DateInput == "" {
		return seg, false
	}
	next := seg.Localize(loc)
	if next.Date == seg.Date {
		return seg, false
	}
	if s.selectedType == models.TripTypeDirect {
		s.direct = next
		s.mirrorDirect()
	} else {
		s.multi[index] = next
	}
	s.touch()
	return next.Clone(), true
}

func (s *Store) mirrorDirect() {
	mirror := s.direct.Clone()
	if len(s.multi) == 0 {
		mirror.ID = s.newID()
		s.multi = append(s.multi, mirror)
	} else {
		mirror.ID = s.multi[0].ID
		s.multi[0] = mirror
	}
}

// SetFlightSegments replaces the multi-city array. For a multi trip, empty
// segments are appended until the two-leg minimum holds. More than
// MaxSegments legs are refused and leave the store untouched.
func (s *Store) SetFlightSegments(segments []Segment) ([]Segment, error) {
	if len(segments) > MaxSegments {
		return nil, models.ErrTooManySegments
	}
	next := make([]Segment, 0, len(segments))
	for _, seg := range segments {
		seg = seg.Clone().Localize(s.loc)
		if seg.ID == "" {
			seg.ID = s.newID()
		}
		if seg.Origin.IsPlaceholder() {
			seg.Origin = nil
		}
		if seg.Destination.IsPlaceholder() {
			seg.Destination = nil
		}
		next = append(next, seg)
	}
	s.multi = next
	if s.selectedType == models.TripTypeMulti {
		s.ensureMinimum()
	}
	s.touch()
	return s.Segments(), nil
}

// UpdateSegment patches one multi-city segment, growing the array when index
// is beyond its end. Indexes at or past MaxSegments are refused. Only a
// present SelectedFlight key replaces the flight.
func (s *Store) UpdateSegment(index int, p Patch) (Segment, error) {
	if index < 0 || index >= MaxSegments {
		return Segment{}, models.ErrSegmentIndex
	}
	for len(s.multi) <= index {
		s.multi = append(s.multi, s.emptySegment(nil))
	}
	s.multi[index] = ApplyIn(s.multi[index], p, s.loc)
	s.touch()
	return s.multi[index].Clone(), nil
}

// AddSegment appends an empty leg starting where the previous one ends.
func (s *Store) AddSegment() (Segment, error) {
	if len(s.multi) >= MaxSegments {
		return Segment{}, models.ErrTooManySegments
	}
	var prev *Segment
	if n := len(s.multi); n > 0 {
		prev = &s.multi[n-1]
	}
	seg := s.emptySegment(prev)
	s.multi = append(s.multi, seg)
	s.touch()
	return seg.Clone(), nil
}

// RemoveSegment deletes the leg at index. It refuses, leaving the store
// untouched, when that would drop below two legs or index is out of range.
func (s *Store) RemoveSegment(index int) bool {
	if len(s.multi) <= MinMultiSegments || index < 0 || index >= len(s.multi) {
		return false
	}
	s.multi = append(s.multi[:index:index], s.multi[index+1:]...)
	s.touch()
	return true
}

// SetSelectedType switches trip type. Data is carried across only into a
// side that holds nothing yet.
func (s *Store) SetSelectedType(t models.TripType) error {
	if !t.Valid() {
		return models.ErrInvalidTripType
	}
	if t == s.selectedType {
		return nil
	}

	switch t {
	case models.TripTypeDirect:
		if !s.direct.HasData() && len(s.multi) > 0 && s.multi[0].HasData() {
			id := s.direct.ID
			s.direct = s.multi[0].Clone()
			s.direct.ID = id
		}
	case models.TripTypeMulti:
		if !s.anyMultiData() && s.direct.HasData() {
			first := s.direct.Clone()
			if len(s.multi) == 0 {
				first.ID = s.newID()
				s.multi = []Segment{first}
			} else {
				first.ID = s.multi[0].ID
				s.multi[0] = first
			}
		}
	}

	s.selectedType = t
	if t == models.TripTypeMulti {
		s.ensureMinimum()
	}
	s.touch()
	return nil
}

// Reset returns the store to a fresh state for a new claim. The counter keeps
// increasing so stale snapshots are still detected.
func (s *Store) Reset(t models.TripType) {
	if !t.Valid() {
		t = models.TripTypeDirect
	}
	s.selectedType = t
	s.direct = s.emptySegment(nil)
	s.multi = []Segment{s.emptySegment(nil), s.emptySegment(nil)}
	s.touch()
}

func (s *Store) Snapshot() Snapshot {
	return Snapshot{
		Type:        s.selectedType,
		Direct:      s.direct.Clone(),
		Segments:    s.Segments(),
		LastUpdated: s.lastUpdated,
	}
}

func (s *Store) anyMultiData() bool {
	for _, seg := range s.multi {
		if seg.HasData() {
			return true
		}
	}
	return false
}

func (s *Store) ensureMinimum() {
	for len(s.multi) < MinMultiSegments {
		var prev *Segment
		if n := len(s.multi); n > 0 {
			prev = &s.multi[n-1]
		}
		s.multi = append(s.multi, s.emptySegment(prev))
	}
}

func (s *Store) emptySegment(prev *Segment) Segment {
	seg := Segment{ID: s.newID()}
	if prev != nil && prev.Destination != nil {
		d := *prev.Destination
		seg.Origin = &d
	}
	return seg
}

func (s *Store) touch() {
	s.lastUpdated++
}
