// Package reconcile converts between the legacy and phase-specific segment
// dialects and the canonical segment both are projected from.
//
// Conversions never fail. Missing or unresolvable data produces a
// placeholder so callers always get a usable shape back.
package reconcile

import (
	"strings"

	"github.com/dharmasatrya/flightclaim/internal/models"
	"github.com/dharmasatrya/flightclaim/internal/normalize"
	"github.com/dharmasatrya/flightclaim/internal/segment"
	"github.com/dharmasatrya/flightclaim/internal/timezone"
)

// ToCustomDialect converts a legacy segment to the phase-specific dialect.
func ToCustomDialect(l models.LegacySegment) models.PhaseSegment {
	return toCustomDialect(l, nil)
}

// toCustomDialect takes cached, the flight previously known for this leg. When
// it carries the same flight number its timestamps win over the legacy
// departureTime/arrivalTime, which may hold a plain travel date.
func toCustomDialect(l models.LegacySegment, cached *models.Flight) models.PhaseSegment {
	out := models.PhaseSegment{
		FromLocation: pickLocation(l.FromLocation, l.Origin),
		ToLocation:   pickLocation(l.ToLocation, l.Destination),
	}

	switch {
	case l.Date.Present:
		// An explicit null means "no date chosen yet" and must not fall back.
		if v, ok := l.Date.Get(); ok {
			out.Date = dateOnly(v)
		}
	case strings.TrimSpace(l.DepartureTime) != "":
		out.Date = dateOnly(l.DepartureTime)
	}

	if l.SelectedFlight != nil {
		f := *l.SelectedFlight
		out.SelectedFlight = &f
	} else {
		out.SelectedFlight = reconstructFlight(l, out.FromLocation, out.ToLocation, cached)
	}
	return out
}

// ToLegacyDialect returns only the legacy fields that differ between p and
// prev. Flights are compared by id.
func ToLegacyDialect(p models.PhaseSegment, prev models.LegacySegment) models.SegmentPatch {
	var patch models.SegmentPatch
	before := ToCustomDialect(prev)

	if !sameLocation(p.FromLocation, before.FromLocation) {
		patch.Origin = models.Some(locationOrPlaceholder(p.FromLocation))
	}
	if !sameLocation(p.ToLocation, before.ToLocation) {
		patch.Destination = models.Some(locationOrPlaceholder(p.ToLocation))
	}
	if !sameString(p.Date, before.Date) {
		patch.DepartureTime = models.Some(deref(p.Date))
	}

	if !models.SameFlight(p.SelectedFlight, before.SelectedFlight) {
		if f := p.SelectedFlight; f != nil {
			patch.SelectedFlight = models.Some(*f)
			patch.FlightNumber = models.Some(f.FlightNumber)
			patch.Airline = models.Some(f.Airline)
			patch.Duration = models.Some(f.Duration)
			patch.Stops = models.Some(f.Stops)
			patch.Price = models.Some(f.Price)
			patch.ArrivalTime = models.Some(f.ArrivalTime)
		} else {
			patch.SelectedFlight = models.Null[models.Flight]()
			patch.FlightNumber = models.Some("")
			patch.Airline = models.Some(models.Airline{})
			patch.Duration = models.Some("")
			patch.Stops = models.Some(0)
			patch.Price = models.Some(models.Price{})
			patch.ArrivalTime = models.Some("")
		}
	}
	return patch
}

// ApplyLegacyPatch writes a patch onto a legacy segment field by field,
// without enforcing store invariants.
func ApplyLegacyPatch(l models.LegacySegment, p models.SegmentPatch) models.LegacySegment {
	if v, ok := firstPresent(p.FromLocation, p.Origin); ok {
		l.Origin = v
	}
	if v, ok := firstPresent(p.ToLocation, p.Destination); ok {
		l.Destination = v
	}
	if p.Date.Present {
		l.Date = p.Date
	}
	if p.DepartureTime.Present {
		l.DepartureTime = deref(p.DepartureTime.Value)
	}
	if p.ArrivalTime.Present {
		l.ArrivalTime = deref(p.ArrivalTime.Value)
	}
	if p.FlightNumber.Present {
		l.FlightNumber = deref(p.FlightNumber.Value)
	}
	if v, ok := p.Airline.Get(); ok {
		l.Airline = v
	} else if p.Airline.Present {
		l.Airline = models.Airline{}
	}
	if p.Duration.Present {
		l.Duration = deref(p.Duration.Value)
	}
	if v, ok := p.Stops.Get(); ok {
		l.Stops = v
	}
	if v, ok := p.Price.Get(); ok {
		l.Price = v
	}
	if p.SelectedFlight.Present {
		if f, ok := p.SelectedFlight.Get(); ok {
			l.SelectedFlight = &f
		} else {
			l.SelectedFlight = nil
		}
	}
	return l
}

// ToPhase projects a canonical segment onto the phase-specific dialect.
func ToPhase(s segment.Segment) models.PhaseSegment {
	s = s.Clone()
	out := models.PhaseSegment{
		FromLocation:   s.Origin,
		ToLocation:     s.Destination,
		SelectedFlight: s.SelectedFlight,
	}
	if s.Date != "" {
		d := s.Date
		out.Date = &d
	}
	return out
}

// ToLegacy projects a canonical segment onto the legacy dialect. The
// departureTime field always carries the travel date.
func ToLegacy(s segment.Segment) models.LegacySegment {
	s = s.Clone()
	out := models.LegacySegment{
		ID:             s.ID,
		Origin:         locationOrPlaceholder(s.Origin),
		Destination:    locationOrPlaceholder(s.Destination),
		DepartureTime:  s.Date,
		SelectedFlight: s.SelectedFlight,
	}
	if f := s.SelectedFlight; f != nil {
		out.ArrivalTime = f.ArrivalTime
		out.FlightNumber = f.FlightNumber
		out.Airline = f.Airline
		out.Duration = f.Duration
		out.Stops = f.Stops
		out.Price = f.Price
	}
	return out
}

// FromPhase builds a canonical segment with the given id.
func FromPhase(p models.PhaseSegment, id string) segment.Segment {
	out := segment.Segment{ID: id}
	if !p.FromLocation.IsPlaceholder() {
		l := *p.FromLocation
		out.Origin = &l
	}
	if !p.ToLocation.IsPlaceholder() {
		l := *p.ToLocation
		out.Destination = &l
	}
	if p.Date != nil {
		out.Date, out.DateInput = segment.CalendarDate(*p.Date, nil)
	}
	if p.SelectedFlight != nil {
		f := *p.SelectedFlight
		out.SelectedFlight = &f
	}
	return out
}

// FromLegacy keeps a zoned date or departureTime as the segment's date input
// so the store can read it in the traveller's zone.
func FromLegacy(l models.LegacySegment) segment.Segment {
	out := FromPhase(ToCustomDialect(l), l.ID)
	if out.Date == "" {
		return out
	}
	raw := l.DepartureTime
	if l.Date.Present {
		raw, _ = l.Date.Get()
	}
	if timezone.IsZoned(raw) {
		out.Date, out.DateInput = segment.CalendarDate(raw, nil)
	}
	return out
}

// PatchFromWire decides which canonical fields a wire patch in either
// dialect writes. Phase-specific keys win over legacy keys when both are
// present. A flight is only reconstructed from legacy flight fields when the
// patch does not carry a selectedFlight key of its own.
func PatchFromWire(w models.SegmentPatch, current segment.Segment) segment.Patch {
	var out segment.Patch

	if w.FromLocation.Present {
		out.Origin = w.FromLocation
	} else if w.Origin.Present {
		out.Origin = w.Origin
	}
	if w.ToLocation.Present {
		out.Destination = w.ToLocation
	} else if w.Destination.Present {
		out.Destination = w.Destination
	}

	switch {
	case w.Date.Present:
		out.Date = w.Date
	case w.DepartureTime.Present:
		if v, ok := w.DepartureTime.Get(); ok && strings.TrimSpace(v) != "" {
			out.Date = models.Some(v)
		} else {
			out.Date = models.Null[string]()
		}
	}

	if w.SelectedFlight.Present {
		out.SelectedFlight = w.SelectedFlight
		return out
	}

	fn, ok := w.FlightNumber.Get()
	fn = strings.ToUpper(strings.TrimSpace(fn))
	if !ok || fn == "" {
		return out
	}
	if current.SelectedFlight != nil && strings.EqualFold(current.SelectedFlight.FlightNumber, fn) {
		return out
	}

	merged := segment.Apply(current, out)
	legacy := ToLegacy(merged)
	legacy.SelectedFlight = nil
	legacy.FlightNumber = fn
	if v, ok := w.DepartureTime.Get(); ok {
		legacy.DepartureTime = v
	}
	if v, ok := w.ArrivalTime.Get(); ok {
		legacy.ArrivalTime = v
	}
	if v, ok := w.Airline.Get(); ok {
		legacy.Airline = v
	}
	if v, ok := w.Duration.Get(); ok {
		legacy.Duration = v
	}
	if v, ok := w.Stops.Get(); ok {
		legacy.Stops = v
	}
	if v, ok := w.Price.Get(); ok {
		legacy.Price = v
	}

	if f := reconstructFlight(legacy, merged.Origin, merged.Destination, current.SelectedFlight); f != nil {
		out.SelectedFlight = models.Some(*f)
	}
	return out
}

func reconstructFlight(l models.LegacySegment, from, to *models.Location, cached *models.Flight) *models.Flight {
	fn := strings.TrimSpace(l.FlightNumber)
	if fn == "" {
		return nil
	}

	dep, arr := l.DepartureTime, l.ArrivalTime
	if cached != nil && strings.EqualFold(cached.FlightNumber, fn) {
		if cached.DepartureTime != "" {
			dep = cached.DepartureTime
		}
		if cached.ArrivalTime != "" {
			arr = cached.ArrivalTime
		}
	}
	if !timezone.HasTimeOfDay(dep) || !timezone.HasTimeOfDay(arr) {
		return nil
	}

	duration := l.Duration
	if duration == "" {
		duration = normalize.FormatDuration(dep, arr)
	}
	return &models.Flight{
		ID:            fn + "-" + dep,
		FlightNumber:  fn,
		Airline:       l.Airline,
		From:          locationOrPlaceholder(from),
		To:            locationOrPlaceholder(to),
		DepartureTime: dep,
		ArrivalTime:   arr,
		Duration:      duration,
		Stops:         l.Stops,
		Price:         l.Price,
		Status:        models.FlightStatusScheduled,
		Type:          models.FlightTypeDirect,
	}
}

func pickLocation(phase models.Opt[models.Location], legacy models.Location) *models.Location {
	if phase.Present {
		if v, ok := phase.Get(); ok && !v.IsPlaceholder() {
			return &v
		}
		return nil
	}
	if legacy.IsPlaceholder() {
		return nil
	}
	return &legacy
}

func firstPresent(opts ...models.Opt[models.Location]) (models.Location, bool) {
	for _, o := range opts {
		if !o.Present {
			continue
		}
		if v, ok := o.Get(); ok {
			return v, true
		}
		return models.PlaceholderLocation(), true
	}
	return models.Location{}, false
}

func locationOrPlaceholder(l *models.Location) models.Location {
	if l == nil {
		return models.PlaceholderLocation()
	}
	return *l
}

func sameLocation(a, b *models.Location) bool {
	if a.IsPlaceholder() || b.IsPlaceholder() {
		return a.IsPlaceholder() && b.IsPlaceholder()
	}
	return *a == *b
}

func sameString(a, b *string) bool {
	return deref(a) == deref(b)
}

func dateOnly(s string) *string {
	d, _ := segment.CalendarDate(s, nil)
	if d == "" {
		return nil
	}
	return &d
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
