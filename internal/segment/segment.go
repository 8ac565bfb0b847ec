package segment

import (
	"strings"
	"time"

	"github.com/dharmasatrya/flightclaim/internal/models"
	"github.com/dharmasatrya/flightclaim/internal/timezone"
)

// State is how far a segment has progressed. Any earlier field stays
// editable, so a segment can move backwards.
type State string

const (
	StateEmpty          State = "EMPTY"
	StateLocationsSet   State = "LOCATIONS_SET"
	StateDateSet        State = "DATE_SET"
	StateFlightSelected State = "FLIGHT_SELECTED"
)

// Segment is the canonical leg. Both wire dialects are projections of it.
// Date is always a calendar date; flight timing is only read from SelectedFlight.
// DateInput holds the zoned timestamp Date was read from, if any, so the date
// can be read again in the traveller's zone.
type Segment struct {
	ID             string           `json:"id"`
	Origin         *models.Location `json:"origin"`
	Destination    *models.Location `json:"destination"`
	Date           string           `json:"date"`
	DateInput      string           `json:"dateInput,omitempty"`
	SelectedFlight *models.Flight   `json:"selectedFlight"`
}

func (s Segment) OriginCode() string {
	if s.Origin.IsPlaceholder() {
		return ""
	}
	return s.Origin.Code()
}

func (s Segment) DestinationCode() string {
	if s.Destination.IsPlaceholder() {
		return ""
	}
	return s.Destination.Code()
}

// FlightNumber is the selected flight's number, "" when none is selected.
func (s Segment) FlightNumber() string {
	if s.SelectedFlight == nil {
		return ""
	}
	return s.SelectedFlight.FlightNumber
}

func (s Segment) State() State {
	switch {
	case s.SelectedFlight != nil:
		return StateFlightSelected
	case s.Date != "" && s.OriginCode() != "" && s.DestinationCode() != "":
		return StateDateSet
	case s.OriginCode() != "" && s.DestinationCode() != "":
		return StateLocationsSet
	default:
		return StateEmpty
	}
}

// HasData reports whether the user has entered anything on this segment.
func (s Segment) HasData() bool {
	return s.OriginCode() != "" || s.DestinationCode() != "" || s.Date != "" || s.SelectedFlight != nil
}

// Clone returns a deep copy so callers never share pointers with the store.
func (s Segment) Clone() Segment {
	out := s
	if s.Origin != nil {
		o := *s.Origin
		out.Origin = &o
	}
	if s.Destination != nil {
		d := *s.Destination
		out.Destination = &d
	}
	if s.SelectedFlight != nil {
		f := *s.SelectedFlight
		out.SelectedFlight = &f
	}
	return out
}

// Localize reads a zoned date input again as a calendar date in loc.
func (s Segment) Localize(loc *time.Location) Segment {
	if s.DateInput == "" {
		return s
	}
	s.Date, s.DateInput = CalendarDate(s.DateInput, loc)
	return s
}

// CalendarDate reads the travel date of v. A zoned timestamp becomes the
// calendar date in loc (UTC when nil) and is returned as input as well. Any
// other value keeps the date written in it.
func CalendarDate(v string, loc *time.Location) (date, input string) {
	v = strings.TrimSpace(v)
	if timezone.IsZoned(v) {
		if loc == nil {
			loc = time.UTC
		}
		if d, err := timezone.NormalizeDate(v, loc); err == nil {
			return d, v
		}
	}
	return timezone.DatePortion(v), ""
}

// Patch is a presence-aware partial update of a canonical segment.
type Patch struct {
	Origin         models.Opt[models.Location]
	Destination    models.Opt[models.Location]
	Date           models.Opt[string]
	SelectedFlight models.Opt[models.Flight]
}

func (p Patch) IsEmpty() bool {
	return !p.Origin.Present && !p.Destination.Present && !p.Date.Present && !p.SelectedFlight.Present
}

// Apply merges p into s, reading zoned dates in UTC.
func Apply(s Segment, p Patch) Segment {
	return ApplyIn(s, p, time.UTC)
}

// ApplyIn merges p into s. Zoned date input is read in loc.
//
// A location write drops an existing flight whose endpoint no longer matches
// the new code, unless the same patch sets the flight explicitly. A date
// write never touches the flight, and a flight write never touches the date.
func ApplyIn(s Segment, p Patch, loc *time.Location) Segment {
	s = s.Clone()

	if p.Origin.Present {
		s.Origin = locationOrNil(p.Origin)
	}
	if p.Destination.Present {
		s.Destination = locationOrNil(p.Destination)
	}
	if p.Date.Present {
		if v, ok := p.Date.Get(); ok {
			s.Date, s.DateInput = CalendarDate(v, loc)
		} else {
			s.Date, s.DateInput = "", ""
		}
	}

	if p.SelectedFlight.Present {
		if f, ok := p.SelectedFlight.Get(); ok {
			s.SelectedFlight = &f
		} else {
			s.SelectedFlight = nil
		}
		return s
	}

	if s.SelectedFlight != nil {
		if p.Origin.Present && !sameCode(s.Origin, &s.SelectedFlight.From) {
			s.SelectedFlight = nil
		} else if p.Destination.Present && !sameCode(s.Destination, &s.SelectedFlight.To) {
			s.SelectedFlight = nil
		}
	}
	return s
}

func locationOrNil(o models.Opt[models.Location]) *models.Location {
	loc, ok := o.Get()
	if !ok || loc.IsPlaceholder() {
		return nil
	}
	if loc.ID == "" {
		loc.ID = loc.IATACode
	}
	if loc.Kind == "" {
		loc.Kind = models.LocationKindAirport
	}
	return &loc
}

func sameCode(a, b *models.Location) bool {
	if a.IsPlaceholder() || b.IsPlaceholder() {
		return false
	}
	return strings.EqualFold(a.Code(), b.Code())
}
