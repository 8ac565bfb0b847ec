package segment

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharmasatrya/flightclaim/internal/models"
)

func loc(code string) models.Location {
	return models.Location{ID: code, IATACode: code, Name: code, Kind: models.LocationKindAirport}
}

func flight(id, from, to string) models.Flight {
	return models.Flight{
		ID:            id,
		FlightNumber:  "BA178",
		From:          loc(from),
		To:            loc(to),
		DepartureTime: "2025-06-01T18:00:00Z",
		ArrivalTime:   "2025-06-02T06:00:00Z",
		Type:          models.FlightTypeDirect,
	}
}

func sequentialIDs() Option {
	n := 0
	return WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("seg-%d", n)
	})
}

func filledPatch() Patch {
	return Patch{
		Origin:         models.Some(loc("JFK")),
		Destination:    models.Some(loc("LHR")),
		Date:           models.Some("2025-06-01"),
		SelectedFlight: models.Some(flight("BA178-1", "JFK", "LHR")),
	}
}

func TestLocationChangeClearsIncoherentFlight(t *testing.T) {
	s := NewStore(models.TripTypeDirect, sequentialIDs())
	s.SetDirectFlight(filledPatch())

	seg := s.SetDirectFlight(Patch{Destination: models.Some(loc("CDG"))})
	assert.Nil(t, seg.SelectedFlight)
	assert.Equal(t, "2025-06-01", seg.Date, "date survives a route change")

	s.SetDirectFlight(filledPatch())
	seg = s.SetDirectFlight(Patch{Origin: models.Some(loc("EWR"))})
	assert.Nil(t, seg.SelectedFlight)
}

func TestSameCodeLocationKeepsFlight(t *testing.T) {
	s := NewStore(models.TripTypeDirect, sequentialIDs())
	s.SetDirectFlight(filledPatch())

	renamed := loc("LHR")
	renamed.Name = "London Heathrow"
	seg := s.SetDirectFlight(Patch{Destination: models.Some(renamed), Origin: models.Some(loc("jfk"))})
	require.NotNil(t, seg.SelectedFlight)
	assert.Equal(t, "BA178-1", seg.SelectedFlight.ID)
	assert.Equal(t, "London Heathrow", seg.Destination.Name)
}

func TestClearingLocationClearsFlight(t *testing.T) {
	s := NewStore(models.TripTypeMulti, sequentialIDs())
	_, err := s.UpdateSegment(0, filledPatch())
	require.NoError(t, err)

	seg, err := s.UpdateSegment(0, Patch{Origin: models.Null[models.Location]()})
	require.NoError(t, err)
	assert.Nil(t, seg.Origin)
	assert.Nil(t, seg.SelectedFlight)
}

func TestUpdateSegmentPresenceVersusAbsence(t *testing.T) {
	s := NewStore(models.TripTypeMulti, sequentialIDs())
	_, err := s.UpdateSegment(1, filledPatch())
	require.NoError(t, err)

	seg, err := s.UpdateSegment(1, Patch{})
	require.NoError(t, err)
	require.NotNil(t, seg.SelectedFlight, "empty patch never touches the flight")

	seg, err = s.UpdateSegment(1, Patch{Date: models.Some("2025-06-03")})
	require.NoError(t, err)
	require.NotNil(t, seg.SelectedFlight, "date write never touches the flight")
	assert.Equal(t, "2025-06-01T18:00:00Z", seg.SelectedFlight.DepartureTime)
	assert.Equal(t, "2025-06-03", seg.Date)

	seg, err = s.UpdateSegment(1, Patch{SelectedFlight: models.Null[models.Flight]()})
	require.NoError(t, err)
	assert.Nil(t, seg.SelectedFlight, "explicit null clears")
}

func TestFlightSelectionKeepsTravelDate(t *testing.T) {
	s := NewStore(models.TripTypeDirect, sequentialIDs())
	s.SetDirectFlight(Patch{
		Origin:      models.Some(loc("JFK")),
		Destination: models.Some(loc("LHR")),
		Date:        models.Some("2025-06-01"),
	})
	seg := s.SetDirectFlight(Patch{SelectedFlight: models.Some(flight("BA178-1", "JFK", "LHR"))})
	assert.Equal(t, "2025-06-01", seg.Date)
	assert.Equal(t, StateFlightSelected, seg.State())
}

func TestDateWritesAreCalendarDates(t *testing.T) {
	s := NewStore(models.TripTypeDirect, sequentialIDs())
	seg := s.SetDirectFlight(Patch{Date: models.Some("2025-06-01T23:30:00-08:00")})
	assert.Equal(t, "2025-06-02", seg.Date, "zoned input is read in UTC by default")
	assert.Equal(t, "2025-06-01T23:30:00-08:00", seg.DateInput)

	seg = s.SetDirectFlight(Patch{Date: models.Some("2025-06-03 09:00:00")})
	assert.Equal(t, "2025-06-03", seg.Date)
	assert.Empty(t, seg.DateInput, "wall-clock input needs no zone")

	seg = s.SetDirectFlight(Patch{Date: models.Null[string]()})
	assert.Equal(t, "", seg.Date)
	assert.Empty(t, seg.DateInput)
}

func TestZonedDateIsReadInStoreLocation(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	s := NewStore(models.TripTypeMulti, sequentialIDs(), WithLocation(berlin))
	seg, err := s.UpdateSegment(0, Patch{Date: models.Some("2025-01-04T23:00:00.000Z")})
	require.NoError(t, err)
	assert.Equal(t, "2025-01-05", seg.Date)

	out, err := s.SetFlightSegments([]Segment{{Date: "2025-01-04", DateInput: "2025-01-04T23:00:00Z"}})
	require.NoError(t, err)
	assert.Equal(t, "2025-01-05", out[0].Date)
}

func TestLocalizeDate(t *testing.T) {
	s := NewStore(models.TripTypeDirect, sequentialIDs())
	s.SetDirectFlight(Patch{Date: models.Some("2025-01-04T23:00:00.000Z")})
	require.Equal(t, "2025-01-04", s.Direct().Date)
	before := s.LastUpdated()

	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	seg, changed := s.LocalizeDate(0, berlin)
	require.True(t, changed)
	assert.Equal(t, "2025-01-05", seg.Date)
	assert.Equal(t, "2025-01-05", s.Segments()[0].Date, "mirrored into the first leg")
	assert.Greater(t, s.LastUpdated(), before)

	_, changed = s.LocalizeDate(0, berlin)
	assert.False(t, changed)

	s.SetDirectFlight(Patch{Date: models.Some("2025-02-01")})
	_, changed = s.LocalizeDate(0, time.UTC)
	assert.False(t, changed, "plain dates have no zone to read")
}

func TestUpdateSegmentGrowsArray(t *testing.T) {
	s := NewStore(models.TripTypeMulti, sequentialIDs())
	seg, err := s.UpdateSegment(4, Patch{Origin: models.Some(loc("FRA"))})
	require.NoError(t, err)
	assert.Equal(t, "FRA", seg.OriginCode())
	assert.Len(t, s.Segments(), 5)

	_, err = s.UpdateSegment(-1, Patch{})
	assert.ErrorIs(t, err, models.ErrSegmentIndex)
}

func TestSegmentCountIsBounded(t *testing.T) {
	s := NewStore(models.TripTypeMulti, sequentialIDs())
	_, err := s.UpdateSegment(100000000, Patch{Origin: models.Some(loc("FRA"))})
	assert.ErrorIs(t, err, models.ErrSegmentIndex)
	_, err = s.UpdateSegment(MaxSegments, Patch{})
	assert.ErrorIs(t, err, models.ErrSegmentIndex)
	assert.Len(t, s.Segments(), 2, "refused index leaves the array alone")

	_, err = s.UpdateSegment(MaxSegments-1, Patch{})
	require.NoError(t, err)
	assert.Len(t, s.Segments(), MaxSegments)

	_, err = s.AddSegment()
	assert.ErrorIs(t, err, models.ErrTooManySegments)

	_, err = s.SetFlightSegments(make([]Segment, MaxSegments+1))
	assert.ErrorIs(t, err, models.ErrTooManySegments)
	assert.Len(t, s.Segments(), MaxSegments)
}

func TestSetDirectFlightMirrorsIntoFirstMultiSegment(t *testing.T) {
	s := NewStore(models.TripTypeDirect, sequentialIDs())
	multiID := s.Segments()[0].ID

	s.SetDirectFlight(filledPatch())
	first := s.Segments()[0]
	assert.Equal(t, multiID, first.ID)
	assert.Equal(t, "JFK", first.OriginCode())
	require.NotNil(t, first.SelectedFlight)
	assert.Equal(t, "BA178-1", first.SelectedFlight.ID)
}

func TestSetFlightSegmentsEnforcesMinimumForMulti(t *testing.T) {
	s := NewStore(models.TripTypeMulti, sequentialIDs())
	out, err := s.SetFlightSegments([]Segment{{Origin: ptr(loc("JFK")), Destination: ptr(loc("LHR"))}})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.NotEmpty(t, out[0].ID)
	assert.Equal(t, "LHR", out[1].OriginCode(), "appended leg chains from the last destination")

	out, _ = s.SetFlightSegments(nil)
	assert.Len(t, out, 2)

	d := NewStore(models.TripTypeDirect, sequentialIDs())
	out, _ = d.SetFlightSegments(nil)
	assert.Len(t, out, 0, "direct trips do not force two legs")
}

func TestAddSegmentChainsOrigin(t *testing.T) {
	s := NewStore(models.TripTypeMulti, sequentialIDs())
	_, err := s.UpdateSegment(1, Patch{Origin: models.Some(loc("LHR")), Destination: models.Some(loc("CDG"))})
	require.NoError(t, err)

	seg, err := s.AddSegment()
	require.NoError(t, err)
	assert.Equal(t, "CDG", seg.OriginCode())
	assert.Equal(t, "", seg.DestinationCode())
	assert.Len(t, s.Segments(), 3)
}

func TestRemoveSegmentKeepsTwoLegMinimum(t *testing.T) {
	s := NewStore(models.TripTypeMulti, sequentialIDs())
	before := s.LastUpdated()
	assert.False(t, s.RemoveSegment(0))
	assert.Len(t, s.Segments(), 2)
	assert.Equal(t, before, s.LastUpdated(), "rejected removal is a no-op")

	s.AddSegment()
	ids := []string{s.Segments()[0].ID, s.Segments()[1].ID, s.Segments()[2].ID}
	assert.False(t, s.RemoveSegment(3))
	assert.False(t, s.RemoveSegment(-1))
	require.True(t, s.RemoveSegment(1))

	segs := s.Segments()
	require.Len(t, segs, 2)
	assert.Equal(t, ids[0], segs[0].ID)
	assert.Equal(t, ids[2], segs[1].ID)
}

func TestSetSelectedTypeIsNonDestructive(t *testing.T) {
	s := NewStore(models.TripTypeMulti, sequentialIDs())
	_, err := s.UpdateSegment(0, Patch{Origin: models.Some(loc("JFK")), Destination: models.Some(loc("LHR"))})
	require.NoError(t, err)

	require.NoError(t, s.SetSelectedType(models.TripTypeDirect))
	assert.Equal(t, "JFK", s.Direct().OriginCode(), "empty direct segment pulls multi[0]")

	s.SetDirectFlight(Patch{Origin: models.Some(loc("BOS"))})

	require.NoError(t, s.SetSelectedType(models.TripTypeMulti))
	_, err = s.UpdateSegment(0, Patch{Origin: models.Some(loc("SFO"))})
	require.NoError(t, err)
	require.NoError(t, s.SetSelectedType(models.TripTypeDirect))
	assert.Equal(t, "BOS", s.Direct().OriginCode(), "filled direct segment is never clobbered")

	assert.ErrorIs(t, s.SetSelectedType("round"), models.ErrInvalidTripType)
}

func TestSwitchToMultiCopiesDirectIntoEmptyLegs(t *testing.T) {
	s := NewStore(models.TripTypeDirect, sequentialIDs())
	s.SetFlightSegments(nil)
	s.SetDirectFlight(Patch{Origin: models.Some(loc("JFK")), Destination: models.Some(loc("LHR"))})
	s.SetFlightSegments(nil)

	require.NoError(t, s.SetSelectedType(models.TripTypeMulti))
	segs := s.Segments()
	require.Len(t, segs, 2)
	assert.Equal(t, "JFK", segs[0].OriginCode())
	assert.Equal(t, "LHR", segs[1].OriginCode())
}

func TestLastUpdatedIsMonotonic(t *testing.T) {
	s := NewStore(models.TripTypeMulti, sequentialIDs())
	prev := s.LastUpdated()
	steps := []func(){
		func() { s.SetDirectFlight(Patch{}) },
		func() { s.SetFlightSegments(s.Segments()) },
		func() { _, _ = s.UpdateSegment(0, Patch{}) },
		func() { s.AddSegment() },
		func() { s.RemoveSegment(2) },
		func() { _ = s.SetSelectedType(models.TripTypeDirect) },
		func() { s.Reset(models.TripTypeDirect) },
	}
	for i, step := range steps {
		step()
		assert.Greater(t, s.LastUpdated(), prev, "step %d", i)
		prev = s.LastUpdated()
	}
}

func TestRestoreFromSnapshot(t *testing.T) {
	s := NewStore(models.TripTypeMulti, sequentialIDs())
	_, err := s.UpdateSegment(0, filledPatch())
	require.NoError(t, err)

	r := Restore(s.Snapshot())
	assert.Equal(t, s.Snapshot(), r.Snapshot())
}

func TestSnapshotFingerprint(t *testing.T) {
	s := NewStore(models.TripTypeDirect, sequentialIDs())
	s.SetDirectFlight(Patch{Origin: models.Some(loc("JFK")), Destination: models.Some(loc("LHR")), Date: models.Some("2025-06-01")})
	before, ok := s.Snapshot().Fingerprint(0)
	require.True(t, ok)

	s.SetDirectFlight(Patch{SelectedFlight: models.Some(flight("x", "JFK", "LHR"))})
	after, _ := s.Snapshot().Fingerprint(0)
	assert.Equal(t, before, after, "flight choice does not invalidate a search")

	s.SetDirectFlight(Patch{Date: models.Some("2025-06-02")})
	changed, _ := s.Snapshot().Fingerprint(0)
	assert.NotEqual(t, before, changed)

	_, ok = s.Snapshot().Fingerprint(1)
	assert.False(t, ok)
}

func ptr[T any](v T) *T {
	return &v
}
