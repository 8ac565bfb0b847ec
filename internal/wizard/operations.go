package wizard

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/dharmasatrya/flightclaim/internal/filter"
	"github.com/dharmasatrya/flightclaim/internal/models"
	"github.com/dharmasatrya/flightclaim/internal/questionnaire"
	"github.com/dharmasatrya/flightclaim/internal/reconcile"
	"github.com/dharmasatrya/flightclaim/internal/search"
	"github.com/dharmasatrya/flightclaim/internal/segment"
	"github.com/dharmasatrya/flightclaim/internal/timezone"
)

func (s *Session) SetTripType(ctx context.Context, t models.TripType) error {
	return s.Do(ctx, "set_trip_type", func() error {
		return s.store.SetSelectedType(t)
	})
}

// SetDirect applies a patch in either dialect to the direct segment.
func (s *Session) SetDirect(ctx context.Context, patch models.SegmentPatch) (segment.Segment, error) {
	var out segment.Segment
	err := s.Do(ctx, "set_direct", func() error {
		out = s.store.SetDirectFlight(reconcile.PatchFromWire(patch, s.store.Direct()))
		return nil
	})
	return out, err
}

// SetSegments replaces the multi-city legs. Each entry may use either dialect.
func (s *Session) SetSegments(ctx context.Context, wire []models.LegacySegment) ([]segment.Segment, error) {
	if len(wire) > segment.MaxSegments {
		return nil, models.ErrTooManySegments
	}
	segs := make([]segment.Segment, len(wire))
	for i, l := range wire {
		segs[i] = reconcile.FromLegacy(l)
	}

	var out []segment.Segment
	err := s.Do(ctx, "set_segments", func() error {
		var err error
		out, err = s.store.SetFlightSegments(segs)
		return err
	})
	return out, err
}

func (s *Session) UpdateSegment(ctx context.Context, index int, patch models.SegmentPatch) (segment.Segment, error) {
	var out segment.Segment
	err := s.Do(ctx, "update_segment", func() error {
		var current segment.Segment
		if segs := s.store.Segments(); index >= 0 && index < len(segs) {
			current = segs[index]
		}
		var err error
		out, err = s.store.UpdateSegment(index, reconcile.PatchFromWire(patch, current))
		return err
	})
	return out, err
}

func (s *Session) AddSegment(ctx context.Context) (segment.Segment, error) {
	var out segment.Segment
	err := s.Do(ctx, "add_segment", func() error {
		var err error
		out, err = s.store.AddSegment()
		return err
	})
	return out, err
}

// RemoveSegment reports false when the store refused the removal.
func (s *Session) RemoveSegment(ctx context.Context, index int) (bool, error) {
	var removed bool
	err := s.Do(ctx, "remove_segment", func() error {
		removed = s.store.RemoveSegment(index)
		if !removed {
			return models.ErrSegmentRejected
		}
		delete(s.results, index)
		return nil
	})
	if errors.Is(err, models.ErrSegmentRejected) {
		return false, nil
	}
	return removed, err
}

// Reset starts the claim over with an empty trip and no answers.
func (s *Session) Reset(ctx context.Context, t models.TripType) error {
	return s.Do(ctx, "reset", func() error {
		s.store.Reset(t)
		s.answers = make(map[string]questionnaire.Answers)
		s.results = make(map[int]*searchState)
		return nil
	})
}

type SearchOptions struct {
	SortBy    string
	SortOrder string
	Criteria  *filter.Criteria
	Timezone  string
}

type SearchResult struct {
	Query    models.FlightQuery `json:"query"`
	Flights  []models.Flight    `json:"flights"`
	Outcome  search.Outcome     `json:"outcome"`
	CacheHit bool               `json:"cacheHit"`
}

// Search looks up flights for the segment at index. The collaborator is
// called outside the command queue. When the segment's route or date changed
// in the meantime the result is discarded with models.ErrStaleSearch.
//
// With opts.Timezone set, a date typed as a zoned timestamp is first read
// again as a calendar date in that zone.
func (s *Session) Search(ctx context.Context, index int, opts SearchOptions) (SearchResult, error) {
	var (
		fingerprint string
		query       search.Query
	)
	err := s.Do(ctx, "", func() error {
		seg, ok := s.store.Segment(index)
		if !ok {
			return models.ErrSegmentIndex
		}
		if loc := timezone.GetLocationByName(opts.Timezone, nil); loc != nil {
			if localized, changed := s.store.LocalizeDate(index, loc); changed {
				seg = localized
				s.deps.Metrics.ObserveMutation("localize_date")
				s.persist()
			}
		}
		fingerprint = segment.Fingerprint(seg)
		query = search.Query{From: seg.OriginCode(), To: seg.DestinationCode(), Date: seg.Date, Timezone: opts.Timezone}
		s.results[index] = &searchState{fingerprint: fingerprint, loading: true, flights: []models.Flight{}}
		return nil
	})
	if err != nil {
		return SearchResult{Flights: []models.Flight{}}, err
	}

	res, searchErr := s.deps.Search.Search(ctx, query)

	out := SearchResult{Query: res.Query, Flights: []models.Flight{}, Outcome: res.Outcome, CacheHit: res.CacheHit}
	err = s.Do(context.WithoutCancel(ctx), "", func() error {
		seg, ok := s.store.Segment(index)
		if !ok || segment.Fingerprint(seg) != fingerprint {
			if st := s.results[index]; st != nil && st.fingerprint == fingerprint {
				delete(s.results, index)
			}
			s.deps.Metrics.ObserveStaleSearch()
			return models.ErrStaleSearch
		}

		st := &searchState{fingerprint: fingerprint, outcome: res.Outcome, flights: []models.Flight{}}
		if searchErr != nil {
			st.err = searchErr.Error()
		} else {
			selectable := filter.FilterSelectable(res.Flights, s.store.Snapshot().Active(), index, s.deps.MinConnection)
			st.flights = filter.Apply(selectable, opts.Criteria, opts.SortBy, opts.SortOrder)
			out.Flights = st.flights
		}
		s.results[index] = st
		return nil
	})
	if err != nil {
		s.log.Debugw("search result discarded", "segment", index, "error", err)
		return out, err
	}
	return out, searchErr
}

// SelectRequest picks a flight either by id from the last results of the
// segment or as a complete flight.
type SelectRequest struct {
	FlightID string
	Flight   *models.Flight
}

// Select writes the chosen flight to the segment. Origin, destination and
// date are filled from the flight only where the segment has none. The
// matching questionnaire answer is written by a follow-up command.
func (s *Session) Select(ctx context.Context, index int, req SelectRequest) (segment.Segment, error) {
	var out segment.Segment
	err := s.Do(ctx, "select_flight", func() error {
		seg, ok := s.store.Segment(index)
		if !ok {
			return models.ErrSegmentIndex
		}

		f, err := s.resolveFlight(seg, index, req)
		if err != nil {
			return err
		}
		if !servesRoute(seg, f) {
			return models.ErrFlightRoute
		}

		patch := segment.Patch{SelectedFlight: models.Some(f)}
		if seg.Origin == nil && !f.From.IsPlaceholder() {
			patch.Origin = models.Some(f.From)
		}
		if seg.Destination == nil && !f.To.IsPlaceholder() {
			patch.Destination = models.Some(f.To)
		}
		if seg.Date == "" {
			if d := timezone.DatePortion(f.DepartureTime); d != "" {
				patch.Date = models.Some(d)
			}
		}

		if s.store.SelectedType() == models.TripTypeDirect {
			out = s.store.SetDirectFlight(patch)
		} else if out, err = s.store.UpdateSegment(index, patch); err != nil {
			return err
		}

		flightID := f.ID
		s.deferCommand("bridge_answer", func() error {
			return s.bridgeAnswer(index, flightID)
		})
		return nil
	})
	return out, err
}

func (s *Session) resolveFlight(seg segment.Segment, index int, req SelectRequest) (models.Flight, error) {
	if req.Flight != nil {
		f := *req.Flight
		if strings.TrimSpace(f.ID) == "" || strings.TrimSpace(f.FlightNumber) == "" {
			return models.Flight{}, models.ErrUnknownFlight
		}
		return f, nil
	}

	st := s.results[index]
	if st == nil || st.fingerprint != segment.Fingerprint(seg) {
		return models.Flight{}, models.ErrUnknownFlight
	}
	for _, f := range st.flights {
		if f.ID == req.FlightID {
			return f, nil
		}
	}
	return models.Flight{}, models.ErrUnknownFlight
}

func servesRoute(seg segment.Segment, f models.Flight) bool {
	if code := seg.OriginCode(); code != "" && !strings.EqualFold(code, f.From.Code()) {
		return false
	}
	if code := seg.DestinationCode(); code != "" && !strings.EqualFold(code, f.To.Code()) {
		return false
	}
	return true
}

// bridgeAnswer copies the trip's selected flights into every visible
// flight_selector question bound to index. It does nothing when the segment
// no longer holds flightID, so a later edit is never overwritten.
func (s *Session) bridgeAnswer(index int, flightID string) error {
	seg, ok := s.store.Segment(index)
	if !ok || seg.SelectedFlight == nil || seg.SelectedFlight.ID != flightID {
		s.log.Debugw("answer bridge skipped", "segment", index, "flight", flightID)
		return nil
	}

	var selected []models.LegacySegment
	for _, active := range s.store.Snapshot().Active() {
		if active.SelectedFlight != nil {
			selected = append(selected, reconcile.ToLegacy(active))
		}
	}

	for _, name := range s.wizardNames() {
		w := s.wizards[name]
		for _, q := range w.FlightSelectors(s.answers[name]) {
			if !boundTo(q, index) {
				continue
			}
			s.answers[name] = s.answers[name].Upsert(questionnaire.NewAnswer(q, selected, s.now()))
		}
	}
	return nil
}

func boundTo(q questionnaire.Question, index int) bool {
	if len(q.SegmentIndexes) == 0 {
		return true
	}
	for _, i := range q.SegmentIndexes {
		if i == index {
			return true
		}
	}
	return false
}

// Answer records value for a question of the named wizard and returns the
// wizard's state afterwards.
func (s *Session) Answer(ctx context.Context, wizardName, questionID string, value any) (questionnaire.State, error) {
	var out questionnaire.State
	err := s.Do(ctx, "answer", func() error {
		w, ok := s.wizards[wizardName]
		if !ok {
			return models.ErrUnknownWizard
		}
		q, ok := w.Question(questionID)
		if !ok {
			return models.ErrUnknownQuestion
		}
		s.answers[wizardName] = s.answers[wizardName].Upsert(questionnaire.NewAnswer(q, value, s.now()))
		out = w.Evaluate(s.answers[wizardName], s.store.Snapshot())
		return nil
	})
	return out, err
}

func (s *Session) wizardNames() []string {
	names := make([]string, 0, len(s.wizards))
	for name := range s.wizards {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
