package questionnaire

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/dharmasatrya/flightclaim/internal/models"
	"github.com/dharmasatrya/flightclaim/internal/timezone"
)

// FlightSelections is the part of a trip snapshot the tracker reads.
type FlightSelections interface {
	SegmentCount() int
	HasSelectedFlight(index int) bool
}

// VisibleQuestions filters all by their show-if predicates. It is cheap and
// must be called again after every answer change.
func VisibleQuestions(all []Question, answers Answers) []Question {
	record := answers.Record()
	out := make([]Question, 0, len(all))
	for _, q := range all {
		if q.ShowIf == nil || q.ShowIf(record) {
			out = append(out, q)
		}
	}
	return out
}

// IsStepComplete reports whether q has been answered. A flight_selector
// question also counts as answered once the trip shows a selected flight for
// every bound segment, since the matching answer is written afterwards.
func IsStepComplete(q Question, answers Answers, flights FlightSelections) bool {
	a, ok := answers.Get(q.ID)
	if q.Type != QuestionFlightSelector {
		return ok && hasValue(a.Value)
	}
	if ok && nonEmptyCollection(a.Value) {
		return true
	}
	return flightsSelected(q, flights)
}

// IsWizardComplete requires every visible question to be complete. Pass the
// visibility computed from the same answers.
func IsWizardComplete(visible []Question, answers Answers, flights FlightSelections) bool {
	for _, q := range visible {
		if !IsStepComplete(q, answers, flights) {
			return false
		}
	}
	return true
}

func flightsSelected(q Question, flights FlightSelections) bool {
	if flights == nil {
		return false
	}
	indexes := q.SegmentIndexes
	if len(indexes) == 0 {
		n := flights.SegmentCount()
		if n == 0 {
			return false
		}
		for i := range n {
			indexes = append(indexes, i)
		}
	}
	for _, i := range indexes {
		if !flights.HasSelectedFlight(i) {
			return false
		}
	}
	return true
}

// NewAnswer validates value against q.
func NewAnswer(q Question, value any, at time.Time) Answer {
	errs := Validate(q, value)
	return Answer{
		QuestionID:       q.ID,
		Value:            value,
		Timestamp:        at,
		IsValid:          len(errs) == 0,
		ValidationErrors: errs,
	}
}

// Validate returns human readable problems with value, or nil.
func Validate(q Question, value any) []string {
	if !hasValue(value) {
		if q.Required {
			return []string{fmt.Sprintf("%s is required", q.ID)}
		}
		return nil
	}

	switch q.Type {
	case QuestionRadio:
		s, ok := value.(string)
		if !ok {
			return []string{fmt.Sprintf("%s expects one of the listed options", q.ID)}
		}
		for _, o := range q.Options {
			if o.Value == s {
				return nil
			}
		}
		return []string{fmt.Sprintf("%q is not an option of %s", s, q.ID)}
	case QuestionMoney:
		amount, ok := moneyAmount(value)
		if !ok {
			return []string{fmt.Sprintf("%s expects an amount", q.ID)}
		}
		if amount < 0 {
			return []string{fmt.Sprintf("%s cannot be negative", q.ID)}
		}
	case QuestionDate:
		s, ok := value.(string)
		if !ok || !timezone.IsValidDateFormat(s) {
			return []string{fmt.Sprintf("%s: %s", q.ID, models.ErrInvalidDate)}
		}
	case QuestionFlightSelector:
		if !nonEmptyCollection(value) {
			return []string{fmt.Sprintf("%s expects at least one flight", q.ID)}
		}
	}
	return nil
}

func moneyAmount(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(n), ",", "."), 64)
		return f, err == nil
	case map[string]any:
		return moneyAmount(n["amount"])
	}
	return 0, false
}

func hasValue(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Map:
		return !rv.IsNil()
	}
	return true
}

func nonEmptyCollection(v any) bool {
	if !hasValue(v) {
		return false
	}
	rv := reflect.Indirect(reflect.ValueOf(v))
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() > 0
	case reflect.Struct:
		return true
	}
	return false
}
