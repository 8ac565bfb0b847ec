// Package questionnaire tracks the branching question sequence of a claim
// wizard and decides when a step or the whole wizard is complete.
package questionnaire

import (
	"time"
)

type QuestionType string

const (
	QuestionRadio          QuestionType = "radio"
	QuestionMoney          QuestionType = "money"
	QuestionDate           QuestionType = "date"
	QuestionFlightSelector QuestionType = "flight_selector"
)

type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// AnswerRecord maps question ids to answer values.
type AnswerRecord map[string]any

// Predicate decides whether a question is visible given the answers so far.
type Predicate func(AnswerRecord) bool

type Question struct {
	ID       string       `json:"id"`
	Type     QuestionType `json:"type"`
	Label    string       `json:"label"`
	Options  []Option     `json:"options,omitempty"`
	ShowIf   Predicate    `json:"-"`
	Required bool         `json:"required"`

	// SegmentIndexes binds a flight_selector question to trip segments. Empty
	// means every active segment.
	SegmentIndexes []int `json:"segmentIndexes,omitempty"`
}

type Answer struct {
	QuestionID       string    `json:"questionId"`
	Value            any       `json:"value"`
	Timestamp        time.Time `json:"timestamp"`
	IsValid          bool      `json:"isValid"`
	ValidationErrors []string  `json:"validationErrors,omitempty"`
}

// Minimal drops everything that is recomputed on load.
func (a Answer) Minimal() Answer {
	a.ValidationErrors = nil
	return a
}

// Answers holds at most one answer per question id.
type Answers []Answer

// Upsert returns a copy of as with a replacing any answer to the same question.
func (as Answers) Upsert(a Answer) Answers {
	out := make(Answers, 0, len(as)+1)
	replaced := false
	for _, existing := range as {
		if existing.QuestionID == a.QuestionID {
			if !replaced {
				out = append(out, a)
				replaced = true
			}
			continue
		}
		out = append(out, existing)
	}
	if !replaced {
		out = append(out, a)
	}
	return out
}

func (as Answers) Get(questionID string) (Answer, bool) {
	for i := len(as) - 1; i >= 0; i-- {
		if as[i].QuestionID == questionID {
			return as[i], true
		}
	}
	return Answer{}, false
}

// Record re-keys the answers by question id. Later duplicates win.
func (as Answers) Record() AnswerRecord {
	r := make(AnswerRecord, len(as))
	for _, a := range as {
		r[a.QuestionID] = a.Value
	}
	return r
}

func (as Answers) Minimal() Answers {
	out := make(Answers, len(as))
	for i, a := range as {
		out[i] = a.Minimal()
	}
	return out
}

// Equals shows a question when the answer to id is the string want.
func Equals(id, want string) Predicate {
	return func(r AnswerRecord) bool {
		v, ok := r[id].(string)
		return ok && v == want
	}
}

func OneOf(id string, want ...string) Predicate {
	return func(r AnswerRecord) bool {
		v, ok := r[id].(string)
		if !ok {
			return false
		}
		for _, w := range want {
			if v == w {
				return true
			}
		}
		return false
	}
}

func Answered(id string) Predicate {
	return func(r AnswerRecord) bool {
		return hasValue(r[id])
	}
}

func All(ps ...Predicate) Predicate {
	return func(r AnswerRecord) bool {
		for _, p := range ps {
			if !p(r) {
				return false
			}
		}
		return true
	}
}

func Any(ps ...Predicate) Predicate {
	return func(r AnswerRecord) bool {
		for _, p := range ps {
			if p(r) {
				return true
			}
		}
		return false
	}
}
