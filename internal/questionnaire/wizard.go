package questionnaire

// Wizard is one independently tracked question sequence.
type Wizard struct {
	Name      string
	Questions []Question
}

// State is the derived view of a wizard for one set of answers.
type State struct {
	Visible     []Question `json:"visible"`
	CurrentStep int        `json:"currentStep"`
	IsValid     bool       `json:"isValid"`
	IsComplete  bool       `json:"isComplete"`
}

// Evaluate recomputes visibility, the first incomplete step and the
// validity and completion flags.
func (w Wizard) Evaluate(answers Answers, flights FlightSelections) State {
	visible := VisibleQuestions(w.Questions, answers)
	st := State{Visible: visible, CurrentStep: len(visible), IsValid: true}

	for i, q := range visible {
		if st.CurrentStep == len(visible) && !IsStepComplete(q, answers, flights) {
			st.CurrentStep = i
		}
		if a, ok := answers.Get(q.ID); ok && !a.IsValid {
			st.IsValid = false
		}
	}
	st.IsComplete = st.CurrentStep == len(visible)
	return st
}

func (w Wizard) Question(id string) (Question, bool) {
	for _, q := range w.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// FlightSelectors returns the visible flight_selector questions.
func (w Wizard) FlightSelectors(answers Answers) []Question {
	var out []Question
	for _, q := range VisibleQuestions(w.Questions, answers) {
		if q.Type == QuestionFlightSelector {
			out = append(out, q)
		}
	}
	return out
}
