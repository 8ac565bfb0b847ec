package questionnaire

const (
	WizardTravelStatus = "travel_status"
	WizardInformedDate = "informed_date"
)

const (
	TravelStatusNone     = "none"
	TravelStatusSelf     = "self"
	TravelStatusProvided = "provided"
	TravelStatusOwn      = "own"
)

// TravelStatusQuestions asks how the passenger continued after the disruption.
func TravelStatusQuestions() []Question {
	return []Question{
		{
			ID:    "travel_status",
			Type:  QuestionRadio,
			Label: "Did you travel after the disruption?",
			Options: []Option{
				{Value: TravelStatusNone, Label: "I did not travel"},
				{Value: TravelStatusSelf, Label: "I travelled with the original flight"},
				{Value: TravelStatusProvided, Label: "I took an alternative flight provided by the airline"},
				{Value: TravelStatusOwn, Label: "I booked an alternative flight at my own expense"},
			},
			Required: true,
		},
		{
			ID:       "refund_status",
			Type:     QuestionRadio,
			Label:    "Did you receive a refund for the ticket?",
			Options:  yesNo(),
			ShowIf:   Equals("travel_status", TravelStatusNone),
			Required: true,
		},
		{
			ID:       "refund_amount",
			Type:     QuestionMoney,
			Label:    "How much was refunded?",
			ShowIf:   All(Equals("travel_status", TravelStatusNone), Equals("refund_status", "yes")),
			Required: true,
		},
		{
			ID:       "alternative_flight_airline_expense",
			Type:     QuestionFlightSelector,
			Label:    "Which flight did the airline rebook you on?",
			ShowIf:   Equals("travel_status", TravelStatusProvided),
			Required: true,
		},
		{
			ID:       "alternative_flight_own_expense",
			Type:     QuestionFlightSelector,
			Label:    "Which flight did you book yourself?",
			ShowIf:   Equals("travel_status", TravelStatusOwn),
			Required: true,
		},
		{
			ID:       "trip_costs",
			Type:     QuestionMoney,
			Label:    "What did the alternative flight cost?",
			ShowIf:   Equals("travel_status", TravelStatusOwn),
			Required: true,
		},
	}
}

// InformedDateQuestions asks when the airline announced the disruption.
func InformedDateQuestions() []Question {
	return []Question{
		{
			ID:    "informed_date",
			Type:  QuestionRadio,
			Label: "When were you informed about the disruption?",
			Options: []Option{
				{Value: "on_departure", Label: "On the day of departure"},
				{Value: "specific_date", Label: "On a specific date"},
			},
			Required: true,
		},
		{
			ID:       "specific_informed_date",
			Type:     QuestionDate,
			Label:    "On which date were you informed?",
			ShowIf:   Equals("informed_date", "specific_date"),
			Required: true,
		},
	}
}

// Catalog returns the wizards tracked for every claim.
func Catalog() map[string]Wizard {
	return map[string]Wizard{
		WizardTravelStatus: {Name: WizardTravelStatus, Questions: TravelStatusQuestions()},
		WizardInformedDate: {Name: WizardInformedDate, Questions: InformedDateQuestions()},
	}
}

func yesNo() []Option {
	return []Option{{Value: "yes", Label: "Yes"}, {Value: "no", Label: "No"}}
}
