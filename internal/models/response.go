package models

type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Code      int    `json:"code"`
	Retryable bool   `json:"retryable,omitempty"`
}

type SearchMetadata struct {
	TotalResults int    `json:"total_results"`
	SearchTimeMs int64  `json:"search_time_ms"`
	CacheHit     bool   `json:"cache_hit"`
	Outcome      string `json:"outcome"`
}

// SegmentSearchResponse is returned for a completed search, including one
// that found nothing. ManualEntry tells the client to offer free entry.
type SegmentSearchResponse struct {
	State       string         `json:"state"`
	ManualEntry bool           `json:"manual_entry"`
	Query       FlightQuery    `json:"query"`
	Metadata    SearchMetadata `json:"metadata"`
	Flights     []Flight       `json:"flights"`
}

type RemoveSegmentResponse struct {
	Applied bool `json:"applied"`
}
