package models

// HistoryEntry summarizes one successful fetch.
type HistoryEntry struct {
	ID        string    `json:"id"`
	Region    string    `json:"region"`
	City      string    `json:"city"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	StartDate string    `json:"startDate"`
	EndDate   string    `json:"endDate"`
	Days      int       `json:"days"`
	RainTotal float64   `json:"rainTotal"`
	WindMax   *float64  `json:"windMax,omitempty"`
	CreatedAt Timestamp `json:"createdAt"`
}

// HistoryList is returned by GET /v1/history.
type HistoryList struct {
	Items []HistoryEntry    `json:"items"`
	Meta  PagedResponseMeta `json:"meta"`
}
