package dto

// QuoteResponse represents the JSON response from the Twelve Data quote endpoint.
// Numeric fields arrive as strings.
type QuoteResponse struct {
	Status        string `json:"status"`
	Message       string `json:"message,omitempty"`
	Symbol        string `json:"symbol"`
	Datetime      string `json:"datetime"`
	Timestamp     int64  `json:"timestamp"`
	Close         string `json:"close"`
	PreviousClose string `json:"previous_close"`
	Change        string `json:"change"`
	PercentChange string `json:"percent_change"`
}
