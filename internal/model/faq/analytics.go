package faq

// TopQuestion is one bar of the top-questions chart.
type TopQuestion struct {
	Question string `json:"question"`
	Count    int    `json:"count"`
}

// DailyCount is one point of the daily-questions line chart.
type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// CSAT is the customer satisfaction score returned by GET /csat.
type CSAT struct {
	CSAT *float64 `json:"csat"`
}
