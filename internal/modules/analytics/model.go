// README: Analytics report types for the dashboard endpoints.
package analytics

// EngagementMetrics summarises sessions over a date range.
type EngagementMetrics struct {
	TotalUsers     int     `json:"total_users"`
	AvgSessionSecs float64 `json:"avg_session_seconds"`
	CompletionRate float64 `json:"completion_rate"`
	TotalSessions  int     `json:"total_sessions"`
}

// GoalFrequency is one row of the top-health-goals report.
type GoalFrequency struct {
	Goal      string `json:"goal"`
	Frequency int    `json:"frequency"`
}

// ProductStats aggregates how often a product was recommended and clicked.
type ProductStats struct {
	ProductName          string  `json:"product_name"`
	Category             string  `json:"category"`
	TotalRecommendations int     `json:"total_recommendations"`
	Clicks               int     `json:"clicks"`
	ClickRate            float64 `json:"click_rate"`
}

// LocationStats aggregates pharmacy searches per town.
type LocationStats struct {
	Pueblo            string  `json:"pueblo"`
	TotalSearches     int     `json:"total_searches"`
	SuccessfulMatches int     `json:"successful_matches"`
	SuccessRate       float64 `json:"success_rate"`
}

// DailyMetrics is one day of the trend report.
type DailyMetrics struct {
	Date           string  `json:"date"`
	UniqueUsers    int     `json:"unique_users"`
	TotalSessions  int     `json:"total_sessions"`
	CompletionRate float64 `json:"completion_rate"`
}
