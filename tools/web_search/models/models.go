package models

// Request describes one web search call.
type Request struct {
	Query          string
	Topic          string // "news" or "web"
	Depth          string // "basic" or "advanced"
	MaxResults     int
	TimeRange      string // "day", "week", "month"
	IncludeDomains []string
}

// Result is one search hit with the provider's relevance score.
type Result struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Score   float64 `json:"score"`
	Content string  `json:"content"`
}
