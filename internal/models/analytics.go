package models

import "time"

type Count struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

type DailyCount struct {
	Date  time.Time `json:"date"`
	Count int64     `json:"count"`
}

type TermLookups struct {
	Term        string `json:"term"`
	LookupCount int64  `json:"lookup_count"`
}

type SuperAdminDashboard struct {
	AdminCount   int64 `json:"admin_count"`
	WordCount    int64 `json:"word_count"`
	RequestCount int64 `json:"request_count"`
}

type AdminDashboard struct {
	AdminEmail     string    `json:"admin_email"`
	WordCount      int64     `json:"word_count"`
	RequestCount   int64     `json:"request_count"`
	RecentRequests []Request `json:"recent_requests"`
}

type Overview struct {
	WordsByClass     []Count `json:"words_by_class"`
	RequestsByStatus []Count `json:"requests_by_status"`
}

type WordAnalytics struct {
	TotalWords        int64         `json:"total_words"`
	ActiveWords       int64         `json:"active_words"`
	PendingWords      int64         `json:"pending_words"`
	NewWordsPerDay    []DailyCount  `json:"new_words_per_day"`
	UpdatesPerDay     []DailyCount  `json:"updates_per_day"`
	MostLookedUpWords []TermLookups `json:"most_looked_up_words"`
}

type RequestAnalytics struct {
	TotalRequests    int64        `json:"total_requests"`
	OpenRequests     int64        `json:"open_requests"`
	ResolvedRequests int64        `json:"resolved_requests"`
	NewPerDay        []DailyCount `json:"new_per_day"`
	// AvgResolveSeconds is nil when no request has been resolved yet.
	AvgResolveSeconds *float64 `json:"avg_resolve_seconds"`
	ByType            []Count  `json:"by_type"`
}

type Activity struct {
	UniqueVisitors int64        `json:"unique_visitors"`
	SearchesPerDay []DailyCount `json:"searches_per_day"`
	PopularTerms   []Count      `json:"popular_terms"`
}
