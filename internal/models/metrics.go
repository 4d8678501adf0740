package models

import "time"

// MetricsSnapshot is the JSON view of process counters served by /metrics/summary.
type MetricsSnapshot struct {
	Requests    RequestStats `json:"requests"`
	Cache       CacheStats   `json:"cache"`
	Batch       BatchStats   `json:"batch"`
	Goroutines  int          `json:"goroutines"`
	GeneratedAt time.Time    `json:"generated_at"`
}

// RequestStats aggregates HTTP traffic.
type RequestStats struct {
	Total         uint64  `json:"total"`
	AvgDurationMs float64 `json:"avg_duration_ms"`
}

// CacheStats aggregates cache lookups.
type CacheStats struct {
	Hits     uint64  `json:"hits"`
	Misses   uint64  `json:"misses"`
	HitRatio float64 `json:"hit_ratio"`
}

// BatchStats counts per-student batch outcomes across all runs.
type BatchStats struct {
	Done   uint64 `json:"done"`
	Failed uint64 `json:"failed"`
}
