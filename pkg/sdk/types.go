package feedrank

import "time"

// Mode selects the ranking strategy.
type Mode string

// Ranking modes.
const (
	ModeSimilarity Mode = "similarity"
	ModeEngagement Mode = "engagement"
	ModeBlend      Mode = "blend"
)

// Recommendation is a single ranked post.
type Recommendation struct {
	PostID     string
	Score      float64
	Similarity float64
	Engagement float64
}

// RefreshCounts tallies one record kind of a bulk refresh.
type RefreshCounts struct {
	Processed int
	Failed    int
	Skipped   int
}

// RefreshSummary is the outcome of RefreshAll.
type RefreshSummary struct {
	Status   string // "completed" or "completed_with_errors"
	Posts    RefreshCounts
	Users    RefreshCounts
	Duration time.Duration
}
