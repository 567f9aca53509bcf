// Package refresh holds the outcome of a bulk refresh run.
package refresh

import "time"

// Status is the terminal state of a bulk refresh.
type Status string

// Refresh status constants.
const (
	StatusCompleted           Status = "completed"
	StatusCompletedWithErrors Status = "completed_with_errors"
)

// Kind identifies the record type being refreshed.
type Kind string

// Record kinds.
const (
	KindPost Kind = "post"
	KindUser Kind = "user"
)

// Counts tallies items for one kind.
type Counts struct {
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
	// Skipped counts records that vanished between listing and loading.
	Skipped int `json:"skipped"`
}

// Summary is the aggregate outcome of RefreshAll.
type Summary struct {
	Status   Status        `json:"status"`
	Posts    Counts        `json:"posts"`
	Users    Counts        `json:"users"`
	Duration time.Duration `json:"-"`
}

// NewSummary derives the status from the failure counts.
func NewSummary(posts, users Counts, d time.Duration) Summary {
	s := StatusCompleted
	if posts.Failed > 0 || users.Failed > 0 {
		s = StatusCompletedWithErrors
	}
	return Summary{Status: s, Posts: posts, Users: users, Duration: d}
}

// Failed returns the total failed item count.
func (s Summary) Failed() int { return s.Posts.Failed + s.Users.Failed }
