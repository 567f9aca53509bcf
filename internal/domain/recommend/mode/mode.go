package mode

import (
	"fmt"

	"github.com/kailas-cloud/feedrank/internal/domain"
)

// Mode is the ranking strategy.
type Mode string

// Ranking mode constants.
const (
	// Similarity ranks by cosine similarity to the query.
	Similarity Mode = "similarity"
	// Engagement ranks by stored engagement score.
	Engagement Mode = "engagement"
	// Blend mixes similarity with the normalized engagement score.
	Blend Mode = "blend"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Similarity || m == Engagement || m == Blend
}

// Parse converts a string to a Mode. Empty selects Similarity.
func Parse(s string) (Mode, error) {
	if s == "" {
		return Similarity, nil
	}
	m := Mode(s)
	if !m.IsValid() {
		return "", fmt.Errorf("invalid ranking mode %q: %w", s, domain.ErrMalformedQuery)
	}
	return m, nil
}
