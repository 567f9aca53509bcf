package chi

import (
	"github.com/kailas-cloud/feedrank/internal/domain/recommend/result"
	domrefresh "github.com/kailas-cloud/feedrank/internal/domain/refresh"
)

// Error codes returned in ErrorResponse.Code.
const (
	codeBadRequest      = "bad_request"
	codeMalformedQuery  = "malformed_query"
	codeNotFound        = "not_found"
	codeInvalidInput    = "invalid_input"
	codeProviderError   = "embedding_provider_error"
	codeProviderTimeout = "embedding_provider_timeout"
	codeInternalError   = "internal_error"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RecommendRequest is the body of POST /recommend.
type RecommendRequest struct {
	Embedding []float32 `json:"embedding"`
	TopN      int       `json:"top_n,omitempty"`
	Mode      string    `json:"mode,omitempty"`
}

// RecommendTextRequest is the body of POST /recommend/text.
type RecommendTextRequest struct {
	Query string `json:"query"`
	TopN  int    `json:"top_n,omitempty"`
	Mode  string `json:"mode,omitempty"`
}

// RecommendItem is one ranked post.
type RecommendItem struct {
	PostID     string  `json:"postId"`
	Score      float64 `json:"score"`
	Similarity float64 `json:"similarity"`
	Engagement float64 `json:"engagement"`
}

// RefreshResponse is the body of POST /refresh.
type RefreshResponse struct {
	domrefresh.Summary
	DurationMS int64 `json:"duration_ms"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// ItemsFromResults converts ranked results to response items.
func ItemsFromResults(results []result.Result) []RecommendItem {
	items := make([]RecommendItem, len(results))
	for i := range results {
		items[i] = RecommendItem{
			PostID:     results[i].ID(),
			Score:      results[i].Score(),
			Similarity: results[i].Similarity(),
			Engagement: results[i].Engagement(),
		}
	}
	return items
}
