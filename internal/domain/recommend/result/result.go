package result

// Result is a single ranked post.
type Result struct {
	id         string
	score      float64
	similarity float64
	engagement float64
}

// New creates a ranking result.
func New(id string, score, similarity, engagement float64) Result {
	return Result{id: id, score: score, similarity: similarity, engagement: engagement}
}

// ID returns the post identifier.
func (r *Result) ID() string { return r.id }

// Score returns the value the ranking was ordered by.
func (r *Result) Score() float64 { return r.score }

// Similarity returns the cosine similarity to the query.
func (r *Result) Similarity() float64 { return r.similarity }

// Engagement returns the stored engagement score (0 if absent).
func (r *Result) Engagement() float64 { return r.engagement }
