package post

import (
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/feedrank/internal/domain"
	"github.com/kailas-cloud/feedrank/internal/domain/engagement"
)

// MaxIDLength bounds post identifiers.
const MaxIDLength = 256

// Comment is a single comment on a post, kept in posting order.
type Comment struct {
	AuthorID string
	Text     string
}

// Post is the content item aggregate.
type Post struct {
	id         string
	authorID   string
	caption    string
	tags       []string
	likes      []string
	views      []string
	saves      []string
	comments   []Comment
	filename   string
	uploadedAt time.Time
	vector     []float32
	score      *float64
}

// New validates and creates a Post without vector or score.
func New(id, authorID, caption string, tags []string) (Post, error) {
	if id == "" {
		return Post{}, fmt.Errorf("post ID is required: %w", domain.ErrInvalidInput)
	}
	if len(id) > MaxIDLength {
		return Post{}, fmt.Errorf("post ID too long (max %d): %w", MaxIDLength, domain.ErrInvalidInput)
	}
	return Post{
		id:       id,
		authorID: authorID,
		caption:  caption,
		tags:     domain.CloneStrings(tags),
		likes:    []string{},
		views:    []string{},
		saves:    []string{},
		comments: []Comment{},
	}, nil
}

// Snapshot is the full stored state of a post, used for hydration.
type Snapshot struct {
	ID         string
	AuthorID   string
	Caption    string
	Tags       []string
	Likes      []string
	Views      []string
	Saves      []string
	Comments   []Comment
	Filename   string
	UploadedAt time.Time
	Vector     []float32
	Score      *float64
}

// Reconstruct creates a Post from storage without ID validation.
// Interaction sets are de-duplicated; nil lists become empty.
func Reconstruct(s Snapshot) Post {
	comments := s.Comments
	if comments == nil {
		comments = []Comment{}
	}
	tags := s.Tags
	if tags == nil {
		tags = []string{}
	}
	return Post{
		id:         s.ID,
		authorID:   s.AuthorID,
		caption:    s.Caption,
		tags:       tags,
		likes:      domain.UniqueStrings(s.Likes),
		views:      domain.UniqueStrings(s.Views),
		saves:      domain.UniqueStrings(s.Saves),
		comments:   comments,
		filename:   s.Filename,
		uploadedAt: s.UploadedAt,
		vector:     s.Vector,
		score:      s.Score,
	}
}

// Snapshot exports the post state.
func (p *Post) Snapshot() Snapshot {
	return Snapshot{
		ID: p.id, AuthorID: p.authorID, Caption: p.caption, Tags: p.tags,
		Likes: p.likes, Views: p.views, Saves: p.saves, Comments: p.comments,
		Filename: p.filename, UploadedAt: p.uploadedAt, Vector: p.vector, Score: p.score,
	}
}

// ID returns the post identifier.
func (p *Post) ID() string { return p.id }

// AuthorID returns the author's user ID. It may reference a missing user.
func (p *Post) AuthorID() string { return p.authorID }

// Caption returns the post text.
func (p *Post) Caption() string { return p.caption }

// Tags returns the ordered hashtags.
func (p *Post) Tags() []string { return p.tags }

// Likes returns the IDs of users who liked the post.
func (p *Post) Likes() []string { return p.likes }

// Views returns the IDs of users who viewed the post.
func (p *Post) Views() []string { return p.views }

// Saves returns the IDs of users who saved the post.
func (p *Post) Saves() []string { return p.saves }

// Comments returns the comments in posting order.
func (p *Post) Comments() []Comment { return p.comments }

// Filename returns the media file name, if any.
func (p *Post) Filename() string { return p.filename }

// UploadedAt returns the upload timestamp (zero if unknown).
func (p *Post) UploadedAt() time.Time { return p.uploadedAt }

// Vector returns the reduced content vector, nil if never processed.
func (p *Post) Vector() []float32 { return p.vector }

// HasVector reports whether the post was processed by a refresh.
func (p *Post) HasVector() bool { return len(p.vector) > 0 }

// EngagementScore returns the stored score and whether one exists.
func (p *Post) EngagementScore() (float64, bool) {
	if p.score == nil {
		return 0, false
	}
	return *p.score, true
}

// Counts returns the interaction cardinalities fed to the engagement scorer.
func (p *Post) Counts() engagement.Counts {
	return engagement.Counts{Likes: len(p.likes), Views: len(p.views), Comments: len(p.comments)}
}

// EmbeddingText is the caption followed by the space-joined tags.
func (p *Post) EmbeddingText() string {
	if len(p.tags) == 0 {
		return p.caption
	}
	return p.caption + " " + strings.Join(p.tags, " ")
}
