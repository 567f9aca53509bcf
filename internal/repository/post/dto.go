package post

import (
	"context"

	"go.uber.org/zap"

	dompost "github.com/kailas-cloud/feedrank/internal/domain/post"
	"github.com/kailas-cloud/feedrank/internal/logger"
	"github.com/kailas-cloud/feedrank/internal/repository/codec"
)

// Stored field names.
const (
	fieldAuthorID   = "userId"
	fieldCaption    = "caption"
	fieldTags       = "tags"
	fieldLikes      = "likes"
	fieldViews      = "views"
	fieldSaves      = "postSaved"
	fieldComments   = "comments"
	fieldFilename   = "filename"
	fieldUploadedAt = "uploadDate"
	fieldVector     = "embedding"
	fieldScore      = "engagementScore"
)

type commentDTO struct {
	UserID string `json:"userId"`
	Text   string `json:"text"`
}

// buildHashFields converts a post into its full set of stored fields.
func buildHashFields(p *dompost.Post) (map[string]string, error) {
	comments := make([]commentDTO, 0, len(p.Comments()))
	for _, c := range p.Comments() {
		comments = append(comments, commentDTO{UserID: c.AuthorID, Text: c.Text})
	}
	rawComments, err := codec.EncodeJSON(comments)
	if err != nil {
		return nil, err
	}

	m := map[string]string{
		fieldAuthorID: p.AuthorID(),
		fieldCaption:  p.Caption(),
		fieldTags:     codec.EncodeStrings(p.Tags()),
		fieldLikes:    codec.EncodeStrings(p.Likes()),
		fieldViews:    codec.EncodeStrings(p.Views()),
		fieldSaves:    codec.EncodeStrings(p.Saves()),
		fieldComments: rawComments,
	}
	if p.Filename() != "" {
		m[fieldFilename] = p.Filename()
	}
	if ts := codec.EncodeTime(p.UploadedAt()); ts != "" {
		m[fieldUploadedAt] = ts
	}
	if p.HasVector() {
		m[fieldVector] = codec.EncodeVector(p.Vector())
	}
	if s, ok := p.EngagementScore(); ok {
		m[fieldScore] = codec.EncodeFloat(s)
	}
	return m, nil
}

// parseHashFields hydrates a post. Absent fields resolve to defaults; malformed
// fields are logged and treated as absent.
func parseHashFields(ctx context.Context, id string, m map[string]string, dim int) dompost.Post {
	log := logger.FromContext(ctx).With(zap.String("post_id", id))
	list := func(field string) []string {
		s, err := codec.DecodeStrings(m[field])
		if err != nil {
			log.Warn("Malformed list field", zap.String("field", field), zap.Error(err))
		}
		return s
	}

	var comments []commentDTO
	if err := codec.DecodeJSON(m[fieldComments], &comments); err != nil {
		log.Warn("Malformed comments field", zap.Error(err))
		comments = nil
	}
	domComments := make([]dompost.Comment, 0, len(comments))
	for _, c := range comments {
		domComments = append(domComments, dompost.Comment{AuthorID: c.UserID, Text: c.Text})
	}

	uploaded, err := codec.DecodeTime(m[fieldUploadedAt])
	if err != nil {
		log.Warn("Malformed upload time", zap.Error(err))
	}
	vec, err := codec.DecodeVector(m[fieldVector], dim)
	if err != nil {
		log.Warn("Stored vector ignored", zap.Error(err))
		vec = nil
	}
	score, err := codec.DecodeFloat(m[fieldScore])
	if err != nil {
		log.Warn("Stored engagement score ignored", zap.Error(err))
		score = nil
	}

	return dompost.Reconstruct(dompost.Snapshot{
		ID:         id,
		AuthorID:   m[fieldAuthorID],
		Caption:    m[fieldCaption],
		Tags:       list(fieldTags),
		Likes:      list(fieldLikes),
		Views:      list(fieldViews),
		Saves:      list(fieldSaves),
		Comments:   domComments,
		Filename:   m[fieldFilename],
		UploadedAt: uploaded,
		Vector:     vec,
		Score:      score,
	})
}
