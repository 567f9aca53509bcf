package user

import (
	"context"
	"time"

	"go.uber.org/zap"

	domuser "github.com/kailas-cloud/feedrank/internal/domain/user"
	"github.com/kailas-cloud/feedrank/internal/logger"
	"github.com/kailas-cloud/feedrank/internal/repository/codec"
)

// Stored field names.
const (
	fieldName        = "name"
	fieldBio         = "bio"
	fieldInterests   = "interests"
	fieldPreferences = "preferences" // legacy name for interests, read-only
	fieldFollowers   = "followers"
	fieldFollowings  = "followings"
	fieldLikedPosts  = "likedPosts"
	fieldSavedPosts  = "savedPosts"
	fieldPosts       = "posts"
	fieldLocation    = "location"
	fieldLastActive  = "lastActive"
	fieldCreatedAt   = "createdAt"
	fieldVector      = "user_embedding"
)

func buildHashFields(u *domuser.User) map[string]string {
	m := map[string]string{
		fieldName:       u.Name(),
		fieldBio:        u.Bio(),
		fieldInterests:  codec.EncodeStrings(u.Interests()),
		fieldFollowers:  codec.EncodeStrings(u.Followers()),
		fieldFollowings: codec.EncodeStrings(u.Followings()),
		fieldLikedPosts: codec.EncodeStrings(u.LikedPosts()),
		fieldSavedPosts: codec.EncodeStrings(u.SavedPosts()),
		fieldPosts:      codec.EncodeStrings(u.Posts()),
		fieldLocation:   u.Location(),
	}
	if ts := codec.EncodeTime(u.LastActive()); ts != "" {
		m[fieldLastActive] = ts
	}
	if ts := codec.EncodeTime(u.CreatedAt()); ts != "" {
		m[fieldCreatedAt] = ts
	}
	if u.HasVector() {
		m[fieldVector] = codec.EncodeVector(u.Vector())
	}
	return m
}

func parseHashFields(ctx context.Context, id string, m map[string]string, dim int) domuser.User {
	log := logger.FromContext(ctx).With(zap.String("user_id", id))
	list := func(field string) []string {
		s, err := codec.DecodeStrings(m[field])
		if err != nil {
			log.Warn("Malformed list field", zap.String("field", field), zap.Error(err))
		}
		return s
	}
	ts := func(field string) time.Time {
		t, err := codec.DecodeTime(m[field])
		if err != nil {
			log.Warn("Malformed time field", zap.String("field", field), zap.Error(err))
		}
		return t
	}

	interestsField := fieldInterests
	if _, ok := m[fieldInterests]; !ok {
		interestsField = fieldPreferences
	}

	vec, err := codec.DecodeVector(m[fieldVector], dim)
	if err != nil {
		log.Warn("Stored vector ignored", zap.Error(err))
		vec = nil
	}

	return domuser.Reconstruct(domuser.Snapshot{
		ID:         id,
		Name:       m[fieldName],
		Bio:        m[fieldBio],
		Interests:  list(interestsField),
		Followers:  list(fieldFollowers),
		Followings: list(fieldFollowings),
		LikedPosts: list(fieldLikedPosts),
		SavedPosts: list(fieldSavedPosts),
		Posts:      list(fieldPosts),
		Location:   m[fieldLocation],
		LastActive: ts(fieldLastActive),
		CreatedAt:  ts(fieldCreatedAt),
		Vector:     vec,
	})
}
