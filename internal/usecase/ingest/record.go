package ingest

import (
	"time"

	dompost "github.com/kailas-cloud/feedrank/internal/domain/post"
	domuser "github.com/kailas-cloud/feedrank/internal/domain/user"
)

// postLine mirrors one exported post document.
type postLine struct {
	ID         string        `json:"id"`
	LegacyID   string        `json:"_id"`
	UserID     string        `json:"userId"`
	Caption    string        `json:"caption"`
	Tags       []string      `json:"tags"`
	Likes      []string      `json:"likes"`
	Views      []string      `json:"views"`
	Saves      []string      `json:"postSaved"`
	Comments   []commentLine `json:"comments"`
	Filename   string        `json:"filename"`
	UploadDate *time.Time    `json:"uploadDate"`
}

type commentLine struct {
	UserID string `json:"userId"`
	Text   string `json:"text"`
}

// userLine mirrors one exported user document.
type userLine struct {
	ID          string     `json:"id"`
	LegacyID    string     `json:"_id"`
	Name        string     `json:"name"`
	Bio         string     `json:"bio"`
	Interests   []string   `json:"interests"`
	Preferences []string   `json:"preferences"`
	Followers   []string   `json:"followers"`
	Followings  []string   `json:"followings"`
	LikedPosts  []string   `json:"likedPosts"`
	SavedPosts  []string   `json:"savedPosts"`
	Posts       []string   `json:"posts"`
	Location    string     `json:"location"`
	LastActive  *time.Time `json:"lastActive"`
	CreatedAt   *time.Time `json:"createdAt"`
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func utc(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.UTC().Truncate(time.Second)
}

func (l *postLine) toDomain(id string) dompost.Post {
	comments := make([]dompost.Comment, 0, len(l.Comments))
	for _, c := range l.Comments {
		comments = append(comments, dompost.Comment{AuthorID: c.UserID, Text: c.Text})
	}
	return dompost.Reconstruct(dompost.Snapshot{
		ID:         id,
		AuthorID:   l.UserID,
		Caption:    l.Caption,
		Tags:       l.Tags,
		Likes:      l.Likes,
		Views:      l.Views,
		Saves:      l.Saves,
		Comments:   comments,
		Filename:   l.Filename,
		UploadedAt: utc(l.UploadDate),
	})
}

func (l *userLine) toDomain(id string) domuser.User {
	interests := l.Interests
	if interests == nil {
		interests = l.Preferences
	}
	return domuser.Reconstruct(domuser.Snapshot{
		ID:         id,
		Name:       l.Name,
		Bio:        l.Bio,
		Interests:  interests,
		Followers:  l.Followers,
		Followings: l.Followings,
		LikedPosts: l.LikedPosts,
		SavedPosts: l.SavedPosts,
		Posts:      l.Posts,
		Location:   l.Location,
		LastActive: utc(l.LastActive),
		CreatedAt:  utc(l.CreatedAt),
	})
}
