package user

import (
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/feedrank/internal/domain"
)

// MaxIDLength bounds user identifiers.
const MaxIDLength = 256

// User is the user profile aggregate.
type User struct {
	id         string
	name       string
	bio        string
	interests  []string
	followers  []string
	followings []string
	likedPosts []string
	savedPosts []string
	posts      []string
	location   string
	lastActive time.Time
	createdAt  time.Time
	vector     []float32
}

// New validates and creates a User without vector.
func New(id, name, bio string, interests []string) (User, error) {
	if id == "" {
		return User{}, fmt.Errorf("user ID is required: %w", domain.ErrInvalidInput)
	}
	if len(id) > MaxIDLength {
		return User{}, fmt.Errorf("user ID too long (max %d): %w", MaxIDLength, domain.ErrInvalidInput)
	}
	return Reconstruct(Snapshot{ID: id, Name: name, Bio: bio, Interests: domain.CloneStrings(interests)}), nil
}

// Snapshot is the full stored state of a user, used for hydration.
type Snapshot struct {
	ID         string
	Name       string
	Bio        string
	Interests  []string
	Followers  []string
	Followings []string
	LikedPosts []string
	SavedPosts []string
	Posts      []string
	Location   string
	LastActive time.Time
	CreatedAt  time.Time
	Vector     []float32
}

// Reconstruct creates a User from storage without validation.
// Sets are de-duplicated; ordered lists keep their order.
func Reconstruct(s Snapshot) User {
	interests := s.Interests
	if interests == nil {
		interests = []string{}
	}
	posts := s.Posts
	if posts == nil {
		posts = []string{}
	}
	return User{
		id:         s.ID,
		name:       s.Name,
		bio:        s.Bio,
		interests:  interests,
		followers:  domain.UniqueStrings(s.Followers),
		followings: domain.UniqueStrings(s.Followings),
		likedPosts: domain.UniqueStrings(s.LikedPosts),
		savedPosts: domain.UniqueStrings(s.SavedPosts),
		posts:      posts,
		location:   s.Location,
		lastActive: s.LastActive,
		createdAt:  s.CreatedAt,
		vector:     s.Vector,
	}
}

// Snapshot exports the user state.
func (u *User) Snapshot() Snapshot {
	return Snapshot{
		ID: u.id, Name: u.name, Bio: u.bio, Interests: u.interests,
		Followers: u.followers, Followings: u.followings,
		LikedPosts: u.likedPosts, SavedPosts: u.savedPosts, Posts: u.posts,
		Location: u.location, LastActive: u.lastActive, CreatedAt: u.createdAt,
		Vector: u.vector,
	}
}

// ID returns the user identifier.
func (u *User) ID() string { return u.id }

// Name returns the display name.
func (u *User) Name() string { return u.name }

// Bio returns the free-text biography.
func (u *User) Bio() string { return u.bio }

// Interests returns the ordered interest keywords.
func (u *User) Interests() []string { return u.interests }

// Followers returns follower IDs.
func (u *User) Followers() []string { return u.followers }

// Followings returns followed user IDs.
func (u *User) Followings() []string { return u.followings }

// LikedPosts returns liked post IDs.
func (u *User) LikedPosts() []string { return u.likedPosts }

// SavedPosts returns saved post IDs.
func (u *User) SavedPosts() []string { return u.savedPosts }

// Posts returns authored post IDs in insertion order.
func (u *User) Posts() []string { return u.posts }

// Location returns the free-text location.
func (u *User) Location() string { return u.location }

// LastActive returns the last activity time.
func (u *User) LastActive() time.Time { return u.lastActive }

// CreatedAt returns the account creation time.
func (u *User) CreatedAt() time.Time { return u.createdAt }

// Vector returns the reduced user vector, nil if never processed.
func (u *User) Vector() []float32 { return u.vector }

// HasVector reports whether the user was processed by a refresh.
func (u *User) HasVector() bool { return len(u.vector) > 0 }

// EmbeddingText joins the captions of authored posts, the bio and the interests.
// captions must follow the order of Posts with missing posts already skipped.
func (u *User) EmbeddingText(captions []string) string {
	return strings.Join(captions, " ") + " " + u.bio + " " + strings.Join(u.interests, " ")
}
