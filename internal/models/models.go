package models

import "time"

// User represents a profile record within the Surf directory. Profiles are
// created or updated the first time an authenticated caller writes to
// /users/me; this subsystem never deletes them.
type User struct {
	ID          string
	DisplayName string
	AvatarURL   string
	Bio         string
	Email       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Friend request lifecycle states. Accepted and rejected are terminal;
// a pending request may also be deleted outright (withdrawal).
const (
	RequestStatusPending  = "pending"
	RequestStatusAccepted = "accepted"
	RequestStatusRejected = "rejected"
)

// FriendRequest represents the invitation workflow between two users.
type FriendRequest struct {
	ID          string
	Requester   string
	Receiver    string
	Status      string
	CreatedAt   time.Time
	RespondedAt *time.Time
}

// Open reports whether the request is still awaiting a response.
func (r FriendRequest) Open() bool {
	return r.Status == RequestStatusPending
}

// Involves reports whether the given user is one of the two parties.
func (r FriendRequest) Involves(userID string) bool {
	return r.Requester == userID || r.Receiver == userID
}

// Post visibility levels.
const (
	PrivacyPublic  = "public"
	PrivacyFriends = "friends"
)

// Post is a timeline entry authored by a user. LikeCount and ReplyCount are
// denormalized and maintained alongside the like and comment tables.
type Post struct {
	ID            string
	AuthorID      string
	Content       string
	MediaURLs     []string
	Feeling       string
	Location      string
	TaggedFriends []string
	Privacy       string
	LikeCount     int
	ReplyCount    int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Comment is a reply attached to a post.
type Comment struct {
	ID        string
	PostID    string
	AuthorID  string
	Content   string
	LikeCount int
	CreatedAt time.Time
	UpdatedAt time.Time
}
