package service

import (
	"time"

	"unigram/internal/models"
)

// ReplyView is a reply with its author's display fields resolved.
type ReplyView struct {
	ID              uint      `json:"id"`
	CommentID       uint      `json:"comment_id"`
	UserID          uint      `json:"user_id"`
	Username        string    `json:"username"`
	ProfileImageURL string    `json:"profile_image_url"`
	Text            string    `json:"text"`
	CreatedAt       time.Time `json:"created_at"`
}

// CommentView is a comment and its replies in insertion order.
type CommentView struct {
	ID              uint        `json:"id"`
	UserID          uint        `json:"user_id"`
	Username        string      `json:"username"`
	ProfileImageURL string      `json:"profile_image_url"`
	Text            string      `json:"text"`
	CreatedAt       time.Time   `json:"created_at"`
	Replies         []ReplyView `json:"replies"`
}

// PostView is the denormalized post returned by feed reads.
type PostView struct {
	ID              uint          `json:"id"`
	UserID          uint          `json:"user_id"`
	Username        string        `json:"username"`
	ProfileImageURL string        `json:"profile_image_url"`
	ImageURL        string        `json:"image_url"`
	Caption         string        `json:"caption"`
	CreatedAt       time.Time     `json:"created_at"`
	Likes           []uint        `json:"likes"`
	LikesCount      int           `json:"likes_count"`
	Liked           bool          `json:"liked"`
	Comments        []CommentView `json:"comments"`
}

// LikeResult is the outcome of a like toggle.
type LikeResult struct {
	LikesCount int64 `json:"likes_count"`
	Liked      bool  `json:"liked"`
}

// ActorView identifies who triggered a notification.
type ActorView struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	ProfileImageURL string `json:"profile_image_url"`
}

// NotificationView is a notification rendered for its recipient.
type NotificationView struct {
	ID        uint                    `json:"id"`
	Kind      models.NotificationKind `json:"kind"`
	Message   string                  `json:"message"`
	PostID    uint                    `json:"post_id"`
	CommentID *uint                   `json:"comment_id,omitempty"`
	Read      bool                    `json:"read"`
	CreatedAt time.Time               `json:"created_at"`
	Actor     ActorView               `json:"actor"`
}

// StoryView is one active story.
type StoryView struct {
	ID          uint      `json:"id"`
	ImageURL    string    `json:"image_url"`
	TextOverlay string    `json:"text_overlay,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// StoryGroup holds one user's active stories, newest first.
type StoryGroup struct {
	UserID          uint        `json:"user_id"`
	Username        string      `json:"username"`
	ProfileImageURL string      `json:"profile_image_url"`
	Stories         []StoryView `json:"stories"`
}
