package models

import "time"

// NotificationKind identifies the interaction that produced a notification.
type NotificationKind string

const (
	NotificationLike    NotificationKind = "like"
	NotificationComment NotificationKind = "comment"
	NotificationReply   NotificationKind = "reply"
)

// Valid reports whether k is one of the known kinds.
func (k NotificationKind) Valid() bool {
	switch k {
	case NotificationLike, NotificationComment, NotificationReply:
		return true
	}
	return false
}

// RequiresComment reports whether notifications of this kind link a comment.
func (k NotificationKind) RequiresComment() bool {
	return k == NotificationComment || k == NotificationReply
}

// Notification records that ActorID interacted with something RecipientID
// owns. CommentID is set only for comment and reply kinds.
type Notification struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	RecipientID uint             `gorm:"not null;index:idx_notifications_recipient_created,priority:1" json:"recipient_id"`
	ActorID     uint             `gorm:"not null" json:"actor_id"`
	Kind        NotificationKind `gorm:"type:varchar(16);not null" json:"kind"`
	PostID      uint             `gorm:"not null" json:"post_id"`
	CommentID   *uint            `json:"comment_id,omitempty"`
	Read        bool             `gorm:"not null" json:"read"`
	CreatedAt   time.Time        `gorm:"index:idx_notifications_recipient_created,priority:2" json:"created_at"`
}
