// Package notifications decides who hears about an interaction and delivers
// stored notifications to connected clients.
package notifications

import (
	"time"

	"unigram/internal/models"
)

// Event describes one interaction. PostOwnerID and CommentAuthorID are the
// candidate recipients; which one applies depends on Kind.
type Event struct {
	Kind            models.NotificationKind
	ActorID         uint
	PostID          uint
	PostOwnerID     uint
	CommentID       *uint
	CommentAuthorID uint
}

// recipientPolicy maps each kind to the party it notifies. Comments go to the
// post owner, replies go to the author of the comment being replied to.
var recipientPolicy = map[models.NotificationKind]func(Event) uint{
	models.NotificationLike:    func(e Event) uint { return e.PostOwnerID },
	models.NotificationComment: func(e Event) uint { return e.PostOwnerID },
	models.NotificationReply:   func(e Event) uint { return e.CommentAuthorID },
}

// RecipientFor returns the user e should notify, or 0 for an unknown kind.
func RecipientFor(e Event) uint {
	pick, ok := recipientPolicy[e.Kind]
	if !ok {
		return 0
	}
	return pick(e)
}

// Resolve builds the notification for actor's action on recipient's content.
// It returns nil when the actor is the recipient. Like notifications never
// carry a comment id; comment and reply notifications must.
func Resolve(actorID, recipientID uint, kind models.NotificationKind, postID uint, commentID *uint, now time.Time) (*models.Notification, error) {
	if !kind.Valid() {
		return nil, models.NewValidationError("unknown notification kind " + string(kind))
	}
	if recipientID == 0 || actorID == 0 || postID == 0 {
		return nil, models.NewValidationError("notification requires actor, recipient and post")
	}
	if kind.RequiresComment() && commentID == nil {
		return nil, models.NewValidationError(string(kind) + " notification requires a comment id")
	}
	if actorID == recipientID {
		return nil, nil
	}

	n := &models.Notification{
		RecipientID: recipientID,
		ActorID:     actorID,
		Kind:        kind,
		PostID:      postID,
		Read:        false,
		CreatedAt:   now,
	}
	if kind.RequiresComment() {
		id := *commentID
		n.CommentID = &id
	}
	return n, nil
}

// ResolveEvent applies the recipient policy and then Resolve.
func ResolveEvent(e Event, now time.Time) (*models.Notification, error) {
	return Resolve(e.ActorID, RecipientFor(e), e.Kind, e.PostID, e.CommentID, now)
}
