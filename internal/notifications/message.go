package notifications

import "unigram/internal/models"

const (
	selfActorLabel    = "You"
	unknownActorLabel = "Someone"
)

var messageTemplates = map[models.NotificationKind]string{
	models.NotificationLike:    "liked your post",
	models.NotificationComment: "commented on your post",
	models.NotificationReply:   "replied to your comment",
}

// ActorLabel picks the name shown for the actor of a notification. A resolved
// name is used unless the actor is the recipient; an empty name falls back to
// a placeholder.
func ActorLabel(actorID, recipientID uint, resolvedName string) string {
	switch {
	case actorID == recipientID:
		return selfActorLabel
	case resolvedName != "":
		return resolvedName
	default:
		return unknownActorLabel
	}
}

// Message renders the human-readable line for a notification.
func Message(kind models.NotificationKind, actorLabel string) string {
	tmpl, ok := messageTemplates[kind]
	if !ok {
		tmpl = "interacted with your post"
	}
	return actorLabel + " " + tmpl
}
