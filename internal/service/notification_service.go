package service

import (
	"context"
	"time"

	"unigram/internal/models"
	"unigram/internal/notifications"
	"unigram/internal/observability"
	"unigram/internal/repository"
)

const (
	defaultNotificationLimit = 50
	maxNotificationLimit     = 200
)

// RealtimePublisher pushes an event to a user's live connections.
type RealtimePublisher interface {
	Deliver(ctx context.Context, userID uint, eventType string, payload any) error
}

// NotificationService writes notifications for interactions and serves the
// recipient's read path.
type NotificationService struct {
	repo       repository.NotificationRepository
	identities IdentityResolver
	publisher  RealtimePublisher
	avatar     string
	now        func() time.Time
}

// NewNotificationService wires the service. publisher may be nil.
func NewNotificationService(
	repo repository.NotificationRepository,
	identities IdentityResolver,
	publisher RealtimePublisher,
) *NotificationService {
	return &NotificationService{
		repo:       repo,
		identities: identities,
		publisher:  publisher,
		avatar:     models.DefaultAvatarURL,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// SetDefaultAvatar overrides the avatar shown for actors without one.
func (s *NotificationService) SetDefaultAvatar(url string) {
	if url != "" {
		s.avatar = url
	}
}

// Emit resolves and stores the notification for e, then pushes it to the
// recipient. Failures are logged and counted; the interaction that produced
// e has already committed and is not affected.
func (s *NotificationService) Emit(ctx context.Context, e notifications.Event) {
	ctx = context.WithoutCancel(ctx)
	kind := string(e.Kind)

	n, err := notifications.ResolveEvent(e, s.now())
	if err != nil {
		observability.NotificationsSuppressed.WithLabelValues(kind, "invalid").Inc()
		observability.LogSideEffectFailure(ctx, "notification.resolve", err, map[string]any{
			"kind": kind, "post_id": e.PostID, "actor_id": e.ActorID,
		})
		return
	}
	if n == nil {
		observability.NotificationsSuppressed.WithLabelValues(kind, "self").Inc()
		return
	}

	if err := s.repo.Create(ctx, n); err != nil {
		observability.NotificationWriteFailures.WithLabelValues(kind).Inc()
		observability.LogSideEffectFailure(ctx, "notification.create", err, map[string]any{
			"kind": kind, "recipient_id": n.RecipientID, "post_id": n.PostID,
		})
		return
	}
	observability.NotificationsCreated.WithLabelValues(kind).Inc()

	if s.publisher == nil {
		return
	}
	view := s.views(ctx, n.RecipientID, []models.Notification{*n})[0]
	if err := s.publisher.Deliver(ctx, n.RecipientID, notifications.EventNotificationCreated, view); err != nil {
		observability.RealtimePublishFailures.Inc()
		observability.LogSideEffectFailure(ctx, "notification.publish", err, map[string]any{
			"recipient_id": n.RecipientID, "notification_id": n.ID,
		})
	}
}

// ListNotifications returns one page of recipientID's notifications, newest
// first. Only the recipient may read them; older pages are reached by offset.
func (s *NotificationService) ListNotifications(ctx context.Context, viewerID, recipientID uint, limit, offset int) ([]NotificationView, error) {
	if err := s.authorizeRecipient(ctx, viewerID, recipientID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultNotificationLimit
	}
	if limit > maxNotificationLimit {
		limit = maxNotificationLimit
	}
	if offset < 0 {
		offset = 0
	}

	items, err := s.repo.ListByRecipient(ctx, recipientID, limit, offset)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return s.views(ctx, recipientID, items), nil
}

// MarkAllSeen marks every unread notification for recipientID as read and
// returns how many changed. A second call returns 0.
func (s *NotificationService) MarkAllSeen(ctx context.Context, viewerID, recipientID uint) (int64, error) {
	if err := s.authorizeRecipient(ctx, viewerID, recipientID); err != nil {
		return 0, err
	}
	n, err := s.repo.MarkAllRead(ctx, recipientID)
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, viewerID, recipientID uint) (int64, error) {
	if err := s.authorizeRecipient(ctx, viewerID, recipientID); err != nil {
		return 0, err
	}
	n, err := s.repo.CountUnread(ctx, recipientID)
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}

func (s *NotificationService) views(ctx context.Context, recipientID uint, items []models.Notification) []NotificationView {
	ids := make([]uint, 0, len(items))
	for _, n := range items {
		ids = append(ids, n.ActorID)
	}

	var actors map[uint]Identity
	if len(ids) > 0 && s.identities != nil {
		var err error
		actors, err = s.identities.ResolveMany(ctx, dedupe(ids))
		if err != nil {
			observability.GlobalLogger.WarnContext(ctx, "actor lookup failed, using placeholders", "error", err)
		}
	}

	out := make([]NotificationView, 0, len(items))
	for _, n := range items {
		actor := actors[n.ActorID]
		label := notifications.ActorLabel(n.ActorID, recipientID, actor.Name)
		name, avatar := actor.Name, actor.AvatarURL
		if name == "" {
			name = label
		}
		if avatar == "" {
			avatar = s.avatar
		}
		out = append(out, NotificationView{
			ID:        n.ID,
			Kind:      n.Kind,
			Message:   notifications.Message(n.Kind, label),
			PostID:    n.PostID,
			CommentID: n.CommentID,
			Read:      n.Read,
			CreatedAt: n.CreatedAt,
			Actor:     ActorView{ID: n.ActorID, Name: name, ProfileImageURL: avatar},
		})
	}
	return out
}

// authorizeRecipient admits only the recipient, and only while they still
// exist in the user directory.
func (s *NotificationService) authorizeRecipient(ctx context.Context, viewerID, recipientID uint) error {
	if recipientID == 0 {
		return models.NewValidationError("recipient id is required")
	}
	if viewerID != recipientID {
		return models.NewUnauthorizedError("You can only access your own notifications")
	}
	if s.identities == nil {
		return nil
	}
	if _, err := s.identities.Resolve(ctx, recipientID); err != nil {
		if models.IsNotFound(err) {
			return err
		}
		return models.NewInternalError(err)
	}
	return nil
}
