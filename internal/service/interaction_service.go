package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"unigram/internal/models"
	"unigram/internal/notifications"
	"unigram/internal/observability"
	"unigram/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

const (
	maxCommentLen = 2200
	defaultPage   = 20
	maxPage       = 100
)

// NotificationEmitter records the notification for an interaction, if any.
// Emit never fails the caller.
type NotificationEmitter interface {
	Emit(ctx context.Context, e notifications.Event)
}

// InteractionService mutates posts through likes, comments and replies and
// serves the feed. Every mutation is one statement against the post store;
// notifications are emitted only after it succeeds.
//
// Two toggles by the same actor on the same post that run concurrently can
// both take the same branch, so the final like state is whichever write
// lands last. Toggles by different actors never lose each other's update.
type InteractionService struct {
	posts      repository.PostRepository
	identities IdentityResolver
	projector  *FeedProjector
	emitter    NotificationEmitter
	now        func() time.Time
}

type AddCommentInput struct {
	PostID   uint
	AuthorID uint
	Text     string
}

type AddReplyInput struct {
	PostID    uint
	CommentID uint
	AuthorID  uint
	Text      string
}

type ListFeedInput struct {
	OwnerID  *uint
	ViewerID uint
	Limit    int
	Offset   int
}

func NewInteractionService(
	posts repository.PostRepository,
	identities IdentityResolver,
	projector *FeedProjector,
	emitter NotificationEmitter,
) *InteractionService {
	return &InteractionService{
		posts:      posts,
		identities: identities,
		projector:  projector,
		emitter:    emitter,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// ToggleLike flips actorID's membership in the post's like-set. Only the
// unliked-to-liked transition notifies, and only when this call inserted the
// like.
func (s *InteractionService) ToggleLike(ctx context.Context, postID, actorID uint) (result *LikeResult, err error) {
	ctx, span := observability.StartSpan(ctx, "InteractionService.ToggleLike",
		attribute.Int64("post.id", int64(postID)), attribute.Int64("actor.id", int64(actorID)))
	defer func() { observability.EndSpan(span, err) }()

	if postID == 0 || actorID == 0 {
		return nil, models.NewValidationError("post and actor are required")
	}

	post, err := s.posts.GetHeader(ctx, postID)
	if err != nil {
		return nil, err
	}

	removed, err := s.posts.RemoveLike(ctx, postID, actorID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	liked := false
	if !removed {
		added, err := s.posts.AddLike(ctx, postID, actorID)
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		liked = true
		if added {
			s.emit(ctx, notifications.Event{
				Kind:        models.NotificationLike,
				ActorID:     actorID,
				PostID:      post.ID,
				PostOwnerID: post.UserID,
			})
		}
	}

	count, err := s.posts.CountLikes(ctx, postID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	action := "unlike"
	if liked {
		action = "like"
	}
	observability.InteractionsTotal.WithLabelValues(action).Inc()

	return &LikeResult{LikesCount: count, Liked: liked}, nil
}

// AddComment appends a comment to the post and returns the whole thread.
// The post owner is notified unless they wrote it.
func (s *InteractionService) AddComment(ctx context.Context, in AddCommentInput) (views []CommentView, err error) {
	ctx, span := observability.StartSpan(ctx, "InteractionService.AddComment",
		attribute.Int64("post.id", int64(in.PostID)))
	defer func() { observability.EndSpan(span, err) }()

	text, err := commentText(in.Text)
	if err != nil {
		return nil, err
	}
	if in.PostID == 0 || in.AuthorID == 0 {
		return nil, models.NewValidationError("post and author are required")
	}

	post, err := s.posts.GetHeader(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	name, err := s.snapshotName(ctx, in.AuthorID)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		PostID:    post.ID,
		UserID:    in.AuthorID,
		Username:  name,
		Text:      text,
		CreatedAt: s.now(),
	}
	if err := s.posts.AddComment(ctx, comment); err != nil {
		return nil, models.NewInternalError(err)
	}
	observability.InteractionsTotal.WithLabelValues("comment").Inc()

	commentID := comment.ID
	s.emit(ctx, notifications.Event{
		Kind:        models.NotificationComment,
		ActorID:     in.AuthorID,
		PostID:      post.ID,
		PostOwnerID: post.UserID,
		CommentID:   &commentID,
	})

	return s.thread(ctx, post.ID)
}

// AddReply appends a reply under a comment of the post and returns the whole
// thread. The comment's author is notified unless they wrote the reply.
func (s *InteractionService) AddReply(ctx context.Context, in AddReplyInput) (views []CommentView, err error) {
	ctx, span := observability.StartSpan(ctx, "InteractionService.AddReply",
		attribute.Int64("post.id", int64(in.PostID)), attribute.Int64("comment.id", int64(in.CommentID)))
	defer func() { observability.EndSpan(span, err) }()

	text, err := commentText(in.Text)
	if err != nil {
		return nil, err
	}
	if in.PostID == 0 || in.CommentID == 0 || in.AuthorID == 0 {
		return nil, models.NewValidationError("post, comment and author are required")
	}

	post, err := s.posts.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	parent, ok := post.Comment(in.CommentID)
	if !ok {
		return nil, models.NewNotFoundError("Comment", in.CommentID)
	}
	name, err := s.snapshotName(ctx, in.AuthorID)
	if err != nil {
		return nil, err
	}

	reply := &models.Reply{
		CommentID: parent.ID,
		PostID:    post.ID,
		UserID:    in.AuthorID,
		Username:  name,
		Text:      text,
		CreatedAt: s.now(),
	}
	if err := s.posts.AddReply(ctx, reply); err != nil {
		return nil, models.NewInternalError(err)
	}
	observability.InteractionsTotal.WithLabelValues("reply").Inc()

	commentID := parent.ID
	s.emit(ctx, notifications.Event{
		Kind:            models.NotificationReply,
		ActorID:         in.AuthorID,
		PostID:          post.ID,
		PostOwnerID:     post.UserID,
		CommentID:       &commentID,
		CommentAuthorID: parent.UserID,
	})

	return s.thread(ctx, post.ID)
}

// ListFeed returns posts newest first, optionally only one owner's.
func (s *InteractionService) ListFeed(ctx context.Context, in ListFeedInput) (views []PostView, err error) {
	ctx, span := observability.StartSpan(ctx, "InteractionService.ListFeed")
	defer func() { observability.EndSpan(span, err) }()

	limit := in.Limit
	if limit <= 0 {
		limit = defaultPage
	}
	if limit > maxPage {
		limit = maxPage
	}
	offset := in.Offset
	if offset < 0 {
		offset = 0
	}

	posts, err := s.posts.List(ctx, repository.PostFilter{OwnerID: in.OwnerID, Limit: limit, Offset: offset})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return s.projector.Posts(ctx, posts, in.ViewerID), nil
}

// GetPost returns one post with its full thread.
func (s *InteractionService) GetPost(ctx context.Context, postID, viewerID uint) (*PostView, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	view := s.projector.Post(ctx, post, viewerID)
	return &view, nil
}

func (s *InteractionService) thread(ctx context.Context, postID uint) ([]CommentView, error) {
	comments, err := s.posts.ListComments(ctx, postID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return s.projector.Comments(ctx, comments), nil
}

// snapshotName resolves the author's current name for the stored snapshot.
// An unknown author fails the write; a lookup failure snapshots the
// fallback name and lets read-time projection repair it.
func (s *InteractionService) snapshotName(ctx context.Context, userID uint) (string, error) {
	identity, err := s.identities.Resolve(ctx, userID)
	if err != nil {
		if models.IsNotFound(err) {
			return "", err
		}
		observability.GlobalLogger.WarnContext(ctx, "author lookup failed, snapshotting fallback name",
			"author_id", userID, "error", err)
		return models.FallbackDisplayName, nil
	}
	if identity.Name == "" {
		return models.FallbackDisplayName, nil
	}
	return identity.Name, nil
}

func (s *InteractionService) emit(ctx context.Context, e notifications.Event) {
	if s.emitter != nil {
		s.emitter.Emit(ctx, e)
	}
}

func commentText(raw string) (string, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", models.NewValidationError("Text is required")
	}
	if utf8.RuneCountInString(text) > maxCommentLen {
		return "", models.NewValidationError("Text too long (max 2200 characters)")
	}
	return text, nil
}
