package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"unigram/internal/models"
	"unigram/internal/repository"
)

const maxCaptionLen = 2200

// ObjectStore keeps uploaded images and returns a stable public URL.
type ObjectStore interface {
	Put(ctx context.Context, prefix string, data []byte) (string, error)
}

type PostService struct {
	posts     repository.PostRepository
	users     repository.UserRepository
	store     ObjectStore
	projector *FeedProjector
	now       func() time.Time
}

type CreatePostInput struct {
	OwnerID uint
	Caption string
	Image   []byte
}

func NewPostService(
	posts repository.PostRepository,
	users repository.UserRepository,
	store ObjectStore,
	projector *FeedProjector,
) *PostService {
	return &PostService{
		posts:     posts,
		users:     users,
		store:     store,
		projector: projector,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreatePost uploads the image and stores a post with the owner's current
// name as its snapshot.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*PostView, error) {
	if len(in.Image) == 0 {
		return nil, models.NewValidationError("Image is required")
	}
	caption := strings.TrimSpace(in.Caption)
	if utf8.RuneCountInString(caption) > maxCaptionLen {
		return nil, models.NewValidationError("Caption too long (max 2200 characters)")
	}

	owner, err := s.users.GetByID(ctx, in.OwnerID)
	if err != nil {
		return nil, err
	}

	url, err := s.store.Put(ctx, "posts", in.Image)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		UserID:    owner.ID,
		Username:  owner.Name,
		ImageURL:  url,
		Caption:   caption,
		CreatedAt: s.now(),
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, models.NewInternalError(err)
	}

	view := s.projector.Post(ctx, post, owner.ID)
	return &view, nil
}
