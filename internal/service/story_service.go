package service

import (
	"context"
	"strings"
	"time"

	"unigram/internal/models"
	"unigram/internal/observability"
	"unigram/internal/repository"
)

const (
	defaultStoryTTL = 24 * time.Hour
	maxOverlayLen   = 200
)

// StoryService manages ephemeral stories that disappear after a TTL.
type StoryService struct {
	stories   repository.StoryRepository
	users     repository.UserRepository
	store     ObjectStore
	projector *FeedProjector
	ttl       time.Duration
	now       func() time.Time
}

type CreateStoryInput struct {
	UserID      uint
	Image       []byte
	TextOverlay string
}

func NewStoryService(
	stories repository.StoryRepository,
	users repository.UserRepository,
	store ObjectStore,
	projector *FeedProjector,
	ttl time.Duration,
) *StoryService {
	if ttl <= 0 {
		ttl = defaultStoryTTL
	}
	return &StoryService{
		stories:   stories,
		users:     users,
		store:     store,
		projector: projector,
		ttl:       ttl,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *StoryService) CreateStory(ctx context.Context, in CreateStoryInput) (*StoryView, error) {
	if len(in.Image) == 0 {
		return nil, models.NewValidationError("Image is required")
	}
	overlay := strings.TrimSpace(in.TextOverlay)
	if len([]rune(overlay)) > maxOverlayLen {
		return nil, models.NewValidationError("Text overlay too long (max 200 characters)")
	}
	if _, err := s.users.GetByID(ctx, in.UserID); err != nil {
		return nil, err
	}

	url, err := s.store.Put(ctx, "stories", in.Image)
	if err != nil {
		return nil, err
	}

	story := &models.Story{
		UserID:      in.UserID,
		ImageURL:    url,
		TextOverlay: overlay,
		CreatedAt:   s.now(),
	}
	if err := s.stories.Create(ctx, story); err != nil {
		return nil, models.NewInternalError(err)
	}
	view := s.view(story)
	return &view, nil
}

// ListActive returns unexpired stories grouped by user. Groups are ordered by
// their most recent story.
func (s *StoryService) ListActive(ctx context.Context) ([]StoryGroup, error) {
	stories, err := s.stories.ListSince(ctx, s.now().Add(-s.ttl))
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	var groups []StoryGroup
	index := map[uint]int{}
	for i := range stories {
		st := &stories[i]
		gi, ok := index[st.UserID]
		if !ok {
			gi = len(groups)
			index[st.UserID] = gi
			groups = append(groups, StoryGroup{UserID: st.UserID})
		}
		groups[gi].Stories = append(groups[gi].Stories, s.view(st))
	}

	ids := make([]uint, len(groups))
	for i, g := range groups {
		ids[i] = g.UserID
	}
	live := s.projector.lookup(ctx, ids)
	for i := range groups {
		groups[i].Username, groups[i].ProfileImageURL = s.projector.display(live, groups[i].UserID, "")
	}
	return groups, nil
}

// DeleteStory removes a story owned by actorID.
func (s *StoryService) DeleteStory(ctx context.Context, actorID, storyID uint) error {
	story, err := s.stories.GetByID(ctx, storyID)
	if err != nil {
		return err
	}
	if story.UserID != actorID {
		return models.NewUnauthorizedError("You can only delete your own stories")
	}
	return s.stories.Delete(ctx, storyID)
}

// PurgeExpired deletes every story past its TTL.
func (s *StoryService) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.stories.DeleteOlderThan(ctx, s.now().Add(-s.ttl))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		observability.StoriesPurged.Add(float64(n))
	}
	return n, nil
}

// StartSweeper purges expired stories every interval until ctx is done.
func (s *StoryService) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := s.PurgeExpired(ctx)
				if err != nil {
					observability.GlobalLogger.ErrorContext(ctx, "story sweep failed", "error", err)
					continue
				}
				if n > 0 {
					observability.GlobalLogger.InfoContext(ctx, "purged expired stories", "count", n)
				}
			}
		}
	}()
}

func (s *StoryService) view(st *models.Story) StoryView {
	return StoryView{
		ID:          st.ID,
		ImageURL:    st.ImageURL,
		TextOverlay: st.TextOverlay,
		CreatedAt:   st.CreatedAt,
		ExpiresAt:   st.ExpiresAt(s.ttl),
	}
}
