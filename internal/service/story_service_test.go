package service

import (
	"context"
	"testing"
	"time"

	"unigram/internal/models"
	"unigram/internal/repository"
	"unigram/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoryService_Lifecycle(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	ada := testutil.CreateUser(t, e.db, "Ada")
	bob := testutil.CreateUser(t, e.db, "Bob")

	svc := NewStoryService(repository.NewStoryRepository(e.db), e.users, &memoryStore{}, e.projector, 24*time.Hour)
	clock := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return clock }

	post := func(user uint, overlay string) *StoryView {
		v, err := svc.CreateStory(ctx, CreateStoryInput{UserID: user, Image: []byte{1}, TextOverlay: overlay})
		require.NoError(t, err)
		return v
	}

	expired := post(ada.ID, "old")
	clock = clock.Add(20 * time.Hour)
	first := post(ada.ID, "morning")
	clock = clock.Add(time.Hour)
	bobs := post(bob.ID, "")
	clock = clock.Add(time.Hour)
	latest := post(ada.ID, "evening")
	clock = clock.Add(3 * time.Hour)
	assert.Equal(t, first.CreatedAt.Add(24*time.Hour), first.ExpiresAt)

	groups, err := svc.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, ada.ID, groups[0].UserID)
	assert.Equal(t, "Ada", groups[0].Username)
	assert.Equal(t, []uint{latest.ID, first.ID}, []uint{groups[0].Stories[0].ID, groups[0].Stories[1].ID})
	assert.Equal(t, bob.ID, groups[1].UserID)
	assert.Equal(t, bobs.ID, groups[1].Stories[0].ID)

	err = svc.DeleteStory(ctx, bob.ID, latest.ID)
	assert.True(t, models.HasCode(err, models.CodeUnauthorized))
	require.NoError(t, svc.DeleteStory(ctx, ada.ID, latest.ID))
	assert.True(t, models.IsNotFound(svc.DeleteStory(ctx, ada.ID, latest.ID)))

	purged, err := svc.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)
	_, err = repository.NewStoryRepository(e.db).GetByID(ctx, expired.ID)
	assert.True(t, models.IsNotFound(err))
}

func TestStoryService_CreateValidation(t *testing.T) {
	e := newEngine(t)
	svc := NewStoryService(repository.NewStoryRepository(e.db), e.users, &memoryStore{}, e.projector, 0)
	ctx := context.Background()

	_, err := svc.CreateStory(ctx, CreateStoryInput{UserID: 1})
	assert.True(t, models.HasCode(err, models.CodeValidation))

	_, err = svc.CreateStory(ctx, CreateStoryInput{UserID: 999, Image: []byte{1}})
	assert.True(t, models.IsNotFound(err))
	assert.Equal(t, defaultStoryTTL, svc.ttl)
}

func TestStoryService_Sweeper(t *testing.T) {
	e := newEngine(t)
	repo := repository.NewStoryRepository(e.db)
	svc := NewStoryService(repo, e.users, &memoryStore{}, e.projector, time.Hour)

	require.NoError(t, repo.Create(context.Background(), &models.Story{
		UserID: 1, ImageURL: "x", CreatedAt: time.Now().UTC().Add(-2 * time.Hour),
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.StartSweeper(ctx, 10*time.Millisecond)

	assert.Eventually(t, func() bool {
		active, err := repo.ListSince(context.Background(), time.Time{})
		return err == nil && len(active) == 0
	}, time.Second, 10*time.Millisecond)
}
