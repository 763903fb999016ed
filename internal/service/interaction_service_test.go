package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"unigram/internal/models"
	"unigram/internal/notifications"
	"unigram/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInteractionService_ToggleLikeTwiceRestoresState(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	u1 := testutil.CreateUser(t, e.db, "Owner")
	u2 := testutil.CreateUser(t, e.db, "Fan")
	u3 := testutil.CreateUser(t, e.db, "Other")
	post := testutil.CreatePost(t, e.db, u1, "p", time.Now().UTC())

	_, err := e.interactions.ToggleLike(ctx, post.ID, u3.ID)
	require.NoError(t, err)
	initial := len(e.notificationsFor(t, u1.ID))

	first, err := e.interactions.ToggleLike(ctx, post.ID, u2.ID)
	require.NoError(t, err)
	assert.True(t, first.Liked)
	assert.Equal(t, int64(2), first.LikesCount)

	second, err := e.interactions.ToggleLike(ctx, post.ID, u2.ID)
	require.NoError(t, err)
	assert.False(t, second.Liked)
	assert.Equal(t, int64(1), second.LikesCount)

	notes := e.notificationsFor(t, u1.ID)
	require.Len(t, notes, initial+1, "only the like-add branch notifies")
	assert.Equal(t, u2.ID, notes[0].ActorID)
	assert.Equal(t, models.NotificationLike, notes[0].Kind)
	assert.Equal(t, post.ID, notes[0].PostID)
	assert.Nil(t, notes[0].CommentID)
}

func TestInteractionService_SelfLikeNeverNotifies(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	owner := testutil.CreateUser(t, e.db, "Owner")
	post := testutil.CreatePost(t, e.db, owner, "mine", time.Now().UTC())

	for i := 0; i < 3; i++ {
		_, err := e.interactions.ToggleLike(ctx, post.ID, owner.ID)
		require.NoError(t, err)
	}
	assert.Zero(t, e.totalNotifications(t))
	assert.Empty(t, e.publisher.deliveries())
}

func TestInteractionService_ToggleLikeMissingPost(t *testing.T) {
	e := newEngine(t)
	_, err := e.interactions.ToggleLike(context.Background(), 999, 1)
	assert.True(t, models.IsNotFound(err))

	_, err = e.interactions.ToggleLike(context.Background(), 0, 1)
	assert.True(t, models.HasCode(err, models.CodeValidation))
}

func TestInteractionService_ConcurrentLikesFromDifferentActors(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	owner := testutil.CreateUser(t, e.db, "Owner")
	post := testutil.CreatePost(t, e.db, owner, "popular", time.Now().UTC())

	const n = 8
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		u := testutil.CreateUser(t, e.db, fmt.Sprintf("Fan %d", i))
		wg.Add(1)
		go func(id uint) {
			defer wg.Done()
			_, err := e.interactions.ToggleLike(ctx, post.ID, id)
			assert.NoError(t, err)
		}(u.ID)
	}
	wg.Wait()

	count, err := e.posts.CountLikes(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(n), count)
	assert.Len(t, e.notificationsFor(t, owner.ID), n)
}

func TestInteractionService_CommentNotifiesPostOwner(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	u1 := testutil.CreateUser(t, e.db, "Owner")
	u2 := testutil.CreateUser(t, e.db, "Commenter")
	post := testutil.CreatePost(t, e.db, u1, "p", time.Now().UTC())

	thread, err := e.interactions.AddComment(ctx, AddCommentInput{PostID: post.ID, AuthorID: u2.ID, Text: "hi"})
	require.NoError(t, err)
	require.Len(t, thread, 1)
	assert.Equal(t, u2.ID, thread[0].UserID)
	assert.Equal(t, "hi", thread[0].Text)
	assert.Equal(t, "Commenter", thread[0].Username)
	assert.NotNil(t, thread[0].Replies)

	notes := e.notificationsFor(t, u1.ID)
	require.Len(t, notes, 1)
	assert.Equal(t, models.NotificationComment, notes[0].Kind)
	assert.Equal(t, u2.ID, notes[0].ActorID)
	assert.Equal(t, post.ID, notes[0].PostID)
	require.NotNil(t, notes[0].CommentID)
	assert.Equal(t, thread[0].ID, *notes[0].CommentID)
	assert.Equal(t, int64(1), e.totalNotifications(t))

	sent := e.publisher.deliveries()
	require.Len(t, sent, 1)
	assert.Equal(t, u1.ID, sent[0].userID)
	view, ok := sent[0].payload.(NotificationView)
	require.True(t, ok)
	assert.Equal(t, "Commenter commented on your post", view.Message)
}

func TestInteractionService_OwnCommentCreatesNoNotification(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	u1 := testutil.CreateUser(t, e.db, "Owner")
	post := testutil.CreatePost(t, e.db, u1, "p", time.Now().UTC())

	thread, err := e.interactions.AddComment(ctx, AddCommentInput{PostID: post.ID, AuthorID: u1.ID, Text: "first!"})
	require.NoError(t, err)
	assert.Len(t, thread, 1)
	assert.Zero(t, e.totalNotifications(t))
}

func TestInteractionService_ReplyNotifiesThreadAuthorOnly(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	u1 := testutil.CreateUser(t, e.db, "Owner")
	u2 := testutil.CreateUser(t, e.db, "Commenter")
	u3 := testutil.CreateUser(t, e.db, "Replier")
	post := testutil.CreatePost(t, e.db, u1, "p", time.Now().UTC())

	thread, err := e.interactions.AddComment(ctx, AddCommentInput{PostID: post.ID, AuthorID: u2.ID, Text: "nice"})
	require.NoError(t, err)
	before := len(e.notificationsFor(t, u1.ID))

	thread, err = e.interactions.AddReply(ctx, AddReplyInput{
		PostID: post.ID, CommentID: thread[0].ID, AuthorID: u3.ID, Text: "agreed",
	})
	require.NoError(t, err)
	require.Len(t, thread, 1)
	require.Len(t, thread[0].Replies, 1)
	assert.Equal(t, "Replier", thread[0].Replies[0].Username)
	assert.Equal(t, "agreed", thread[0].Replies[0].Text)

	toU2 := e.notificationsFor(t, u2.ID)
	require.Len(t, toU2, 1)
	assert.Equal(t, models.NotificationReply, toU2[0].Kind)
	assert.Equal(t, u3.ID, toU2[0].ActorID)
	require.NotNil(t, toU2[0].CommentID)
	assert.Equal(t, thread[0].ID, *toU2[0].CommentID)

	assert.Len(t, e.notificationsFor(t, u1.ID), before, "post owner hears nothing about the reply")
}

func TestInteractionService_ReplyFindsCommentInThread(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	owner := testutil.CreateUser(t, e.db, "Owner")
	first := testutil.CreateUser(t, e.db, "First")
	second := testutil.CreateUser(t, e.db, "Second")
	replier := testutil.CreateUser(t, e.db, "Replier")
	post := testutil.CreatePost(t, e.db, owner, "p", time.Now().UTC())

	_, err := e.interactions.AddComment(ctx, AddCommentInput{PostID: post.ID, AuthorID: first.ID, Text: "one"})
	require.NoError(t, err)
	thread, err := e.interactions.AddComment(ctx, AddCommentInput{PostID: post.ID, AuthorID: second.ID, Text: "two"})
	require.NoError(t, err)
	require.Len(t, thread, 2)

	thread, err = e.interactions.AddReply(ctx, AddReplyInput{
		PostID: post.ID, CommentID: thread[1].ID, AuthorID: replier.ID, Text: "re: two",
	})
	require.NoError(t, err)
	assert.Empty(t, thread[0].Replies)
	require.Len(t, thread[1].Replies, 1)
	assert.Equal(t, thread[1].ID, thread[1].Replies[0].CommentID)

	assert.Empty(t, e.notificationsFor(t, first.ID))
	toSecond := e.notificationsFor(t, second.ID)
	require.Len(t, toSecond, 1)
	assert.Equal(t, models.NotificationReply, toSecond[0].Kind)
}

func TestInteractionService_ReplyValidation(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	u1 := testutil.CreateUser(t, e.db, "Owner")
	a := testutil.CreatePost(t, e.db, u1, "a", time.Now().UTC())
	b := testutil.CreatePost(t, e.db, u1, "b", time.Now().UTC())
	thread, err := e.interactions.AddComment(ctx, AddCommentInput{PostID: a.ID, AuthorID: u1.ID, Text: "on a"})
	require.NoError(t, err)

	tests := []struct {
		name string
		in   AddReplyInput
		code string
	}{
		{"empty text", AddReplyInput{PostID: a.ID, CommentID: thread[0].ID, AuthorID: u1.ID, Text: "   "}, models.CodeValidation},
		{"missing post", AddReplyInput{PostID: 999, CommentID: thread[0].ID, AuthorID: u1.ID, Text: "x"}, models.CodeNotFound},
		{"comment on another post", AddReplyInput{PostID: b.ID, CommentID: thread[0].ID, AuthorID: u1.ID, Text: "x"}, models.CodeNotFound},
		{"missing comment", AddReplyInput{PostID: a.ID, CommentID: 999, AuthorID: u1.ID, Text: "x"}, models.CodeNotFound},
		{"unknown author", AddReplyInput{PostID: a.ID, CommentID: thread[0].ID, AuthorID: 999, Text: "x"}, models.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.interactions.AddReply(ctx, tt.in)
			assert.True(t, models.HasCode(err, tt.code), "got %v", err)
		})
	}
}

func TestInteractionService_CommentValidation(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	u1 := testutil.CreateUser(t, e.db, "Owner")
	post := testutil.CreatePost(t, e.db, u1, "p", time.Now().UTC())

	_, err := e.interactions.AddComment(ctx, AddCommentInput{PostID: post.ID, AuthorID: u1.ID, Text: ""})
	assert.True(t, models.HasCode(err, models.CodeValidation))

	_, err = e.interactions.AddComment(ctx, AddCommentInput{PostID: 999, AuthorID: u1.ID, Text: ""})
	assert.True(t, models.HasCode(err, models.CodeValidation), "empty text is reported before the missing post")

	_, err = e.interactions.AddComment(ctx, AddCommentInput{PostID: 999, AuthorID: u1.ID, Text: "hello"})
	assert.True(t, models.IsNotFound(err))

	long := make([]rune, maxCommentLen+1)
	for i := range long {
		long[i] = 'a'
	}
	_, err = e.interactions.AddComment(ctx, AddCommentInput{PostID: post.ID, AuthorID: u1.ID, Text: string(long)})
	assert.True(t, models.HasCode(err, models.CodeValidation))
}

func TestInteractionService_ConcurrentRepliesKeepOrderPerComment(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	owner := testutil.CreateUser(t, e.db, "Owner")
	u2 := testutil.CreateUser(t, e.db, "Second")
	post := testutil.CreatePost(t, e.db, owner, "p", time.Now().UTC())

	_, err := e.interactions.AddComment(ctx, AddCommentInput{PostID: post.ID, AuthorID: owner.ID, Text: "left"})
	require.NoError(t, err)
	thread, err := e.interactions.AddComment(ctx, AddCommentInput{PostID: post.ID, AuthorID: u2.ID, Text: "right"})
	require.NoError(t, err)
	require.Len(t, thread, 2)

	var wg sync.WaitGroup
	for _, c := range thread {
		wg.Add(1)
		go func(c CommentView) {
			defer wg.Done()
			for i := 0; i < 6; i++ {
				_, err := e.interactions.AddReply(ctx, AddReplyInput{
					PostID: post.ID, CommentID: c.ID, AuthorID: u2.ID, Text: fmt.Sprintf("%s %d", c.Text, i),
				})
				assert.NoError(t, err)
			}
		}(c)
	}
	wg.Wait()

	view, err := e.interactions.GetPost(ctx, post.ID, 0)
	require.NoError(t, err)
	require.Len(t, view.Comments, 2)
	assert.Equal(t, "left", view.Comments[0].Text)
	for _, c := range view.Comments {
		require.Len(t, c.Replies, 6)
		for i, r := range c.Replies {
			assert.Equal(t, fmt.Sprintf("%s %d", c.Text, i), r.Text)
		}
	}
}

func TestInteractionService_ListFeedOrderAndFilter(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	base := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	alice := testutil.CreateUser(t, e.db, "Alice")
	bob := testutil.CreateUser(t, e.db, "Bob")
	offsets := []int{3, 0, 5, 1, 4, 2}
	for i, h := range offsets {
		owner := alice
		if i%2 == 1 {
			owner = bob
		}
		testutil.CreatePost(t, e.db, owner, fmt.Sprintf("p%d", i), base.Add(time.Duration(h)*time.Hour))
	}

	feed, err := e.interactions.ListFeed(ctx, ListFeedInput{})
	require.NoError(t, err)
	require.Len(t, feed, len(offsets))
	for i := 1; i < len(feed); i++ {
		assert.False(t, feed[i].CreatedAt.After(feed[i-1].CreatedAt), "feed must be newest first")
	}

	mine, err := e.interactions.ListFeed(ctx, ListFeedInput{OwnerID: &bob.ID})
	require.NoError(t, err)
	require.Len(t, mine, 3)
	for _, p := range mine {
		assert.Equal(t, bob.ID, p.UserID)
	}

	page, err := e.interactions.ListFeed(ctx, ListFeedInput{Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, feed[1].ID, page[0].ID)
}

func TestInteractionService_FeedReflectsProfileEdits(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	owner := testutil.CreateUser(t, e.db, "Old Name")
	fan := testutil.CreateUser(t, e.db, "Fan")
	post := testutil.CreatePost(t, e.db, owner, "p", time.Now().UTC())
	_, err := e.interactions.AddComment(ctx, AddCommentInput{PostID: post.ID, AuthorID: owner.ID, Text: "hello"})
	require.NoError(t, err)
	_, err = e.interactions.ToggleLike(ctx, post.ID, fan.ID)
	require.NoError(t, err)

	require.NoError(t, e.users.UpdateProfile(ctx, owner.ID, map[string]any{
		"Name": "New Name", "ProfileImageURL": "https://img.unigram.test/new.png",
	}))

	view, err := e.interactions.GetPost(ctx, post.ID, fan.ID)
	require.NoError(t, err)
	assert.Equal(t, "New Name", view.Username)
	assert.Equal(t, "https://img.unigram.test/new.png", view.ProfileImageURL)
	assert.Equal(t, "New Name", view.Comments[0].Username)
	assert.True(t, view.Liked)
	assert.Equal(t, []uint{fan.ID}, view.Likes)

	var stored models.Comment
	require.NoError(t, e.db.First(&stored, view.Comments[0].ID).Error)
	assert.Equal(t, "Old Name", stored.Username, "snapshot is only written at creation")
}

func TestInteractionService_NotificationFailureDoesNotFailInteraction(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	var attempts int
	failing := NewNotificationService(&notificationRepoStub{
		createFn: func(context.Context, *models.Notification) error {
			attempts++
			return errBoom
		},
	}, e.identities, e.publisher)
	svc := NewInteractionService(e.posts, e.identities, e.projector, failing)

	owner := testutil.CreateUser(t, e.db, "Owner")
	fan := testutil.CreateUser(t, e.db, "Fan")
	post := testutil.CreatePost(t, e.db, owner, "p", time.Now().UTC())

	res, err := svc.ToggleLike(ctx, post.ID, fan.ID)
	require.NoError(t, err)
	assert.True(t, res.Liked)
	assert.Equal(t, int64(1), res.LikesCount)

	thread, err := svc.AddComment(ctx, AddCommentInput{PostID: post.ID, AuthorID: fan.ID, Text: "still works"})
	require.NoError(t, err)
	assert.Len(t, thread, 1)

	assert.Equal(t, 2, attempts)
	assert.Empty(t, e.publisher.deliveries(), "nothing is pushed for an unstored notification")
}

func TestInteractionService_NotificationSurvivesCancelledRequest(t *testing.T) {
	e := newEngine(t)

	var sawCancelled bool
	recorder := NewNotificationService(&notificationRepoStub{
		createFn: func(ctx context.Context, _ *models.Notification) error {
			sawCancelled = ctx.Err() != nil
			return nil
		},
	}, nil, nil)

	owner := testutil.CreateUser(t, e.db, "Owner")
	fan := testutil.CreateUser(t, e.db, "Fan")
	post := testutil.CreatePost(t, e.db, owner, "p", time.Now().UTC())

	ctx, cancel := context.WithCancel(context.Background())
	emitter := &cancelAfterMutation{inner: recorder, cancel: cancel}
	svc := NewInteractionService(e.posts, e.identities, e.projector, emitter)

	_, err := svc.ToggleLike(ctx, post.ID, fan.ID)
	require.NoError(t, err)
	assert.True(t, emitter.called)
	assert.False(t, sawCancelled)
}

// cancelAfterMutation cancels the request context right before emitting.
type cancelAfterMutation struct {
	inner  NotificationEmitter
	cancel context.CancelFunc
	called bool
}

func (c *cancelAfterMutation) Emit(ctx context.Context, e notifications.Event) {
	c.called = true
	c.cancel()
	c.inner.Emit(ctx, e)
}

func TestInteractionService_AuthorLookupFailureSnapshotsFallback(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	owner := testutil.CreateUser(t, e.db, "Owner")
	post := testutil.CreatePost(t, e.db, owner, "p", time.Now().UTC())

	svc := NewInteractionService(e.posts, failingIdentities(), NewFeedProjector(failingIdentities(), ""), nil)
	thread, err := svc.AddComment(ctx, AddCommentInput{PostID: post.ID, AuthorID: owner.ID, Text: "hi"})
	require.NoError(t, err)
	require.Len(t, thread, 1)
	assert.Equal(t, models.FallbackDisplayName, thread[0].Username)
	assert.Equal(t, models.DefaultAvatarURL, thread[0].ProfileImageURL)
}
