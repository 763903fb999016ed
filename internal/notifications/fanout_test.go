package notifications

import (
	"testing"
	"time"

	"unigram/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uintPtr(v uint) *uint { return &v }

func TestRecipientFor(t *testing.T) {
	t.Parallel()
	base := Event{ActorID: 3, PostID: 10, PostOwnerID: 1, CommentID: uintPtr(7), CommentAuthorID: 2}

	tests := []struct {
		kind     models.NotificationKind
		expected uint
	}{
		{models.NotificationLike, 1},
		{models.NotificationComment, 1},
		{models.NotificationReply, 2},
		{models.NotificationKind("share"), 0},
	}
	for _, tt := range tests {
		e := base
		e.Kind = tt.kind
		assert.Equal(t, tt.expected, RecipientFor(e), string(tt.kind))
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("self interaction is suppressed for every kind", func(t *testing.T) {
		for _, kind := range []models.NotificationKind{models.NotificationLike, models.NotificationComment, models.NotificationReply} {
			n, err := Resolve(4, 4, kind, 10, uintPtr(1), now)
			require.NoError(t, err)
			assert.Nil(t, n, string(kind))
		}
	})

	t.Run("like drops comment linkage", func(t *testing.T) {
		n, err := Resolve(2, 1, models.NotificationLike, 10, uintPtr(9), now)
		require.NoError(t, err)
		require.NotNil(t, n)
		assert.Nil(t, n.CommentID)
		assert.Equal(t, uint(1), n.RecipientID)
		assert.Equal(t, uint(2), n.ActorID)
		assert.Equal(t, uint(10), n.PostID)
		assert.False(t, n.Read)
		assert.Equal(t, now, n.CreatedAt)
	})

	t.Run("reply keeps a copy of the comment id", func(t *testing.T) {
		cid := uintPtr(9)
		n, err := Resolve(3, 2, models.NotificationReply, 10, cid, now)
		require.NoError(t, err)
		require.NotNil(t, n.CommentID)
		*cid = 100
		assert.Equal(t, uint(9), *n.CommentID)
	})

	t.Run("invalid input", func(t *testing.T) {
		cases := []struct {
			name      string
			actor     uint
			recipient uint
			kind      models.NotificationKind
			commentID *uint
		}{
			{"unknown kind", 2, 1, "share", nil},
			{"comment without comment id", 2, 1, models.NotificationComment, nil},
			{"reply without comment id", 2, 1, models.NotificationReply, nil},
			{"missing recipient", 2, 0, models.NotificationLike, nil},
			{"missing actor", 0, 1, models.NotificationLike, nil},
		}
		for _, tc := range cases {
			_, err := Resolve(tc.actor, tc.recipient, tc.kind, 10, tc.commentID, now)
			assert.True(t, models.HasCode(err, models.CodeValidation), tc.name)
		}
	})
}

func TestResolveEvent_ReplyNotifiesThreadAuthorNotPostOwner(t *testing.T) {
	t.Parallel()
	n, err := ResolveEvent(Event{
		Kind: models.NotificationReply, ActorID: 3, PostID: 10,
		PostOwnerID: 1, CommentID: uintPtr(5), CommentAuthorID: 2,
	}, time.Now())
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.Equal(t, uint(2), n.RecipientID)

	n, err = ResolveEvent(Event{
		Kind: models.NotificationReply, ActorID: 2, PostID: 10,
		PostOwnerID: 1, CommentID: uintPtr(5), CommentAuthorID: 2,
	}, time.Now())
	require.NoError(t, err)
	assert.Nil(t, n, "replying to your own comment notifies nobody")
}
