package service

import (
	"context"

	"unigram/internal/models"
	"unigram/internal/observability"
)

// FeedProjector turns stored posts into views. Live identity wins over the
// stored snapshot; an unresolvable identity falls back to the snapshot name
// and the default avatar instead of failing the read.
type FeedProjector struct {
	identities    IdentityResolver
	defaultAvatar string
}

// NewFeedProjector builds a projector. An empty defaultAvatar uses
// models.DefaultAvatarURL.
func NewFeedProjector(identities IdentityResolver, defaultAvatar string) *FeedProjector {
	if defaultAvatar == "" {
		defaultAvatar = models.DefaultAvatarURL
	}
	return &FeedProjector{identities: identities, defaultAvatar: defaultAvatar}
}

// Posts projects posts in the order given.
func (p *FeedProjector) Posts(ctx context.Context, posts []*models.Post, viewerID uint) []PostView {
	var ids []uint
	for _, post := range posts {
		ids = append(ids, post.ParticipantIDs()...)
	}
	live := p.lookup(ctx, ids)

	out := make([]PostView, 0, len(posts))
	for _, post := range posts {
		out = append(out, p.post(live, post, viewerID))
	}
	return out
}

// Post projects a single post.
func (p *FeedProjector) Post(ctx context.Context, post *models.Post, viewerID uint) PostView {
	return p.post(p.lookup(ctx, post.ParticipantIDs()), post, viewerID)
}

// Comments projects a comment thread, keeping comment and reply order.
func (p *FeedProjector) Comments(ctx context.Context, comments []models.Comment) []CommentView {
	var ids []uint
	for _, c := range comments {
		ids = append(ids, c.UserID)
		for _, r := range c.Replies {
			ids = append(ids, r.UserID)
		}
	}
	return p.comments(p.lookup(ctx, ids), comments)
}

func (p *FeedProjector) post(live map[uint]Identity, post *models.Post, viewerID uint) PostView {
	name, avatar := p.display(live, post.UserID, post.Username)
	return PostView{
		ID:              post.ID,
		UserID:          post.UserID,
		Username:        name,
		ProfileImageURL: avatar,
		ImageURL:        post.ImageURL,
		Caption:         post.Caption,
		CreatedAt:       post.CreatedAt,
		Likes:           post.LikerIDs(),
		LikesCount:      post.LikeCount(),
		Liked:           viewerID != 0 && post.LikedBy(viewerID),
		Comments:        p.comments(live, post.Comments),
	}
}

func (p *FeedProjector) comments(live map[uint]Identity, comments []models.Comment) []CommentView {
	out := make([]CommentView, 0, len(comments))
	for _, c := range comments {
		name, avatar := p.display(live, c.UserID, c.Username)
		view := CommentView{
			ID:              c.ID,
			UserID:          c.UserID,
			Username:        name,
			ProfileImageURL: avatar,
			Text:            c.Text,
			CreatedAt:       c.CreatedAt,
			Replies:         make([]ReplyView, 0, len(c.Replies)),
		}
		for _, r := range c.Replies {
			rName, rAvatar := p.display(live, r.UserID, r.Username)
			view.Replies = append(view.Replies, ReplyView{
				ID:              r.ID,
				CommentID:       r.CommentID,
				UserID:          r.UserID,
				Username:        rName,
				ProfileImageURL: rAvatar,
				Text:            r.Text,
				CreatedAt:       r.CreatedAt,
			})
		}
		out = append(out, view)
	}
	return out
}

func (p *FeedProjector) display(live map[uint]Identity, userID uint, snapshot string) (string, string) {
	name, avatar := snapshot, p.defaultAvatar
	if id, ok := live[userID]; ok {
		if id.Name != "" {
			name = id.Name
		}
		if id.AvatarURL != "" {
			avatar = id.AvatarURL
		}
	}
	if name == "" {
		name = models.FallbackDisplayName
	}
	return name, avatar
}

func (p *FeedProjector) lookup(ctx context.Context, ids []uint) map[uint]Identity {
	if len(ids) == 0 || p.identities == nil {
		return nil
	}
	live, err := p.identities.ResolveMany(ctx, dedupe(ids))
	if err != nil {
		observability.GlobalLogger.WarnContext(ctx, "identity lookup failed, using snapshots",
			"users", len(ids), "error", err)
		return nil
	}
	return live
}

func dedupe(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
