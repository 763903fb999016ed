package seed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"unigram/internal/middleware"
	"unigram/internal/models"
	"unigram/internal/service"

	"gorm.io/gorm"
)

// Options controls how much demo data Run creates.
type Options struct {
	NumUsers             int
	NumPosts             int
	MaxLikesPerPost      int
	MaxCommentsPerPost   int
	MaxRepliesPerComment int
	MaxDays              int
	BatchSize            int
	RandSeed             int64
	SkipBcrypt           bool
	ShouldClean          bool
}

// DefaultOptions returns the sizes used by cmd/seed when no flags are given.
func DefaultOptions() Options {
	return Options{
		NumUsers:             20,
		NumPosts:             60,
		MaxLikesPerPost:      8,
		MaxCommentsPerPost:   4,
		MaxRepliesPerComment: 2,
		MaxDays:              90,
		BatchSize:            100,
	}
}

// Engine is the interaction surface the seeder drives. Going through it
// rather than inserting rows means every seeded like, comment and reply
// produces the notifications a real user would have caused.
type Engine interface {
	ToggleLike(ctx context.Context, postID, actorID uint) (*service.LikeResult, error)
	AddComment(ctx context.Context, in service.AddCommentInput) ([]service.CommentView, error)
	AddReply(ctx context.Context, in service.AddReplyInput) ([]service.CommentView, error)
}

// Result counts what a Run created.
type Result struct {
	Users    int
	Posts    int
	Likes    int
	Comments int
	Replies  int
}

// Seeder populates the database with demo content.
type Seeder struct {
	db      *gorm.DB
	engine  Engine
	opts    Options
	factory *Factory
}

// NewSeeder builds a Seeder. Zero-valued size options fall back to
// DefaultOptions.
func NewSeeder(db *gorm.DB, engine Engine, opts Options) *Seeder {
	def := DefaultOptions()
	if opts.NumUsers <= 0 {
		opts.NumUsers = def.NumUsers
	}
	if opts.NumPosts < 0 {
		opts.NumPosts = def.NumPosts
	}
	if opts.MaxDays <= 0 {
		opts.MaxDays = def.MaxDays
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = def.BatchSize
	}
	return &Seeder{db: db, engine: engine, opts: opts, factory: NewFactory(db, opts)}
}

// Factory returns the seeder's entity factory.
func (s *Seeder) Factory() *Factory {
	return s.factory
}

// Run creates users and posts, then replays likes, comments and replies
// through the engine.
func (s *Seeder) Run(ctx context.Context) (*Result, error) {
	start := time.Now()

	if s.opts.ShouldClean {
		if err := s.ClearAll(); err != nil {
			return nil, err
		}
	}

	res := &Result{}
	users := make([]*models.User, 0, s.opts.NumUsers)
	for i := 0; i < s.opts.NumUsers; i++ {
		u, err := s.factory.CreateUser()
		if err != nil {
			return res, fmt.Errorf("create user %d: %w", i, err)
		}
		users = append(users, u)
	}
	res.Users = len(users)

	posts := make([]*models.Post, 0, s.opts.NumPosts)
	for i := 0; i < s.opts.NumPosts; i++ {
		posts = append(posts, s.factory.BuildPost(users[s.factory.Intn(len(users))]))
	}
	if err := s.factory.CreatePostsBatch(posts); err != nil {
		return res, fmt.Errorf("create posts: %w", err)
	}
	res.Posts = len(posts)

	for _, p := range posts {
		if err := s.interact(ctx, p, users, res); err != nil {
			return res, err
		}
	}

	middleware.Logger.Info("Seeding completed",
		slog.Int("users", res.Users),
		slog.Int("posts", res.Posts),
		slog.Int("likes", res.Likes),
		slog.Int("comments", res.Comments),
		slog.Int("replies", res.Replies),
		slog.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}

func (s *Seeder) interact(ctx context.Context, p *models.Post, users []*models.User, res *Result) error {
	if s.engine == nil {
		return nil
	}

	for _, u := range s.factory.Pick(users, s.factory.Intn(s.opts.MaxLikesPerPost+1), 0) {
		r, err := s.engine.ToggleLike(ctx, p.ID, u.ID)
		if err != nil {
			return fmt.Errorf("like post %d: %w", p.ID, err)
		}
		if r.Liked {
			res.Likes++
		}
	}

	for _, author := range s.factory.Pick(users, s.factory.Intn(s.opts.MaxCommentsPerPost+1), 0) {
		thread, err := s.engine.AddComment(ctx, service.AddCommentInput{
			PostID:   p.ID,
			AuthorID: author.ID,
			Text:     s.factory.CommentText(),
		})
		if err != nil {
			return fmt.Errorf("comment on post %d: %w", p.ID, err)
		}
		res.Comments++

		comment := thread[len(thread)-1]
		for _, replier := range s.factory.Pick(users, s.factory.Intn(s.opts.MaxRepliesPerComment+1), 0) {
			if _, err := s.engine.AddReply(ctx, service.AddReplyInput{
				PostID:    p.ID,
				CommentID: comment.ID,
				AuthorID:  replier.ID,
				Text:      s.factory.CommentText(),
			}); err != nil {
				return fmt.Errorf("reply to comment %d: %w", comment.ID, err)
			}
			res.Replies++
		}
	}
	return nil
}

// ClearAll deletes all demo data, children first.
func (s *Seeder) ClearAll() error {
	tables := []string{"notifications", "replies", "comments", "post_likes", "stories", "posts", "users"}
	for _, table := range tables {
		if err := s.db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	middleware.Logger.Info("Cleared seed data", slog.Int("tables", len(tables)))
	return nil
}
