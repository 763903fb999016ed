// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync/atomic"
	"time"

	"unigram/internal/models"
	"unigram/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DemoPassword is the password every seeded account shares.
const DemoPassword = "password123"

var (
	departments = []string{
		"Computer Science", "Mathematics", "Physics", "Biology", "Economics",
		"Design", "History", "Philosophy", "Chemistry", "Music",
	}
	pronouns = []string{"she/her", "he/him", "they/them", ""}
)

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by the seeder and tests.
type Factory struct {
	db    *gorm.DB
	users repository.UserRepository
	opts  Options
	rng   *rand.Rand
	seq   atomic.Uint64
	hash  string
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	seed := opts.RandSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	gofakeit.Seed(seed)
	//nolint:gosec // Weak random number generator is fine for seeding
	return &Factory{
		db:    db,
		users: repository.NewUserRepository(db),
		opts:  opts,
		rng:   rand.New(rand.NewSource(seed)),
	}
}

func (f *Factory) passwordHash() (string, error) {
	if f.opts.SkipBcrypt {
		return DemoPassword, nil
	}
	if f.hash == "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
		if err != nil {
			return "", fmt.Errorf("hash demo password: %w", err)
		}
		f.hash = string(hashed)
	}
	return f.hash, nil
}

// BuildUser constructs a sample user without saving it. Emails are unique per
// factory, so the derived handles are too.
func (f *Factory) BuildUser(overrides ...func(*models.User)) (*models.User, error) {
	password, err := f.passwordHash()
	if err != nil {
		return nil, err
	}

	n := f.seq.Add(1)
	local := strings.ToLower(strings.ReplaceAll(gofakeit.Username(), " ", ""))
	user := &models.User{
		Name:            gofakeit.Name(),
		Email:           fmt.Sprintf("%s%d@unigram.dev", local, n),
		Password:        password,
		Bio:             gofakeit.Sentence(10),
		Department:      departments[f.rng.Intn(len(departments))],
		Pronoun:         pronouns[f.rng.Intn(len(pronouns))],
		ProfileImageURL: fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
	}
	if f.rng.Intn(2) == 0 {
		user.LinkedIn = fmt.Sprintf("https://www.linkedin.com/in/%s%d", local, n)
	}
	if f.rng.Intn(2) == 0 {
		user.Instagram = "@" + local
	}

	for _, override := range overrides {
		override(user)
	}
	return user, nil
}

// CreateUser constructs and persists a sample user.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	user, err := f.BuildUser(overrides...)
	if err != nil {
		return nil, err
	}
	if err := f.users.Create(context.Background(), user); err != nil {
		return nil, err
	}
	return user, nil
}

// BuildPost constructs a post for user with a created_at spread over the last
// MaxDays days. The owner's name is snapshotted the way the post service does.
func (f *Factory) BuildPost(user *models.User, overrides ...func(*models.Post)) *models.Post {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	back := time.Duration(f.rng.Intn(maxDays))*24*time.Hour +
		time.Duration(f.rng.Intn(24))*time.Hour +
		time.Duration(f.rng.Intn(60))*time.Minute

	post := &models.Post{
		UserID:    user.ID,
		Username:  user.Name,
		ImageURL:  fmt.Sprintf("https://picsum.photos/seed/%s/800/800", gofakeit.UUID()),
		Caption:   gofakeit.Sentence(f.rng.Intn(12) + 3),
		CreatedAt: time.Now().UTC().Add(-back),
	}
	for _, override := range overrides {
		override(post)
	}
	return post
}

// CreatePostsBatch persists multiple posts in a single DB call when possible.
func (f *Factory) CreatePostsBatch(posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	batch := f.opts.BatchSize
	if batch <= 0 {
		batch = 100
	}
	return f.db.CreateInBatches(posts, batch).Error
}

// CommentText returns a short comment body.
func (f *Factory) CommentText() string {
	return gofakeit.Sentence(f.rng.Intn(10) + 2)
}

// Pick returns up to n distinct users, never including exclude.
func (f *Factory) Pick(users []*models.User, n int, exclude uint) []*models.User {
	out := make([]*models.User, 0, n)
	for _, i := range f.rng.Perm(len(users)) {
		if len(out) == n {
			break
		}
		if users[i].ID == exclude {
			continue
		}
		out = append(out, users[i])
	}
	return out
}

// Intn exposes the factory's generator so callers share one seed.
func (f *Factory) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return f.rng.Intn(n)
}
