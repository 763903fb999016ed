package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"unigram/internal/models"
	"unigram/internal/repository"
	"unigram/internal/testutil"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var errBoom = errors.New("boom")

// identityStub is a stub for IdentityResolver.
type identityStub struct {
	resolveFn     func(context.Context, uint) (*Identity, error)
	resolveManyFn func(context.Context, []uint) (map[uint]Identity, error)
}

func (s *identityStub) Resolve(ctx context.Context, id uint) (*Identity, error) {
	return s.resolveFn(ctx, id)
}
func (s *identityStub) ResolveMany(ctx context.Context, ids []uint) (map[uint]Identity, error) {
	return s.resolveManyFn(ctx, ids)
}

func failingIdentities() *identityStub {
	return &identityStub{
		resolveFn:     func(context.Context, uint) (*Identity, error) { return nil, errBoom },
		resolveManyFn: func(context.Context, []uint) (map[uint]Identity, error) { return nil, errBoom },
	}
}

// notificationRepoStub is a stub for repository.NotificationRepository.
type notificationRepoStub struct {
	createFn      func(context.Context, *models.Notification) error
	listFn        func(context.Context, uint, int, int) ([]models.Notification, error)
	markAllReadFn func(context.Context, uint) (int64, error)
	countUnreadFn func(context.Context, uint) (int64, error)
}

func (s *notificationRepoStub) Create(ctx context.Context, n *models.Notification) error {
	return s.createFn(ctx, n)
}
func (s *notificationRepoStub) ListByRecipient(ctx context.Context, id uint, limit, offset int) ([]models.Notification, error) {
	return s.listFn(ctx, id, limit, offset)
}
func (s *notificationRepoStub) MarkAllRead(ctx context.Context, id uint) (int64, error) {
	return s.markAllReadFn(ctx, id)
}
func (s *notificationRepoStub) CountUnread(ctx context.Context, id uint) (int64, error) {
	return s.countUnreadFn(ctx, id)
}

type delivery struct {
	userID    uint
	eventType string
	payload   any
}

type publisherRecorder struct {
	mu   sync.Mutex
	sent []delivery
	err  error
}

func (p *publisherRecorder) Deliver(_ context.Context, userID uint, eventType string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, delivery{userID, eventType, payload})
	return p.err
}

func (p *publisherRecorder) deliveries() []delivery {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]delivery(nil), p.sent...)
}

type memoryStore struct {
	mu   sync.Mutex
	puts map[string]int
	err  error
}

func (m *memoryStore) Put(_ context.Context, prefix string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	if m.puts == nil {
		m.puts = map[string]int{}
	}
	m.puts[prefix]++
	return "https://cdn.unigram.test/" + prefix + "/object.png", nil
}

// engine wires the interaction and notification services over a private
// SQLite database.
type engine struct {
	db            *gorm.DB
	posts         repository.PostRepository
	users         repository.UserRepository
	notifs        repository.NotificationRepository
	identities    IdentityResolver
	projector     *FeedProjector
	interactions  *InteractionService
	notifications *NotificationService
	publisher     *publisherRecorder
}

func newEngine(t *testing.T) *engine {
	t.Helper()
	db := testutil.NewTestDB(t)
	e := &engine{
		db:        db,
		posts:     repository.NewPostRepository(db),
		users:     repository.NewUserRepository(db),
		notifs:    repository.NewNotificationRepository(db),
		publisher: &publisherRecorder{},
	}
	e.identities = NewIdentityResolver(e.users)
	e.projector = NewFeedProjector(e.identities, "")
	e.notifications = NewNotificationService(e.notifs, e.identities, e.publisher)
	e.interactions = NewInteractionService(e.posts, e.identities, e.projector, e.notifications)
	return e
}

func (e *engine) notificationsFor(t *testing.T, recipientID uint) []models.Notification {
	t.Helper()
	list, err := e.notifs.ListByRecipient(context.Background(), recipientID, 0, 0)
	require.NoError(t, err)
	return list
}

func (e *engine) totalNotifications(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(&models.Notification{}).Count(&n).Error)
	return n
}
