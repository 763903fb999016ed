// Package service implements the interaction and notification engine and the
// profile, post and story operations around it.
package service

import (
	"context"

	"unigram/internal/models"
	"unigram/internal/repository"
)

// Identity is the live display data for a user.
type Identity struct {
	ID        uint
	Name      string
	AvatarURL string
}

// IdentityResolver looks users up by id for snapshotting at write time and
// for projection at read time.
type IdentityResolver interface {
	// Resolve returns a NotFound AppError for an unknown id.
	Resolve(ctx context.Context, id uint) (*Identity, error)
	// ResolveMany returns what it can find; unknown ids are absent.
	ResolveMany(ctx context.Context, ids []uint) (map[uint]Identity, error)
}

type userIdentityResolver struct {
	users repository.UserRepository
}

// NewIdentityResolver resolves identities from the user directory.
func NewIdentityResolver(users repository.UserRepository) IdentityResolver {
	return &userIdentityResolver{users: users}
}

func (r *userIdentityResolver) Resolve(ctx context.Context, id uint) (*Identity, error) {
	u, err := r.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	identity := identityOf(u)
	return &identity, nil
}

func (r *userIdentityResolver) ResolveMany(ctx context.Context, ids []uint) (map[uint]Identity, error) {
	users, err := r.users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[uint]Identity, len(users))
	for i := range users {
		out[users[i].ID] = identityOf(&users[i])
	}
	return out, nil
}

func identityOf(u *models.User) Identity {
	return Identity{ID: u.ID, Name: u.Name, AvatarURL: u.ProfileImageURL}
}
