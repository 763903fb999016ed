package service

import (
	"context"
	"strings"
	"testing"

	"unigram/internal/models"
	"unigram/internal/repository"
	"unigram/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestUserService_UpdateProfile(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := NewUserService(repository.NewUserRepository(db))
	ctx := context.Background()

	ada := testutil.CreateUser(t, db, "Ada")
	bob := testutil.CreateUser(t, db, "Bob")

	updated, err := svc.UpdateProfile(ctx, UpdateProfileInput{
		ActorID: ada.ID, UserID: ada.ID,
		Name: strPtr("  Ada Lovelace "), Bio: strPtr("engines"), LinkedIn: strPtr("in/ada"),
		ProfileImageURL: strPtr("https://img.unigram.test/ada.png"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", updated.Name)
	assert.Equal(t, "engines", updated.Bio)
	assert.Equal(t, "in/ada", updated.LinkedIn)
	assert.Equal(t, "https://img.unigram.test/ada.png", updated.ProfileImageURL)
	assert.Equal(t, ada.Handle, updated.Handle, "handle is immutable")

	cleared, err := svc.UpdateProfile(ctx, UpdateProfileInput{
		ActorID: ada.ID, UserID: ada.ID, ProfileImageURL: strPtr(""), Bio: strPtr(""),
	})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultAvatarURL, cleared.ProfileImageURL)
	assert.Empty(t, cleared.Bio)

	tests := []struct {
		name string
		in   UpdateProfileInput
		code string
	}{
		{"other user", UpdateProfileInput{ActorID: bob.ID, UserID: ada.ID, Bio: strPtr("x")}, models.CodeUnauthorized},
		{"blank name", UpdateProfileInput{ActorID: ada.ID, UserID: ada.ID, Name: strPtr("  ")}, models.CodeValidation},
		{"bad avatar", UpdateProfileInput{ActorID: ada.ID, UserID: ada.ID, ProfileImageURL: strPtr("ftp://x")}, models.CodeValidation},
		{"bad instagram", UpdateProfileInput{ActorID: ada.ID, UserID: ada.ID, Instagram: strPtr("ada lovelace")}, models.CodeValidation},
		{"long bio", UpdateProfileInput{ActorID: ada.ID, UserID: ada.ID, Bio: strPtr(strings.Repeat("b", 501))}, models.CodeValidation},
		{"missing id", UpdateProfileInput{}, models.CodeValidation},
		{"unknown user", UpdateProfileInput{ActorID: 999, UserID: 999, Bio: strPtr("x")}, models.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UpdateProfile(ctx, tt.in)
			assert.True(t, models.HasCode(err, tt.code), "got %v", err)
		})
	}
}

func TestUserService_GetProfile(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := NewUserService(repository.NewUserRepository(db))

	u := testutil.CreateUser(t, db, "Grace Hopper")
	got, err := svc.GetProfile(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Grace Hopper", got.Name)
	assert.Equal(t, models.HandleFromEmail(u.Email), got.Handle)

	_, err = svc.GetProfile(context.Background(), 12345)
	assert.True(t, models.IsNotFound(err))
}
