package service

import (
	"context"
	"strings"

	"unigram/internal/models"
	"unigram/internal/repository"
	"unigram/internal/validation"
)

type UserService struct {
	users repository.UserRepository
}

// UpdateProfileInput carries the editable profile fields. Nil fields are left
// unchanged. The handle and email are not editable.
type UpdateProfileInput struct {
	ActorID         uint
	UserID          uint
	Name            *string
	Bio             *string
	Department      *string
	Pronoun         *string
	LinkedIn        *string
	Instagram       *string
	ProfileImageURL *string
}

func NewUserService(users repository.UserRepository) *UserService {
	return &UserService{users: users}
}

func (s *UserService) GetProfile(ctx context.Context, userID uint) (*models.User, error) {
	if userID == 0 {
		return nil, models.NewValidationError("user id is required")
	}
	return s.users.GetByID(ctx, userID)
}

// UpdateProfile edits the actor's own profile.
func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	if in.UserID == 0 {
		return nil, models.NewValidationError("user id is required")
	}
	if in.ActorID != in.UserID {
		return nil, models.NewUnauthorizedError("You can only edit your own profile")
	}

	fields := map[string]any{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, models.NewValidationError("Name cannot be empty")
		}
		if err := validation.MaxLength("Name", name, 100); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		fields["Name"] = name
	}

	text := []struct {
		field string
		value *string
		max   int
	}{
		{"Bio", in.Bio, 500},
		{"Department", in.Department, 100},
		{"Pronoun", in.Pronoun, 30},
		{"LinkedIn", in.LinkedIn, 200},
		{"Instagram", in.Instagram, 200},
	}
	for _, f := range text {
		if f.value == nil {
			continue
		}
		v := strings.TrimSpace(*f.value)
		if err := validation.MaxLength(f.field, v, f.max); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		fields[f.field] = v
	}

	if v, ok := fields["Instagram"].(string); ok && v != "" {
		if err := validation.ValidateInstagram(v); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
	}

	if in.ProfileImageURL != nil {
		v := strings.TrimSpace(*in.ProfileImageURL)
		if v == "" {
			v = models.DefaultAvatarURL
		} else if err := validation.ValidateHTTPURL("profile_image_url", v); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		fields["ProfileImageURL"] = v
	}

	if len(fields) == 0 {
		return s.users.GetByID(ctx, in.UserID)
	}
	if err := s.users.UpdateProfile(ctx, in.UserID, fields); err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, in.UserID)
}
