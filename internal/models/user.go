package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// DefaultAvatarURL is used when a user has never set a profile image.
const DefaultAvatarURL = "https://i.postimg.cc/bYKxqBFF/pfp.jpg"

// FallbackDisplayName is shown when neither a live name nor a snapshot exists.
const FallbackDisplayName = "User"

// User is a member of the user directory. Signup and credential checks are
// owned by the auth service; this module only reads and edits profile fields.
type User struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Name            string    `gorm:"not null" json:"name"`
	Email           string    `gorm:"uniqueIndex;not null" json:"email"`
	Handle          string    `gorm:"uniqueIndex;not null" json:"userhandle"`
	Password        string    `json:"-"`
	ProfileImageURL string    `json:"profile_image_url"`
	Bio             string    `json:"bio"`
	Department      string    `json:"department"`
	Pronoun         string    `json:"pronoun"`
	LinkedIn        string    `json:"linkedin"`
	Instagram       string    `json:"instagram"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// BeforeCreate derives the immutable handle from the email local part and
// fills in the default avatar.
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.Handle == "" {
		u.Handle = HandleFromEmail(u.Email)
	}
	if u.ProfileImageURL == "" {
		u.ProfileImageURL = DefaultAvatarURL
	}
	return nil
}

// HandleFromEmail returns the lowercased local part of an email address.
func HandleFromEmail(email string) string {
	local, _, _ := strings.Cut(strings.TrimSpace(email), "@")
	return strings.ToLower(local)
}
