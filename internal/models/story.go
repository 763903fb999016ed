package models

import "time"

// Story is an ephemeral image post that expires after the configured TTL.
type Story struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	ImageURL    string    `gorm:"not null" json:"image_url"`
	TextOverlay string    `json:"text_overlay,omitempty"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}

// ExpiresAt returns when the story stops being listed.
func (s *Story) ExpiresAt(ttl time.Duration) time.Time {
	return s.CreatedAt.Add(ttl)
}
