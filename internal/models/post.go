// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// Post is the aggregate root for an image post. Its comments and replies are
// stored as child rows so each append is a single atomic insert, and are
// always loaded in insertion order.
type Post struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"not null;index" json:"user_id"`
	Username  string     `gorm:"not null" json:"username"`
	ImageURL  string     `gorm:"not null" json:"image_url"`
	Caption   string     `gorm:"type:text" json:"caption"`
	CreatedAt time.Time  `gorm:"index" json:"created_at"`
	Likes     []PostLike `gorm:"foreignKey:PostID" json:"-"`
	Comments  []Comment  `gorm:"foreignKey:PostID" json:"comments"`

	commentIndex map[uint]int
}

// PostLike is one member of a post's like-set. The composite primary key
// keeps the set free of duplicates.
type PostLike struct {
	PostID    uint      `gorm:"primaryKey;autoIncrement:false" json:"post_id"`
	UserID    uint      `gorm:"primaryKey;autoIncrement:false;index" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Comment is a top-level comment on a post.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;index" json:"post_id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Username  string    `gorm:"not null" json:"username"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `json:"created_at"`
	Replies   []Reply   `gorm:"foreignKey:CommentID" json:"replies"`
}

// Reply answers a comment. PostID is duplicated so a post's whole thread can
// be fetched without joining through comments.
type Reply struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CommentID uint      `gorm:"not null;index" json:"comment_id"`
	PostID    uint      `gorm:"not null;index" json:"post_id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Username  string    `gorm:"not null" json:"username"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// LikeCount returns the cardinality of the like-set.
func (p *Post) LikeCount() int {
	return len(p.Likes)
}

// LikedBy reports whether userID is in the like-set.
func (p *Post) LikedBy(userID uint) bool {
	for _, l := range p.Likes {
		if l.UserID == userID {
			return true
		}
	}
	return false
}

// LikerIDs returns the like-set as a slice of user ids.
func (p *Post) LikerIDs() []uint {
	ids := make([]uint, 0, len(p.Likes))
	for _, l := range p.Likes {
		ids = append(ids, l.UserID)
	}
	return ids
}

// Comment looks up a comment by id through the aggregate's position index,
// rebuilding the index when it no longer matches the comment slice.
func (p *Post) Comment(id uint) (*Comment, bool) {
	if i, ok := p.commentIndex[id]; ok && i < len(p.Comments) && p.Comments[i].ID == id {
		return &p.Comments[i], true
	}
	p.commentIndex = make(map[uint]int, len(p.Comments))
	for i := range p.Comments {
		p.commentIndex[p.Comments[i].ID] = i
	}
	i, ok := p.commentIndex[id]
	if !ok {
		return nil, false
	}
	return &p.Comments[i], true
}

// ParticipantIDs returns every user id referenced by the post, its comments
// and its replies, without duplicates.
func (p *Post) ParticipantIDs() []uint {
	seen := map[uint]struct{}{}
	var ids []uint
	add := func(id uint) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	add(p.UserID)
	for _, c := range p.Comments {
		add(c.UserID)
		for _, r := range c.Replies {
			add(r.UserID)
		}
	}
	return ids
}
