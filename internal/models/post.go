package models

import (
	"time"

	"gorm.io/gorm"
)

// Post is a content unit with optional text and image.
type Post struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	UserID   uint      `gorm:"not null;index" json:"authorId"`
	Author   User      `gorm:"foreignKey:UserID" json:"author"`
	Text     string    `gorm:"type:text" json:"text"`
	Image    string    `json:"image"`
	Likes    []Like    `gorm:"foreignKey:PostID" json:"-"`
	Comments []Comment `gorm:"foreignKey:PostID" json:"comments"`
	// LikedBy lists the ids of users who like the post; filled after loading Likes.
	LikedBy []uint `gorm:"-" json:"likes"`
	// LikesCount is not persisted; computed at query time
	LikesCount int `gorm:"-" json:"likesCount"`
	// CommentsCount is not persisted; computed at query time
	CommentsCount int `gorm:"-" json:"commentsCount"`
	// Liked indicates whether the current requesting user liked this post (computed)
	Liked     bool           `gorm:"-" json:"liked"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// OwnerID returns the author of the post.
func (p *Post) OwnerID() uint { return p.UserID }

// Hydrate fills the computed like and comment fields for the given viewer (0 for anonymous).
func (p *Post) Hydrate(viewerID uint) {
	p.LikedBy = make([]uint, 0, len(p.Likes))
	p.Liked = false
	for _, l := range p.Likes {
		p.LikedBy = append(p.LikedBy, l.UserID)
		if viewerID != 0 && l.UserID == viewerID {
			p.Liked = true
		}
	}
	p.LikesCount = len(p.LikedBy)
	if p.Comments == nil {
		p.Comments = []Comment{}
	}
	p.CommentsCount = len(p.Comments)
}
