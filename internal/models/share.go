package models

import "time"

// Share types.
const (
	ShareTypeRepost = "repost"
	ShareTypeLink   = "link"
)

// Share is a repost of, or link to, another post. A user shares a given post at most once.
// Shares outlive the post they reference; OriginalPost is nil once it is deleted.
type Share struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"not null;uniqueIndex:idx_share_user_post" json:"authorId"`
	Author       User      `gorm:"foreignKey:UserID" json:"author"`
	PostID       uint      `gorm:"not null;index;uniqueIndex:idx_share_user_post" json:"postId"`
	OriginalPost *Post     `gorm:"foreignKey:PostID" json:"originalPost"`
	ShareType    string    `gorm:"size:16;not null;default:repost" json:"shareType"`
	Text         string    `gorm:"size:500" json:"text"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// OwnerID returns the author of the share.
func (s *Share) OwnerID() uint { return s.UserID }
