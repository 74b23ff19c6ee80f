package models

import "time"

// Like represents a user's like on a post.
// The combination of UserID and PostID must be unique.
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_user_post" json:"userId"`
	PostID    uint      `gorm:"not null;index;uniqueIndex:idx_user_post" json:"postId"`
	CreatedAt time.Time `json:"createdAt"`
}

// LikeState is the outcome of a like toggle.
type LikeState struct {
	Likes int64 `json:"likes"`
	Liked bool  `json:"liked"`
}
