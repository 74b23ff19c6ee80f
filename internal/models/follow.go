package models

import "time"

// Follow is a directed follower -> following edge. At most one edge exists per ordered pair.
type Follow struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	FollowerID  uint      `gorm:"not null;index;uniqueIndex:idx_follower_following" json:"followerId"`
	FollowingID uint      `gorm:"not null;index;uniqueIndex:idx_follower_following" json:"followingId"`
	Follower    User      `gorm:"foreignKey:FollowerID" json:"-"`
	Following   User      `gorm:"foreignKey:FollowingID" json:"-"`
	CreatedAt   time.Time `json:"createdAt"`
}
