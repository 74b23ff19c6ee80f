package models

import (
	"time"

	"gorm.io/gorm"
)

// Comment is a reply to a post. ParentCommentID threads it under another comment and
// ReplyToID names the user being addressed; neither reference is checked for existence.
type Comment struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	PostID          uint           `gorm:"not null;index" json:"postId"`
	UserID          uint           `gorm:"not null;index" json:"authorId"`
	Author          User           `gorm:"foreignKey:UserID" json:"author"`
	Text            string         `gorm:"size:500;not null" json:"text"`
	ParentCommentID *uint          `gorm:"index" json:"parentCommentId"`
	ParentComment   *Comment       `gorm:"foreignKey:ParentCommentID" json:"parentComment"`
	ReplyToID       *uint          `json:"replyToId"`
	ReplyTo         *User          `gorm:"foreignKey:ReplyToID" json:"replyTo"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

// OwnerID returns the author of the comment.
func (c *Comment) OwnerID() uint { return c.UserID }
