// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// User is an account. The public JSON projection omits the email and password hash.
type User struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	Username       string         `gorm:"size:30;uniqueIndex;not null" json:"username"`
	Email          string         `gorm:"size:254;uniqueIndex;not null" json:"-"`
	Password       string         `gorm:"not null" json:"-"`
	Bio            string         `gorm:"size:280" json:"bio"`
	ProfilePicture string         `json:"profilePicture"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// UserSummary is the compact projection used in follower and following lists.
type UserSummary struct {
	ID             uint   `json:"id"`
	Username       string `json:"username"`
	ProfilePicture string `json:"profilePicture"`
}

// Summary returns the compact projection of u.
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username, ProfilePicture: u.ProfilePicture}
}

// Account is the projection returned to the account owner.
type Account struct {
	*User
	Email string `json:"email"`
}

// NewAccount projects u for its owner.
func NewAccount(u *User) Account {
	return Account{User: u, Email: u.Email}
}

// Profile is a user with follow lists derived from the follow edges.
type Profile struct {
	Account
	Followers      []UserSummary `json:"followers"`
	Following      []UserSummary `json:"following"`
	FollowersCount int           `json:"followersCount"`
	FollowingCount int           `json:"followingCount"`
}

// PublicProfile is a profile as seen by anyone.
type PublicProfile struct {
	*User
	Followers      []UserSummary `json:"followers"`
	Following      []UserSummary `json:"following"`
	FollowersCount int           `json:"followersCount"`
	FollowingCount int           `json:"followingCount"`
}
