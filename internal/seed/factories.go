// Package seed provides helpers to create demo data for development and tests.
package seed

import (
	"fmt"
	"strings"
	"time"

	"agora/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultPassword is the password of every seeded user.
const DefaultPassword = "password123"

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db       *gorm.DB
	faker    *gofakeit.Faker
	password string
	maxDays  int
}

// NewFactory creates a Factory. A zero seed draws a time-based one.
func NewFactory(db *gorm.DB, seed int64, bcryptCost int) (*Factory, error) {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcryptCost)
	if err != nil {
		return nil, err
	}
	return &Factory{db: db, faker: gofakeit.New(seed), password: string(hash), maxDays: 30}, nil
}

// username turns a fake handle into a valid, unique username.
func (f *Factory) username(n int) string {
	var b strings.Builder
	for _, r := range strings.ToLower(f.faker.Username()) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			b.WriteRune(r)
		}
	}
	base := b.String()
	if len(base) > 20 {
		base = base[:20]
	}
	return fmt.Sprintf("%s_%d", base, n)
}

func (f *Factory) pastTime() time.Time {
	back := time.Duration(f.faker.Number(0, f.maxDays*24*60)) * time.Minute
	return time.Now().Add(-back)
}

// CreateUser persists a sample user. The n-th user gets a unique name.
func (f *Factory) CreateUser(n int, overrides ...func(*models.User)) (*models.User, error) {
	username := f.username(n)
	user := &models.User{
		Username:       username,
		Email:          username + "@example.com",
		Password:       f.password,
		Bio:            f.faker.Sentence(8),
		ProfilePicture: fmt.Sprintf("https://i.pravatar.cc/150?u=%s", f.faker.UUID()),
	}
	for _, override := range overrides {
		override(user)
	}
	if len(user.Bio) > 280 {
		user.Bio = user.Bio[:280]
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreatePost persists a sample post, with an image roughly a third of the time.
func (f *Factory) CreatePost(author *models.User, overrides ...func(*models.Post)) (*models.Post, error) {
	post := &models.Post{
		UserID:    author.ID,
		Text:      f.faker.Paragraph(1, 2, 10, " "),
		CreatedAt: f.pastTime(),
	}
	if f.faker.Number(1, 3) == 1 {
		post.Image = fmt.Sprintf("https://picsum.photos/seed/%s/800/800", f.faker.UUID())
	}
	for _, override := range overrides {
		override(post)
	}
	if len(post.Text) > 1000 {
		post.Text = post.Text[:1000]
	}

	if err := f.db.Omit(clause.Associations).Create(post).Error; err != nil {
		return nil, err
	}
	return post, nil
}

// CreateComment persists a sample comment on post, optionally replying to parent.
func (f *Factory) CreateComment(author *models.User, post *models.Post, parent *models.Comment) (*models.Comment, error) {
	comment := &models.Comment{
		PostID:    post.ID,
		UserID:    author.ID,
		Text:      f.faker.Sentence(10),
		CreatedAt: post.CreatedAt.Add(time.Duration(f.faker.Number(1, 600)) * time.Minute),
	}
	if parent != nil {
		comment.ParentCommentID = &parent.ID
		comment.ReplyToID = &parent.UserID
	}
	if err := f.db.Omit(clause.Associations).Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateLike persists a like; an existing like is left alone.
func (f *Factory) CreateLike(user *models.User, post *models.Post) error {
	like := &models.Like{UserID: user.ID, PostID: post.ID}
	return f.db.Clauses(clause.OnConflict{DoNothing: true}).Create(like).Error
}

// CreateFollow persists a follow edge; an existing edge is left alone.
func (f *Factory) CreateFollow(follower, following *models.User) error {
	edge := &models.Follow{FollowerID: follower.ID, FollowingID: following.ID}
	return f.db.Omit(clause.Associations).Clauses(clause.OnConflict{DoNothing: true}).Create(edge).Error
}

// CreateShare persists a repost; an existing share is left alone.
func (f *Factory) CreateShare(user *models.User, post *models.Post) error {
	share := &models.Share{UserID: user.ID, PostID: post.ID, ShareType: models.ShareTypeRepost, Text: f.faker.Sentence(5)}
	return f.db.Omit(clause.Associations).Clauses(clause.OnConflict{DoNothing: true}).Create(share).Error
}
