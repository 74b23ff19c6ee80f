package seed

import (
	"fmt"
	"log/slog"

	"agora/internal/middleware"
	"agora/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options configure a seeding run.
type Options struct {
	NumUsers    int
	NumPosts    int
	ShouldClean bool
	// Seed makes runs reproducible; zero picks a random one.
	Seed int64
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
}

// Result counts what a run created.
type Result struct {
	Users    int
	Posts    int
	Comments int
	Likes    int
	Follows  int
	Shares   int
}

// Seed populates the database with users, a follow mesh, posts and engagement.
func Seed(db *gorm.DB, opts Options) (*Result, error) {
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	middleware.Logger.Info("Starting database seeding",
		slog.Int("users", opts.NumUsers),
		slog.Int("posts", opts.NumPosts),
	)

	if opts.ShouldClean {
		if err := ClearAll(db); err != nil {
			return nil, fmt.Errorf("clear data: %w", err)
		}
	}

	f, err := NewFactory(db, opts.Seed, opts.BcryptCost)
	if err != nil {
		return nil, err
	}
	res := &Result{}

	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		u, err := f.CreateUser(i)
		if err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		users = append(users, u)
	}
	res.Users = len(users)
	if len(users) == 0 {
		return res, nil
	}

	// Each user follows a handful of others.
	for i, u := range users {
		for j := 1; j <= 3 && j < len(users); j++ {
			target := users[(i+j*f.faker.Number(1, 3))%len(users)]
			if target.ID == u.ID {
				continue
			}
			if err := f.CreateFollow(u, target); err != nil {
				return nil, fmt.Errorf("create follow: %w", err)
			}
			res.Follows++
		}
	}

	for i := 0; i < opts.NumPosts; i++ {
		author := users[f.faker.Number(0, len(users)-1)]
		post, err := f.CreatePost(author)
		if err != nil {
			return nil, fmt.Errorf("create post: %w", err)
		}
		res.Posts++

		var last *models.Comment
		for c := 0; c < f.faker.Number(0, 3); c++ {
			commenter := users[f.faker.Number(0, len(users)-1)]
			comment, err := f.CreateComment(commenter, post, last)
			if err != nil {
				return nil, fmt.Errorf("create comment: %w", err)
			}
			last = comment
			res.Comments++
		}

		for l := 0; l < f.faker.Number(0, 5); l++ {
			if err := f.CreateLike(users[f.faker.Number(0, len(users)-1)], post); err != nil {
				return nil, fmt.Errorf("create like: %w", err)
			}
			res.Likes++
		}

		if f.faker.Number(1, 5) == 1 {
			if err := f.CreateShare(users[f.faker.Number(0, len(users)-1)], post); err != nil {
				return nil, fmt.Errorf("create share: %w", err)
			}
			res.Shares++
		}
	}

	middleware.Logger.Info("Database seeding completed",
		slog.Int("users", res.Users),
		slog.Int("posts", res.Posts),
		slog.Int("comments", res.Comments),
	)
	return res, nil
}

// ClearAll hard-deletes every row of every table, children first.
func ClearAll(db *gorm.DB) error {
	tables := []interface{}{
		&models.Share{},
		&models.Like{},
		&models.Comment{},
		&models.Post{},
		&models.Follow{},
		&models.User{},
	}
	return db.Transaction(func(tx *gorm.DB) error {
		for _, t := range tables {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(t).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
