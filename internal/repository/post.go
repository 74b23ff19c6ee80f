package repository

import (
	"context"

	"agora/internal/models"
	"agora/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostListOptions filters and pages a post listing. A non-nil AuthorIDs restricts
// the result to those authors.
type PostListOptions struct {
	Limit     int
	Offset    int
	AuthorIDs []uint
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	GetOwned(ctx context.Context, id, userID uint) (*models.Post, error)
	Exists(ctx context.Context, id uint) (bool, error)
	List(ctx context.Context, opts PostListOptions) ([]*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	DeleteWithComments(ctx context.Context, id uint) error
	ToggleLike(ctx context.Context, postID, userID uint) (*models.LikeState, error)
}

// postRepository implements PostRepository
type postRepository struct {
	db      *gorm.DB
	logger  *observability.RepoLogger
	metrics *observability.DatabaseMetrics
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{
		db:      db,
		logger:  observability.NewRepoLogger("posts"),
		metrics: observability.NewDatabaseMetrics("posts"),
	}
}

// withDetails preloads the author, likes and the comment thread oldest-first.
func withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Author").
		Preload("Likes", func(db *gorm.DB) *gorm.DB {
			return db.Order("likes.id ASC")
		}).
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("comments.created_at ASC, comments.id ASC")
		}).
		Preload("Comments.Author")
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	defer r.metrics.TrackQuery("create")()

	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error; err != nil {
		r.logger.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	r.logger.LogCreate(ctx, map[string]interface{}{"id": post.ID, "user_id": post.UserID})
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	defer r.metrics.TrackQuery("get_by_id")()

	var post models.Post
	if err := withDetails(r.db.WithContext(ctx)).First(&post, id).Error; err != nil {
		return nil, notFoundOr(err, "Post not found")
	}
	return &post, nil
}

// GetOwned returns the post only when userID authored it.
func (r *postRepository) GetOwned(ctx context.Context, id, userID uint) (*models.Post, error) {
	defer r.metrics.TrackQuery("get_owned")()

	var post models.Post
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&post).Error; err != nil {
		return nil, notFoundOr(err, "Post not found or not authorized")
	}
	return &post, nil
}

func (r *postRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

// List returns posts newest-first.
func (r *postRepository) List(ctx context.Context, opts PostListOptions) ([]*models.Post, error) {
	defer r.metrics.TrackQuery("list")()

	q := withDetails(r.db.WithContext(ctx))
	if opts.AuthorIDs != nil {
		q = q.Where("posts.user_id IN ?", opts.AuthorIDs)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}

	posts := make([]*models.Post, 0)
	if err := q.Order("posts.created_at DESC, posts.id DESC").Find(&posts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	defer r.metrics.TrackQuery("update")()

	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(post).Error; err != nil {
		r.logger.LogError(ctx, err, "update")
		return models.NewInternalError(err)
	}
	r.logger.LogUpdate(ctx, map[string]interface{}{"id": post.ID})
	return nil
}

// DeleteWithComments removes the post, its comments and its likes in one transaction.
// Shares of the post are left in place.
func (r *postRepository) DeleteWithComments(ctx context.Context, id uint) error {
	defer r.metrics.TrackQuery("delete")()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Post{}, id).Error
	})
	if err != nil {
		r.logger.LogError(ctx, err, "delete")
		return models.NewInternalError(err)
	}
	r.logger.LogDelete(ctx, map[string]interface{}{"id": id})
	return nil
}

// ToggleLike flips userID's like on the post and returns the resulting state.
func (r *postRepository) ToggleLike(ctx context.Context, postID, userID uint) (*models.LikeState, error) {
	defer r.metrics.TrackQuery("toggle_like")()

	state := &models.LikeState{}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.Select("id").First(&post, postID).Error; err != nil {
			return err
		}

		res := tx.Where("user_id = ? AND post_id = ?", userID, postID).Delete(&models.Like{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			like := models.Like{UserID: userID, PostID: postID}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&like).Error; err != nil {
				return err
			}
			state.Liked = true
		}

		return tx.Model(&models.Like{}).Where("post_id = ?", postID).Count(&state.Likes).Error
	})
	if err != nil {
		return nil, notFoundOr(err, "Post not found")
	}
	return state, nil
}
