package repository

import (
	"context"

	"agora/internal/models"
	"agora/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ShareRepository defines persistence operations for shares.
type ShareRepository interface {
	Create(ctx context.Context, share *models.Share) error
	GetByID(ctx context.Context, id uint) (*models.Share, error)
	GetOwned(ctx context.Context, id, userID uint) (*models.Share, error)
	Exists(ctx context.Context, userID, postID uint) (bool, error)
	List(ctx context.Context, postID *uint) ([]*models.Share, error)
	Delete(ctx context.Context, id uint) error
	CountByPost(ctx context.Context, postID uint) (int64, error)
}

type shareRepository struct {
	db      *gorm.DB
	logger  *observability.RepoLogger
	metrics *observability.DatabaseMetrics
}

// NewShareRepository returns a new ShareRepository implementation.
func NewShareRepository(db *gorm.DB) ShareRepository {
	return &shareRepository{
		db:      db,
		logger:  observability.NewRepoLogger("shares"),
		metrics: observability.NewDatabaseMetrics("shares"),
	}
}

// withOriginal preloads the sharer and the shared post. OriginalPost stays nil
// when the post has been deleted.
func withOriginal(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Author").
		Preload("OriginalPost").
		Preload("OriginalPost.Author").
		Preload("OriginalPost.Likes")
}

func (r *shareRepository) Create(ctx context.Context, share *models.Share) error {
	defer r.metrics.TrackQuery("create")()

	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(share).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewValidationError("You have already shared this post")
		}
		r.logger.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	r.logger.LogCreate(ctx, map[string]interface{}{"id": share.ID, "post_id": share.PostID})
	return nil
}

func (r *shareRepository) GetByID(ctx context.Context, id uint) (*models.Share, error) {
	var share models.Share
	if err := withOriginal(r.db.WithContext(ctx)).First(&share, id).Error; err != nil {
		return nil, notFoundOr(err, "Share not found")
	}
	return &share, nil
}

func (r *shareRepository) GetOwned(ctx context.Context, id, userID uint) (*models.Share, error) {
	var share models.Share
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&share).Error; err != nil {
		return nil, notFoundOr(err, "Share not found or not authorized")
	}
	return &share, nil
}

func (r *shareRepository) Exists(ctx context.Context, userID, postID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Share{}).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

// List returns shares newest-first, optionally for a single post.
func (r *shareRepository) List(ctx context.Context, postID *uint) ([]*models.Share, error) {
	defer r.metrics.TrackQuery("list")()

	q := withOriginal(r.db.WithContext(ctx))
	if postID != nil {
		q = q.Where("shares.post_id = ?", *postID)
	}

	shares := make([]*models.Share, 0)
	if err := q.Order("shares.created_at DESC, shares.id DESC").Find(&shares).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return shares, nil
}

func (r *shareRepository) Delete(ctx context.Context, id uint) error {
	defer r.metrics.TrackQuery("delete")()

	if err := r.db.WithContext(ctx).Delete(&models.Share{}, id).Error; err != nil {
		r.logger.LogError(ctx, err, "delete")
		return models.NewInternalError(err)
	}
	r.logger.LogDelete(ctx, map[string]interface{}{"id": id})
	return nil
}

func (r *shareRepository) CountByPost(ctx context.Context, postID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Share{}).
		Where("post_id = ?", postID).
		Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}
