package repository

import (
	"context"

	"agora/internal/models"
	"agora/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CommentRepository defines interface for comment operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	GetOwned(ctx context.Context, id, userID uint) (*models.Comment, error)
	List(ctx context.Context, postID *uint) ([]*models.Comment, error)
	Update(ctx context.Context, comment *models.Comment) error
	Delete(ctx context.Context, id uint) error
}

type commentRepository struct {
	db      *gorm.DB
	logger  *observability.RepoLogger
	metrics *observability.DatabaseMetrics
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{
		db:      db,
		logger:  observability.NewRepoLogger("comments"),
		metrics: observability.NewDatabaseMetrics("comments"),
	}
}

func withThread(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Author").
		Preload("ReplyTo").
		Preload("ParentComment").
		Preload("ParentComment.Author")
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	defer r.metrics.TrackQuery("create")()

	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(comment).Error; err != nil {
		r.logger.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	r.logger.LogCreate(ctx, map[string]interface{}{"id": comment.ID, "post_id": comment.PostID})
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	defer r.metrics.TrackQuery("get_by_id")()

	var comment models.Comment
	if err := withThread(r.db.WithContext(ctx)).First(&comment, id).Error; err != nil {
		return nil, notFoundOr(err, "Comment not found")
	}
	return &comment, nil
}

func (r *commentRepository) GetOwned(ctx context.Context, id, userID uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&comment).Error; err != nil {
		return nil, notFoundOr(err, "Comment not found or not authorized")
	}
	return &comment, nil
}

// List returns comments oldest-first, optionally for a single post.
func (r *commentRepository) List(ctx context.Context, postID *uint) ([]*models.Comment, error) {
	defer r.metrics.TrackQuery("list")()

	q := withThread(r.db.WithContext(ctx))
	if postID != nil {
		q = q.Where("comments.post_id = ?", *postID)
	}

	comments := make([]*models.Comment, 0)
	if err := q.Order("comments.created_at ASC, comments.id ASC").Find(&comments).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}

func (r *commentRepository) Update(ctx context.Context, comment *models.Comment) error {
	defer r.metrics.TrackQuery("update")()

	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(comment).Error; err != nil {
		r.logger.LogError(ctx, err, "update")
		return models.NewInternalError(err)
	}
	r.logger.LogUpdate(ctx, map[string]interface{}{"id": comment.ID})
	return nil
}

// Delete removes a single comment; replies keep their dangling parent reference.
func (r *commentRepository) Delete(ctx context.Context, id uint) error {
	defer r.metrics.TrackQuery("delete")()

	if err := r.db.WithContext(ctx).Delete(&models.Comment{}, id).Error; err != nil {
		r.logger.LogError(ctx, err, "delete")
		return models.NewInternalError(err)
	}
	r.logger.LogDelete(ctx, map[string]interface{}{"id": id})
	return nil
}
