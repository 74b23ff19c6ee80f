package repository

import (
	"context"

	"agora/internal/models"
	"agora/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FollowRepository stores follow edges. Follower and following lists are always
// derived from the edges.
type FollowRepository interface {
	Toggle(ctx context.Context, followerID, followingID uint) (bool, error)
	Followers(ctx context.Context, userID uint) ([]models.UserSummary, error)
	Following(ctx context.Context, userID uint) ([]models.UserSummary, error)
	FollowingIDs(ctx context.Context, userID uint) ([]uint, error)
}

type followRepository struct {
	db      *gorm.DB
	logger  *observability.RepoLogger
	metrics *observability.DatabaseMetrics
}

// NewFollowRepository returns a new FollowRepository implementation.
func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{
		db:      db,
		logger:  observability.NewRepoLogger("follows"),
		metrics: observability.NewDatabaseMetrics("follows"),
	}
}

// Toggle removes the edge if present, otherwise creates it, in one transaction.
// It returns whether the edge exists afterwards.
func (r *followRepository) Toggle(ctx context.Context, followerID, followingID uint) (bool, error) {
	defer r.metrics.TrackQuery("toggle")()

	followed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("follower_id = ? AND following_id = ?", followerID, followingID).
			Delete(&models.Follow{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}

		edge := models.Follow{FollowerID: followerID, FollowingID: followingID}
		if err := tx.Omit(clause.Associations).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&edge).Error; err != nil {
			return err
		}
		followed = true
		return nil
	})
	if err != nil {
		r.logger.LogError(ctx, err, "toggle")
		return false, models.NewInternalError(err)
	}

	fields := map[string]interface{}{"follower_id": followerID, "following_id": followingID}
	if followed {
		r.logger.LogCreate(ctx, fields)
	} else {
		r.logger.LogDelete(ctx, fields)
	}
	return followed, nil
}

// Followers lists the users following userID in edge creation order.
func (r *followRepository) Followers(ctx context.Context, userID uint) ([]models.UserSummary, error) {
	defer r.metrics.TrackQuery("followers")()
	return r.listEdges(ctx, "follows.follower_id = users.id", "follows.following_id = ?", userID)
}

// Following lists the users userID follows in edge creation order.
func (r *followRepository) Following(ctx context.Context, userID uint) ([]models.UserSummary, error) {
	defer r.metrics.TrackQuery("following")()
	return r.listEdges(ctx, "follows.following_id = users.id", "follows.follower_id = ?", userID)
}

func (r *followRepository) listEdges(ctx context.Context, join, where string, userID uint) ([]models.UserSummary, error) {
	out := make([]models.UserSummary, 0)
	if err := r.db.WithContext(ctx).Model(&models.User{}).
		Select("users.id, users.username, users.profile_picture").
		Joins("JOIN follows ON "+join).
		Where(where, userID).
		Order("follows.created_at ASC, follows.id ASC").
		Scan(&out).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}

func (r *followRepository) FollowingIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ?", userID).
		Pluck("following_id", &ids).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}
