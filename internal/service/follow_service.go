package service

import (
	"context"

	"agora/internal/cache"
	"agora/internal/models"
	"agora/internal/observability"
	"agora/internal/repository"
	"agora/internal/validation"
)

type FollowService struct {
	userRepo   repository.UserRepository
	followRepo repository.FollowRepository
}

func NewFollowService(userRepo repository.UserRepository, followRepo repository.FollowRepository) *FollowService {
	return &FollowService{userRepo: userRepo, followRepo: followRepo}
}

// ToggleFollow follows or unfollows targetUsername and returns whether the caller
// follows the target afterwards.
func (s *FollowService) ToggleFollow(ctx context.Context, userID uint, targetUsername string) (followed bool, err error) {
	ctx, end := startSpan(ctx, "FollowService", "ToggleFollow")
	defer end(&err)

	target, err := s.userRepo.GetByUsername(ctx, validation.NormalizeIdentity(targetUsername))
	if err != nil {
		return false, err
	}
	if target.ID == userID {
		return false, models.NewValidationError("Cannot follow yourself")
	}
	caller, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}

	followed, err = s.followRepo.Toggle(ctx, caller.ID, target.ID)
	if err != nil {
		return false, err
	}

	cache.InvalidateProfiles(ctx, caller.Username, target.Username)
	if followed {
		observability.RecordEvent(observability.EventFollowed)
	} else {
		observability.RecordEvent(observability.EventUnfollowed)
	}
	return followed, nil
}

// Followers lists who follows username, oldest edge first.
func (s *FollowService) Followers(ctx context.Context, username string) ([]models.UserSummary, error) {
	user, err := s.userRepo.GetByUsername(ctx, validation.NormalizeIdentity(username))
	if err != nil {
		return nil, err
	}
	return s.followRepo.Followers(ctx, user.ID)
}

// Following lists whom username follows, oldest edge first.
func (s *FollowService) Following(ctx context.Context, username string) ([]models.UserSummary, error) {
	user, err := s.userRepo.GetByUsername(ctx, validation.NormalizeIdentity(username))
	if err != nil {
		return nil, err
	}
	return s.followRepo.Following(ctx, user.ID)
}
