package service

import (
	"context"
	"strings"

	"agora/internal/featureflags"
	"agora/internal/models"
	"agora/internal/observability"
	"agora/internal/repository"
)

type ShareService struct {
	shareRepo repository.ShareRepository
	postRepo  repository.PostRepository
	flags     *featureflags.Manager
}

type CreateShareInput struct {
	UserID    uint
	PostID    uint
	ShareType string
	Text      string
}

func NewShareService(shareRepo repository.ShareRepository, postRepo repository.PostRepository, flags *featureflags.Manager) *ShareService {
	return &ShareService{shareRepo: shareRepo, postRepo: postRepo, flags: flags}
}

func hydrateShares(shares []*models.Share) {
	for _, sh := range shares {
		if sh.OriginalPost != nil {
			sh.OriginalPost.Hydrate(0)
		}
	}
}

// ListShares returns shares newest-first, optionally for one post.
func (s *ShareService) ListShares(ctx context.Context, postID *uint) ([]*models.Share, error) {
	shares, err := s.shareRepo.List(ctx, postID)
	if err != nil {
		return nil, err
	}
	hydrateShares(shares)
	return shares, nil
}

// CreateShare allows one share per user and post.
func (s *ShareService) CreateShare(ctx context.Context, in CreateShareInput) (share *models.Share, err error) {
	ctx, end := startSpan(ctx, "ShareService", "CreateShare")
	defer end(&err)

	if in.PostID == 0 {
		return nil, fieldError("postId", "postId is required")
	}

	shareType := strings.ToLower(strings.TrimSpace(in.ShareType))
	switch shareType {
	case "":
		shareType = models.ShareTypeRepost
	case models.ShareTypeRepost:
	case models.ShareTypeLink:
		if !s.flags.Enabled(featureflags.ShareLinks, in.UserID) {
			return nil, fieldError("shareType", "Link shares are disabled")
		}
	default:
		return nil, fieldError("shareType", "shareType must be one of: repost link")
	}

	text, err := checkText("text", in.Text, 0, MaxShareTextLen)
	if err != nil {
		return nil, err
	}

	exists, err := s.postRepo.Exists(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, models.NewNotFoundMessage("Post not found")
	}

	shared, err := s.shareRepo.Exists(ctx, in.UserID, in.PostID)
	if err != nil {
		return nil, err
	}
	if shared {
		return nil, models.NewValidationError("You have already shared this post")
	}

	share = &models.Share{UserID: in.UserID, PostID: in.PostID, ShareType: shareType, Text: text}
	if err := s.shareRepo.Create(ctx, share); err != nil {
		return nil, err
	}
	observability.RecordEvent(observability.EventShareCreated)

	created, err := s.shareRepo.GetByID(ctx, share.ID)
	if err != nil {
		return nil, err
	}
	hydrateShares([]*models.Share{created})
	return created, nil
}

func (s *ShareService) DeleteShare(ctx context.Context, userID, shareID uint) (err error) {
	ctx, end := startSpan(ctx, "ShareService", "DeleteShare")
	defer end(&err)

	share, err := ownedBy(userID, "Share not found or not authorized", func() (*models.Share, error) {
		return s.shareRepo.GetOwned(ctx, shareID, userID)
	})
	if err != nil {
		return err
	}
	return s.shareRepo.Delete(ctx, share.ID)
}

func (s *ShareService) CountShares(ctx context.Context, postID uint) (int64, error) {
	return s.shareRepo.CountByPost(ctx, postID)
}
