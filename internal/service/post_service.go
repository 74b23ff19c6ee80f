package service

import (
	"context"
	"strings"

	"agora/internal/featureflags"
	"agora/internal/models"
	"agora/internal/observability"
	"agora/internal/repository"
	"agora/internal/storage"
	"agora/internal/validation"
)

// Feed scopes.
const (
	ScopeAll       = "all"
	ScopeFollowing = "following"
)

// MaxPageSize caps an explicit limit. A zero limit returns every post.
const MaxPageSize = 100

type PostService struct {
	postRepo   repository.PostRepository
	userRepo   repository.UserRepository
	followRepo repository.FollowRepository
	images     ImageStore
	flags      *featureflags.Manager
}

type CreatePostInput struct {
	UserID uint
	Text   string
	Image  string
	Upload *storage.UploadInput
}

type ListFeedInput struct {
	ViewerID uint
	Limit    int
	Offset   int
	Scope    string
}

type UpdatePostInput struct {
	UserID uint
	PostID uint
	Text   string
}

func NewPostService(
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	followRepo repository.FollowRepository,
	images ImageStore,
	flags *featureflags.Manager,
) *PostService {
	return &PostService{
		postRepo:   postRepo,
		userRepo:   userRepo,
		followRepo: followRepo,
		images:     images,
		flags:      flags,
	}
}

func normalizePage(limit, offset int) (int, int) {
	if limit < 0 {
		limit = 0
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// CreatePost stores a post with optional text and image. An uploaded file wins
// over an image reference.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (post *models.Post, err error) {
	ctx, end := startSpan(ctx, "PostService", "CreatePost")
	defer end(&err)

	text, err := checkText("text", in.Text, 0, MaxPostTextLen)
	if err != nil {
		return nil, err
	}

	image := strings.TrimSpace(in.Image)
	if in.Upload != nil {
		image, err = s.images.SaveImage(ctx, in.Upload, "")
		if err != nil {
			return nil, err
		}
	}

	post = &models.Post{UserID: in.UserID, Text: text, Image: image}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	observability.RecordEvent(observability.EventPostCreated)

	created, err := s.postRepo.GetByID(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	created.Hydrate(in.UserID)
	return created, nil
}

// ListFeed returns the global feed newest-first. The following scope narrows it
// to the viewer and the accounts they follow when the following_feed flag is on.
func (s *PostService) ListFeed(ctx context.Context, in ListFeedInput) (posts []*models.Post, err error) {
	ctx, end := startSpan(ctx, "PostService", "ListFeed")
	defer end(&err)

	opts := repository.PostListOptions{}
	opts.Limit, opts.Offset = normalizePage(in.Limit, in.Offset)

	switch strings.ToLower(strings.TrimSpace(in.Scope)) {
	case "", ScopeAll:
	case ScopeFollowing:
		if in.ViewerID == 0 {
			return nil, models.NewUnauthorizedError("Authentication required")
		}
		if s.flags.Enabled(featureflags.FollowingFeed, in.ViewerID) {
			ids, err := s.followRepo.FollowingIDs(ctx, in.ViewerID)
			if err != nil {
				return nil, err
			}
			opts.AuthorIDs = append(ids, in.ViewerID)
		}
	default:
		return nil, fieldError("scope", "scope must be one of: all following")
	}

	posts, err = s.postRepo.List(ctx, opts)
	if err != nil {
		return nil, err
	}
	hydratePosts(posts, in.ViewerID)
	return posts, nil
}

// ListUserPosts returns username's posts newest-first.
func (s *PostService) ListUserPosts(ctx context.Context, username string, viewerID uint, limit, offset int) (posts []*models.Post, err error) {
	ctx, end := startSpan(ctx, "PostService", "ListUserPosts")
	defer end(&err)

	user, err := s.userRepo.GetByUsername(ctx, validation.NormalizeIdentity(username))
	if err != nil {
		return nil, err
	}

	opts := repository.PostListOptions{AuthorIDs: []uint{user.ID}}
	opts.Limit, opts.Offset = normalizePage(limit, offset)
	posts, err = s.postRepo.List(ctx, opts)
	if err != nil {
		return nil, err
	}
	hydratePosts(posts, viewerID)
	return posts, nil
}

// UpdatePost replaces the text of a post the caller authored.
func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (post *models.Post, err error) {
	ctx, end := startSpan(ctx, "PostService", "UpdatePost")
	defer end(&err)

	text, err := checkText("text", in.Text, 0, MaxPostTextLen)
	if err != nil {
		return nil, err
	}

	const notFound = "Post not found or not authorized"
	post, err = ownedBy(in.UserID, notFound, func() (*models.Post, error) {
		return s.postRepo.GetOwned(ctx, in.PostID, in.UserID)
	})
	if err != nil {
		return nil, err
	}

	post.Text = text
	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}

	updated, err := s.postRepo.GetByID(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	updated.Hydrate(in.UserID)
	return updated, nil
}

// DeletePost removes a post the caller authored together with its comments.
func (s *PostService) DeletePost(ctx context.Context, userID, postID uint) (err error) {
	ctx, end := startSpan(ctx, "PostService", "DeletePost")
	defer end(&err)

	post, err := ownedBy(userID, "Post not found or not authorized", func() (*models.Post, error) {
		return s.postRepo.GetOwned(ctx, postID, userID)
	})
	if err != nil {
		return err
	}
	if err := s.postRepo.DeleteWithComments(ctx, post.ID); err != nil {
		return err
	}
	observability.RecordEvent(observability.EventPostDeleted)
	return nil
}

// ToggleLike flips the caller's like and returns the new count and state.
func (s *PostService) ToggleLike(ctx context.Context, userID, postID uint) (state *models.LikeState, err error) {
	ctx, end := startSpan(ctx, "PostService", "ToggleLike")
	defer end(&err)

	state, err = s.postRepo.ToggleLike(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	if state.Liked {
		observability.RecordEvent(observability.EventPostLiked)
	} else {
		observability.RecordEvent(observability.EventPostUnliked)
	}
	return state, nil
}
