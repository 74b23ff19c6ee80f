package service

import (
	"context"

	"agora/internal/models"
	"agora/internal/observability"
	"agora/internal/repository"
)

type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
}

// CreateCommentInput references an optional parent comment and an optional
// addressed user. Neither reference is checked for existence.
type CreateCommentInput struct {
	UserID          uint
	PostID          uint
	Text            string
	ParentCommentID *uint
	ReplyToID       *uint
}

type UpdateCommentInput struct {
	UserID    uint
	CommentID uint
	Text      string
}

func NewCommentService(commentRepo repository.CommentRepository, postRepo repository.PostRepository) *CommentService {
	return &CommentService{commentRepo: commentRepo, postRepo: postRepo}
}

// ListComments returns comments oldest-first, optionally for one post.
func (s *CommentService) ListComments(ctx context.Context, postID *uint) ([]*models.Comment, error) {
	return s.commentRepo.List(ctx, postID)
}

func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (comment *models.Comment, err error) {
	ctx, end := startSpan(ctx, "CommentService", "CreateComment")
	defer end(&err)

	if in.PostID == 0 {
		return nil, fieldError("postId", "postId is required")
	}
	text, err := checkText("text", in.Text, 1, MaxCommentTextLen)
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

	comment = &models.Comment{
		PostID:          in.PostID,
		UserID:          in.UserID,
		Text:            text,
		ParentCommentID: in.ParentCommentID,
		ReplyToID:       in.ReplyToID,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	observability.RecordEvent(observability.EventCommentCreated)

	return s.commentRepo.GetByID(ctx, comment.ID)
}

func (s *CommentService) UpdateComment(ctx context.Context, in UpdateCommentInput) (comment *models.Comment, err error) {
	ctx, end := startSpan(ctx, "CommentService", "UpdateComment")
	defer end(&err)

	text, err := checkText("text", in.Text, 1, MaxCommentTextLen)
	if err != nil {
		return nil, err
	}

	comment, err = ownedBy(in.UserID, "Comment not found or not authorized", func() (*models.Comment, error) {
		return s.commentRepo.GetOwned(ctx, in.CommentID, in.UserID)
	})
	if err != nil {
		return nil, err
	}

	comment.Text = text
	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, err
	}
	return s.commentRepo.GetByID(ctx, comment.ID)
}

// DeleteComment removes one comment; its replies are kept.
func (s *CommentService) DeleteComment(ctx context.Context, userID, commentID uint) (err error) {
	ctx, end := startSpan(ctx, "CommentService", "DeleteComment")
	defer end(&err)

	comment, err := ownedBy(userID, "Comment not found or not authorized", func() (*models.Comment, error) {
		return s.commentRepo.GetOwned(ctx, commentID, userID)
	})
	if err != nil {
		return err
	}
	return s.commentRepo.Delete(ctx, comment.ID)
}
