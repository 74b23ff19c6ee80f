package server

import (
	"agora/internal/service"

	"github.com/gofiber/fiber/v2"
)

type createCommentRequest struct {
	PostID        uint   `json:"postId" validate:"required"`
	Text          string `json:"text"`
	ParentComment *uint  `json:"parentComment"`
	ReplyTo       *uint  `json:"replyTo"`
}

type updateCommentRequest struct {
	Text string `json:"text"`
}

// GetComments handles GET /api/comments
// @Summary List comments
// @Description All comments, or one post's when postId is given, oldest first.
// @Tags comments
// @Produce json
// @Param postId query int false "Post ID"
// @Success 200 {array} models.Comment
// @Router /comments [get]
func (s *Server) GetComments(c *fiber.Ctx) error {
	postID, err := parseQueryID(c, "postId")
	if err != nil {
		return s.respondError(c, err)
	}

	comments, err := s.commentService.ListComments(c.UserContext(), postID)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(comments)
}

// CreateComment handles POST /api/comments
// @Summary Comment on a post
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body createCommentRequest true "Comment"
// @Success 201 {object} models.Comment
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /comments [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	var req createCommentRequest
	if err := parseBody(c, &req); err != nil {
		return s.respondError(c, err)
	}

	comment, err := s.commentService.CreateComment(c.UserContext(), service.CreateCommentInput{
		UserID:          currentUserID(c),
		PostID:          req.PostID,
		Text:            req.Text,
		ParentCommentID: req.ParentComment,
		ReplyToID:       req.ReplyTo,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// UpdateComment handles PUT /api/comments/:id
// @Summary Edit comment
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Comment ID"
// @Param request body updateCommentRequest true "New text"
// @Success 200 {object} models.Comment
// @Failure 404 {object} models.ErrorResponse
// @Router /comments/{id} [put]
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	commentID, err := parseID(c, "id")
	if err != nil {
		return s.respondError(c, err)
	}

	var req updateCommentRequest
	if err := parseBody(c, &req); err != nil {
		return s.respondError(c, err)
	}

	comment, err := s.commentService.UpdateComment(c.UserContext(), service.UpdateCommentInput{
		UserID:    currentUserID(c),
		CommentID: commentID,
		Text:      req.Text,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(comment)
}

// DeleteComment handles DELETE /api/comments/:id
// @Summary Delete comment
// @Tags comments
// @Produce json
// @Security BearerAuth
// @Param id path int true "Comment ID"
// @Success 200 {object} MessageResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /comments/{id} [delete]
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	commentID, err := parseID(c, "id")
	if err != nil {
		return s.respondError(c, err)
	}

	if err := s.commentService.DeleteComment(c.UserContext(), currentUserID(c), commentID); err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(MessageResponse{Message: "Comment deleted"})
}
