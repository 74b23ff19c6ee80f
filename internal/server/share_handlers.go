package server

import (
	"agora/internal/service"

	"github.com/gofiber/fiber/v2"
)

type createShareRequest struct {
	PostID    uint   `json:"postId" validate:"required"`
	ShareType string `json:"shareType" validate:"omitempty,oneof=repost link"`
	Text      string `json:"text"`
}

// GetShares handles GET /api/shares
// @Summary List shares
// @Description All shares, or one post's when postId is given, newest first.
// @Tags shares
// @Produce json
// @Param postId query int false "Post ID"
// @Success 200 {array} models.Share
// @Router /shares [get]
func (s *Server) GetShares(c *fiber.Ctx) error {
	postID, err := parseQueryID(c, "postId")
	if err != nil {
		return s.respondError(c, err)
	}

	shares, err := s.shareService.ListShares(c.UserContext(), postID)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(shares)
}

// CreateShare handles POST /api/shares
// @Summary Share a post
// @Tags shares
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body createShareRequest true "Share"
// @Success 201 {object} models.Share
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /shares [post]
func (s *Server) CreateShare(c *fiber.Ctx) error {
	var req createShareRequest
	if err := parseBody(c, &req); err != nil {
		return s.respondError(c, err)
	}

	share, err := s.shareService.CreateShare(c.UserContext(), service.CreateShareInput{
		UserID:    currentUserID(c),
		PostID:    req.PostID,
		ShareType: req.ShareType,
		Text:      req.Text,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(share)
}

// DeleteShare handles DELETE /api/shares/:id
// @Summary Delete share
// @Tags shares
// @Produce json
// @Security BearerAuth
// @Param id path int true "Share ID"
// @Success 200 {object} MessageResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /shares/{id} [delete]
func (s *Server) DeleteShare(c *fiber.Ctx) error {
	shareID, err := parseID(c, "id")
	if err != nil {
		return s.respondError(c, err)
	}

	if err := s.shareService.DeleteShare(c.UserContext(), currentUserID(c), shareID); err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(MessageResponse{Message: "Share deleted"})
}

// GetShareCount handles GET /api/shares/count/:postId
// @Summary Count shares of a post
// @Tags shares
// @Produce json
// @Param postId path int true "Post ID"
// @Success 200 {object} object{count=int}
// @Router /shares/count/{postId} [get]
func (s *Server) GetShareCount(c *fiber.Ctx) error {
	postID, err := parseID(c, "postId")
	if err != nil {
		return s.respondError(c, err)
	}

	count, err := s.shareService.CountShares(c.UserContext(), postID)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(fiber.Map{"count": count})
}
