package server

import (
	"github.com/gofiber/fiber/v2"
)

// ToggleFollow handles POST /api/follow/:username
// @Summary Follow or unfollow
// @Tags follow
// @Produce json
// @Security BearerAuth
// @Param username path string true "Username"
// @Success 200 {object} object{followed=bool}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /follow/{username} [post]
func (s *Server) ToggleFollow(c *fiber.Ctx) error {
	followed, err := s.followService.ToggleFollow(c.UserContext(), currentUserID(c), c.Params("username"))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(fiber.Map{"followed": followed})
}

// GetFollowers handles GET /api/follow/:username/followers
// @Summary Followers
// @Tags follow
// @Produce json
// @Param username path string true "Username"
// @Success 200 {array} models.UserSummary
// @Failure 404 {object} models.ErrorResponse
// @Router /follow/{username}/followers [get]
func (s *Server) GetFollowers(c *fiber.Ctx) error {
	users, err := s.followService.Followers(c.UserContext(), c.Params("username"))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(users)
}

// GetFollowing handles GET /api/follow/:username/following
// @Summary Following
// @Tags follow
// @Produce json
// @Param username path string true "Username"
// @Success 200 {array} models.UserSummary
// @Failure 404 {object} models.ErrorResponse
// @Router /follow/{username}/following [get]
func (s *Server) GetFollowing(c *fiber.Ctx) error {
	users, err := s.followService.Following(c.UserContext(), c.Params("username"))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(users)
}
