package server

import (
	"agora/internal/models"
	"agora/internal/service"

	"github.com/gofiber/fiber/v2"
)

type createPostRequest struct {
	Text  string `json:"text"`
	Image string `json:"image"`
}

type updatePostRequest struct {
	Text string `json:"text"`
}

// GetPosts handles GET /api/posts
// @Summary Feed
// @Description All posts newest first. scope=following narrows the feed when the following_feed flag is on.
// @Tags posts
// @Produce json
// @Param limit query int false "Page size (max 100, omit for all)"
// @Param offset query int false "Offset"
// @Param scope query string false "all or following"
// @Success 200 {array} models.Post
// @Router /posts [get]
func (s *Server) GetPosts(c *fiber.Ctx) error {
	page := parsePagination(c)

	posts, err := s.postService.ListFeed(c.UserContext(), service.ListFeedInput{
		ViewerID: currentUserID(c),
		Limit:    page.Limit,
		Offset:   page.Offset,
		Scope:    c.Query("scope"),
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(posts)
}

// CreatePost handles POST /api/posts
// @Summary Create post
// @Description Accepts JSON or multipart with an image file.
// @Tags posts
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param request body createPostRequest true "Post"
// @Success 201 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	in := service.CreatePostInput{UserID: currentUserID(c)}

	if isMultipart(c) {
		form, err := c.MultipartForm()
		if err != nil {
			return s.respondError(c, models.NewValidationError("Invalid multipart form"))
		}
		in.Text = deref(formValue(form, "text"))
		in.Image = deref(formValue(form, "image"))
		if in.Upload, err = s.readUpload(form, "image"); err != nil {
			return s.respondError(c, err)
		}
	} else {
		var req createPostRequest
		if err := parseBody(c, &req); err != nil {
			return s.respondError(c, err)
		}
		in.Text, in.Image = req.Text, req.Image
	}

	post, err := s.postService.CreatePost(c.UserContext(), in)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// GetUserPosts handles GET /api/posts/user/:username
// @Summary Posts by user
// @Tags posts
// @Produce json
// @Param username path string true "Username"
// @Param limit query int false "Page size (max 100, omit for all)"
// @Param offset query int false "Offset"
// @Success 200 {array} models.Post
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/user/{username} [get]
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	page := parsePagination(c)

	posts, err := s.postService.ListUserPosts(c.UserContext(), c.Params("username"),
		currentUserID(c), page.Limit, page.Offset)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(posts)
}

// UpdatePost handles PUT /api/posts/:id
// @Summary Edit post text
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body updatePostRequest true "New text"
// @Success 200 {object} models.Post
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [put]
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return s.respondError(c, err)
	}

	var req updatePostRequest
	if err := parseBody(c, &req); err != nil {
		return s.respondError(c, err)
	}

	post, err := s.postService.UpdatePost(c.UserContext(), service.UpdatePostInput{
		UserID: currentUserID(c),
		PostID: postID,
		Text:   req.Text,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(post)
}

// DeletePost handles DELETE /api/posts/:id
// @Summary Delete post
// @Description Deletes the post with its comments. Shares of it are kept.
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} MessageResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return s.respondError(c, err)
	}

	if err := s.postService.DeletePost(c.UserContext(), currentUserID(c), postID); err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(MessageResponse{Message: "Post deleted"})
}

// ToggleLike handles POST /api/posts/:id/like
// @Summary Like or unlike
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} models.LikeState
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/like [post]
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return s.respondError(c, err)
	}

	state, err := s.postService.ToggleLike(c.UserContext(), currentUserID(c), postID)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(state)
}
