package server

import (
	"time"

	"agora/internal/cache"
	"agora/internal/models"
	"agora/internal/service"

	"github.com/gofiber/fiber/v2"
)

type signupRequest struct {
	Username       string `json:"username" validate:"required"`
	Email          string `json:"email" validate:"required"`
	Password       string `json:"password" validate:"required"`
	Bio            string `json:"bio"`
	ProfilePicture string `json:"profilePicture"`
}

type loginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

type settingsRequest struct {
	Username       *string `json:"username"`
	Bio            *string `json:"bio"`
	ProfilePicture *string `json:"profilePicture"`
}

// AuthResponse is returned by signup and login.
type AuthResponse struct {
	Token string         `json:"token"`
	User  models.Account `json:"user"`
}

// MessageResponse carries a human-readable confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}

// Signup handles POST /api/auth/signup
// @Summary User signup
// @Description Register a new user account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body signupRequest true "Signup request"
// @Success 201 {object} AuthResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /auth/signup [post]
func (s *Server) Signup(c *fiber.Ctx) error {
	var req signupRequest
	if err := parseBody(c, &req); err != nil {
		return s.respondError(c, err)
	}

	user, err := s.authService.Register(c.UserContext(), service.RegisterInput{
		Username:       req.Username,
		Email:          req.Email,
		Password:       req.Password,
		Bio:            req.Bio,
		ProfilePicture: req.ProfilePicture,
	})
	if err != nil {
		return s.respondError(c, err)
	}

	token, err := s.generateToken(user)
	if err != nil {
		return s.respondError(c, models.NewInternalError(err))
	}

	return c.Status(fiber.StatusCreated).JSON(AuthResponse{
		Token: token,
		User:  models.NewAccount(user),
	})
}

// Login handles POST /api/auth/login
// @Summary User login
// @Description Authenticate by username or email and return a session token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body loginRequest true "Login credentials"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := parseBody(c, &req); err != nil {
		return s.respondError(c, err)
	}

	user, err := s.authService.Authenticate(c.UserContext(), req.Identifier, req.Password)
	if err != nil {
		return s.respondError(c, err)
	}

	token, err := s.generateToken(user)
	if err != nil {
		return s.respondError(c, models.NewInternalError(err))
	}

	return c.JSON(AuthResponse{
		Token: token,
		User:  models.NewAccount(user),
	})
}

// Logout handles POST /api/auth/logout
// @Summary Logout
// @Description Revoke the current session token until it expires
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} MessageResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	jti, _ := c.Locals(localTokenID).(string)
	expiry, _ := c.Locals(localTokenExpiry).(time.Time)

	if ttl := time.Until(expiry); jti != "" && ttl > 0 {
		if err := cache.BlacklistToken(c.UserContext(), jti, ttl); err != nil {
			return s.respondError(c, models.NewInternalError(err))
		}
	}

	return c.JSON(MessageResponse{Message: "Logged out"})
}

// GetMe handles GET /api/auth/me
// @Summary Current user
// @Description Full profile of the authenticated user, including follow lists
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Profile
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /auth/me [get]
func (s *Server) GetMe(c *fiber.Ctx) error {
	profile, err := s.userService.GetSelf(c.UserContext(), currentUserID(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(profile)
}

// GetProfile handles GET /api/auth/profile/:username
// @Summary Public profile
// @Tags users
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} models.PublicProfile
// @Failure 404 {object} models.ErrorResponse
// @Router /auth/profile/{username} [get]
func (s *Server) GetProfile(c *fiber.Ctx) error {
	profile, err := s.userService.GetPublicProfile(c.UserContext(), c.Params("username"))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(profile)
}

// UpdateSettings handles PUT /api/auth/settings
// @Summary Update settings
// @Description Change username, bio or profile picture. Accepts JSON or multipart with a profilePicture file.
// @Tags users
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param request body settingsRequest false "Settings"
// @Success 200 {object} models.Account
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /auth/settings [put]
func (s *Server) UpdateSettings(c *fiber.Ctx) error {
	in := service.UpdateSettingsInput{UserID: currentUserID(c)}

	if isMultipart(c) {
		form, err := c.MultipartForm()
		if err != nil {
			return s.respondError(c, models.NewValidationError("Invalid multipart form"))
		}
		in.Username = formValue(form, "username")
		in.Bio = formValue(form, "bio")
		in.ProfilePicture = formValue(form, "profilePicture")
		if in.Upload, err = s.readUpload(form, "profilePicture"); err != nil {
			return s.respondError(c, err)
		}
	} else {
		var req settingsRequest
		if err := parseBody(c, &req); err != nil {
			return s.respondError(c, err)
		}
		in.Username, in.Bio, in.ProfilePicture = req.Username, req.Bio, req.ProfilePicture
	}

	account, err := s.userService.UpdateSettings(c.UserContext(), in)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(account)
}
