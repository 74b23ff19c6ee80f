package server

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"agora/internal/cache"
	"agora/internal/middleware"
	"agora/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenIssuer   = "agora-api"
	tokenAudience = "agora-client"
	tokenTTL      = 7 * 24 * time.Hour
)

// Fiber locals set by authGate.
const (
	localUserID      = "userID"
	localUsername    = "username"
	localTokenID     = "tokenID"
	localTokenExpiry = "tokenExpiry"
)

// tokenClaims is the session token payload. UserID duplicates the subject as a number.
type tokenClaims struct {
	UserID   uint   `json:"id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// generateToken creates a signed session token for the user.
func (s *Server) generateToken(user *models.User) (string, error) {
	if s.config.JWTSecret == "" {
		return "", errors.New("JWT secret not configured")
	}

	now := time.Now()
	claims := tokenClaims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			Issuer:    tokenIssuer,
			Audience:  jwt.ClaimStrings{tokenAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

// parseToken verifies signature, expiry, issuer, audience and the identity claims.
func (s *Server) parseToken(tokenString string) (*tokenClaims, error) {
	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(_ *jwt.Token) (any, error) {
			return []byte(s.config.JWTSecret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.UserID == 0 || claims.Subject != strconv.FormatUint(uint64(claims.UserID), 10) {
		return nil, errors.New("invalid identity claims")
	}
	return claims, nil
}

func bearerToken(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(header[len("Bearer "):])
}

// authGate authenticates the bearer token. A required gate rejects missing or invalid
// tokens with 401; an optional gate lets the request through anonymously instead.
func (s *Server) authGate(required bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := bearerToken(c)
		if tokenString == "" {
			if !required {
				return c.Next()
			}
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authentication required"))
		}

		claims, err := s.parseToken(tokenString)
		if err == nil && claims.ID != "" {
			revoked, lookupErr := cache.IsBlacklisted(c.UserContext(), claims.ID)
			if lookupErr != nil {
				middleware.Logger.WarnContext(c.UserContext(), "token blacklist lookup failed",
					slog.String("error", lookupErr.Error()))
			}
			if revoked {
				err = errors.New("token revoked")
			}
		}
		if err != nil {
			if !required {
				return c.Next()
			}
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired token"))
		}

		c.Locals(localUserID, claims.UserID)
		c.Locals(localUsername, claims.Username)
		c.Locals(localTokenID, claims.ID)
		c.Locals(localTokenExpiry, claims.ExpiresAt.Time)
		// Sync to UserContext for logging and downstream services
		c.SetUserContext(middleware.WithUserID(c.UserContext(), claims.UserID))

		return c.Next()
	}
}

// currentUserID returns the authenticated user id, or 0 for anonymous requests.
func currentUserID(c *fiber.Ctx) uint {
	id, _ := c.Locals(localUserID).(uint)
	return id
}
