package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"agora/internal/models"
	"agora/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignup(t *testing.T) {
	env := newTestEnv(t, "")

	tests := []struct {
		name       string
		body       map[string]string
		wantStatus int
		wantMsg    string
	}{
		{"invalid username", map[string]string{"username": "a!", "email": "a@example.com", "password": "secret123"},
			http.StatusBadRequest, ""},
		{"short password", map[string]string{"username": "carol", "email": "carol@example.com", "password": "123"},
			http.StatusBadRequest, ""},
		{"missing email", map[string]string{"username": "carol", "password": "secret123"},
			http.StatusBadRequest, "email is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, raw := env.do(t, http.MethodPost, "/api/auth/signup", "", tt.body)
			assert.Equal(t, tt.wantStatus, status, string(raw))
			body := decodeError(t, raw)
			assert.Equal(t, models.CodeValidation, body.Code)
			assert.NotEmpty(t, body.Errors)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, body.Message)
			}
		})
	}
}

func TestSignup_LowercasesAndRejectsDuplicates(t *testing.T) {
	env := newTestEnv(t, "")

	var created authBody
	env.doInto(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"username": "  Alice ",
		"email":    "Alice@Example.com",
		"password": "secret123",
	}, http.StatusCreated, &created)
	assert.Equal(t, "alice", created.User.Username)
	assert.Equal(t, "alice@example.com", created.User.Email)

	status, raw := env.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"username": "ALICE",
		"email":    "other@example.com",
		"password": "secret123",
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "Username or email already exists", decodeError(t, raw).Message)
	assert.NotContains(t, string(raw), "password")
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t, "")
	signed := env.signup(t, "alice")

	for _, identifier := range []string{"alice", "ALICE@example.com"} {
		var out authBody
		env.doInto(t, http.MethodPost, "/api/auth/login", "", map[string]string{
			"identifier": identifier,
			"password":   "secret123",
		}, http.StatusOK, &out)
		assert.Equal(t, signed.User.ID, out.User.ID)

		var me struct {
			ID       uint   `json:"id"`
			Username string `json:"username"`
		}
		env.doInto(t, http.MethodGet, "/api/auth/me", out.Token, nil, http.StatusOK, &me)
		assert.Equal(t, out.User.ID, me.ID)
	}

	status, raw := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"identifier": "alice",
		"password":   "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid credentials", decodeError(t, raw).Message)

	status, raw = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"identifier": "nobody",
		"password":   "secret123",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid credentials", decodeError(t, raw).Message)
}

func TestGenerateToken_Claims(t *testing.T) {
	env := newTestEnv(t, "")
	user := &models.User{ID: 42, Username: "alice"}

	token, err := env.server.generateToken(user)
	require.NoError(t, err)

	claims, err := env.server.parseToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, tokenIssuer, claims.Issuer)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, time.Now().Add(tokenTTL), claims.ExpiresAt.Time, time.Minute)
}

func TestAuthGate(t *testing.T) {
	env := newTestEnv(t, "")
	user := &models.User{ID: 7, Username: "alice"}
	valid, err := env.server.generateToken(user)
	require.NoError(t, err)

	sign := func(secret string, claims tokenClaims) string {
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		require.NoError(t, err)
		return tok
	}
	base := func() tokenClaims {
		now := time.Now()
		return tokenClaims{
			UserID:   7,
			Username: "alice",
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   strconv.Itoa(7),
				Issuer:    tokenIssuer,
				Audience:  jwt.ClaimStrings{tokenAudience},
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
				IssuedAt:  jwt.NewNumericDate(now),
				ID:        "jti-1",
			},
		}
	}
	expired := base()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
	wrongIssuer := base()
	wrongIssuer.Issuer = "someone-else"
	wrongAudience := base()
	wrongAudience.Audience = jwt.ClaimStrings{"other-client"}
	noID := base()
	noID.UserID = 0

	app := fiber.New()
	app.Get("/required", env.server.authGate(true), func(c *fiber.Ctx) error {
		return c.SendString(strconv.FormatUint(uint64(currentUserID(c)), 10))
	})
	app.Get("/optional", env.server.authGate(false), func(c *fiber.Ctx) error {
		return c.SendString(strconv.FormatUint(uint64(currentUserID(c)), 10))
	})

	tests := []struct {
		name         string
		header       string
		requiredCode int
		requiredMsg  string
		optionalUID  string
	}{
		{"no header", "", http.StatusUnauthorized, "Authentication required", "0"},
		{"valid", "Bearer " + valid, http.StatusOK, "7", "7"},
		{"not bearer", "Basic " + valid, http.StatusUnauthorized, "Authentication required", "0"},
		{"garbage", "Bearer not-a-jwt", http.StatusUnauthorized, "Invalid or expired token", "0"},
		{"wrong secret", "Bearer " + sign("another-secret", base()), http.StatusUnauthorized, "Invalid or expired token", "0"},
		{"expired", "Bearer " + sign(testSecret, expired), http.StatusUnauthorized, "Invalid or expired token", "0"},
		{"wrong issuer", "Bearer " + sign(testSecret, wrongIssuer), http.StatusUnauthorized, "Invalid or expired token", "0"},
		{"wrong audience", "Bearer " + sign(testSecret, wrongAudience), http.StatusUnauthorized, "Invalid or expired token", "0"},
		{"missing id claim", "Bearer " + sign(testSecret, noID), http.StatusUnauthorized, "Invalid or expired token", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/required", nil)
			if tt.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			body := readAll(t, resp)
			assert.Equal(t, tt.requiredCode, resp.StatusCode)
			assert.Contains(t, body, tt.requiredMsg)

			req = httptest.NewRequest(http.MethodGet, "/optional", nil)
			if tt.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tt.header)
			}
			resp, err = app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, tt.optionalUID, readAll(t, resp))
		})
	}
}

func readAll(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	var sb strings.Builder
	_, err := io.Copy(&sb, resp.Body)
	require.NoError(t, err)
	return sb.String()
}

func TestLogout_RevokesToken(t *testing.T) {
	env := newTestEnv(t, "")
	alice := env.signup(t, "alice")

	status, _ := env.do(t, http.MethodGet, "/api/auth/me", alice.Token, nil)
	require.Equal(t, http.StatusOK, status)

	var out MessageResponse
	env.doInto(t, http.MethodPost, "/api/auth/logout", alice.Token, nil, http.StatusOK, &out)
	assert.Equal(t, "Logged out", out.Message)

	status, raw := env.do(t, http.MethodGet, "/api/auth/me", alice.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid or expired token", decodeError(t, raw).Message)

	// A fresh login still works.
	var again authBody
	env.doInto(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"identifier": "alice", "password": "secret123",
	}, http.StatusOK, &again)
	status, _ = env.do(t, http.MethodGet, "/api/auth/me", again.Token, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestLogout_RequiresAuth(t *testing.T) {
	env := newTestEnv(t, "")
	status, raw := env.do(t, http.MethodPost, "/api/auth/logout", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Authentication required", decodeError(t, raw).Message)
}

func TestGetMe_DeletedUser(t *testing.T) {
	env := newTestEnv(t, "")
	token, err := env.server.generateToken(&models.User{ID: 999, Username: "ghost"})
	require.NoError(t, err)

	status, raw := env.do(t, http.MethodGet, "/api/auth/me", token, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "User not found", decodeError(t, raw).Message)
}

func TestGetProfile(t *testing.T) {
	env := newTestEnv(t, "")
	alice := env.signup(t, "alice")
	env.signup(t, "bob")
	env.doInto(t, http.MethodPost, "/api/follow/bob", alice.Token, nil, http.StatusOK, nil)

	var profile struct {
		Username  string `json:"username"`
		Followers []struct {
			ID       uint   `json:"id"`
			Username string `json:"username"`
		} `json:"followers"`
		FollowersCount int `json:"followersCount"`
	}
	env.doInto(t, http.MethodGet, "/api/auth/profile/BOB", "", nil, http.StatusOK, &profile)
	assert.Equal(t, "bob", profile.Username)
	require.Len(t, profile.Followers, 1)
	assert.Equal(t, "alice", profile.Followers[0].Username)
	assert.Equal(t, 1, profile.FollowersCount)

	status, raw := env.do(t, http.MethodGet, "/api/auth/profile/nobody", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.NotContains(t, string(raw), "@example.com")
}

func TestUpdateSettings_JSON(t *testing.T) {
	env := newTestEnv(t, "")
	alice := env.signup(t, "alice")
	env.signup(t, "bob")

	var account struct {
		Username string `json:"username"`
		Bio      string `json:"bio"`
		Email    string `json:"email"`
	}
	env.doInto(t, http.MethodPut, "/api/auth/settings", alice.Token, map[string]string{
		"username": "Alicia",
		"bio":      "<b>hello</b> world",
	}, http.StatusOK, &account)
	assert.Equal(t, "alicia", account.Username)
	assert.Equal(t, "hello world", account.Bio)
	assert.Equal(t, "alice@example.com", account.Email)

	status, raw := env.do(t, http.MethodPut, "/api/auth/settings", alice.Token, map[string]string{"username": "bob"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "Username already taken", decodeError(t, raw).Message)

	status, _ = env.do(t, http.MethodPut, "/api/auth/settings", alice.Token, map[string]string{
		"bio": strings.Repeat("x", 281),
	})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestUpdateSettings_MultipartUpload(t *testing.T) {
	env := newTestEnv(t, "")
	alice := env.signup(t, "alice")

	req := multipartRequest(t, http.MethodPut, "/api/auth/settings",
		map[string]string{"bio": "with picture", "profilePicture": "https://example.com/ignored.png"},
		"profilePicture", "me.png", "image/png", testutil.PNG(t))
	status, raw := env.send(t, req, alice.Token)
	require.Equal(t, http.StatusOK, status, string(raw))

	var account struct {
		Bio            string `json:"bio"`
		ProfilePicture string `json:"profilePicture"`
	}
	require.NoError(t, json.Unmarshal(raw, &account))
	assert.Equal(t, "with picture", account.Bio)
	assert.True(t, strings.HasPrefix(account.ProfilePicture, "/uploads/profile-"), account.ProfilePicture)
	assert.True(t, strings.HasSuffix(account.ProfilePicture, ".png"))

	name := strings.TrimPrefix(account.ProfilePicture, "/uploads/")
	_, err := os.Stat(filepath.Join(env.dir, name))
	require.NoError(t, err)

	status, _ = env.do(t, http.MethodGet, account.ProfilePicture, "", nil)
	assert.Equal(t, http.StatusOK, status)

	req = multipartRequest(t, http.MethodPut, "/api/auth/settings", nil,
		"profilePicture", "notes.txt", "text/plain", []byte("not an image"))
	status, raw = env.send(t, req, alice.Token)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Only image files are allowed", decodeError(t, raw).Message)
}
