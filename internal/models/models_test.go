package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", NewValidationError("bad"), http.StatusBadRequest},
		{"field validation", NewFieldValidationError("bad", []FieldError{{Field: "text"}}), http.StatusBadRequest},
		{"unauthorized", NewUnauthorizedError("no"), http.StatusUnauthorized},
		{"not found", NewNotFoundMessage("Post not found"), http.StatusNotFound},
		{"conflict", NewConflictError("taken"), http.StatusConflict},
		{"internal", NewInternalError(errors.New("db down")), http.StatusInternalServerError},
		{"wrapped", fmt.Errorf("ctx: %w", NewNotFoundMessage("User not found")), http.StatusNotFound},
		{"fiber error", fiber.ErrRequestEntityTooLarge, http.StatusRequestEntityTooLarge},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), tt.name)
	}
}

func TestRespondWithError(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		err     error
		message string
		fields  int
	}{
		{"validation with fields", http.StatusBadRequest,
			NewFieldValidationError("text: too long", []FieldError{{Field: "text", Message: "too long"}}), "text: too long", 1},
		{"internal hides cause", http.StatusInternalServerError,
			NewInternalError(errors.New("pq: password authentication failed")), "Internal server error", 0},
		{"plain 500 hides cause", http.StatusInternalServerError, errors.New("secret detail"), "Internal server error", 0},
		{"plain 4xx passes message", http.StatusBadRequest, errors.New("bad input"), "bad input", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error {
				return RespondWithError(c, tt.status, tt.err)
			})

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)

			raw, _ := io.ReadAll(resp.Body)
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(raw, &body))
			assert.Equal(t, tt.message, body.Message)
			assert.Len(t, body.Errors, tt.fields)
			assert.NotContains(t, string(raw), "pq:")
		})
	}
}

func TestPost_Hydrate(t *testing.T) {
	t.Parallel()
	p := &Post{Likes: []Like{{UserID: 2}, {UserID: 5}}}

	p.Hydrate(5)
	assert.Equal(t, []uint{2, 5}, p.LikedBy)
	assert.Equal(t, 2, p.LikesCount)
	assert.True(t, p.Liked)
	assert.NotNil(t, p.Comments)

	p.Hydrate(0)
	assert.False(t, p.Liked)

	empty := &Post{}
	empty.Hydrate(1)
	raw, err := json.Marshal(empty)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"likes":[]`)
	assert.Contains(t, string(raw), `"comments":[]`)
}

func TestUserProjections(t *testing.T) {
	t.Parallel()
	u := &User{ID: 1, Username: "alice", Email: "alice@x.com", Password: "hash"}

	public, err := json.Marshal(u)
	require.NoError(t, err)
	assert.NotContains(t, string(public), "alice@x.com")
	assert.NotContains(t, string(public), "hash")

	account, err := json.Marshal(NewAccount(u))
	require.NoError(t, err)
	assert.Contains(t, string(account), `"email":"alice@x.com"`)
	assert.Contains(t, string(account), `"username":"alice"`)
	assert.NotContains(t, string(account), "hash")
}
