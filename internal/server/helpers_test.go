package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHumanizeParam(t *testing.T) {
	tests := map[string]string{
		"id":        "ID",
		"postId":    "post ID",
		"commentId": "comment ID",
		"username":  "username",
	}
	for in, want := range tests {
		assert.Equal(t, want, humanizeParam(in), in)
	}
}

func TestParsePagination(t *testing.T) {
	tests := []struct {
		query      string
		wantLimit  int
		wantOffset int
	}{
		{"", 0, 0},
		{"?limit=10&offset=5", 10, 5},
		{"?limit=0", 0, 0},
		{"?limit=-2", 0, 0},
		{"?limit=1000", 100, 0},
		{"?offset=-3", 0, 0},
	}
	for _, tt := range tests {
		app := fiber.New()
		var got Pagination
		app.Get("/", func(c *fiber.Ctx) error {
			got = parsePagination(c)
			return nil
		})
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/"+tt.query, nil))
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, tt.wantLimit, got.Limit, tt.query)
		assert.Equal(t, tt.wantOffset, got.Offset, tt.query)
	}
}

func TestParseQueryID(t *testing.T) {
	tests := []struct {
		query   string
		want    *uint
		wantErr bool
	}{
		{"", nil, false},
		{"?postId=4", func() *uint { v := uint(4); return &v }(), false},
		{"?postId=0", nil, true},
		{"?postId=-1", nil, true},
		{"?postId=x", nil, true},
	}
	for _, tt := range tests {
		app := fiber.New()
		var got *uint
		var gotErr error
		app.Get("/", func(c *fiber.Ctx) error {
			got, gotErr = parseQueryID(c, "postId")
			return nil
		})
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/"+tt.query, nil))
		require.NoError(t, err)
		_ = resp.Body.Close()
		if tt.wantErr {
			assert.Error(t, gotErr, tt.query)
			continue
		}
		assert.NoError(t, gotErr, tt.query)
		assert.Equal(t, tt.want, got, tt.query)
	}
}
