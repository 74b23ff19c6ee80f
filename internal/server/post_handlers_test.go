package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"agora/internal/models"
	"agora/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type postBody struct {
	ID       uint   `json:"id"`
	Text     string `json:"text"`
	Image    string `json:"image"`
	Likes    []uint `json:"likes"`
	Liked    bool   `json:"liked"`
	AuthorID uint   `json:"authorId"`
	Author   struct {
		ID       uint   `json:"id"`
		Username string `json:"username"`
	} `json:"author"`
	Comments []struct {
		ID   uint   `json:"id"`
		Text string `json:"text"`
	} `json:"comments"`
}

func TestCreatePost_JSON(t *testing.T) {
	env := newTestEnv(t, "")
	alice := env.signup(t, "alice")

	var post postBody
	env.doInto(t, http.MethodPost, "/api/posts", alice.Token, map[string]string{
		"text": "if a<b and c>d then",
	}, http.StatusCreated, &post)
	assert.Equal(t, "if a<b and c>d then", post.Text)
	assert.Equal(t, "alice", post.Author.Username)
	assert.NotNil(t, post.Likes)
	assert.Empty(t, post.Likes)

	status, raw := env.do(t, http.MethodPost, "/api/posts", alice.Token, map[string]string{
		"text": strings.Repeat("a", 1001),
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "text", decodeError(t, raw).Errors[0].Field)

	status, _ = env.do(t, http.MethodPost, "/api/posts", "", map[string]string{"text": "anon"})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestCreatePost_MultipartImage(t *testing.T) {
	env := newTestEnv(t, "")
	alice := env.signup(t, "alice")

	req := multipartRequest(t, "POST", "/api/posts", map[string]string{"text": "look"},
		"image", "cat.png", "image/png", testutil.PNG(t))
	status, raw := env.send(t, req, alice.Token)
	require.Equal(t, http.StatusCreated, status, string(raw))

	var post postBody
	require.NoError(t, json.Unmarshal(raw, &post))
	assert.Equal(t, "look", post.Text)
	assert.Regexp(t, `^/uploads/\d+-[0-9a-f]{12}\.png$`, post.Image)

	req = multipartRequest(t, "POST", "/api/posts", nil,
		"image", "evil.png", "image/png", []byte("<?php echo 1; ?>"))
	status, raw = env.send(t, req, alice.Token)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Only image files are allowed", decodeError(t, raw).Message)
}

func TestGetPosts_FeedAndPaging(t *testing.T) {
	env := newTestEnv(t, "")
	alice := env.signup(t, "alice")

	for i := 1; i <= 3; i++ {
		env.doInto(t, http.MethodPost, "/api/posts", alice.Token,
			map[string]string{"text": fmt.Sprintf("post %d", i)}, http.StatusCreated, nil)
	}

	var feed []postBody
	env.doInto(t, http.MethodGet, "/api/posts", "", nil, http.StatusOK, &feed)
	require.Len(t, feed, 3)
	assert.Equal(t, "post 3", feed[0].Text)
	assert.Equal(t, "post 1", feed[2].Text)

	env.doInto(t, http.MethodGet, "/api/posts?limit=1&offset=1", "", nil, http.StatusOK, &feed)
	require.Len(t, feed, 1)
	assert.Equal(t, "post 2", feed[0].Text)

	// An invalid token on an optional route degrades to anonymous.
	status, _ := env.do(t, http.MethodGet, "/api/posts", "garbage", nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestGetPosts_NoLimitReturnsEverything(t *testing.T) {
	env := newTestEnv(t, "")
	alice := env.signup(t, "alice")
	author := &models.User{ID: alice.User.ID}

	const total = 60
	for i := 0; i < total; i++ {
		testutil.CreatePost(t, env.db, author, fmt.Sprintf("post %d", i))
	}

	var feed []postBody
	env.doInto(t, http.MethodGet, "/api/posts", "", nil, http.StatusOK, &feed)
	assert.Len(t, feed, total)

	env.doInto(t, http.MethodGet, "/api/posts/user/alice", "", nil, http.StatusOK, &feed)
	assert.Len(t, feed, total)

	env.doInto(t, http.MethodGet, "/api/posts?limit=500", "", nil, http.StatusOK, &feed)
	assert.Len(t, feed, 60)

	env.doInto(t, http.MethodGet, "/api/posts?offset=55", "", nil, http.StatusOK, &feed)
	assert.Len(t, feed, 5)
}

func TestGetPosts_FollowingScope(t *testing.T) {
	env := newTestEnv(t, "following_feed=true")
	alice := env.signup(t, "alice")
	bob := env.signup(t, "bob")
	carol := env.signup(t, "carol")

	env.doInto(t, http.MethodPost, "/api/posts", bob.Token, map[string]string{"text": "from bob"}, http.StatusCreated, nil)
	env.doInto(t, http.MethodPost, "/api/posts", carol.Token, map[string]string{"text": "from carol"}, http.StatusCreated, nil)
	env.doInto(t, http.MethodPost, "/api/follow/bob", alice.Token, nil, http.StatusOK, nil)

	var feed []postBody
	env.doInto(t, http.MethodGet, "/api/posts?scope=following", alice.Token, nil, http.StatusOK, &feed)
	require.Len(t, feed, 1)
	assert.Equal(t, "from bob", feed[0].Text)

	env.doInto(t, http.MethodGet, "/api/posts", alice.Token, nil, http.StatusOK, &feed)
	assert.Len(t, feed, 2)

	status, _ := env.do(t, http.MethodGet, "/api/posts?scope=following", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestGetUserPosts(t *testing.T) {
	env := newTestEnv(t, "")
	alice := env.signup(t, "alice")
	bob := env.signup(t, "bob")
	env.doInto(t, http.MethodPost, "/api/posts", alice.Token, map[string]string{"text": "mine"}, http.StatusCreated, nil)
	env.doInto(t, http.MethodPost, "/api/posts", bob.Token, map[string]string{"text": "bob's"}, http.StatusCreated, nil)

	var posts []postBody
	env.doInto(t, http.MethodGet, "/api/posts/user/Alice", "", nil, http.StatusOK, &posts)
	require.Len(t, posts, 1)
	assert.Equal(t, "mine", posts[0].Text)

	status, raw := env.do(t, http.MethodGet, "/api/posts/user/nobody", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "User not found", decodeError(t, raw).Message)
}

func TestUpdateAndDeletePost_OwnerOnly(t *testing.T) {
	env := newTestEnv(t, "")
	alice := env.signup(t, "alice")
	bob := env.signup(t, "bob")

	var post postBody
	env.doInto(t, http.MethodPost, "/api/posts", alice.Token, map[string]string{"text": "draft"}, http.StatusCreated, &post)
	path := fmt.Sprintf("/api/posts/%d", post.ID)

	status, raw := env.do(t, http.MethodPut, path, bob.Token, map[string]string{"text": "hijack"})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Post not found or not authorized", decodeError(t, raw).Message)

	var updated postBody
	env.doInto(t, http.MethodPut, path, alice.Token, map[string]string{"text": "final"}, http.StatusOK, &updated)
	assert.Equal(t, "final", updated.Text)

	status, _ = env.do(t, http.MethodDelete, path, bob.Token, nil)
	assert.Equal(t, http.StatusNotFound, status)

	var msg MessageResponse
	env.doInto(t, http.MethodDelete, path, alice.Token, nil, http.StatusOK, &msg)
	assert.Equal(t, "Post deleted", msg.Message)

	status, _ = env.do(t, http.MethodDelete, path, alice.Token, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, raw = env.do(t, http.MethodPut, "/api/posts/abc", alice.Token, map[string]string{"text": "x"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid ID", decodeError(t, raw).Message)
}

func TestToggleLike(t *testing.T) {
	env := newTestEnv(t, "")
	alice := env.signup(t, "alice")

	var post postBody
	env.doInto(t, http.MethodPost, "/api/posts", alice.Token, map[string]string{"text": "like me"}, http.StatusCreated, &post)
	path := fmt.Sprintf("/api/posts/%d/like", post.ID)

	var state models.LikeState
	env.doInto(t, http.MethodPost, path, alice.Token, nil, http.StatusOK, &state)
	assert.Equal(t, models.LikeState{Likes: 1, Liked: true}, state)

	var feed []postBody
	env.doInto(t, http.MethodGet, "/api/posts", alice.Token, nil, http.StatusOK, &feed)
	require.Len(t, feed, 1)
	assert.True(t, feed[0].Liked)
	assert.Equal(t, []uint{alice.User.ID}, feed[0].Likes)

	env.doInto(t, http.MethodPost, path, alice.Token, nil, http.StatusOK, &state)
	assert.Equal(t, models.LikeState{Likes: 0, Liked: false}, state)

	status, raw := env.do(t, http.MethodPost, "/api/posts/9999/like", alice.Token, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Post not found", decodeError(t, raw).Message)
}
