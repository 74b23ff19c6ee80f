package server

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type commentBody struct {
	ID     uint   `json:"id"`
	PostID uint   `json:"postId"`
	Text   string `json:"text"`
	Author struct {
		ID       uint   `json:"id"`
		Username string `json:"username"`
	} `json:"author"`
	ReplyTo *struct {
		ID       uint   `json:"id"`
		Username string `json:"username"`
	} `json:"replyTo"`
	ParentComment *struct {
		ID   uint   `json:"id"`
		Text string `json:"text"`
	} `json:"parentComment"`
}

type shareBody struct {
	ID        uint   `json:"id"`
	ShareType string `json:"shareType"`
	Text      string `json:"text"`
	Author    struct {
		Username string `json:"username"`
	} `json:"author"`
	OriginalPost *struct {
		ID   uint   `json:"id"`
		Text string `json:"text"`
	} `json:"originalPost"`
}

type userSummary struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

func TestComments(t *testing.T) {
	env := newTestEnv(t, "")
	alice := env.signup(t, "alice")
	bob := env.signup(t, "bob")

	var post postBody
	env.doInto(t, http.MethodPost, "/api/posts", alice.Token, map[string]string{"text": "topic"}, http.StatusCreated, &post)

	var root commentBody
	env.doInto(t, http.MethodPost, "/api/comments", bob.Token, map[string]any{
		"postId": post.ID, "text": "first",
	}, http.StatusCreated, &root)
	assert.Equal(t, "bob", root.Author.Username)
	assert.Nil(t, root.ParentComment)

	var reply commentBody
	env.doInto(t, http.MethodPost, "/api/comments", alice.Token, map[string]any{
		"postId": post.ID, "text": "reply", "parentComment": root.ID, "replyTo": bob.User.ID,
	}, http.StatusCreated, &reply)
	require.NotNil(t, reply.ParentComment)
	assert.Equal(t, "first", reply.ParentComment.Text)
	require.NotNil(t, reply.ReplyTo)
	assert.Equal(t, "bob", reply.ReplyTo.Username)

	var list []commentBody
	env.doInto(t, http.MethodGet, fmt.Sprintf("/api/comments?postId=%d", post.ID), "", nil, http.StatusOK, &list)
	require.Len(t, list, 2)
	assert.Equal(t, root.ID, list[0].ID)

	env.doInto(t, http.MethodGet, "/api/comments", "", nil, http.StatusOK, &list)
	assert.Len(t, list, 2)

	status, raw := env.do(t, http.MethodGet, "/api/comments?postId=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid post ID", decodeError(t, raw).Message)

	// Validation and missing post.
	status, raw = env.do(t, http.MethodPost, "/api/comments", bob.Token, map[string]any{"postId": post.ID, "text": "   "})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "text is required", decodeError(t, raw).Message)
	status, raw = env.do(t, http.MethodPost, "/api/comments", bob.Token, map[string]any{"text": "orphan"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "postId is required", decodeError(t, raw).Message)
	status, raw = env.do(t, http.MethodPost, "/api/comments", bob.Token, map[string]any{"postId": 9999, "text": "lost"})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Post not found", decodeError(t, raw).Message)

	// Only the author edits or deletes.
	path := fmt.Sprintf("/api/comments/%d", root.ID)
	status, raw = env.do(t, http.MethodPut, path, alice.Token, map[string]string{"text": "edited"})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Comment not found or not authorized", decodeError(t, raw).Message)

	var edited commentBody
	env.doInto(t, http.MethodPut, path, bob.Token, map[string]string{"text": "edited"}, http.StatusOK, &edited)
	assert.Equal(t, "edited", edited.Text)

	status, _ = env.do(t, http.MethodDelete, path, alice.Token, nil)
	assert.Equal(t, http.StatusNotFound, status)
	var msg MessageResponse
	env.doInto(t, http.MethodDelete, path, bob.Token, nil, http.StatusOK, &msg)
	assert.Equal(t, "Comment deleted", msg.Message)

	// Replies survive their parent.
	env.doInto(t, http.MethodGet, fmt.Sprintf("/api/comments?postId=%d", post.ID), "", nil, http.StatusOK, &list)
	require.Len(t, list, 1)
	assert.Equal(t, reply.ID, list[0].ID)
}

func TestFollow(t *testing.T) {
	env := newTestEnv(t, "")
	alice := env.signup(t, "alice")
	env.signup(t, "bob")

	var out struct {
		Followed bool `json:"followed"`
	}
	env.doInto(t, http.MethodPost, "/api/follow/BOB", alice.Token, nil, http.StatusOK, &out)
	assert.True(t, out.Followed)

	var users []userSummary
	env.doInto(t, http.MethodGet, "/api/follow/bob/followers", "", nil, http.StatusOK, &users)
	require.Len(t, users, 1)
	assert.Equal(t, "alice", users[0].Username)
	env.doInto(t, http.MethodGet, "/api/follow/alice/following", "", nil, http.StatusOK, &users)
	require.Len(t, users, 1)
	assert.Equal(t, "bob", users[0].Username)

	env.doInto(t, http.MethodPost, "/api/follow/bob", alice.Token, nil, http.StatusOK, &out)
	assert.False(t, out.Followed)
	env.doInto(t, http.MethodGet, "/api/follow/bob/followers", "", nil, http.StatusOK, &users)
	assert.Empty(t, users)
	assert.NotNil(t, users)

	status, raw := env.do(t, http.MethodPost, "/api/follow/alice", alice.Token, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Cannot follow yourself", decodeError(t, raw).Message)

	status, _ = env.do(t, http.MethodPost, "/api/follow/nobody", alice.Token, nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = env.do(t, http.MethodGet, "/api/follow/nobody/followers", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = env.do(t, http.MethodPost, "/api/follow/bob", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestShares(t *testing.T) {
	env := newTestEnv(t, "share_links=false")
	alice := env.signup(t, "alice")
	bob := env.signup(t, "bob")

	var post postBody
	env.doInto(t, http.MethodPost, "/api/posts", alice.Token, map[string]string{"text": "share me"}, http.StatusCreated, &post)

	var share shareBody
	env.doInto(t, http.MethodPost, "/api/shares", bob.Token, map[string]any{"postId": post.ID, "text": "nice"},
		http.StatusCreated, &share)
	assert.Equal(t, "repost", share.ShareType)
	assert.Equal(t, "bob", share.Author.Username)
	require.NotNil(t, share.OriginalPost)
	assert.Equal(t, "share me", share.OriginalPost.Text)

	status, raw := env.do(t, http.MethodPost, "/api/shares", bob.Token, map[string]any{"postId": post.ID})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "You have already shared this post", decodeError(t, raw).Message)

	status, raw = env.do(t, http.MethodPost, "/api/shares", alice.Token, map[string]any{"postId": post.ID, "shareType": "quote"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "shareType", decodeError(t, raw).Errors[0].Field)

	status, raw = env.do(t, http.MethodPost, "/api/shares", alice.Token, map[string]any{"postId": post.ID, "shareType": "link"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Link shares are disabled", decodeError(t, raw).Message)

	status, _ = env.do(t, http.MethodPost, "/api/shares", alice.Token, map[string]any{"postId": 9999})
	assert.Equal(t, http.StatusNotFound, status)

	var count struct {
		Count int64 `json:"count"`
	}
	env.doInto(t, http.MethodGet, fmt.Sprintf("/api/shares/count/%d", post.ID), "", nil, http.StatusOK, &count)
	assert.Equal(t, int64(1), count.Count)

	var list []shareBody
	env.doInto(t, http.MethodGet, fmt.Sprintf("/api/shares?postId=%d", post.ID), "", nil, http.StatusOK, &list)
	require.Len(t, list, 1)

	path := fmt.Sprintf("/api/shares/%d", share.ID)
	status, raw = env.do(t, http.MethodDelete, path, alice.Token, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Share not found or not authorized", decodeError(t, raw).Message)

	var msg MessageResponse
	env.doInto(t, http.MethodDelete, path, bob.Token, nil, http.StatusOK, &msg)
	assert.Equal(t, "Share deleted", msg.Message)
	env.doInto(t, http.MethodGet, fmt.Sprintf("/api/shares/count/%d", post.ID), "", nil, http.StatusOK, &count)
	assert.Zero(t, count.Count)
}
