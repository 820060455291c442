package controller

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostController_CreateAndGet(t *testing.T) {
	f := setupControllerTest(t)

	w, resp := f.do(t, http.MethodPost, "/posts", f.other, map[string]interface{}{
		"title":    "  Why does my goroutine leak?  ",
		"content":  "It never *returns*.",
		"category": "Concurrency",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	post := resp["post"].(map[string]interface{})
	assert.Equal(t, "Why does my goroutine leak?", post["title"])
	assert.Equal(t, "concurrency", post["category"])
	assert.Contains(t, post["content_html"], "<em>returns</em>")

	id := uint(post["id"].(float64))
	w, resp = f.do(t, http.MethodGet, fmt.Sprintf("/posts/%d", id), nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Why does my goroutine leak?", resp["post"].(map[string]interface{})["title"])

	w, resp = f.do(t, http.MethodGet, "/posts/999", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "POST_NOT_FOUND", resp["error"])

	w, _ = f.do(t, http.MethodPost, "/posts", f.other, map[string]interface{}{"title": "ab", "content": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPostController_ListAndCategory(t *testing.T) {
	f := setupControllerTest(t)

	for _, category := range []string{"go", "go", "sql"} {
		w, _ := f.do(t, http.MethodPost, "/posts", f.other, map[string]interface{}{
			"title":    "Question about " + category,
			"content":  "details",
			"category": category,
		})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w, resp := f.do(t, http.MethodGet, "/posts?page_size=2", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(4), resp["total"]) // includes the fixture post
	assert.Len(t, resp["posts"], 2)

	w, resp = f.do(t, http.MethodGet, "/posts/category/go", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), resp["total"])

	w, _ = f.do(t, http.MethodGet, "/posts?sort=sideways", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPostController_UpdateDeleteVote(t *testing.T) {
	f := setupControllerTest(t)
	path := fmt.Sprintf("/posts/%d", f.post.ID)

	w, _ := f.do(t, http.MethodPut, path, f.other, map[string]interface{}{"title": "Hijacked title"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, resp := f.do(t, http.MethodPut, path, f.student, map[string]interface{}{"title": "How do Go pointers work?"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "How do Go pointers work?", resp["post"].(map[string]interface{})["title"])

	w, resp = f.do(t, http.MethodPost, path+"/upvote", f.other, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), resp["vote_score"])

	w, resp = f.do(t, http.MethodPost, path+"/downvote", f.instructor, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), resp["vote_score"])

	w, _ = f.do(t, http.MethodDelete, path, f.other, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = f.do(t, http.MethodDelete, path, f.instructor, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, resp = f.do(t, http.MethodPost, path+"/upvote", f.other, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "RESOURCE_DELETED", resp["error"])
}

func TestPostController_SetAnswered(t *testing.T) {
	f := setupControllerTest(t)
	path := fmt.Sprintf("/posts/%d/answered", f.post.ID)

	w, _ := f.do(t, http.MethodPatch, path, f.student, map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = f.do(t, http.MethodPatch, path, f.other, map[string]interface{}{"is_answered": true})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, resp := f.do(t, http.MethodPatch, path, f.student, map[string]interface{}{"is_answered": true})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, resp["post"].(map[string]interface{})["is_answered"])

	w, resp = f.do(t, http.MethodPatch, path, f.instructor, map[string]interface{}{"is_answered": false})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, resp["post"].(map[string]interface{})["is_answered"])
}
