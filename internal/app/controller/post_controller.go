package controller

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/qna-forum-backend/internal/app/model"
	"github.com/ikkim/qna-forum-backend/internal/app/service"
	"github.com/ikkim/qna-forum-backend/pkg/vote"
)

type PostController struct {
	postService service.PostService
}

func NewPostController(postService service.PostService) *PostController {
	return &PostController{postService: postService}
}

// SetAnsweredRequest is the body of PATCH /posts/:id/answered
type SetAnsweredRequest struct {
	IsAnswered *bool `json:"is_answered" binding:"required"`
}

// List handles GET /posts
func (ctrl *PostController) List(c *gin.Context) {
	var query model.PostListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		bindError(c, err)
		return
	}
	ctrl.list(c, &query)
}

// ListByCategory handles GET /posts/category/:category
func (ctrl *PostController) ListByCategory(c *gin.Context) {
	var query model.PostListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		bindError(c, err)
		return
	}
	query.Category = strings.ToLower(strings.TrimSpace(c.Param("category")))
	ctrl.list(c, &query)
}

func (ctrl *PostController) list(c *gin.Context, query *model.PostListQuery) {
	resp, err := ctrl.postService.ListPosts(query)
	if err != nil {
		respondServiceError(c, err, "list posts")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Get handles GET /posts/:id
func (ctrl *PostController) Get(c *gin.Context) {
	postID, ok := idParam(c, "id")
	if !ok {
		return
	}

	post, err := ctrl.postService.GetPost(postID)
	if err != nil {
		respondServiceError(c, err, "get post")
		return
	}
	c.JSON(http.StatusOK, gin.H{"post": post})
}

// Create handles POST /posts
func (ctrl *PostController) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req model.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	post, err := ctrl.postService.CreatePost(&req, userID)
	if err != nil {
		respondServiceError(c, err, "create post")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"post":    post,
		"message": "Post created successfully",
	})
}

// Update handles PUT /posts/:id
func (ctrl *PostController) Update(c *gin.Context) {
	postID, ok := idParam(c, "id")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req model.UpdatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	post, err := ctrl.postService.UpdatePost(postID, userID, &req)
	if err != nil {
		respondServiceError(c, err, "update post")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"post":    post,
		"message": "Post updated successfully",
	})
}

// Delete handles DELETE /posts/:id
func (ctrl *PostController) Delete(c *gin.Context) {
	postID, ok := idParam(c, "id")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if err := ctrl.postService.DeletePost(postID, userID); err != nil {
		respondServiceError(c, err, "delete post")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Post deleted successfully"})
}

// Upvote handles POST /posts/:id/upvote
func (ctrl *PostController) Upvote(c *gin.Context) {
	ctrl.vote(c, vote.Up)
}

// Downvote handles POST /posts/:id/downvote
func (ctrl *PostController) Downvote(c *gin.Context) {
	ctrl.vote(c, vote.Down)
}

func (ctrl *PostController) vote(c *gin.Context, dir vote.Direction) {
	postID, ok := idParam(c, "id")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	resp, err := ctrl.postService.Vote(postID, userID, dir)
	if err != nil {
		respondServiceError(c, err, "vote on post")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SetAnswered handles PATCH /posts/:id/answered
func (ctrl *PostController) SetAnswered(c *gin.Context) {
	postID, ok := idParam(c, "id")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req SetAnsweredRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	post, err := ctrl.postService.SetAnswered(c.Request.Context(), postID, userID, *req.IsAnswered)
	if err != nil {
		respondServiceError(c, err, "update post")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"post":    post,
		"message": "Post answered status updated",
	})
}
