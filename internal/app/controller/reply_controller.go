package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/qna-forum-backend/internal/app/model"
	"github.com/ikkim/qna-forum-backend/internal/app/service"
	"github.com/ikkim/qna-forum-backend/pkg/vote"
)

type ReplyController struct {
	replyService service.ReplyService
}

func NewReplyController(replyService service.ReplyService) *ReplyController {
	return &ReplyController{replyService: replyService}
}

// ListByPost handles GET /replies/post/:id
// Top-level replies by default, direct children with ?parentReply=<id>.
func (ctrl *ReplyController) ListByPost(c *gin.Context) {
	postID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var query model.ReplyListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		bindError(c, err)
		return
	}

	replies, err := ctrl.replyService.ListByPost(c.Request.Context(), postID, &query)
	if err != nil {
		respondServiceError(c, err, "list replies")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"replies": replies,
		"count":   len(replies),
	})
}

// ListByUser handles GET /replies/user/:userId
func (ctrl *ReplyController) ListByUser(c *gin.Context) {
	userID, ok := idParam(c, "userId")
	if !ok {
		return
	}

	var query model.UserReplyListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		bindError(c, err)
		return
	}

	resp, err := ctrl.replyService.ListByUser(userID, query.Page, query.Limit)
	if err != nil {
		respondServiceError(c, err, "list user replies")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Create handles POST /replies/post/:id
func (ctrl *ReplyController) Create(c *gin.Context) {
	postID, ok := idParam(c, "id")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req model.CreateReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	reply, err := ctrl.replyService.Create(c.Request.Context(), postID, userID, &req)
	if err != nil {
		respondServiceError(c, err, "create reply")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"reply":   reply,
		"message": "Reply created successfully",
	})
}

// Upvote handles POST /replies/:replyId/upvote
func (ctrl *ReplyController) Upvote(c *gin.Context) {
	ctrl.vote(c, vote.Up)
}

// Downvote handles POST /replies/:replyId/downvote
func (ctrl *ReplyController) Downvote(c *gin.Context) {
	ctrl.vote(c, vote.Down)
}

func (ctrl *ReplyController) vote(c *gin.Context, dir vote.Direction) {
	replyID, ok := idParam(c, "replyId")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	resp, err := ctrl.replyService.Vote(c.Request.Context(), replyID, userID, dir)
	if err != nil {
		respondServiceError(c, err, "vote on reply")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Accept handles PATCH /replies/:replyId/accept
func (ctrl *ReplyController) Accept(c *gin.Context) {
	replyID, ok := idParam(c, "replyId")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	reply, err := ctrl.replyService.MarkAccepted(c.Request.Context(), replyID, userID)
	if err != nil {
		respondServiceError(c, err, "accept reply")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reply":   reply,
		"message": "Reply marked as accepted answer",
	})
}

// Update handles PUT /replies/:replyId
func (ctrl *ReplyController) Update(c *gin.Context) {
	replyID, ok := idParam(c, "replyId")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req model.UpdateReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	reply, err := ctrl.replyService.UpdateContent(c.Request.Context(), replyID, userID, req.Content)
	if err != nil {
		respondServiceError(c, err, "update reply")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reply":   reply,
		"message": "Reply updated successfully",
	})
}

// Delete handles DELETE /replies/:replyId. The reply is soft deleted and
// returned with its placeholder content.
func (ctrl *ReplyController) Delete(c *gin.Context) {
	replyID, ok := idParam(c, "replyId")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	reply, err := ctrl.replyService.Delete(c.Request.Context(), replyID, userID)
	if err != nil {
		respondServiceError(c, err, "delete reply")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reply":   reply,
		"message": "Reply deleted successfully",
	})
}
