package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/qna-forum-backend/internal/app/model"
	"github.com/ikkim/qna-forum-backend/internal/app/service"
	apperrors "github.com/ikkim/qna-forum-backend/internal/errors"
	"github.com/ikkim/qna-forum-backend/internal/middleware"
)

// respondServiceError maps service errors onto HTTP responses. op names the
// operation for logging and for ParseError wording.
func respondServiceError(c *gin.Context, err error, op string) {
	var validationErr *model.ValidationError
	switch {
	case errors.As(err, &validationErr):
		apperrors.RespondWithValidationError(c, validationErr.Message, map[string]string{
			validationErr.Field: validationErr.Message,
		})
	case errors.Is(err, service.ErrReplyNotFound):
		apperrors.NotFound(c, apperrors.ReplyNotFound, "Reply not found")
	case errors.Is(err, service.ErrPostNotFound):
		apperrors.NotFound(c, apperrors.PostNotFound, "Post not found")
	case errors.Is(err, service.ErrPermissionDenied):
		apperrors.RespondWithError(c, http.StatusForbidden, apperrors.AuthzOwnerOnly, "You are not allowed to "+op)
	case errors.Is(err, service.ErrReplyDeleted):
		apperrors.Conflict(c, apperrors.ReplyDeleted, "Reply has been deleted")
	case errors.Is(err, service.ErrPostDeleted):
		apperrors.Conflict(c, apperrors.ResourceDeleted, "Post has been deleted")
	default:
		info := apperrors.ParseError(err, op)
		status := statusForCode(info.Code)
		if status >= http.StatusInternalServerError {
			middleware.GetLoggerFromContext(c).Error("Request failed", err, map[string]interface{}{
				"operation": op,
			})
		}
		apperrors.RespondWithError(c, status, info.Code, info.Message)
	}
}

func statusForCode(code string) int {
	switch code {
	case apperrors.ReplyNotFound, apperrors.PostNotFound, apperrors.ResourceNotFound:
		return http.StatusNotFound
	case apperrors.ResourceConflict, apperrors.ResourceAlreadyExists:
		return http.StatusConflict
	case apperrors.ValidationRequired, apperrors.ValidationInvalidInput:
		return http.StatusBadRequest
	case apperrors.InternalExternalAPI:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// idParam parses a positive numeric path parameter, writing a 400 when it is invalid.
func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// currentUser returns the authenticated user ID, writing a 401 when absent.
func currentUser(c *gin.Context) (uint, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return 0, false
	}
	return userID, true
}

func bindError(c *gin.Context, err error) {
	var validationErr *model.ValidationError
	if errors.As(err, &validationErr) {
		apperrors.RespondWithValidationError(c, validationErr.Message, map[string]string{
			validationErr.Field: validationErr.Message,
		})
		return
	}
	apperrors.RespondWithValidationError(c, err.Error(), nil)
}
