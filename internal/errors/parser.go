package errors

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrorInfo is a code plus a user facing message
type ErrorInfo struct {
	Code    string
	Message string
}

// ParseError turns a storage or infrastructure error into a safe code and message.
// context names the operation ("create reply", "vote post", ...) and picks the wording.
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{
			Code:    InternalServerError,
			Message: "Something went wrong",
		}
	}

	errLower := strings.ToLower(err.Error())

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{
			Code:    notFoundCode(context),
			Message: getNotFoundMessage(context),
		}
	}

	// PostgreSQL 23505 / SQLite UNIQUE
	if strings.Contains(errLower, "duplicate key") || strings.Contains(errLower, "unique constraint") {
		return parseDuplicateKeyError(errLower)
	}

	// PostgreSQL 23503 / SQLite FOREIGN KEY
	if strings.Contains(errLower, "foreign key constraint") {
		return parseForeignKeyError(errLower)
	}

	// PostgreSQL 23502 / SQLite NOT NULL
	if strings.Contains(errLower, "not-null constraint") || strings.Contains(errLower, "not null constraint") {
		return ErrorInfo{Code: ValidationRequired, Message: "A required field is missing"}
	}

	if strings.Contains(errLower, "check constraint") {
		return ErrorInfo{Code: ValidationInvalidInput, Message: "Invalid input"}
	}

	if strings.Contains(errLower, "connection refused") ||
		strings.Contains(errLower, "no such host") ||
		strings.Contains(errLower, "timeout") {
		return ErrorInfo{
			Code:    InternalExternalAPI,
			Message: "A backing service is unavailable, please try again later",
		}
	}

	return ErrorInfo{
		Code:    InternalServerError,
		Message: getDefaultErrorMessage(context),
	}
}

func parseDuplicateKeyError(errLower string) ErrorInfo {
	if strings.Contains(errLower, "email") {
		return ErrorInfo{Code: ResourceAlreadyExists, Message: "Email is already registered"}
	}
	// Two concurrent toggles by the same user on the same target.
	if strings.Contains(errLower, "votes") || strings.Contains(errLower, "idx_vote_target_user") {
		return ErrorInfo{Code: ResourceConflict, Message: "Vote is already being processed, please retry"}
	}
	return ErrorInfo{Code: ResourceAlreadyExists, Message: "Resource already exists"}
}

func parseForeignKeyError(errLower string) ErrorInfo {
	if strings.Contains(errLower, "still referenced") {
		return ErrorInfo{Code: ResourceConflict, Message: "Resource is still referenced and cannot be removed"}
	}
	if strings.Contains(errLower, "post_id") {
		return ErrorInfo{Code: PostNotFound, Message: "Post not found"}
	}
	if strings.Contains(errLower, "author_id") || strings.Contains(errLower, "user_id") {
		return ErrorInfo{Code: ResourceNotFound, Message: "User not found"}
	}
	return ErrorInfo{Code: ResourceNotFound, Message: "Referenced resource not found"}
}

func notFoundCode(context string) string {
	contextLower := strings.ToLower(context)
	switch {
	case strings.Contains(contextLower, "reply"):
		return ReplyNotFound
	case strings.Contains(contextLower, "post"):
		return PostNotFound
	default:
		return ResourceNotFound
	}
}

func getNotFoundMessage(context string) string {
	contextLower := strings.ToLower(context)
	switch {
	case strings.Contains(contextLower, "reply"):
		return "Reply not found"
	case strings.Contains(contextLower, "post"):
		return "Post not found"
	case strings.Contains(contextLower, "user"):
		return "User not found"
	default:
		return "The requested resource was not found"
	}
}

func getDefaultErrorMessage(context string) string {
	contextLower := strings.ToLower(context)
	switch {
	case strings.Contains(contextLower, "create"):
		return "Failed to create, please try again later"
	case strings.Contains(contextLower, "update"), strings.Contains(contextLower, "accept"):
		return "Failed to update, please try again later"
	case strings.Contains(contextLower, "delete"):
		return "Failed to delete, please try again later"
	case strings.Contains(contextLower, "vote"):
		return "Failed to record vote, please try again later"
	default:
		return "Something went wrong, please try again later"
	}
}

// ParseAndRespond parses err and writes it with statusCode
func ParseAndRespond(c interface{ JSON(int, interface{}) }, statusCode int, err error, context string) {
	errorInfo := ParseError(err, context)
	c.JSON(statusCode, ErrorResponse{
		Error:   errorInfo.Code,
		Message: errorInfo.Message,
	})
}
