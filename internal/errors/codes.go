package errors

// Error codes returned in the "error" field of every error body.
// Format: CATEGORY_SPECIFIC_DETAIL. Clients map these to UI messages.

const (
	// ==================== Auth (AUTH_) ====================
	AuthUnauthorized = "AUTH_UNAUTHORIZED"  // login required
	AuthTokenExpired = "AUTH_TOKEN_EXPIRED" // token expired
	AuthTokenInvalid = "AUTH_TOKEN_INVALID" // malformed or forged token
	AuthRateLimited  = "AUTH_RATE_LIMITED"  // too many writes

	// ==================== Authorization (AUTHZ_) ====================
	AuthzForbidden = "AUTHZ_FORBIDDEN"  // no access
	AuthzOwnerOnly = "AUTHZ_OWNER_ONLY" // author only

	// ==================== Validation (VALIDATION_) ====================
	ValidationInvalidInput = "VALIDATION_INVALID_INPUT"
	ValidationInvalidID    = "VALIDATION_INVALID_ID"
	ValidationRequired     = "VALIDATION_REQUIRED"

	// ==================== Resource (RESOURCE_) ====================
	ResourceNotFound      = "RESOURCE_NOT_FOUND"
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"
	ResourceDeleted       = "RESOURCE_DELETED"
	ResourceConflict      = "RESOURCE_CONFLICT"

	// ==================== Posts (POST_) ====================
	PostNotFound = "POST_NOT_FOUND"

	// ==================== Replies (REPLY_) ====================
	ReplyNotFound = "REPLY_NOT_FOUND"
	ReplyDeleted  = "REPLY_DELETED" // reply already soft-deleted

	// ==================== Internal (INTERNAL_) ====================
	InternalServerError = "INTERNAL_SERVER_ERROR"
	InternalExternalAPI = "INTERNAL_EXTERNAL_API"
)
