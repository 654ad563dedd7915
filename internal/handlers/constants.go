package handlers

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	LearnerContextKey   ContextKey = "learner"
	RequestIDContextKey ContextKey = "request_id"
)

const (
	RequestIDHeader = "X-Request-ID"

	CodeBadRequest      = "BAD_REQUEST"
	CodeValidation      = "VALIDATION_FAILED"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeNotFound        = "NOT_FOUND"
	CodeTooManyRequests = "RATE_LIMITED"
	CodeUnavailable     = "UNAVAILABLE"
	CodeInternal        = "INTERNAL_ERROR"

	ErrInternalServerError = "an unexpected error occurred"
)
