package api

// ErrorCode represents error codes used in API responses.
type ErrorCode string

const (
	// ErrorCodeInvalidRequest represents invalid request parameters.
	ErrorCodeInvalidRequest ErrorCode = "INVALID_REQUEST"

	// ErrorCodeNotFound represents a not found error.
	ErrorCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrorCodeInternalError represents an internal server error.
	ErrorCodeInternalError ErrorCode = "INTERNAL_ERROR"

	// ErrorCodeMethodNotAllowed represents an unsupported HTTP method.
	ErrorCodeMethodNotAllowed ErrorCode = "METHOD_NOT_ALLOWED"

	// ErrorCodeUpstreamError represents a provider or store failure.
	ErrorCodeUpstreamError ErrorCode = "UPSTREAM_ERROR"
)
