// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// This file centralizes symbolic error code constants that are mapped to HTTP responses
// (via the `fail()` helper in this package). These codes provide clients with a stable,
// machine-readable error taxonomy that supplements human-readable messages.
//
// Conventions:
//   - Codes are lowercase, snake_case, and domain-agnostic unless explicitly noted.
//   - Generic codes (e.g., bad_request, unauthorized) mirror common HTTP status
//     semantics to aid interoperability.
//   - Upstream codes (quota_exceeded, upstream_timeout, upstream_error) mark
//     generation-backend failures that the client may retry; the backend itself
//     never retries them.
//   - All error responses must include both an HTTP status and one of these codes.
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeTokenExpired     = "token_expired"
	ErrCodeNotFound         = "not_found"
	ErrCodeRateLimited      = "rate_limited"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeInternal         = "internal_error"

	// Domain-specific:
	ErrCodeMissingProfile = "missing_profile"
	ErrCodeRegisterFailed = "register_failed"
	ErrCodeUploadFailed   = "upload_failed"

	// Upstream generation backend:
	ErrCodeQuotaExceeded   = "quota_exceeded"
	ErrCodeUpstreamTimeout = "upstream_timeout"
	ErrCodeUpstreamError   = "upstream_error"
)
