// Package services defines the business logic for sessions, video
// registration, reference collection, and explanation generation. This file
// centralizes common service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler layer. Upstream AI failures are not duplicated
// here: the ai package's error values pass through the services untouched so
// callers can branch on quota/timeout/malformed directly.
package services

import "errors"

// Session and token errors.
var (
	// ErrMissingProfile is returned when a token is requested without a
	// profile identifier.
	ErrMissingProfile = errors.New("profile id is empty")

	// ErrTokenExpired indicates a structurally valid token past its expiry.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid indicates a malformed token or a bad signature.
	ErrTokenInvalid = errors.New("token invalid")

	// ErrSessionNotFound indicates a valid token whose session row no longer
	// exists in the store (revocation or expiry sweep).
	ErrSessionNotFound = errors.New("session not found")
)

// Registration and explanation errors.
var (
	// ErrMissingVideoID is returned when a registration or explanation
	// request omits the video identifier.
	ErrMissingVideoID = errors.New("video id is empty")

	// ErrEmptySelection is returned when an explanation request carries no
	// selected text.
	ErrEmptySelection = errors.New("selected text is empty")

	// ErrVideoNotFound indicates that the requested video does not exist.
	ErrVideoNotFound = errors.New("video not found")

	// ErrSettingNotFound indicates a missing runtime setting. For the
	// explanation prompt this is a deployment misconfiguration, not a
	// per-request transient.
	ErrSettingNotFound = errors.New("setting not found")

	// ErrImageNotFound indicates that an image identifier did not resolve to
	// a stored file. The explanation path degrades to text-only instead of
	// surfacing this to the caller.
	ErrImageNotFound = errors.New("image not found")
)
