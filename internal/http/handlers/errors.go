// Package handlers defines the error codes returned in the error envelope.
//
// Codes are lowercase snake_case and stable; clients branch on them rather
// than on messages. Every error response carries one of these codes next to
// its HTTP status.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "turn_failed",
//	  "message": "could not generate a reply"
//	}
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeNotFound         = "not_found"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeConflict         = "conflict"
	ErrCodePayloadTooLarge  = "payload_too_large"
	ErrCodeInternal         = "internal_error"

	// ErrCodeTurnFailed covers both a failed model call and a failed write
	// of the generated pair; the log carries the stage.
	ErrCodeTurnFailed = "turn_failed"
	// ErrCodeSignInFailed is returned by the OAuth callback.
	ErrCodeSignInFailed = "sign_in_failed"
)
