// Package services defines the business logic for chats and turns.
// This file centralizes service-level error values so that handlers can map
// them to HTTP status codes with errors.Is.
package services

import "errors"

// Validation errors.
var (
	// ErrEmptyHistory is returned when a turn carries no messages at all.
	ErrEmptyHistory = errors.New("messages must not be empty")

	// ErrLastNotUser is returned when the final message of a turn was not
	// authored by the user.
	ErrLastNotUser = errors.New("last message must have role user")

	// ErrEmptyPrompt is returned when the new user message is blank.
	ErrEmptyPrompt = errors.New("prompt is empty")

	// ErrTooLong is returned when the new user message exceeds the
	// configured rune limit.
	ErrTooLong = errors.New("prompt too long")
)

// Lookup and pipeline errors.
var (
	// ErrChatNotFound indicates that the chat does not exist or belongs to
	// someone else. The two cases are deliberately indistinguishable.
	ErrChatNotFound = errors.New("chat not found")

	// ErrGeneration wraps any failure of the model gateway.
	ErrGeneration = errors.New("generation failed")

	// ErrPersistence wraps any failure while storing a turn.
	ErrPersistence = errors.New("persistence failed")
)
