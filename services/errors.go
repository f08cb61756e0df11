package services

import "errors"

// Common errors
var (
	ErrNoteNotFound         = errors.New("note not found")
	ErrInvalidQuery         = errors.New("invalid live query")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrInternal             = errors.New("internal server error")
	ErrWebSocketConnection  = errors.New("websocket connection error")
)
