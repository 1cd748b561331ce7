package domain

import "errors"

// Sentinel errors for domain operations
var (
	// ErrGameNotFound indicates the requested game does not exist
	ErrGameNotFound = errors.New("game not found")

	// ErrServerOffline indicates a remote API is unreachable
	ErrServerOffline = errors.New("remote server is unreachable")

	// ErrAuthFailed indicates authentication failed after a token refresh
	ErrAuthFailed = errors.New("authentication token is invalid")

	// ErrNoStoreID indicates the game has no linked Steam store entry
	ErrNoStoreID = errors.New("game has no store id")
)
