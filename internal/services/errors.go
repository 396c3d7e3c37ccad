package services

import "errors"

// Sentinel errors returned by the service layer. Handlers map these to
// HTTP status codes with errors.Is; anything else is a server error.
var (
	ErrInvalidSecret     = errors.New("invalid secret code")
	ErrEmptyQuestion     = errors.New("question is required")
	ErrInvalidMaxPlayers = errors.New("max participants must be between 2 and 20")
	ErrEmptyPrediction   = errors.New("prediction content is required")
	ErrSessionNotFound   = errors.New("session not found")
	ErrSessionFull       = errors.New("session is full")
	ErrSessionClosed     = errors.New("session is completed")
	ErrUsernameTaken     = errors.New("username already taken")
	ErrInvalidLogin      = errors.New("invalid credentials")
	ErrUserNotFound      = errors.New("user not found")
	ErrGuestNotFound     = errors.New("guest not found")
)
