package session

import "errors"

var (
	ErrNoActiveSession = errors.New("no active conversation session")
	ErrEmptyInput      = errors.New("no user input provided")
	ErrAlreadyEnded    = errors.New("session already ended")
	// ErrInvalidState is returned by a transition that the current state does not allow.
	ErrInvalidState = errors.New("invalid session state")
)
