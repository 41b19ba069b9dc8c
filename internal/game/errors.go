package game

import "errors"

// Error taxonomy shared by every layer. Wrap with fmt.Errorf("...: %w", Err...)
// and classify with errors.Is.
var (
	// ErrInvalidInput: a request is malformed (time limit, empty word, empty nickname,
	// token that is not a player of the game). Rejected before any mutation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound: unknown game id or user token.
	ErrNotFound = errors.New("not found")
	// ErrConflict: the request is valid but the session is in the wrong state
	// (already playing, not active, lost a join/cancel race).
	ErrConflict = errors.New("conflict")
)
