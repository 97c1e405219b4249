package game

import "errors"

// Every public operation that fails returns one of these, wrapped with
// context. Presentation layers map them to one-line rejections; none of
// them should ever surface as a crash.
var (
	// ErrConflict: a second active session for a channel, or a duplicate
	// insert that raced past the uniqueness guard. Callers should re-fetch
	// and observe the existing state.
	ErrConflict = errors.New("conflict")

	// ErrNotFound: the referenced session, round, or player does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState: the operation is forbidden in the session's current
	// status, e.g. joining after the lobby or resubmitting an entry.
	ErrInvalidState = errors.New("invalid state")

	// ErrPermission: a non-host attempted a host-only action.
	ErrPermission = errors.New("permission denied")

	// ErrValidation: malformed submission payload, rejected before any
	// write.
	ErrValidation = errors.New("invalid payload")
)
