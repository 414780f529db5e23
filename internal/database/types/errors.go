package types

import "errors"

// Governance and vote errors surfaced to callers. They are checked before any mutation,
// so a returned error always means nothing was written.
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotAuthorized     = errors.New("not authorized")
	ErrLimitExceeded     = errors.New("moderator limit exceeded")
	ErrAlreadyModerator  = errors.New("user is already a moderator")
	ErrNotModerator      = errors.New("user is not a moderator")
	ErrTargetBanned      = errors.New("target user is banned")
	ErrTargetErased      = errors.New("target user is erased")
	ErrSubscriptionLimit = errors.New("subscription limit reached")
	ErrUserNotFound      = errors.New("user not found")
	ErrZoneNotFound      = errors.New("zone not found")
	ErrItemNotFound      = errors.New("item not found")
	ErrNameTaken         = errors.New("name already taken")
)
