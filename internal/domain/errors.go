package domain

import "errors"

var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session has expired")
	ErrSessionIDExhausted = errors.New("could not allocate a free session id")
	ErrMemberNotFound     = errors.New("member not found")
	ErrGameNotFound       = errors.New("game not found")

	ErrDuplicateName   = errors.New("game already selected")
	ErrLimitExceeded   = errors.New("game limit reached")
	ErrLimitBelowUsage = errors.New("game limit is lower than games already added")
	ErrInvalidLimit    = errors.New("game limit must be a positive number")
	ErrForbidden       = errors.New("only the session creator can do that")
	ErrAlreadySpinning = errors.New("wheel is already spinning")
	ErrEmptySelection  = errors.New("no games selected")
	ErrStaleSpin       = errors.New("spin no longer current")
	ErrInvalidGame     = errors.New("game name is required")
)
