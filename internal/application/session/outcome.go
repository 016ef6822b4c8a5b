package session

import (
	"errors"

	"github.com/hilthontt/spinwheel/internal/domain"
)

type Outcome string

const (
	Applied         Outcome = "applied"
	GameNotFound    Outcome = "game_not_found"
	DuplicateName   Outcome = "duplicate_name"
	LimitExceeded   Outcome = "limit_exceeded"
	Forbidden       Outcome = "forbidden"
	AlreadySpinning Outcome = "already_spinning"
	EmptySelection  Outcome = "empty_selection"
	StaleSpin       Outcome = "stale_spin"
	LimitBelowUsage Outcome = "limit_below_usage"
	InvalidLimit    Outcome = "invalid_limit"
	InvalidGame     Outcome = "invalid_game"
	MemberNotFound  Outcome = "member_not_found"
)

var outcomes = []struct {
	err     error
	outcome Outcome
}{
	{domain.ErrGameNotFound, GameNotFound},
	{domain.ErrDuplicateName, DuplicateName},
	{domain.ErrLimitExceeded, LimitExceeded},
	{domain.ErrForbidden, Forbidden},
	{domain.ErrAlreadySpinning, AlreadySpinning},
	{domain.ErrEmptySelection, EmptySelection},
	{domain.ErrStaleSpin, StaleSpin},
	{domain.ErrLimitBelowUsage, LimitBelowUsage},
	{domain.ErrInvalidLimit, InvalidLimit},
	{domain.ErrInvalidGame, InvalidGame},
	{domain.ErrMemberNotFound, MemberNotFound},
}

// outcomeFor maps a rule rejection to its outcome. ok is false for errors
// that are not rule rejections.
func outcomeFor(err error) (Outcome, bool) {
	if err == nil {
		return Applied, true
	}
	for _, o := range outcomes {
		if errors.Is(err, o.err) {
			return o.outcome, true
		}
	}
	return "", false
}

// Silent reports whether the requester should hear nothing about the rejection.
// Forbidden hides admin capabilities; the rest are harmless races from stale clients.
func (o Outcome) Silent() bool {
	switch o {
	case Applied, Forbidden, AlreadySpinning, EmptySelection, StaleSpin, GameNotFound, MemberNotFound:
		return true
	}
	return false
}
