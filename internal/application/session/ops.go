package session

import (
	"strings"

	"github.com/hilthontt/spinwheel/internal/application/spin"
	"github.com/hilthontt/spinwheel/internal/domain"
)

// Op is one state transition applied under the session lock.
type Op interface {
	Name() string
	apply(ac *applyContext, state *domain.GameState) error
}

type applyContext struct {
	engine  *spin.Engine
	members func() ([]domain.Member, error)

	// filled by ops for post-commit bookkeeping
	spin    *domain.SpinRecord
	cleared int
	aborted string
}

type AddGame struct {
	Entry    domain.GameEntry
	MemberID string
}

func (AddGame) Name() string { return "add_game" }

func (o AddGame) apply(_ *applyContext, state *domain.GameState) error {
	return state.AddGame(o.Entry, o.MemberID)
}

type RemoveGame struct {
	Game string
}

func (RemoveGame) Name() string { return "remove_game" }

func (o RemoveGame) apply(_ *applyContext, state *domain.GameState) error {
	return state.RemoveGame(strings.TrimSpace(o.Game))
}

type ClearAll struct {
	RequesterID string
}

func (ClearAll) Name() string { return "clear_all_games" }

func (o ClearAll) apply(ac *applyContext, state *domain.GameState) error {
	ac.cleared = len(state.SelectedGames)
	if state.SpinData != nil {
		ac.aborted = state.SpinData.SpinID
	}
	state.ClearAll()
	return nil
}

// SetLimit changes the per-member cap; a nil Limit removes it. Creator only.
type SetLimit struct {
	Limit       *int
	RequesterID string
}

func (SetLimit) Name() string { return "set_game_limit" }

func (o SetLimit) apply(ac *applyContext, state *domain.GameState) error {
	members, err := ac.members()
	if err != nil {
		return err
	}
	if !domain.IsCreator(members, o.RequesterID) {
		return domain.ErrForbidden
	}
	return state.SetLimit(o.Limit)
}

type StartSpin struct {
	RequesterID string
}

func (StartSpin) Name() string { return "start_spin" }

func (o StartSpin) apply(ac *applyContext, state *domain.GameState) error {
	if state.Spinning() {
		return domain.ErrAlreadySpinning
	}

	record, err := ac.engine.Spin(state.SelectedGames)
	if err != nil {
		return err
	}
	if err := state.BeginSpin(record); err != nil {
		return err
	}

	ac.spin = &record
	return nil
}

// CompleteSpin finalizes SpinID; anything else in flight makes it stale.
type CompleteSpin struct {
	SpinID string
}

func (CompleteSpin) Name() string { return "complete_spin" }

func (o CompleteSpin) apply(ac *applyContext, state *domain.GameState) error {
	if state.SpinData != nil && state.SpinData.SpinID == o.SpinID {
		record := *state.SpinData
		ac.spin = &record
	}
	return state.CompleteSpin(o.SpinID)
}
