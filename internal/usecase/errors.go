package usecase

import (
	"errors"
	"fmt"

	"github.com/riskibarqy/castaway-league/internal/domain/league"
	"github.com/riskibarqy/castaway-league/internal/domain/scoring"
	"github.com/riskibarqy/castaway-league/internal/domain/store"
)

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrDependencyUnavailable = errors.New("dependency unavailable")

	// ErrPrecondition groups rejections caused by the current state.
	ErrPrecondition = errors.New("precondition failed")
	// ErrForbidden groups rejections caused by who is acting.
	ErrForbidden = errors.New("forbidden")
	// ErrConflict groups concurrent-write rejections. Retrying may succeed.
	ErrConflict = errors.New("conflict")
)

var (
	ErrDraftNotInProgress = fmt.Errorf("%w: draft is not in progress", ErrPrecondition)
	ErrDraftNotPending    = fmt.Errorf("%w: draft already started", ErrPrecondition)
	ErrInvalidTransition  = fmt.Errorf("%w: invalid state transition", ErrPrecondition)
	ErrRosterFull         = fmt.Errorf("%w: roster is full", ErrPrecondition)
	ErrSessionFinalized   = fmt.Errorf("%w: scoring session already finalized", ErrPrecondition)
	ErrSessionNotStarted  = fmt.Errorf("%w: scoring session not started", ErrPrecondition)
	ErrWindowClosed       = fmt.Errorf("%w: window is closed", ErrPrecondition)
	ErrEpisodeScored      = fmt.Errorf("%w: episode already scored", ErrPrecondition)

	ErrNotYourTurn     = fmt.Errorf("%w: not your turn", ErrForbidden)
	ErrNotOnRoster     = fmt.Errorf("%w: castaway not on your roster", ErrForbidden)
	ErrNotLeagueMember = fmt.Errorf("%w: not a league member", ErrForbidden)

	ErrCastawayTaken = fmt.Errorf("%w: castaway already taken", ErrConflict)
)

// translateStoreErr lifts domain and store errors into use case categories.
// Unknown errors pass through unchanged.
func translateStoreErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrConflict), errors.Is(err, ErrPrecondition):
		return err
	case errors.Is(err, store.ErrConflict):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	case errors.Is(err, league.ErrInvalidTransition), errors.Is(err, scoring.ErrInvalidTransition):
		return fmt.Errorf("%w: %w", ErrInvalidTransition, err)
	default:
		return err
	}
}
