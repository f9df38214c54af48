package league

import (
	"errors"
	"fmt"
)

// DraftStatus is the league-level draft lifecycle state.
type DraftStatus string

const (
	DraftPending    DraftStatus = "pending"
	DraftInProgress DraftStatus = "in_progress"
	DraftPaused     DraftStatus = "paused"
	DraftCompleted  DraftStatus = "completed"
)

// DraftOp is an operation that may move the draft between states.
type DraftOp string

const (
	DraftOpSetOrder DraftOp = "set_order"
	DraftOpStart    DraftOp = "start"
	DraftOpPick     DraftOp = "pick"
	DraftOpPause    DraftOp = "pause"
	DraftOpResume   DraftOp = "resume"
	DraftOpComplete DraftOp = "complete"
)

var ErrInvalidTransition = errors.New("invalid draft transition")

// completed has no outgoing edges.
var draftTransitions = map[DraftStatus]map[DraftOp]DraftStatus{
	DraftPending: {
		DraftOpSetOrder: DraftPending,
		DraftOpStart:    DraftInProgress,
	},
	DraftInProgress: {
		DraftOpPick:     DraftInProgress,
		DraftOpPause:    DraftPaused,
		DraftOpComplete: DraftCompleted,
	},
	DraftPaused: {
		DraftOpResume: DraftInProgress,
	},
	DraftCompleted: {},
}

// Next returns the state reached by applying op, or ErrInvalidTransition.
func (s DraftStatus) Next(op DraftOp) (DraftStatus, error) {
	edges, ok := draftTransitions[s]
	if !ok {
		return s, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, s)
	}
	next, ok := edges[op]
	if !ok {
		return s, fmt.Errorf("%w: %s from %s", ErrInvalidTransition, op, s)
	}
	return next, nil
}

// Allows reports whether op is legal from s.
func (s DraftStatus) Allows(op DraftOp) bool {
	_, err := s.Next(op)
	return err == nil
}
