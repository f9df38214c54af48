package league

import (
	"errors"
	"fmt"
)

var ErrEmptyDraftOrder = errors.New("draft order is empty")

// Turn identifies the pick that is on the clock.
type Turn struct {
	PickNumber     int
	Round          int
	PickerIndex    int
	PickerMemberID string
}

// TurnAt derives the current turn from the number of picks already made.
// Odd rounds walk the order forward and even rounds walk it backward, so the
// last picker of a round opens the next one.
func TurnAt(totalPicks int, order []string) (Turn, error) {
	memberCount := len(order)
	if memberCount == 0 {
		return Turn{}, ErrEmptyDraftOrder
	}
	if totalPicks < 0 {
		return Turn{}, fmt.Errorf("total picks must not be negative, got %d", totalPicks)
	}

	round := totalPicks/memberCount + 1
	position := totalPicks % memberCount
	index := position
	if round%2 == 0 {
		index = memberCount - 1 - position
	}

	return Turn{
		PickNumber:     totalPicks + 1,
		Round:          round,
		PickerIndex:    index,
		PickerMemberID: order[index],
	}, nil
}

// DraftSize is the number of picks that completes a draft.
func DraftSize(memberCount, rosterCap int) int {
	if memberCount <= 0 || rosterCap <= 0 {
		return 0
	}
	return memberCount * rosterCap
}

// IsPermutation reports whether order contains every id in memberIDs exactly once.
func IsPermutation(order, memberIDs []string) bool {
	if len(order) != len(memberIDs) {
		return false
	}
	want := make(map[string]int, len(memberIDs))
	for _, id := range memberIDs {
		want[id]++
	}
	for _, id := range order {
		if want[id] == 0 {
			return false
		}
		want[id]--
	}
	return true
}
