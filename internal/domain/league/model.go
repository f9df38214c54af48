package league

import (
	"fmt"
	"time"
)

// DefaultRosterCap is the number of castaways a member holds at once.
const DefaultRosterCap = 2

// League is a private group of members drafting castaways from one season.
type League struct {
	ID               string
	SeasonID         string
	Name             string
	RosterCap        int
	DraftStatus      DraftStatus
	DraftOrder       []string
	DraftStartedAt   *time.Time
	DraftCompletedAt *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (l League) Validate() error {
	if l.ID == "" {
		return fmt.Errorf("league id is required")
	}
	if l.SeasonID == "" {
		return fmt.Errorf("league season id is required")
	}
	if l.RosterCap <= 0 {
		return fmt.Errorf("league roster cap must be greater than zero")
	}
	if _, ok := draftTransitions[l.DraftStatus]; !ok {
		return fmt.Errorf("unknown draft status %q", l.DraftStatus)
	}

	return nil
}

// IsActive reports whether the league takes part in weekly play.
func (l League) IsActive() bool {
	return l.DraftStatus == DraftCompleted
}

// Member is one user's seat in a league. Rank and TotalPoints are derived
// by the standings recompute and never written from user input.
type Member struct {
	ID            string
	LeagueID      string
	UserID        string
	DisplayName   string
	DraftPosition int
	Rank          int
	TotalPoints   int
	JoinedAt      time.Time
}

// MemberIDs returns the ids of members in the given order.
func MemberIDs(members []Member) []string {
	out := make([]string, 0, len(members))
	for _, m := range members {
		out = append(out, m.ID)
	}
	return out
}
