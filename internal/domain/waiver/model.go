package waiver

import "time"

// Ranking is a member's ordered castaway preference for one episode.
type Ranking struct {
	LeagueID    string
	MemberID    string
	EpisodeID   string
	CastawayIDs []string
	SubmittedAt time.Time
}

// Result is the audit row of one replacement. Position is the member's
// 1-based place in that run's priority order.
type Result struct {
	ID                 string
	LeagueID           string
	MemberID           string
	EpisodeID          string
	DroppedCastawayID  string
	AcquiredCastawayID string
	Position           int
	ProcessedAt        time.Time
}

// Claimant is one member in priority order with the entry they may replace.
type Claimant struct {
	MemberID       string
	Position       int
	DropEntryID    string
	DropCastawayID string
	Preferences    []string
}

// Claim is a resolved replacement.
type Claim struct {
	Claimant
	AcquiredCastawayID string
}

// Resolve walks claimants in order and hands each the first preference
// still in pool. Awarded castaways leave the pool; claimants without an
// available preference get nothing. pool is not modified.
func Resolve(claimants []Claimant, pool map[string]struct{}) []Claim {
	available := make(map[string]struct{}, len(pool))
	for id := range pool {
		available[id] = struct{}{}
	}

	out := make([]Claim, 0, len(claimants))
	for _, c := range claimants {
		for _, castawayID := range c.Preferences {
			if _, ok := available[castawayID]; !ok {
				continue
			}
			delete(available, castawayID)
			out = append(out, Claim{Claimant: c, AcquiredCastawayID: castawayID})
			break
		}
	}
	return out
}
