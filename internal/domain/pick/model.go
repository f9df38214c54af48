package pick

import "time"

// WeeklyPick is one member's castaway choice for an episode. PointsEarned
// stays nil until the episode is finalized.
type WeeklyPick struct {
	ID           string
	LeagueID     string
	MemberID     string
	EpisodeID    string
	CastawayID   string
	PointsEarned *int
	SubmittedAt  time.Time
}

func (p WeeklyPick) IsScored() bool {
	return p.PointsEarned != nil
}

// SumByMember totals points earned per member. Unscored picks count as zero.
func SumByMember(picks []WeeklyPick) map[string]int {
	out := make(map[string]int)
	for _, p := range picks {
		if p.PointsEarned == nil {
			continue
		}
		out[p.MemberID] += *p.PointsEarned
	}
	return out
}
