package league

import "sort"

// RankMembers assigns TotalPoints from totals and ranks members by points
// descending. Equal totals keep the input order and still get distinct
// ranks, so waiver priority is always a total order.
func RankMembers(members []Member, totals map[string]int) []Member {
	out := make([]Member, len(members))
	copy(out, members)
	for i := range out {
		out[i].TotalPoints = totals[out[i].ID]
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalPoints > out[j].TotalPoints
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// ByWaiverPriority orders members worst rank first. Unranked members
// (rank 0) go first, ordered by id.
func ByWaiverPriority(members []Member) []Member {
	out := make([]Member, len(members))
	copy(out, members)
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := out[i].Rank, out[j].Rank
		if ri == 0 || rj == 0 {
			if ri != rj {
				return ri == 0
			}
			return out[i].ID < out[j].ID
		}
		if ri != rj {
			return ri > rj
		}
		return out[i].ID < out[j].ID
	})
	return out
}
