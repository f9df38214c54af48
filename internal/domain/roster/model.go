package roster

import (
	"errors"
	"time"
)

type AcquiredVia string

const (
	AcquiredDraft     AcquiredVia = "draft"
	AcquiredAutoDraft AcquiredVia = "auto_draft"
	AcquiredWaiver    AcquiredVia = "waiver"
)

// ErrRosterFull is returned by Insert when the member already holds the cap.
var ErrRosterFull = errors.New("roster is full")

// Entry is an append-only roster record. A replacement drops the old entry
// and inserts a new one; castaway_id is never rewritten.
type Entry struct {
	ID          string
	LeagueID    string
	MemberID    string
	CastawayID  string
	Round       int
	PickNumber  int
	AcquiredVia AcquiredVia
	AcquiredAt  time.Time
	DroppedAt   *time.Time
}

func (e Entry) IsHeld() bool {
	return e.DroppedAt == nil
}

// IsDraftPick reports whether the entry came out of the draft log.
func (e Entry) IsDraftPick() bool {
	return e.AcquiredVia == AcquiredDraft || e.AcquiredVia == AcquiredAutoDraft
}

// HeldBy groups undropped entries by member id.
func HeldBy(entries []Entry) map[string][]Entry {
	out := make(map[string][]Entry)
	for _, e := range entries {
		if !e.IsHeld() {
			continue
		}
		out[e.MemberID] = append(out[e.MemberID], e)
	}
	return out
}

// HeldCastaways returns the set of castaway ids with an undropped entry.
func HeldCastaways(entries []Entry) map[string]struct{} {
	out := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if e.IsHeld() {
			out[e.CastawayID] = struct{}{}
		}
	}
	return out
}
