package season

import (
	"errors"
	"time"
)

type CastawayStatus string

const (
	CastawayActive     CastawayStatus = "active"
	CastawayEliminated CastawayStatus = "eliminated"
)

var ErrAlreadyEliminated = errors.New("castaway already eliminated")

type Season struct {
	ID            string
	Name          string
	DraftDeadline time.Time
}

// DraftDeadlinePassed reports whether auto-draft may take over unfinished drafts.
func (s Season) DraftDeadlinePassed(now time.Time) bool {
	return !s.DraftDeadline.IsZero() && !now.Before(s.DraftDeadline)
}

type Castaway struct {
	ID                  string
	SeasonID            string
	Name                string
	Status              CastawayStatus
	EliminatedEpisodeID string
}

func (c Castaway) IsActive() bool {
	return c.Status == CastawayActive
}

// Eliminate moves the castaway to eliminated. The transition is one-way.
func (c Castaway) Eliminate(episodeID string) (Castaway, error) {
	if c.Status == CastawayEliminated {
		return c, ErrAlreadyEliminated
	}
	c.Status = CastawayEliminated
	c.EliminatedEpisodeID = episodeID
	return c, nil
}

// Episode drives the timing gates for picks, waivers and scoring.
type Episode struct {
	ID            string
	SeasonID      string
	Number        int
	AirAt         time.Time
	PickLockAt    time.Time
	WaiverOpenAt  time.Time
	WaiverCloseAt time.Time
	IsScored      bool
}

// PickWindowOpen reports whether weekly picks are still accepted.
func (e Episode) PickWindowOpen(now time.Time) bool {
	return !e.IsScored && now.Before(e.PickLockAt)
}

func (e Episode) WaiverWindowOpen(now time.Time) bool {
	return !now.Before(e.WaiverOpenAt) && now.Before(e.WaiverCloseAt)
}

// ReadyForWaivers reports whether settlement may run for the episode.
func (e Episode) ReadyForWaivers(now time.Time) bool {
	return e.IsScored && !e.WaiverCloseAt.IsZero() && !now.Before(e.WaiverCloseAt)
}
