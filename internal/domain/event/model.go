package event

import "time"

type Name string

const (
	DraftCompleted     Name = "draft_completed"
	WaiverSettled      Name = "waiver_settled"
	EpisodeFinalized   Name = "episode_finalized"
	CastawayEliminated Name = "castaway_eliminated"
)

// Event is a fire-and-forget notification about a committed transition.
type Event struct {
	ID         string         `json:"id"`
	Name       Name           `json:"name"`
	LeagueID   string         `json:"league_id,omitempty"`
	EpisodeID  string         `json:"episode_id,omitempty"`
	CastawayID string         `json:"castaway_id,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
	Payload    map[string]any `json:"payload,omitempty"`
}
