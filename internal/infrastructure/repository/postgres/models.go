package postgres

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
)

type seasonTableModel struct {
	ID            string    `db:"id"`
	Name          string    `db:"name"`
	DraftDeadline time.Time `db:"draft_deadline"`
	CreatedAt     time.Time `db:"created_at"`
}

type episodeTableModel struct {
	ID            string    `db:"id"`
	SeasonID      string    `db:"season_id"`
	Number        int       `db:"number"`
	AirAt         time.Time `db:"air_at"`
	PickLockAt    time.Time `db:"pick_lock_at"`
	WaiverOpenAt  time.Time `db:"waiver_open_at"`
	WaiverCloseAt time.Time `db:"waiver_close_at"`
	IsScored      bool      `db:"is_scored"`
}

type castawayTableModel struct {
	ID                  string         `db:"id"`
	SeasonID            string         `db:"season_id"`
	Name                string         `db:"name"`
	Status              string         `db:"status"`
	EliminatedEpisodeID sql.NullString `db:"eliminated_episode_id"`
}

type leagueTableModel struct {
	ID               string         `db:"id"`
	SeasonID         string         `db:"season_id"`
	Name             string         `db:"name"`
	RosterCap        int            `db:"roster_cap"`
	DraftStatus      string         `db:"draft_status"`
	DraftOrder       pq.StringArray `db:"draft_order"`
	DraftStartedAt   sql.NullTime   `db:"draft_started_at"`
	DraftCompletedAt sql.NullTime   `db:"draft_completed_at"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
}

type memberTableModel struct {
	ID            string    `db:"id"`
	LeagueID      string    `db:"league_id"`
	UserID        string    `db:"user_id"`
	DisplayName   string    `db:"display_name"`
	DraftPosition int       `db:"draft_position"`
	Rank          int       `db:"rank"`
	TotalPoints   int       `db:"total_points"`
	JoinedAt      time.Time `db:"joined_at"`
}

type rosterEntryTableModel struct {
	ID          string       `db:"id"`
	LeagueID    string       `db:"league_id"`
	MemberID    string       `db:"member_id"`
	CastawayID  string       `db:"castaway_id"`
	Round       int          `db:"round"`
	PickNumber  int          `db:"pick_number"`
	AcquiredVia string       `db:"acquired_via"`
	AcquiredAt  time.Time    `db:"acquired_at"`
	DroppedAt   sql.NullTime `db:"dropped_at"`
}

type weeklyPickTableModel struct {
	ID           string        `db:"id"`
	LeagueID     string        `db:"league_id"`
	MemberID     string        `db:"member_id"`
	EpisodeID    string        `db:"episode_id"`
	CastawayID   string        `db:"castaway_id"`
	PointsEarned sql.NullInt64 `db:"points_earned"`
	SubmittedAt  time.Time     `db:"submitted_at"`
}

type scoringRuleTableModel struct {
	ID          string         `db:"id"`
	SeasonID    sql.NullString `db:"season_id"`
	Code        string         `db:"code"`
	Description string         `db:"description"`
	Points      int            `db:"points"`
	Category    string         `db:"category"`
	Elimination bool           `db:"elimination"`
}

type scoringSessionTableModel struct {
	ID          string       `db:"id"`
	EpisodeID   string       `db:"episode_id"`
	Status      string       `db:"status"`
	CreatedAt   time.Time    `db:"created_at"`
	FinalizedAt sql.NullTime `db:"finalized_at"`
}

type episodeScoreTableModel struct {
	ID         string    `db:"id"`
	EpisodeID  string    `db:"episode_id"`
	CastawayID string    `db:"castaway_id"`
	RuleID     string    `db:"rule_id"`
	Quantity   int       `db:"quantity"`
	Points     int       `db:"points"`
	UpdatedAt  time.Time `db:"updated_at"`
}

type waiverRankingTableModel struct {
	LeagueID    string         `db:"league_id"`
	MemberID    string         `db:"member_id"`
	EpisodeID   string         `db:"episode_id"`
	CastawayIDs pq.StringArray `db:"castaway_ids"`
	SubmittedAt time.Time      `db:"submitted_at"`
}

type waiverResultTableModel struct {
	ID                 string    `db:"id"`
	LeagueID           string    `db:"league_id"`
	MemberID           string    `db:"member_id"`
	EpisodeID          string    `db:"episode_id"`
	DroppedCastawayID  string    `db:"dropped_castaway_id"`
	AcquiredCastawayID string    `db:"acquired_castaway_id"`
	Position           int       `db:"position"`
	ProcessedAt        time.Time `db:"processed_at"`
}
