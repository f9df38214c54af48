package memory

import (
	"fmt"
	"time"

	"github.com/riskibarqy/castaway-league/internal/domain/league"
	"github.com/riskibarqy/castaway-league/internal/domain/pick"
	"github.com/riskibarqy/castaway-league/internal/domain/roster"
	"github.com/riskibarqy/castaway-league/internal/domain/scoring"
	"github.com/riskibarqy/castaway-league/internal/domain/season"
)

// Seed is a snapshot of rows loaded into a Store before use.
type Seed struct {
	Seasons   []season.Season
	Episodes  []season.Episode
	Castaways []season.Castaway
	Leagues   []league.League
	Members   []league.Member
	Entries   []roster.Entry
	Picks     []pick.WeeklyPick
	Rules     []scoring.Rule
}

// Load inserts seed rows, rejecting references to unknown parents.
func (s *Store) Load(seed Seed) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.data.clone()
	for _, item := range seed.Seasons {
		work.seasons[item.ID] = item
	}
	for _, item := range seed.Episodes {
		if _, ok := work.seasons[item.SeasonID]; !ok {
			return fmt.Errorf("seed episode %s: unknown season %s", item.ID, item.SeasonID)
		}
		work.episodes[item.ID] = item
	}
	for _, item := range seed.Castaways {
		if _, ok := work.seasons[item.SeasonID]; !ok {
			return fmt.Errorf("seed castaway %s: unknown season %s", item.ID, item.SeasonID)
		}
		if item.Status == "" {
			item.Status = season.CastawayActive
		}
		work.castaways[item.ID] = item
	}
	for _, item := range seed.Leagues {
		if _, ok := work.seasons[item.SeasonID]; !ok {
			return fmt.Errorf("seed league %s: unknown season %s", item.ID, item.SeasonID)
		}
		if item.RosterCap == 0 {
			item.RosterCap = league.DefaultRosterCap
		}
		if item.DraftStatus == "" {
			item.DraftStatus = league.DraftPending
		}
		if err := item.Validate(); err != nil {
			return fmt.Errorf("seed league %s: %w", item.ID, err)
		}
		work.leagues[item.ID] = cloneLeague(item)
	}
	for _, item := range seed.Members {
		if _, ok := work.leagues[item.LeagueID]; !ok {
			return fmt.Errorf("seed member %s: unknown league %s", item.ID, item.LeagueID)
		}
		work.members[item.ID] = item
	}
	for _, item := range seed.Entries {
		work.entries[item.ID] = item
		work.entryOrder = append(work.entryOrder, item.ID)
	}
	for _, item := range seed.Picks {
		work.picks[pickKey(item.LeagueID, item.MemberID, item.EpisodeID)] = item
	}
	for _, item := range seed.Rules {
		if !item.Elimination {
			item.Elimination = scoring.IsEliminationCode(item.Code)
		}
		work.rules[item.ID] = item
	}

	s.data = work
	return nil
}

const (
	DemoSeasonID = "season-47"
	DemoLeagueID = "league-tribal-friends"
)

// DemoSeed is a four-member league over an eight-castaway season with its
// draft deadline and first episode anchored at now.
func DemoSeed(now time.Time) Seed {
	now = now.UTC().Truncate(time.Hour)
	castaways := []string{"Andy", "Caroline", "Genevieve", "Kishan", "Rachel", "Sam", "Sue", "Teeny"}

	seed := Seed{
		Seasons: []season.Season{
			{ID: DemoSeasonID, Name: "Season 47", DraftDeadline: now.Add(48 * time.Hour)},
		},
		Leagues: []league.League{
			{ID: DemoLeagueID, SeasonID: DemoSeasonID, Name: "Tribal Friends", CreatedAt: now, UpdatedAt: now},
		},
		Rules: []scoring.Rule{
			{ID: "s47-immunity", SeasonID: DemoSeasonID, Code: "IMMUNITY_WIN", Points: 5, Category: "challenge"},
			{ID: "s47-idol", SeasonID: DemoSeasonID, Code: "FOUND_IDOL", Points: 8, Category: "advantage"},
			{ID: "s47-voted-out", SeasonID: DemoSeasonID, Code: "VOTED_OUT", Points: -10, Category: "elimination"},
		},
	}
	for i, name := range castaways {
		seed.Castaways = append(seed.Castaways, season.Castaway{
			ID:       fmt.Sprintf("cast-%02d", i+1),
			SeasonID: DemoSeasonID,
			Name:     name,
			Status:   season.CastawayActive,
		})
	}
	for i := 1; i <= 4; i++ {
		seed.Members = append(seed.Members, league.Member{
			ID:          fmt.Sprintf("member-%d", i),
			LeagueID:    DemoLeagueID,
			UserID:      fmt.Sprintf("user-%d", i),
			DisplayName: fmt.Sprintf("Player %d", i),
			JoinedAt:    now,
		})
	}
	for i := 1; i <= 3; i++ {
		air := now.Add(time.Duration(i) * 7 * 24 * time.Hour)
		seed.Episodes = append(seed.Episodes, season.Episode{
			ID:            fmt.Sprintf("s47-e%02d", i),
			SeasonID:      DemoSeasonID,
			Number:        i,
			AirAt:         air,
			PickLockAt:    air.Add(-time.Hour),
			WaiverOpenAt:  air.Add(24 * time.Hour),
			WaiverCloseAt: air.Add(72 * time.Hour),
		})
	}
	return seed
}
