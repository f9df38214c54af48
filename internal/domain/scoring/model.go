package scoring

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"time"
)

var eliminationCodePattern = regexp.MustCompile(`^(ELIM|ELIMINATED|VOTED_OUT|MEDEVAC|QUIT)`)

// IsEliminationCode reports whether a rule code marks the castaway as out.
func IsEliminationCode(code string) bool {
	return eliminationCodePattern.MatchString(code)
}

// Rule awards Points per unit of quantity. An empty SeasonID marks a global rule.
type Rule struct {
	ID          string
	SeasonID    string
	Code        string
	Description string
	Points      int
	Category    string
	Elimination bool
}

func (r Rule) IsGlobal() bool {
	return r.SeasonID == ""
}

type SessionStatus string

const (
	SessionDraft     SessionStatus = "draft"
	SessionFinalized SessionStatus = "finalized"
)

type SessionOp string

const (
	SessionOpSave     SessionOp = "save"
	SessionOpFinalize SessionOp = "finalize"
)

var ErrInvalidTransition = errors.New("invalid scoring session transition")

var sessionTransitions = map[SessionStatus]map[SessionOp]SessionStatus{
	SessionDraft: {
		SessionOpSave:     SessionDraft,
		SessionOpFinalize: SessionFinalized,
	},
	SessionFinalized: {},
}

func (s SessionStatus) Next(op SessionOp) (SessionStatus, error) {
	edges, ok := sessionTransitions[s]
	if !ok {
		return s, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, s)
	}
	next, ok := edges[op]
	if !ok {
		return s, fmt.Errorf("%w: %s from %s", ErrInvalidTransition, op, s)
	}
	return next, nil
}

// Session is the scoring workspace of one episode.
type Session struct {
	ID          string
	EpisodeID   string
	Status      SessionStatus
	CreatedAt   time.Time
	FinalizedAt *time.Time
}

func (s Session) IsFinalized() bool {
	return s.Status == SessionFinalized
}

// Score is one (episode, castaway, rule) row. Points is rule points times quantity.
type Score struct {
	ID         string
	EpisodeID  string
	CastawayID string
	RuleID     string
	Quantity   int
	Points     int
	UpdatedAt  time.Time
}

// Entry is an autosave input row. Quantity zero clears the row.
type Entry struct {
	CastawayID string `validate:"required"`
	RuleID     string `validate:"required"`
	Quantity   int    `validate:"gte=0"`
}

// CastawayTotals sums points per castaway.
func CastawayTotals(scores []Score) map[string]int {
	out := make(map[string]int)
	for _, s := range scores {
		out[s.CastawayID] += s.Points
	}
	return out
}

// EliminatedCastaways returns the sorted ids of castaways with a positive
// quantity row under an elimination rule.
func EliminatedCastaways(scores []Score, rules []Rule) []string {
	elimination := make(map[string]struct{})
	for _, r := range rules {
		if r.Elimination || IsEliminationCode(r.Code) {
			elimination[r.ID] = struct{}{}
		}
	}

	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, s := range scores {
		if _, ok := elimination[s.RuleID]; !ok || s.Quantity <= 0 {
			continue
		}
		if _, ok := seen[s.CastawayID]; ok {
			continue
		}
		seen[s.CastawayID] = struct{}{}
		out = append(out, s.CastawayID)
	}
	sort.Strings(out)
	return out
}

// RulesByID indexes rules for lookup during autosave.
func RulesByID(rules []Rule) map[string]Rule {
	out := make(map[string]Rule, len(rules))
	for _, r := range rules {
		out[r.ID] = r
	}
	return out
}
