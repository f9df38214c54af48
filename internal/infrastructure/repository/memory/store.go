package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/riskibarqy/castaway-league/internal/domain/league"
	"github.com/riskibarqy/castaway-league/internal/domain/pick"
	"github.com/riskibarqy/castaway-league/internal/domain/roster"
	"github.com/riskibarqy/castaway-league/internal/domain/scoring"
	"github.com/riskibarqy/castaway-league/internal/domain/season"
	"github.com/riskibarqy/castaway-league/internal/domain/waiver"
)

// Store holds every table behind one mutex. WithinTx works on a copy of the
// tables and swaps it in only when fn succeeds, so a failed unit leaves no
// trace. Units of work are fully serialized.
type Store struct {
	mu   sync.Mutex
	data *tables
}

type tables struct {
	seasons   map[string]season.Season
	episodes  map[string]season.Episode
	castaways map[string]season.Castaway

	leagues map[string]league.League
	members map[string]league.Member

	entries    map[string]roster.Entry
	entryOrder []string

	picks map[string]pick.WeeklyPick

	rules    map[string]scoring.Rule
	sessions map[string]scoring.Session
	scores   map[string]scoring.Score

	rankings map[string]waiver.Ranking
	results  []waiver.Result
}

type txKey struct{}

type txState struct {
	owner *Store
	data  *tables
}

func NewStore() *Store {
	return &Store{data: newTables()}
}

func newTables() *tables {
	return &tables{
		seasons:   make(map[string]season.Season),
		episodes:  make(map[string]season.Episode),
		castaways: make(map[string]season.Castaway),
		leagues:   make(map[string]league.League),
		members:   make(map[string]league.Member),
		entries:   make(map[string]roster.Entry),
		picks:     make(map[string]pick.WeeklyPick),
		rules:     make(map[string]scoring.Rule),
		sessions:  make(map[string]scoring.Session),
		scores:    make(map[string]scoring.Score),
		rankings:  make(map[string]waiver.Ranking),
	}
}

func (t *tables) clone() *tables {
	return &tables{
		seasons:    maps.Clone(t.seasons),
		episodes:   maps.Clone(t.episodes),
		castaways:  maps.Clone(t.castaways),
		leagues:    maps.Clone(t.leagues),
		members:    maps.Clone(t.members),
		entries:    maps.Clone(t.entries),
		entryOrder: append([]string(nil), t.entryOrder...),
		picks:      maps.Clone(t.picks),
		rules:      maps.Clone(t.rules),
		sessions:   maps.Clone(t.sessions),
		scores:     maps.Clone(t.scores),
		rankings:   maps.Clone(t.rankings),
		results:    append([]waiver.Result(nil), t.results...),
	}
}

// WithinTx runs fn against a private copy of the tables. A nested call with
// a context from an outer unit joins that unit.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if tx, ok := ctx.Value(txKey{}).(*txState); ok && tx.owner == s {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.data.clone()
	if err := fn(context.WithValue(ctx, txKey{}, &txState{owner: s, data: work})); err != nil {
		return err
	}
	s.data = work
	return nil
}

// do runs fn on the transaction's tables when ctx carries one, otherwise on
// the committed tables under the store lock.
func (s *Store) do(ctx context.Context, fn func(t *tables) error) error {
	if tx, ok := ctx.Value(txKey{}).(*txState); ok && tx.owner == s {
		return fn(tx.data)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

func compositeKey(parts ...string) string {
	size := len(parts)
	for _, p := range parts {
		size += len(p)
	}
	buf := make([]byte, 0, size)
	for i, p := range parts {
		if i > 0 {
			buf = append(buf, '|')
		}
		buf = append(buf, p...)
	}
	return string(buf)
}
