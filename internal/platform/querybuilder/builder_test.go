package querybuilder

import "testing"

func TestSelectBuilder(t *testing.T) {
	query, args, err := Select("id", "name").
		From("castaways").
		Where(Eq("season_id", "s47"), IsNull("eliminated_episode_id")).
		OrderBy("name", "id").
		Limit(10).
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT id, name FROM castaways WHERE season_id = $1 AND eliminated_episode_id IS NULL ORDER BY name, id LIMIT 10"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 1 || args[0] != "s47" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestSelectBuilderForUpdate(t *testing.T) {
	query, args, err := Select("*").
		From("leagues").
		Where(Eq("id", "l1")).
		ForUpdate().
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT * FROM leagues WHERE id = $1 FOR UPDATE"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 1 {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestSelectBuilderConditions(t *testing.T) {
	query, args, err := Select("COUNT(*)").
		From("roster_entries").
		Where(
			Eq("league_id", "l1"),
			In("acquired_via", []any{"draft", "auto_draft"}),
			IsNotNull("dropped_at"),
			Expr("acquired_at <= ?", "2026-03-04"),
		).
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT COUNT(*) FROM roster_entries WHERE league_id = $1 AND acquired_via IN ($2, $3) AND dropped_at IS NOT NULL AND acquired_at <= $4"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 4 || args[3] != "2026-03-04" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestInsertBuilder(t *testing.T) {
	query, args, err := InsertInto("weekly_picks").
		Columns("id", "castaway_id").
		Values("p1", "c1").
		Suffix("ON CONFLICT (id) DO NOTHING").
		ToSQL()
	if err != nil {
		t.Fatalf("build insert query: %v", err)
	}

	wantQuery := "INSERT INTO weekly_picks (id, castaway_id) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 || args[0] != "p1" || args[1] != "c1" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestInsertBuilderRejectsShortRow(t *testing.T) {
	_, _, err := InsertInto("weekly_picks").
		Columns("id", "castaway_id").
		Values("p1").
		ToSQL()
	if err == nil {
		t.Fatalf("expected error for mismatched row")
	}
}

func TestUpdateBuilder(t *testing.T) {
	query, args, err := Update("scoring_sessions").
		Set("status", "finalized").
		SetExpr("finalized_at", "NOW()").
		Where(Eq("episode_id", "e1"), Eq("status", "draft")).
		ToSQL()
	if err != nil {
		t.Fatalf("build update query: %v", err)
	}

	wantQuery := "UPDATE scoring_sessions SET status = $1, finalized_at = NOW() WHERE episode_id = $2 AND status = $3"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 3 || args[0] != "finalized" || args[1] != "e1" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestDeleteBuilder(t *testing.T) {
	query, args, err := DeleteFrom("episode_scores").
		Where(Eq("episode_id", "e1"), Eq("castaway_id", "c1"), Eq("rule_id", "r1")).
		ToSQL()
	if err != nil {
		t.Fatalf("build delete query: %v", err)
	}

	wantQuery := "DELETE FROM episode_scores WHERE episode_id = $1 AND castaway_id = $2 AND rule_id = $3"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 3 {
		t.Fatalf("unexpected args: %+v", args)
	}

	if _, _, err := DeleteFrom("episode_scores").ToSQL(); err == nil {
		t.Fatalf("expected error for unconditioned delete")
	}
}

func TestInsertModel(t *testing.T) {
	type row struct {
		ID       string `db:"id"`
		Name     string `db:"name"`
		Skipped  string `db:"-"`
		internal string
	}

	query, args, err := InsertModel("castaways", row{ID: "c1", Name: "Kishan", internal: "x"}, "")
	if err != nil {
		t.Fatalf("build insert model: %v", err)
	}
	wantQuery := "INSERT INTO castaways (id, name) VALUES ($1, $2)"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 || args[1] != "Kishan" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestUpdateBuilderReturning(t *testing.T) {
	query, args, err := Update("castaways").
		Set("status", "eliminated").
		SetExpr("points", "points + ?", 3).
		Where(In("id", []any{"c1", "c2"}), Eq("status", "active")).
		Returning("id").
		ToSQL()
	if err != nil {
		t.Fatalf("build update query: %v", err)
	}

	wantQuery := "UPDATE castaways SET status = $1, points = points + $2 WHERE id IN ($3, $4) AND status = $5 RETURNING id"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 5 || args[1] != 3 || args[4] != "active" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestInEmptySetMatchesNothing(t *testing.T) {
	query, args, err := Select("id").From("castaways").Where(In("id", nil)).ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}
	if query != "SELECT id FROM castaways WHERE 1=0" || len(args) != 0 {
		t.Fatalf("unexpected query %q args %+v", query, args)
	}
}

func TestInsertModelRejectsNonStruct(t *testing.T) {
	if _, _, err := InsertModel("castaways", "c1", ""); err == nil {
		t.Fatalf("expected error for non-struct model")
	}
	var nilRow *struct {
		ID string `db:"id"`
	}
	if _, _, err := InsertModel("castaways", nilRow, ""); err == nil {
		t.Fatalf("expected error for nil model")
	}
}
