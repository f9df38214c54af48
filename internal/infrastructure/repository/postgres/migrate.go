package postgres

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/riskibarqy/castaway-league/db"
	"github.com/riskibarqy/castaway-league/internal/platform/logging"
)

// MigrationsTable keeps engine migrations apart from other schemas sharing
// the database.
const MigrationsTable = "league_engine_migrations"

func MigrationSource() (source.Driver, error) {
	src, err := iofs.New(db.Migrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}
	return src, nil
}

// NewMigrator binds the embedded migrations to dbURL.
func NewMigrator(dbURL string, logger *logging.Logger) (*migrate.Migrate, error) {
	src, err := MigrationSource()
	if err != nil {
		return nil, err
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, WithMigrationsTable(dbURL))
	if err != nil {
		_ = src.Close()
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	m.Log = migrateLogger{logger: logger.Named("migrate")}
	return m, nil
}

func WithMigrationsTable(raw string) string {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || parsed == nil || parsed.Scheme == "" {
		return raw
	}

	query := parsed.Query()
	if query.Get("x-migrations-table") == "" {
		query.Set("x-migrations-table", MigrationsTable)
		parsed.RawQuery = query.Encode()
	}
	return parsed.String()
}

type migrateLogger struct {
	logger *logging.Logger
}

func (l migrateLogger) Printf(format string, v ...any) {
	l.logger.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l migrateLogger) Verbose() bool {
	return false
}
