package db

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/pressly/goose/v3"
	"gorm.io/gorm"
)

//go:embed migrations
var migrations embed.FS

// Migrator applies the embedded schema migrations for one dialect.
type Migrator struct {
	provider *goose.Provider
	logger   *slog.Logger
}

// NewMigrator builds a goose provider over the migrations for driver.
func NewMigrator(gdb *gorm.DB, driver string, logger *slog.Logger) (*Migrator, error) {
	var dialect goose.Dialect
	switch driver {
	case "sqlite":
		dialect = goose.DialectSQLite3
	case "mysql":
		dialect = goose.DialectMySQL
	case "postgres":
		dialect = goose.DialectPostgres
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("sql handle: %w", err)
	}
	fsys, err := fs.Sub(migrations, "migrations/"+driver)
	if err != nil {
		return nil, fmt.Errorf("migrations for %s: %w", driver, err)
	}
	provider, err := goose.NewProvider(dialect, sqlDB, fsys)
	if err != nil {
		return nil, fmt.Errorf("goose provider: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Migrator{provider: provider, logger: logger.With("component", "migrate")}, nil
}

// Up applies every pending migration.
func (m *Migrator) Up(ctx context.Context) error {
	results, err := m.provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	if len(results) == 0 {
		m.logger.Info("no pending migrations")
	}
	for _, r := range results {
		m.logger.Info("migration applied", "version", r.Source.Version, "duration", r.Duration)
	}
	return nil
}

// Down rolls back the most recent migration.
func (m *Migrator) Down(ctx context.Context) error {
	r, err := m.provider.Down(ctx)
	if err != nil {
		return fmt.Errorf("migrate down: %w", err)
	}
	m.logger.Info("migration rolled back", "version", r.Source.Version)
	return nil
}

// MigrationState is one line of Status output.
type MigrationState struct {
	Version int64
	Path    string
	Applied bool
}

// Status lists every known migration and whether it is applied.
func (m *Migrator) Status(ctx context.Context) ([]MigrationState, error) {
	statuses, err := m.provider.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("migrate status: %w", err)
	}
	out := make([]MigrationState, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, MigrationState{
			Version: s.Source.Version,
			Path:    s.Source.Path,
			Applied: s.State == goose.StateApplied,
		})
	}
	return out, nil
}

// Migrate opens a migrator for driver and applies everything pending.
func Migrate(ctx context.Context, gdb *gorm.DB, driver string, logger *slog.Logger) error {
	m, err := NewMigrator(gdb, driver, logger)
	if err != nil {
		return err
	}
	return m.Up(ctx)
}
