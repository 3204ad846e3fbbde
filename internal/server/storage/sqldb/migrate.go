package sqldb

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/lock"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var embedMigrations embed.FS

// Migrate brings the schema up to date. It is idempotent and safe to call
// on every process start; on PostgreSQL concurrent starts are serialized
// by an advisory session lock.
func (s *Storage) Migrate(ctx context.Context) (int, error) {
	provider, err := s.newProvider()
	if err != nil {
		return 0, err
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return 0, classify(fmt.Errorf("goose up failed: %w", err))
	}

	return len(results), nil
}

// SchemaVersion returns the current applied migration version
func (s *Storage) SchemaVersion(ctx context.Context) (int64, error) {
	provider, err := s.newProvider()
	if err != nil {
		return 0, err
	}

	version, err := provider.GetDBVersion(ctx)
	if err != nil {
		return 0, classify(fmt.Errorf("failed to get schema version: %w", err))
	}
	return version, nil
}

func (s *Storage) newProvider() (*goose.Provider, error) {
	var (
		dialect goose.Dialect
		dir     string
		opts    []goose.ProviderOption
	)

	switch s.target.Dialect {
	case DialectPostgres:
		dialect = goose.DialectPostgres
		dir = "migrations/postgres"

		locker, err := lock.NewPostgresSessionLocker()
		if err != nil {
			return nil, fmt.Errorf("failed to create migration locker: %w", err)
		}
		opts = append(opts, goose.WithSessionLocker(locker))
	default:
		dialect = goose.DialectSQLite3
		dir = "migrations/sqlite"
	}

	migrations, err := fs.Sub(embedMigrations, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	provider, err := goose.NewProvider(dialect, s.db, migrations, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration provider: %w", err)
	}
	return provider, nil
}
