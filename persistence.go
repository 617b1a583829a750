package access

import (
	"context"
	"database/sql"
	"io/fs"

	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/schema"
)

func init() {
	persistence.RegisterModel((*User)(nil))
}

// NewPersistenceClient builds the persistence client for this package's
// models and registers the embedded dialect migrations.
func NewPersistenceClient(cfg persistence.Config, db *sql.DB, dialect schema.Dialect) (*persistence.Client, error) {
	client, err := persistence.New(cfg, db, dialect)
	if err != nil {
		return nil, err
	}

	migrations, err := fs.Sub(GetMigrationsFS(), "data/sql/migrations")
	if err != nil {
		return nil, err
	}

	client.RegisterDialectMigrations(
		migrations,
		persistence.WithDialectSourceLabel("data/sql/migrations"),
		persistence.WithValidationTargets("postgres", "sqlite"),
	)

	return client, nil
}

// OpenSQLite opens an in-process sqlite database and applies this
// package's migrations. Used by tests and local development.
func OpenSQLite(ctx context.Context, cfg persistence.Config, dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, err
	}

	client, err := NewPersistenceClient(cfg, sqldb, sqlitedialect.New())
	if err != nil {
		return nil, err
	}

	if err := client.Migrate(ctx); err != nil {
		return nil, err
	}

	return client.DB(), nil
}
