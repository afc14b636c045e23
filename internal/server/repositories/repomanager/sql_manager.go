// Package repomanager provides a concrete RepositoryManager for the supported
// SQL dialects, wiring together repository constructors and database
// migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/dmitrijs2005/taskflow/internal/dbx"
	"github.com/dmitrijs2005/taskflow/internal/server/migrations"
	"github.com/dmitrijs2005/taskflow/internal/server/repositories/tasks"
	"github.com/dmitrijs2005/taskflow/internal/server/repositories/users"
	"github.com/pressly/goose/v3"
)

// SQLRepositoryManager vends SQL-backed repository implementations for one
// dialect and exposes a schema migration hook.
type SQLRepositoryManager struct {
	dialect dbx.Dialect
}

func (m *SQLRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewSQLRepository(db)
}

func (m *SQLRepositoryManager) Tasks(db dbx.DBTX) tasks.Repository {
	return tasks.NewSQLRepository(db, m.dialect)
}

// gooseUp is a seam for testing the goose provider run.
var gooseUp = func(ctx context.Context, dialect goose.Dialect, db *sql.DB, fsys fs.FS) error {
	p, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return err
	}
	_, err = p.Up(ctx)
	return err
}

// RunMigrations applies the embedded migrations of the manager's dialect.
func (m *SQLRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	gooseDialect, dir, err := gooseDialectFor(m.dialect)
	if err != nil {
		return err
	}

	fsys, err := fs.Sub(migrations.Migrations, dir)
	if err != nil {
		return err
	}

	if err := gooseUp(ctx, gooseDialect, db, fsys); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	return nil
}

func gooseDialectFor(d dbx.Dialect) (goose.Dialect, string, error) {
	switch d {
	case dbx.DialectPostgres:
		return goose.DialectPostgres, "postgres", nil
	case dbx.DialectSQLite:
		return goose.DialectSQLite3, "sqlite", nil
	}
	return "", "", fmt.Errorf("unsupported dialect %q", d)
}

// NewRepositoryManager constructs a RepositoryManager for dialect.
func NewRepositoryManager(dialect dbx.Dialect) (RepositoryManager, error) {
	if _, _, err := gooseDialectFor(dialect); err != nil {
		return nil, err
	}
	return &SQLRepositoryManager{dialect: dialect}, nil
}
