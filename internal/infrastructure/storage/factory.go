package storage

import (
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Open selects a driver from the DSN, applies the schema and returns the
// ready repository. postgres:// and postgresql:// DSNs use lib/pq; anything
// else is treated as a sqlite path (":memory:" included).
func Open(dsn string) (*Repository, error) {
	driver := "sqlite"
	schema := schemaSQLite
	var placeholder sq.PlaceholderFormat = sq.Question

	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		driver = "postgres"
		schema = schemaPostgres
		placeholder = sq.Dollar
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == "sqlite" {
		// modernc sqlite connections do not share an in-memory database.
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Repository{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(placeholder),
	}, nil
}
