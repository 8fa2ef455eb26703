package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	_ "github.com/lib/pq"
)

// SubmissionsTable holds the archive of accepted submissions.
const SubmissionsTable = "submissions"

var ErrNoDatabaseURL = errors.New("DATABASE_URL is not set")

// Execer runs a statement. *entsql.Driver satisfies it.
type Execer interface {
	Exec(ctx context.Context, query string, args, v any) error
}

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, dbURL string) (*entsql.Driver, error) {
	if dbURL == "" {
		return nil, ErrNoDatabaseURL
	}

	drv, err := entsql.Open(dialect.Postgres, dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db := drv.DB()
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		drv.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return drv, nil
}

// MigrationStatements returns the DDL that creates the archive schema.
func MigrationStatements() []string {
	b := entsql.Dialect(dialect.Postgres)

	table, _ := b.CreateTable(SubmissionsTable).
		IfNotExists().
		Columns(
			b.Column("id").Type("bigserial").Attr("PRIMARY KEY"),
			b.Column("form_type").Type("varchar(16)").Attr("NOT NULL"),
			b.Column("payload").Type("jsonb").Attr("NOT NULL"),
			b.Column("ip_address").Type("varchar(64)").Attr("NOT NULL DEFAULT ''"),
			b.Column("created_at").Type("timestamptz").Attr("NOT NULL DEFAULT now()"),
		).
		Query()

	return []string{
		table,
		`CREATE INDEX IF NOT EXISTS "submissions_form_type_created_at" ON "submissions" ("form_type", "created_at")`,
	}
}

// Migrate creates the archive schema if it does not exist yet.
func Migrate(ctx context.Context, drv Execer) error {
	for _, stmt := range MigrationStatements() {
		if err := drv.Exec(ctx, stmt, []any{}, nil); err != nil {
			return fmt.Errorf("failed creating schema resources: %w", err)
		}
	}
	return nil
}
