package sink

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/KaramelBytes/dataprep-cli/internal/dataset"
)

// Postgres loads datasets into PostgreSQL tables with COPY.
type Postgres struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// Open connects to dsn and checks the connection.
func Open(ctx context.Context, dsn string, logger *zap.Logger) (*Postgres, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	logger.Info("Postgres sink connected", zap.String("database_url", maskDSN(dsn)))
	return &Postgres{db: db, logger: logger}, nil
}

// Close releases the connection pool.
func (p *Postgres) Close() error { return p.db.Close() }

// Write replaces table with the contents of ds in one transaction and
// returns the number of rows copied.
func (p *Postgres) Write(ctx context.Context, table string, ds *dataset.Dataset) (int, error) {
	if ds.NumCols() == 0 {
		return 0, fmt.Errorf("dataset %q has no columns", ds.Name)
	}
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteTable(table)); err != nil {
		return 0, fmt.Errorf("drop table: %w", err)
	}
	if _, err := tx.ExecContext(ctx, CreateTableSQL(table, ds)); err != nil {
		return 0, fmt.Errorf("create table: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, copyIn(table, ds.Names()))
	if err != nil {
		return 0, fmt.Errorf("prepare copy: %w", err)
	}
	for i := 0; i < ds.NumRows(); i++ {
		if _, err := stmt.ExecContext(ctx, RowValues(ds, i)...); err != nil {
			_ = stmt.Close()
			return 0, fmt.Errorf("copy row %d: %w", i+1, err)
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		_ = stmt.Close()
		return 0, fmt.Errorf("flush copy: %w", err)
	}
	if err := stmt.Close(); err != nil {
		return 0, fmt.Errorf("close copy: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	p.logger.Info("Dataset written to Postgres",
		zap.String("table", table),
		zap.Int("rows", ds.NumRows()),
		zap.Int("columns", ds.NumCols()),
	)
	return ds.NumRows(), nil
}

// CreateTableSQL returns the DDL for a table matching the columns of ds.
func CreateTableSQL(table string, ds *dataset.Dataset) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	b.WriteString(quoteTable(table))
	b.WriteString(" (")
	for i, c := range ds.Columns() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(pq.QuoteIdentifier(c.Name()))
		b.WriteByte(' ')
		b.WriteString(columnType(c))
	}
	b.WriteString(")")
	return b.String()
}

func columnType(c dataset.Column) string {
	switch col := c.(type) {
	case *dataset.NumericColumn:
		if col.Integer {
			return "BIGINT"
		}
		return "DOUBLE PRECISION"
	case *dataset.BoolColumn:
		return "BOOLEAN"
	default:
		return "TEXT"
	}
}

// RowValues returns the cells of row i for COPY, with nil for missing.
func RowValues(ds *dataset.Dataset, i int) []any {
	cols := ds.Columns()
	vals := make([]any, len(cols))
	for j, c := range cols {
		if c.IsMissing(i) {
			continue
		}
		vals[j] = c.Value(i)
	}
	return vals
}

// quoteTable quotes a table name, honouring an optional schema prefix.
func quoteTable(table string) string {
	if schema, name, ok := strings.Cut(table, "."); ok {
		return pq.QuoteIdentifier(schema) + "." + pq.QuoteIdentifier(name)
	}
	return pq.QuoteIdentifier(table)
}

func copyIn(table string, cols []string) string {
	if schema, name, ok := strings.Cut(table, "."); ok {
		return pq.CopyInSchema(schema, name, cols...)
	}
	return pq.CopyIn(table, cols...)
}

func maskDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		return dsn
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String()
}
