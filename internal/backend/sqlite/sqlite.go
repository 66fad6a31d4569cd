package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/bhanuprasadthota/AskDB/internal/backend"
)

const tableLookupQuery = `SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`

type Backend struct {
	params backend.ConnParams
	db     *sql.DB
}

var _ backend.Backend = (*Backend)(nil)

func New(params backend.ConnParams) *Backend {
	return &Backend{params: params}
}

func (b *Backend) Kind() backend.Kind {
	return backend.KindSQLite
}

func (b *Backend) Connect(ctx context.Context) error {
	if b.db != nil {
		return fmt.Errorf("sqlite connection already established")
	}
	if strings.TrimSpace(b.params.Database) == "" {
		return fmt.Errorf("database file path is required")
	}

	db, err := sql.Open("sqlite", b.params.Database)
	if err != nil {
		return fmt.Errorf("open sqlite database: %w", err)
	}
	// Single connection: one writer for the embedded file, and in-memory
	// databases stay visible across statements.
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return fmt.Errorf("ping sqlite: %w", err)
	}

	b.db = db
	return nil
}

func (b *Backend) Connected() bool {
	return b.db != nil
}

func (b *Backend) Ping(ctx context.Context) error {
	if b.db == nil {
		return backend.ErrNoConnection
	}
	if err := b.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping sqlite: %w", err)
	}
	return nil
}

// Schema resolves the table name against sqlite_master before interpolating
// it into PRAGMA table_info, which cannot take placeholders. Unknown names
// never reach SQL text.
func (b *Backend) Schema(ctx context.Context, table string) ([]backend.Column, error) {
	if b.db == nil {
		return nil, backend.ErrNoConnection
	}

	var resolved string
	err := b.db.QueryRowContext(ctx, tableLookupQuery, table).Scan(&resolved)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("unknown table %q", table)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve table %q: %w", table, err)
	}

	rows, err := b.db.QueryContext(ctx, "PRAGMA table_info("+quoteIdent(resolved)+")")
	if err != nil {
		return nil, fmt.Errorf("introspect table %q: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	var columns []backend.Column
	for rows.Next() {
		var (
			cid          int
			name         string
			declType     string
			notNull      int
			defaultValue any
			primaryKey   int
		)
		if err := rows.Scan(&cid, &name, &declType, &notNull, &defaultValue, &primaryKey); err != nil {
			return nil, fmt.Errorf("scan column row: %w", err)
		}
		columns = append(columns, backend.Column{Name: name, Type: declType})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate column rows: %w", err)
	}
	return columns, nil
}

func (b *Backend) Execute(ctx context.Context, query string) (backend.Result, error) {
	if b.db == nil {
		return backend.Result{}, backend.ErrNoConnection
	}

	start := time.Now()
	rows, err := b.db.QueryContext(ctx, query)
	if err != nil {
		return backend.Result{}, &backend.ExecutionError{Backend: backend.KindSQLite, Query: query, Cause: err}
	}
	defer func() { _ = rows.Close() }()

	columns, data, err := backend.ScanRows(rows)
	if err != nil {
		return backend.Result{}, &backend.ExecutionError{Backend: backend.KindSQLite, Query: query, Cause: err}
	}
	return backend.Result{Columns: columns, Rows: data, Duration: time.Since(start)}, nil
}

func (b *Backend) Close() error {
	if b.db == nil {
		return nil
	}
	err := b.db.Close()
	b.db = nil
	if err != nil {
		return fmt.Errorf("close sqlite database: %w", err)
	}
	return nil
}

func quoteIdent(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}
