package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/bhanuprasadthota/AskDB/internal/backend"
)

// Parameterized equivalent of DESCRIBE: column_type carries the full declared
// type the way DESCRIBE renders it.
const schemaQuery = `SELECT column_name, column_type FROM information_schema.columns WHERE table_schema = ? AND table_name = ? ORDER BY ordinal_position`

type Backend struct {
	params backend.ConnParams
	db     *sql.DB
}

var _ backend.Backend = (*Backend)(nil)

func New(params backend.ConnParams) *Backend {
	return &Backend{params: params}
}

func (b *Backend) Kind() backend.Kind {
	return backend.KindMySQL
}

func (b *Backend) Connect(ctx context.Context) error {
	if b.db != nil {
		return fmt.Errorf("mysql connection already established")
	}
	if strings.TrimSpace(b.params.Database) == "" {
		return fmt.Errorf("database name is required")
	}

	db, err := sql.Open("mysql", b.dsn())
	if err != nil {
		return fmt.Errorf("open mysql connection: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return fmt.Errorf("ping mysql: %w", err)
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
		return fmt.Errorf("ping mysql: %w", err)
	}
	return nil
}

func (b *Backend) Schema(ctx context.Context, table string) ([]backend.Column, error) {
	if b.db == nil {
		return nil, backend.ErrNoConnection
	}

	rows, err := b.db.QueryContext(ctx, schemaQuery, b.params.Database, table)
	if err != nil {
		return nil, fmt.Errorf("introspect table %q: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	var columns []backend.Column
	for rows.Next() {
		var column backend.Column
		if err := rows.Scan(&column.Name, &column.Type); err != nil {
			return nil, fmt.Errorf("scan column row: %w", err)
		}
		columns = append(columns, column)
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
		return backend.Result{}, &backend.ExecutionError{Backend: backend.KindMySQL, Query: query, Cause: err}
	}
	defer func() { _ = rows.Close() }()

	columns, data, err := backend.ScanRows(rows)
	if err != nil {
		return backend.Result{}, &backend.ExecutionError{Backend: backend.KindMySQL, Query: query, Cause: err}
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
		return fmt.Errorf("close mysql connection: %w", err)
	}
	return nil
}

func (b *Backend) dsn() string {
	credentials := ""
	if b.params.Username != "" {
		credentials = b.params.Username
		if b.params.Password != "" {
			credentials += ":" + b.params.Password
		}
		credentials += "@"
	}
	return fmt.Sprintf("%stcp(%s:%d)/%s", credentials, b.params.Host, b.params.Port, b.params.Database)
}
