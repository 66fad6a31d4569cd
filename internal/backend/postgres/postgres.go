package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/bhanuprasadthota/AskDB/internal/backend"
)

const schemaQuery = `SELECT column_name, data_type FROM information_schema.columns WHERE table_name = $1 ORDER BY ordinal_position`

type Backend struct {
	params backend.ConnParams
	db     *sql.DB
}

var _ backend.Backend = (*Backend)(nil)

func New(params backend.ConnParams) *Backend {
	return &Backend{params: params}
}

func (b *Backend) Kind() backend.Kind {
	return backend.KindPostgres
}

func (b *Backend) Connect(ctx context.Context) error {
	if b.db != nil {
		return fmt.Errorf("postgres connection already established")
	}
	if strings.TrimSpace(b.params.Database) == "" {
		return fmt.Errorf("database name is required")
	}

	db, err := sql.Open("pgx", b.dsn())
	if err != nil {
		return fmt.Errorf("open postgres connection: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return fmt.Errorf("ping postgres: %w", err)
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
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}

func (b *Backend) Schema(ctx context.Context, table string) ([]backend.Column, error) {
	if b.db == nil {
		return nil, backend.ErrNoConnection
	}

	rows, err := b.db.QueryContext(ctx, schemaQuery, table)
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
		return backend.Result{}, &backend.ExecutionError{Backend: backend.KindPostgres, Query: query, Cause: err}
	}
	defer func() { _ = rows.Close() }()

	columns, data, err := backend.ScanRows(rows)
	if err != nil {
		return backend.Result{}, &backend.ExecutionError{Backend: backend.KindPostgres, Query: query, Cause: err}
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
		return fmt.Errorf("close postgres connection: %w", err)
	}
	return nil
}

func (b *Backend) dsn() string {
	parts := []string{
		fmt.Sprintf("host=%s", b.params.Host),
		fmt.Sprintf("port=%d", b.params.Port),
		fmt.Sprintf("dbname=%s", b.params.Database),
	}
	if b.params.Username != "" {
		parts = append(parts, fmt.Sprintf("user=%s", b.params.Username))
	}
	if b.params.Password != "" {
		parts = append(parts, fmt.Sprintf("password=%s", b.params.Password))
	}
	parts = append(parts, "sslmode=disable")
	return strings.Join(parts, " ")
}
