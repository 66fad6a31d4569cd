package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/bhanuprasadthota/AskDB/internal/backend"
)

func TestSchemaQueriesInformationSchema(t *testing.T) {
	b, mock := newMockBackend(t)

	mock.ExpectQuery(regexp.QuoteMeta(schemaQuery)).
		WithArgs("employees").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type"}).
			AddRow("employee_id", "integer").
			AddRow("join_date", "date").
			AddRow("salary", "integer"))

	columns, err := b.Schema(context.Background(), "employees")
	if err != nil {
		t.Fatalf("Schema() error = %v", err)
	}
	if len(columns) != 3 {
		t.Fatalf("columns = %d", len(columns))
	}
	if columns[0].Name != "employee_id" || columns[0].Type != "integer" {
		t.Fatalf("first column = %+v", columns[0])
	}
	if columns[1].Name != "join_date" || columns[1].Type != "date" {
		t.Fatalf("second column = %+v", columns[1])
	}
	assertSQLMock(t, mock)
}

func TestSchemaUnknownTableReturnsEmpty(t *testing.T) {
	b, mock := newMockBackend(t)

	mock.ExpectQuery(regexp.QuoteMeta(schemaQuery)).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type"}))

	columns, err := b.Schema(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Schema() error = %v", err)
	}
	if len(columns) != 0 {
		t.Fatalf("columns = %v", columns)
	}
	assertSQLMock(t, mock)
}

func TestSchemaWithoutConnection(t *testing.T) {
	b := New(backend.ConnParams{Database: "askdb"})
	if _, err := b.Schema(context.Background(), "employees"); !errors.Is(err, backend.ErrNoConnection) {
		t.Fatalf("Schema() error = %v, want ErrNoConnection", err)
	}
}

func TestExecuteReturnsRows(t *testing.T) {
	b, mock := newMockBackend(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT name FROM employees")).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("ada").AddRow("grace"))

	result, err := b.Execute(context.Background(), "SELECT name FROM employees")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(result.Columns) != 1 || result.Columns[0] != "name" {
		t.Fatalf("Columns = %v", result.Columns)
	}
	if len(result.Rows) != 2 || result.Rows[0][0] != "ada" {
		t.Fatalf("Rows = %v", result.Rows)
	}
	if result.Duration < 0 {
		t.Fatalf("Duration = %v", result.Duration)
	}
	assertSQLMock(t, mock)
}

func TestExecuteWrapsFailureAsExecutionError(t *testing.T) {
	b, mock := newMockBackend(t)

	cause := errors.New(`syntax error at or near "SELEC"`)
	mock.ExpectQuery(regexp.QuoteMeta("SELEC 1")).WillReturnError(cause)

	_, err := b.Execute(context.Background(), "SELEC 1")
	var execErr *backend.ExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("error type = %T (%v)", err, err)
	}
	if execErr.Backend != backend.KindPostgres {
		t.Fatalf("Backend = %q", execErr.Backend)
	}
	if execErr.Query != "SELEC 1" {
		t.Fatalf("Query = %q", execErr.Query)
	}
	if !errors.Is(err, cause) {
		t.Fatal("expected cause to survive unwrapping")
	}
	assertSQLMock(t, mock)
}

func TestExecuteWithoutConnection(t *testing.T) {
	b := New(backend.ConnParams{Database: "askdb"})
	if _, err := b.Execute(context.Background(), "SELECT 1"); !errors.Is(err, backend.ErrNoConnection) {
		t.Fatalf("Execute() error = %v, want ErrNoConnection", err)
	}
}

func TestConnectRequiresDatabase(t *testing.T) {
	b := New(backend.ConnParams{Host: "localhost", Port: 5432})
	if err := b.Connect(context.Background()); err == nil {
		t.Fatal("expected error for missing database name")
	}
}

func TestDSN(t *testing.T) {
	b := New(backend.ConnParams{
		Database: "askdb",
		Host:     "db.local",
		Port:     5432,
		Username: "ada",
		Password: "s3cret",
	})
	want := "host=db.local port=5432 dbname=askdb user=ada password=s3cret sslmode=disable"
	if got := b.dsn(); got != want {
		t.Fatalf("dsn() = %q, want %q", got, want)
	}
}

func TestDSNWithoutCredentials(t *testing.T) {
	b := New(backend.ConnParams{Database: "askdb", Host: "localhost", Port: 5432})
	want := "host=localhost port=5432 dbname=askdb sslmode=disable"
	if got := b.dsn(); got != want {
		t.Fatalf("dsn() = %q, want %q", got, want)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	b, mock := newMockBackend(t)
	mock.ExpectClose()
	if err := b.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
	if b.Connected() {
		t.Fatal("backend should report disconnected after Close")
	}
	assertSQLMock(t, mock)
}

func newMockBackend(t *testing.T) (*Backend, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := newSQLMock(t)
	b := New(backend.ConnParams{Database: "askdb", Host: "localhost", Port: 5432})
	b.db = db
	return b, mock
}

func newSQLMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func assertSQLMock(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sql expectations: %v", err)
	}
}
