package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/bhanuprasadthota/AskDB/internal/backend"
	"github.com/bhanuprasadthota/AskDB/internal/backend/mongodb"
	"github.com/bhanuprasadthota/AskDB/internal/backend/mysql"
	"github.com/bhanuprasadthota/AskDB/internal/backend/postgres"
	"github.com/bhanuprasadthota/AskDB/internal/backend/sqlite"
	"github.com/bhanuprasadthota/AskDB/internal/config"
	"github.com/bhanuprasadthota/AskDB/internal/match"
	"github.com/bhanuprasadthota/AskDB/internal/nl2sql"
	"github.com/bhanuprasadthota/AskDB/internal/prompt"
)

var ErrNoTranslator = errors.New("session: no translator attached")

// Answer is the outcome of a full question round trip: the SQL the
// model produced and the rows it returned.
type Answer struct {
	SQL      string        `json:"sql"`
	Columns  []string      `json:"columns"`
	Rows     [][]any       `json:"rows"`
	Duration time.Duration `json:"duration"`
}

type Session struct {
	backend    backend.Backend
	translator nl2sql.Translator
	matcher    *match.Matcher
	logger     *slog.Logger
}

// New builds a session for the configured backend kind. The kind is
// validated here so an unsupported backend fails construction, not the
// first operation. Connecting is a separate step.
func New(cfg config.Config, logger *slog.Logger) (*Session, error) {
	kind, err := backend.ParseKind(cfg.Backend.Kind)
	if err != nil {
		return nil, err
	}
	params := backend.NormalizeParams(kind, backend.ConnParams{
		Database:   cfg.Backend.Database,
		Host:       cfg.Backend.Host,
		Port:       cfg.Backend.Port,
		Username:   cfg.Backend.Username,
		Password:   cfg.Backend.Password,
		Collection: cfg.Backend.Collection,
		URI:        cfg.Backend.URI,
	})
	b, err := openBackend(kind, params)
	if err != nil {
		return nil, err
	}
	return NewWithBackend(b, logger), nil
}

func NewWithBackend(b backend.Backend, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Session{
		backend: b,
		matcher: match.New(),
		logger:  logger,
	}
}

func openBackend(kind backend.Kind, params backend.ConnParams) (backend.Backend, error) {
	switch kind {
	case backend.KindPostgres:
		return postgres.New(params), nil
	case backend.KindMySQL:
		return mysql.New(params), nil
	case backend.KindMongo:
		return mongodb.New(params), nil
	case backend.KindSQLite:
		return sqlite.New(params), nil
	default:
		return nil, &backend.UnsupportedBackendError{Kind: string(kind), Supported: backend.KindNames()}
	}
}

// AttachTranslator wires the generation capability. Kept separate from
// New so schema and execution work without any model configured.
func (s *Session) AttachTranslator(t nl2sql.Translator) {
	s.translator = t
}

func (s *Session) HasTranslator() bool {
	return s.translator != nil
}

func (s *Session) Kind() backend.Kind {
	return s.backend.Kind()
}

func (s *Session) Connect(ctx context.Context) error {
	return s.backend.Connect(ctx)
}

func (s *Session) Connected() bool {
	return s.backend.Connected()
}

func (s *Session) Ping(ctx context.Context) error {
	return s.backend.Ping(ctx)
}

func (s *Session) Schema(ctx context.Context, table string) ([]backend.Column, error) {
	return s.backend.Schema(ctx, table)
}

// MatchColumns introspects the table and returns the column names the
// question plausibly refers to.
func (s *Session) MatchColumns(ctx context.Context, question, table string) ([]string, error) {
	columns, err := s.backend.Schema(ctx, table)
	if err != nil {
		return nil, err
	}
	return s.matcher.Match(question, backend.ColumnNames(columns)), nil
}

// GenerateSQL turns a natural language question into SQL. When the
// backend cannot introspect a schema the prompt is assembled without
// column context instead of failing the translation.
func (s *Session) GenerateSQL(ctx context.Context, question, table string) (nl2sql.Result, error) {
	if s.translator == nil {
		return nl2sql.Result{}, ErrNoTranslator
	}

	schema, err := s.backend.Schema(ctx, table)
	if err != nil {
		if !errors.Is(err, backend.ErrSchemaUnavailable) {
			return nl2sql.Result{}, fmt.Errorf("introspect schema: %w", err)
		}
		s.logger.Warn("schema unavailable, prompting without column context",
			slog.String("backend", string(s.backend.Kind())),
			slog.String("table", table),
		)
		schema = nil
	}

	matched := s.matcher.Match(question, backend.ColumnNames(schema))
	s.logger.Debug("assembled prompt",
		slog.String("table", table),
		slog.Int("schema_columns", len(schema)),
		slog.Int("matched_columns", len(matched)),
	)

	result, err := s.translator.Translate(ctx, prompt.Build(question, table, schema, matched))
	if err != nil {
		return nl2sql.Result{}, fmt.Errorf("translate question: %w", err)
	}
	return result, nil
}

func (s *Session) Execute(ctx context.Context, query string) (backend.Result, error) {
	return s.backend.Execute(ctx, query)
}

// Ask runs the full pipeline: generate SQL for the question, then
// execute it. Execution failures still carry the generated SQL so
// callers can show what was attempted.
func (s *Session) Ask(ctx context.Context, question, table string) (Answer, error) {
	generated, err := s.GenerateSQL(ctx, question, table)
	if err != nil {
		return Answer{}, err
	}
	s.logger.Info("executing generated sql",
		slog.String("provider", generated.Provider),
		slog.String("model", generated.Model),
	)

	result, err := s.backend.Execute(ctx, generated.SQL)
	if err != nil {
		return Answer{SQL: generated.SQL}, err
	}
	return Answer{
		SQL:      generated.SQL,
		Columns:  result.Columns,
		Rows:     result.Rows,
		Duration: result.Duration,
	}, nil
}

func (s *Session) Close() error {
	return s.backend.Close()
}
