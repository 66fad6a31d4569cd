package backend

import (
	"context"
	"fmt"
	"strings"
	"time"
)

type Kind string

const (
	KindPostgres Kind = "postgres"
	KindMySQL    Kind = "mysql"
	KindMongo    Kind = "mongodb"
	KindSQLite   Kind = "sqlite"
)

func Kinds() []Kind {
	return []Kind{KindPostgres, KindMySQL, KindMongo, KindSQLite}
}

func KindNames() []string {
	kinds := Kinds()
	names := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		names = append(names, string(kind))
	}
	return names
}

func ParseKind(raw string) (Kind, error) {
	kind := Kind(strings.ToLower(strings.TrimSpace(raw)))
	switch kind {
	case KindPostgres, KindMySQL, KindMongo, KindSQLite:
		return kind, nil
	default:
		return "", &UnsupportedBackendError{Kind: raw, Supported: KindNames()}
	}
}

type Column struct {
	Name string
	Type string
}

func ColumnNames(columns []Column) []string {
	names := make([]string, 0, len(columns))
	for _, column := range columns {
		names = append(names, column.Name)
	}
	return names
}

type ConnParams struct {
	Database   string
	Host       string
	Port       int
	Username   string
	Password   string
	Collection string
	URI        string
}

// NormalizeParams applies the per-kind construction rules: default ports when
// unset, credential clearing for the embedded backend, and URI composition
// for the document backend unless the caller supplied one.
func NormalizeParams(kind Kind, params ConnParams) ConnParams {
	switch kind {
	case KindPostgres:
		if params.Port == 0 {
			params.Port = 5432
		}
	case KindMySQL:
		if params.Port == 0 {
			params.Port = 3306
		}
	case KindMongo:
		if params.Port == 0 {
			params.Port = 27017
		}
		if strings.TrimSpace(params.URI) == "" {
			params.URI = fmt.Sprintf("mongodb://%s:%s@%s:%d", params.Username, params.Password, params.Host, params.Port)
		}
	case KindSQLite:
		params.Host = ""
		params.Port = 0
		params.Username = ""
		params.Password = ""
	}
	return params
}

type Result struct {
	Columns  []string
	Rows     [][]any
	Duration time.Duration
}

type Backend interface {
	Kind() Kind
	Connect(ctx context.Context) error
	Connected() bool
	Ping(ctx context.Context) error
	Schema(ctx context.Context, table string) ([]Column, error)
	Execute(ctx context.Context, query string) (Result, error)
	Close() error
}
