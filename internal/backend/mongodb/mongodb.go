package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/bhanuprasadthota/AskDB/internal/backend"
)

type Backend struct {
	params backend.ConnParams
	client *mongo.Client
}

var _ backend.Backend = (*Backend)(nil)

func New(params backend.ConnParams) *Backend {
	return &Backend{params: params}
}

func (b *Backend) Kind() backend.Kind {
	return backend.KindMongo
}

func (b *Backend) Connect(ctx context.Context) error {
	if b.client != nil {
		return errors.New("mongodb: already connected")
	}
	if b.params.URI == "" {
		return errors.New("mongodb: connection URI is required")
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(b.params.URI))
	if err != nil {
		return fmt.Errorf("connect mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return fmt.Errorf("ping mongodb: %w", err)
	}

	b.client = client
	return nil
}

func (b *Backend) Connected() bool {
	return b.client != nil
}

func (b *Backend) Ping(ctx context.Context) error {
	if b.client == nil {
		return backend.ErrNoConnection
	}
	return b.client.Ping(ctx, readpref.Primary())
}

// Schema always reports unavailability: document collections carry no
// fixed column layout to introspect.
func (b *Backend) Schema(ctx context.Context, table string) ([]backend.Column, error) {
	return nil, backend.ErrSchemaUnavailable
}

func (b *Backend) Execute(ctx context.Context, query string) (backend.Result, error) {
	if b.client == nil {
		return backend.Result{}, backend.ErrNoConnection
	}
	return backend.Result{}, &backend.ExecutionError{
		Backend: backend.KindMongo,
		Query:   query,
		Cause:   errors.New("sql execution is not supported for mongodb"),
	}
}

func (b *Backend) Close() error {
	if b.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := b.client.Disconnect(ctx)
	b.client = nil
	if err != nil {
		return fmt.Errorf("close mongodb client: %w", err)
	}
	return nil
}
