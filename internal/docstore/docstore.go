// Package docstore is a generic adapter over a partitioned JSONB document
// collection in Postgres. It hides partition-key mechanics and translates
// backend error codes into a small error taxonomy.
package docstore

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// schemaSQL is embedded so the service can self-bootstrap its collection.
//
//go:embed schema.sql
var schemaSQL string

// Query is a read-only statement with positional bound parameters. Caller
// values never appear in SQL text. Every SELECT emits a single JSONB
// document column per row.
type Query struct {
	SQL  string
	Args []any
}

// Client is the long-lived, concurrency-safe handle to the document store.
// Create it once per process and share it across requests.
type Client struct {
	pool *pgxpool.Pool
}

// NewClient creates a connection pool and fails fast if the store is
// unreachable.
func NewClient(databaseURL string) (*Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Client{pool: pool}, nil
}

// EnsureSchema applies schema.sql. Safe to run multiple times.
func (c *Client) EnsureSchema(ctx context.Context) error {
	if _, err := c.pool.Exec(ctx, schemaSQL); err != nil {
		return translate("ensure schema", err)
	}
	return nil
}

// Ping is used by the readiness endpoint to validate store connectivity.
func (c *Client) Ping(ctx context.Context) error {
	return c.pool.Ping(ctx)
}

// Close shuts down the connection pool.
func (c *Client) Close() {
	c.pool.Close()
}

// RawQuery executes a read-only query and drains the entire result stream
// before returning, so callers never observe a partial result set. Each
// returned element is one document in the store's natural result order.
func (c *Client) RawQuery(ctx context.Context, q Query) ([]json.RawMessage, error) {
	rows, err := c.pool.Query(ctx, q.SQL, q.Args...)
	if err != nil {
		return nil, translate("query", err)
	}
	defer rows.Close()

	results := []json.RawMessage{}
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, translate("query scan", err)
		}
		results = append(results, json.RawMessage(doc))
	}
	if err := rows.Err(); err != nil {
		return nil, translate("query", err)
	}
	return results, nil
}

// Collection provides typed access to one document collection. The id and
// partition-key accessors are explicit: the adapter never inspects the
// entity's shape reflectively.
type Collection[T any] struct {
	client       *Client
	table        string
	id           func(T) string
	partitionKey func(T) string
}

// NewCollection binds a client to a table with accessors for the entity's
// identity and partition-key attributes.
func NewCollection[T any](client *Client, table string, id, partitionKey func(T) string) *Collection[T] {
	return &Collection[T]{client: client, table: table, id: id, partitionKey: partitionKey}
}

// Create inserts one document scoped to its partition. Fails with
// ErrPartitionKeyMissing before any I/O if the partition-key attribute is
// empty, and with ErrConflict if the id already exists in that partition.
func (c *Collection[T]) Create(ctx context.Context, item T) error {
	pk := c.partitionKey(item)
	if pk == "" {
		return ErrPartitionKeyMissing
	}

	doc, err := json.Marshal(item)
	if err != nil {
		return &StoreError{Op: "create encode", Err: err}
	}

	sql := fmt.Sprintf(`INSERT INTO %s (partition_key, id, doc) VALUES ($1, $2, $3)`, c.table)
	if _, err := c.client.pool.Exec(ctx, sql, pk, c.id(item), doc); err != nil {
		return translate("create", err)
	}
	return nil
}

// GetByID performs a point read within one partition. Absence is reported
// through the found flag, not as an error.
func (c *Collection[T]) GetByID(ctx context.Context, id, partitionKey string) (T, bool, error) {
	var zero T

	sql := fmt.Sprintf(`SELECT doc FROM %s WHERE partition_key = $1 AND id = $2`, c.table)
	var doc []byte
	err := c.client.pool.QueryRow(ctx, sql, partitionKey, id).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, translate("get", err)
	}

	var item T
	if err := json.Unmarshal(doc, &item); err != nil {
		return zero, false, &StoreError{Op: "get decode", Err: err}
	}
	return item, true, nil
}

// Query executes a read across the whole collection and decodes each
// document into the collection's entity type. Same draining contract as
// Client.RawQuery.
func (c *Collection[T]) Query(ctx context.Context, q Query) ([]T, error) {
	docs, err := c.client.RawQuery(ctx, q)
	if err != nil {
		return nil, err
	}

	items := make([]T, 0, len(docs))
	for _, doc := range docs {
		var item T
		if err := json.Unmarshal(doc, &item); err != nil {
			return nil, &StoreError{Op: "query decode", Err: err}
		}
		items = append(items, item)
	}
	return items, nil
}

// QueryAll returns every document in the collection.
func (c *Collection[T]) QueryAll(ctx context.Context) ([]T, error) {
	return c.Query(ctx, Query{SQL: fmt.Sprintf(`SELECT doc FROM %s`, c.table)})
}
