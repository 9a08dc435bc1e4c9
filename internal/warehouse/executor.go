// Package warehouse applies translated DDL to the target warehouse over the
// Postgres wire protocol.
package warehouse

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrUnreachable indicates the warehouse could not be reached at all.
	ErrUnreachable = errors.New("target warehouse unreachable")
	// ErrExecution indicates the warehouse rejected the statement.
	ErrExecution = errors.New("target warehouse rejected statement")
)

// Executor runs statements against the migration target.
type Executor interface {
	Execute(ctx context.Context, statement string) error
	Ping(ctx context.Context) error
}

// PostgresExecutor executes statements on a Postgres-protocol warehouse.
// The connected database plays the role of the target catalog; the schema is
// selected via search_path on each acquired connection.
type PostgresExecutor struct {
	pool   *pgxpool.Pool
	schema string
}

var _ Executor = (*PostgresExecutor)(nil)

// Connect opens a connection pool to the target warehouse and verifies it.
func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse target warehouse url: %w", err)
	}
	cfg.MaxConns = 4
	cfg.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create target warehouse pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping target warehouse: %w", err)
	}
	return pool, nil
}

// NewPostgresExecutor wraps an existing pool. schema may be empty, in which
// case statements run against the connection's default search path.
func NewPostgresExecutor(pool *pgxpool.Pool, schema string) *PostgresExecutor {
	return &PostgresExecutor{pool: pool, schema: schema}
}

// Execute runs one DDL statement. The schema is pinned per connection so
// unqualified names in translated SQL land in the target schema.
func (e *PostgresExecutor) Execute(ctx context.Context, statement string) error {
	conn, err := e.pool.Acquire(ctx)
	if err != nil {
		return classifyError(err)
	}
	defer conn.Release()

	if e.schema != "" {
		setPath := fmt.Sprintf("SET search_path TO %s", pgx.Identifier{e.schema}.Sanitize())
		if _, err := conn.Exec(ctx, setPath); err != nil {
			return classifyError(err)
		}
	}
	if _, err := conn.Exec(ctx, statement); err != nil {
		return classifyError(err)
	}
	return nil
}

// Ping reports whether the warehouse is reachable.
func (e *PostgresExecutor) Ping(ctx context.Context) error {
	if err := e.pool.Ping(ctx); err != nil {
		return classifyError(err)
	}
	return nil
}

func classifyError(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	return fmt.Errorf("%w: %v", ErrExecution, err)
}
