package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"draftly/internal/domain/repositories"
)

// RepositoryConfig bundles what every repository implementation needs.
type RepositoryConfig struct {
	Pool   *pgxpool.Pool
	Tables *TableNames
	Logger *slog.Logger
}

// TableNames holds environment-prefixed table names.
type TableNames struct {
	WorkspaceDocuments string
}

// NewTableNames creates table names with the given prefix (dev_, test_,
// prod_), so environments can share one database.
func NewTableNames(prefix string) *TableNames {
	return &TableNames{
		WorkspaceDocuments: prefix + "workspace_documents",
	}
}

// CreateConnectionPool builds a pgx pool and verifies connectivity.
//
// When the connection goes through a transaction pooler (port 6543) the
// default prepared-statement mode breaks with "prepared statement already
// exists"; cache_describe keeps the extended protocol (needed for proper
// JSONB encoding of map values) without creating named prepared
// statements. An explicit default_query_exec_mode in the connection string
// takes precedence.
func CreateConnectionPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 5

	if config.ConnConfig.Port == 6543 && config.ConnConfig.DefaultQueryExecMode == pgx.QueryExecModeCacheStatement {
		config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheDescribe
		slog.Debug("auto-configured cache_describe mode for transaction pooler", "port", 6543)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// GetExecutor returns the transaction from the context when present,
// otherwise the pool, so repositories automatically join transactions.
func GetExecutor(ctx context.Context, pool *pgxpool.Pool) repositories.DBTX {
	if tx := repositories.GetTx(ctx); tx != nil {
		return tx
	}
	return pool
}
