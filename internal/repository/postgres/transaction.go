package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"draftly/internal/domain/repositories"
)

type transactionManager struct {
	pool *pgxpool.Pool
}

// NewTransactionManager creates a TransactionManager backed by the pool.
func NewTransactionManager(pool *pgxpool.Pool) repositories.TransactionManager {
	return &transactionManager{pool: pool}
}

// ExecTx begins a transaction, stores it in the context so repositories
// join it via GetExecutor, and commits or rolls back based on fn's error.
func (m *transactionManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	txCtx := repositories.SetTx(ctx, tx)

	if err := fn(txCtx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
