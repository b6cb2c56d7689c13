package repositories

import "context"

// TxFn runs within a transaction; returning an error rolls it back.
type TxFn func(ctx context.Context) error

// TransactionManager executes functions within database transactions.
type TransactionManager interface {
	ExecTx(ctx context.Context, fn TxFn) error
}
