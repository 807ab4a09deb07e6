package txn

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the query surface shared by *pgxpool.Pool and pgx.Tx, so a
// repository method can run standalone or inside a checkout transaction
// without knowing which.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Tx is one atomic unit of checkout writes. Commit may succeed at most once;
// a second Commit returns domain.ErrNoActiveTransaction. Rollback after the
// outcome is decided is a logged no-op and never returns an error that could
// mask the failure that triggered it.
type Tx interface {
	Querier
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Coordinator begins transactions over the underlying stores.
type Coordinator interface {
	Begin(ctx context.Context) (Tx, error)
}
