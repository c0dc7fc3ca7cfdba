package repositories

import (
	"context"

	"github.com/eyramk/campusgate/internal/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgxQuerier is the query surface shared by pgxpool.Pool and pgx.Tx.
type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// txKey carries the transaction opened by WithIdentifierLock. Every
// repository call inside the locked section must run on that connection: a
// second pool acquisition there can exhaust the pool under concurrent
// logins, with each transaction waiting on a connection only another
// waiting transaction can free.
type txKey struct{}

func withTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// querier returns the ctx-bound transaction when inside a locked section,
// the pool otherwise.
func querier(ctx context.Context, db *database.DB) pgxQuerier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return db.Pool
}
