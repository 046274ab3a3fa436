package observation

import (
	"context"
	"database/sql"
)

type loadTxKey struct{}

// WithLoadTx attaches the transaction of a bulk load to ctx. Add calls made
// with the returned context write their batch inside tx, so a failed load
// leaves no partial rows behind.
func WithLoadTx(ctx context.Context, tx *sql.Tx) context.Context {
	return context.WithValue(ctx, loadTxKey{}, tx)
}

func loadTx(ctx context.Context) *sql.Tx {
	tx, _ := ctx.Value(loadTxKey{}).(*sql.Tx)
	return tx
}

type preparer interface {
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

// preparerFor returns the load transaction on ctx, or the store's database
// when records are added outside a load.
func (s *observationStore) preparerFor(ctx context.Context) preparer {
	if tx := loadTx(ctx); tx != nil {
		return tx
	}
	return s.db
}
