package repositories

import (
	"context"

	"gorm.io/gorm"
)

type txKey struct{}

// WithTx binds a transaction to ctx; repositories called with the
// returned context run inside it.
func WithTx(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// RunInTx runs fn in a transaction, joining the one already bound to ctx if any
func RunInTx(ctx context.Context, db *gorm.DB, fn func(ctx context.Context) error) error {
	return conn(ctx, db).Transaction(func(tx *gorm.DB) error {
		return fn(WithTx(ctx, tx))
	})
}

// conn returns the transaction bound to ctx, or db
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}
