package persistence

import (
	"context"

	"github.com/marketplace/backend/internal/domain/shared"
	"gorm.io/gorm"
)

type txKey struct{}

// conn returns the transaction carried by ctx, or db outside of one. Every
// repository query goes through it so that calls made inside RunInTx join
// the transaction.
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

// RunInTx runs fn in one transaction. Repositories called with the context
// handed to fn read and write through that transaction; it commits when fn
// returns nil and rolls back otherwise. A call nested in an open transaction
// joins it.
func (d *Database) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return d.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

var _ shared.TxRunner = (*Database)(nil)
