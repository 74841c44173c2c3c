package shared

import "context"

// TxRunner runs a unit of work atomically. Repository calls made with the
// context passed to fn take part in the same transaction.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// NoTx runs the unit of work directly, for stores without transactions
type NoTx struct{}

// RunInTx calls fn with ctx
func (NoTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
