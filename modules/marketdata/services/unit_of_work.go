package services

import (
	"context"

	"github.com/petroflow/petroflow/pkg/composables"
)

// UnitOfWork is the commit boundary the batch committer flushes through.
// One Do call is one transaction: everything staged inside fn commits or
// rolls back together.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

type pgUnitOfWork struct{}

// NewPgUnitOfWork returns the production unit of work backed by the pgx
// pool carried in the context.
func NewPgUnitOfWork() UnitOfWork {
	return pgUnitOfWork{}
}

func (pgUnitOfWork) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return composables.InTx(ctx, fn)
}
