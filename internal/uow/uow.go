package uow

import (
	"context"

	"github.com/kirinyoku/park-go/internal/repository"
)

// AfterCommit is a function that runs after a successful transaction commit.
type AfterCommit func(ctx context.Context)

// Func is the body of a unit of work. Hooks registered through after run
// only if the transaction commits.
type Func func(ctx context.Context, tx repository.Tx, after func(AfterCommit)) error

// UoW represents a unit of work.
type UoW struct {
	store repository.Store
}

func NewUoW(store repository.Store) *UoW {
	return &UoW{store: store}
}

// Do runs fn inside the transaction. After a successful commit,
// it executes all after-commit hooks.
func (u *UoW) Do(ctx context.Context, fn Func) error {
	var hooks []AfterCommit

	err := u.store.RunTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		return fn(ctx, tx, func(h AfterCommit) {
			hooks = append(hooks, h)
		})
	})
	if err != nil {
		return err
	}

	for _, h := range hooks {
		h(ctx)
	}

	return nil
}

// DoRetry reruns the whole unit while it fails with a storage conflict,
// up to attempts times. The last error is returned when attempts run out.
func (u *UoW) DoRetry(ctx context.Context, attempts int, fn Func) error {
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for i := 0; i < attempts; i++ {
		err = u.Do(ctx, fn)
		if err == nil || !repository.IsStorageConflict(err) {
			return err
		}
		if ctx.Err() != nil {
			return err
		}
	}

	return err
}
