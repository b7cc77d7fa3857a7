package application

import (
	"context"
	"sync"
)

// UnitOfWork brackets a command's reads and writes in one transaction. Begin
// returns the context the repositories must use to join it.
type UnitOfWork interface {
	Begin(ctx context.Context) (context.Context, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// WithUnitOfWork runs fn in a transaction, committing when fn returns nil and
// rolling back on an error or a panic.
func WithUnitOfWork(ctx context.Context, uow UnitOfWork, fn func(ctx context.Context) error) error {
	_, err := WithUnitOfWorkResult(ctx, uow, func(txCtx context.Context) (struct{}, error) {
		return struct{}{}, fn(txCtx)
	})
	return err
}

// WithUnitOfWorkResult is WithUnitOfWork for fn that produces a value. The
// zero value is returned unless the transaction commits.
func WithUnitOfWorkResult[R any](ctx context.Context, uow UnitOfWork, fn func(ctx context.Context) (R, error)) (result R, err error) {
	txCtx, err := uow.Begin(ctx)
	if err != nil {
		return result, err
	}

	committed := false
	defer func() {
		if !committed {
			_ = uow.Rollback(txCtx)
		}
	}()

	fnCtx, hooks := txCtx, (*commitHooks)(nil)
	if _, nested := ctx.Value(commitHooksKey{}).(*commitHooks); !nested {
		hooks = &commitHooks{}
		fnCtx = context.WithValue(txCtx, commitHooksKey{}, hooks)
	}

	out, err := fn(fnCtx)
	if err != nil {
		return result, err
	}
	if err := uow.Commit(txCtx); err != nil {
		return result, err
	}
	committed = true
	hooks.run()
	return out, nil
}

type commitHooksKey struct{}

type commitHooks struct {
	mu  sync.Mutex
	fns []func()
}

func (h *commitHooks) run() {
	if h == nil {
		return
	}
	h.mu.Lock()
	fns := h.fns
	h.fns = nil
	h.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// AfterCommit runs fn once the outermost unit of work in ctx commits, or
// right away when ctx carries none. fn is dropped if that unit rolls back.
func AfterCommit(ctx context.Context, fn func()) {
	hooks, ok := ctx.Value(commitHooksKey{}).(*commitHooks)
	if !ok {
		fn()
		return
	}
	hooks.mu.Lock()
	hooks.fns = append(hooks.fns, fn)
	hooks.mu.Unlock()
}
