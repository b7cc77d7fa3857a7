package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type txKey struct{}

type mockUnitOfWork struct {
	mock.Mock
}

func (m *mockUnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	args := m.Called(ctx)
	if c, ok := args.Get(0).(context.Context); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUnitOfWork) Commit(ctx context.Context) error   { return m.Called(ctx).Error(0) }
func (m *mockUnitOfWork) Rollback(ctx context.Context) error { return m.Called(ctx).Error(0) }

func newMockUnitOfWork() (*mockUnitOfWork, context.Context, context.Context) {
	ctx := context.Background()
	txCtx := context.WithValue(ctx, txKey{}, "tx")
	uow := new(mockUnitOfWork)
	uow.On("Begin", ctx).Return(txCtx, nil)
	return uow, ctx, txCtx
}

func TestWithUnitOfWork_Commits(t *testing.T) {
	uow, ctx, txCtx := newMockUnitOfWork()
	uow.On("Commit", txCtx).Return(nil)

	err := WithUnitOfWork(ctx, uow, func(got context.Context) error {
		assert.Equal(t, "tx", got.Value(txKey{}))
		return nil
	})
	require.NoError(t, err)
	uow.AssertExpectations(t)
	uow.AssertNotCalled(t, "Rollback", mock.Anything)
}

func TestWithUnitOfWork_RollsBackOnError(t *testing.T) {
	uow, ctx, txCtx := newMockUnitOfWork()
	uow.On("Rollback", txCtx).Return(nil)
	rejected := errors.New("not due")

	err := WithUnitOfWork(ctx, uow, func(context.Context) error { return rejected })
	assert.ErrorIs(t, err, rejected)
	uow.AssertExpectations(t)
	uow.AssertNotCalled(t, "Commit", mock.Anything)
}

func TestWithUnitOfWork_RollsBackOnPanic(t *testing.T) {
	uow, ctx, txCtx := newMockUnitOfWork()
	uow.On("Rollback", txCtx).Return(nil)

	assert.PanicsWithValue(t, "overflow", func() {
		_ = WithUnitOfWork(ctx, uow, func(context.Context) error { panic("overflow") })
	})
	uow.AssertExpectations(t)
}

func TestWithUnitOfWork_BeginError(t *testing.T) {
	ctx := context.Background()
	uow := new(mockUnitOfWork)
	boom := errors.New("pool exhausted")
	uow.On("Begin", ctx).Return(nil, boom)

	called := false
	err := WithUnitOfWork(ctx, uow, func(context.Context) error { called = true; return nil })
	assert.ErrorIs(t, err, boom)
	assert.False(t, called)
}

func TestWithUnitOfWorkResult(t *testing.T) {
	t.Run("returns the value on commit", func(t *testing.T) {
		uow, ctx, txCtx := newMockUnitOfWork()
		uow.On("Commit", txCtx).Return(nil)

		got, err := WithUnitOfWorkResult(ctx, uow, func(context.Context) (int, error) { return 42, nil })
		require.NoError(t, err)
		assert.Equal(t, 42, got)
	})

	t.Run("returns the zero value when commit fails", func(t *testing.T) {
		uow, ctx, txCtx := newMockUnitOfWork()
		conflict := errors.New("serialization failure")
		uow.On("Commit", txCtx).Return(conflict)
		uow.On("Rollback", txCtx).Return(nil)

		got, err := WithUnitOfWorkResult(ctx, uow, func(context.Context) (int, error) { return 42, nil })
		assert.ErrorIs(t, err, conflict)
		assert.Zero(t, got)
		uow.AssertExpectations(t)
	})
}

// journalUnitOfWork joins whatever context it is given and records the
// order of commits, rollbacks and hooks.
type journalUnitOfWork struct {
	journal []string
}

func (u *journalUnitOfWork) Begin(ctx context.Context) (context.Context, error) { return ctx, nil }

func (u *journalUnitOfWork) Commit(context.Context) error {
	u.journal = append(u.journal, "commit")
	return nil
}

func (u *journalUnitOfWork) Rollback(context.Context) error {
	u.journal = append(u.journal, "rollback")
	return nil
}

func TestAfterCommit(t *testing.T) {
	t.Run("runs at once outside a unit", func(t *testing.T) {
		ran := false
		AfterCommit(context.Background(), func() { ran = true })
		assert.True(t, ran)
	})

	t.Run("runs after the commit", func(t *testing.T) {
		uow := &journalUnitOfWork{}
		err := WithUnitOfWork(context.Background(), uow, func(ctx context.Context) error {
			AfterCommit(ctx, func() { uow.journal = append(uow.journal, "hook") })
			assert.Empty(t, uow.journal)
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"commit", "hook"}, uow.journal)
	})

	t.Run("is dropped on rollback", func(t *testing.T) {
		uow := &journalUnitOfWork{}
		rejected := errors.New("not due")
		err := WithUnitOfWork(context.Background(), uow, func(ctx context.Context) error {
			AfterCommit(ctx, func() { uow.journal = append(uow.journal, "hook") })
			return rejected
		})
		assert.ErrorIs(t, err, rejected)
		assert.Equal(t, []string{"rollback"}, uow.journal)
	})

	t.Run("nested unit defers to the outermost commit", func(t *testing.T) {
		uow := &journalUnitOfWork{}
		err := WithUnitOfWork(context.Background(), uow, func(ctx context.Context) error {
			require.NoError(t, WithUnitOfWork(ctx, uow, func(inner context.Context) error {
				AfterCommit(inner, func() { uow.journal = append(uow.journal, "hook") })
				return nil
			}))
			assert.Equal(t, []string{"commit"}, uow.journal)
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"commit", "commit", "hook"}, uow.journal)
	})

	t.Run("nested hook is dropped when the outer unit rolls back", func(t *testing.T) {
		uow := &journalUnitOfWork{}
		rejected := errors.New("subscription invalid")
		err := WithUnitOfWork(context.Background(), uow, func(ctx context.Context) error {
			require.NoError(t, WithUnitOfWork(ctx, uow, func(inner context.Context) error {
				AfterCommit(inner, func() { uow.journal = append(uow.journal, "hook") })
				return nil
			}))
			return rejected
		})
		assert.ErrorIs(t, err, rejected)
		assert.Equal(t, []string{"commit", "rollback"}, uow.journal)
	})
}
