package framework

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type runFunc func(context.Context) error

func (f runFunc) Run(ctx context.Context) error { return f(ctx) }

func TestRunnerWaitCollectsErrors(t *testing.T) {
	errA := errors.New("link down")
	errB := errors.New("broker unreachable")
	err := NewRunner().Go(
		runFunc(func(context.Context) error { return errA }),
		runFunc(func(context.Context) error { return nil }),
		runFunc(func(context.Context) error { return errB }),
	).Wait()
	require.Error(t, err)
	require.Contains(t, err.Error(), "runners failed:")
	require.Contains(t, err.Error(), errA.Error())
	require.Contains(t, err.Error(), errB.Error())
}

func TestRunnerWaitCleanStop(t *testing.T) {
	err := NewRunner().Go(
		runFunc(func(context.Context) error { return nil }),
		runFunc(func(context.Context) error { return context.Canceled }),
	).Wait()
	require.NoError(t, err)
}
