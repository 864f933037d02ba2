package framework

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoopRunsPhasesInOrder(t *testing.T) {
	loop := NewLoop()
	loop.Interval = time.Millisecond

	var lock sync.Mutex
	var order []Phase
	var once sync.Once
	done := make(chan struct{})
	for _, ph := range []Phase{PhaseSense, PhaseControl, PhaseActuate, PhaseMaintain} {
		ph := ph
		loop.At(ph, TickFunc(func(tc TickContext) error {
			lock.Lock()
			order = append(order, tc.Phase())
			lock.Unlock()
			if ph == PhaseMaintain {
				once.Do(func() { close(done) })
			}
			return nil
		}))
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- loop.Run(ctx) }()
	<-done
	cancel()
	require.Equal(t, context.Canceled, <-errCh)

	lock.Lock()
	defer lock.Unlock()
	require.True(t, len(order) >= 4)
	require.Equal(t, []Phase{PhaseSense, PhaseControl, PhaseActuate, PhaseMaintain}, order[:4])
}

func TestLoopSurvivesTaskErrors(t *testing.T) {
	loop := NewLoop()
	loop.Interval = time.Millisecond

	var lock sync.Mutex
	ticks := 0
	done := make(chan struct{})
	var once sync.Once
	loop.At(PhaseControl, TickFunc(func(tc TickContext) error {
		lock.Lock()
		ticks++
		n := ticks
		lock.Unlock()
		if n >= 3 {
			once.Do(func() { close(done) })
		}
		return errors.New("transient")
	}))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- loop.Run(ctx) }()
	<-done
	cancel()
	require.Equal(t, context.Canceled, <-errCh)
}

func TestLoopWake(t *testing.T) {
	loop := NewLoop()
	loop.Interval = time.Minute // only Wake can drive iterations

	done := make(chan struct{})
	var once sync.Once
	loop.At(PhaseSense, TickFunc(func(tc TickContext) error {
		once.Do(func() { close(done) })
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- loop.Run(ctx) }()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			default:
				loop.Wake()
				time.Sleep(time.Millisecond)
			}
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("wake never triggered an iteration")
	}
	cancel()
	require.Equal(t, context.Canceled, <-errCh)
}

type testAdder struct {
	added *bool
}

func (a testAdder) AddToLoop(l *Loop) {
	*a.added = true
	l.At(PhaseMaintain, TickFunc(func(TickContext) error { return nil }))
}

func TestLoopAdd(t *testing.T) {
	var added bool
	loop := NewLoop().Add(testAdder{added: &added})
	require.True(t, added)
	require.Len(t, loop.tasks[PhaseMaintain], 1)
}
