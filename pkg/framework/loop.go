package framework

import (
	"context"
	"log"
	"time"

	"github.com/golang/glog"
)

// DefaultInterval is the loop cadence when none is configured. It
// matches the keypad scan interval, the fastest periodic duty.
const DefaultInterval = 5 * time.Millisecond

// Loop is the cyclic executive driving the console: a fixed-cadence
// iteration over the sense, control, actuate and maintain phases.
type Loop struct {
	Interval time.Duration

	tasks   [PhaseCount][]Task
	runners []Runnable

	wakeUpCh chan struct{}
}

// LoopAdder provides specific logic to add components to the loop.
type LoopAdder interface {
	AddToLoop(*Loop)
}

type loopIteration struct {
	loop  *Loop
	ctx   context.Context
	time  time.Time
	phase Phase
}

// NewLoop creates a Loop.
func NewLoop() *Loop {
	return &Loop{Interval: DefaultInterval}
}

// Add adds LoopAdders.
func (l *Loop) Add(adders ...LoopAdder) *Loop {
	for _, adder := range adders {
		adder.AddToLoop(l)
	}
	return l
}

// At registers tasks in the given phase. Tasks that also implement
// Runnable are started alongside the loop.
func (l *Loop) At(phase Phase, tasks ...Task) *Loop {
	l.tasks[phase] = append(l.tasks[phase], tasks...)
	for _, task := range tasks {
		if runner, ok := task.(Runnable); ok {
			l.runners = append(l.runners, runner)
		}
	}
	return l
}

// AddRunnable adds Runnable implementations.
func (l *Loop) AddRunnable(runnables ...Runnable) *Loop {
	l.runners = append(l.runners, runnables...)
	return l
}

// Run implements Runnable.
func (l *Loop) Run(ctx context.Context) error {
	if l.wakeUpCh == nil {
		l.wakeUpCh = make(chan struct{}, 1)
	}

	runner := NewRunnerWith(ctx)
	runner.Go(l.runners...)
	defer runner.Wait()

	interval := l.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			l.runIteration(ctx)
		case <-l.wakeUpCh:
			l.runIteration(ctx)
		}
	}
}

// RunOrFail is intended to be used in main to simply run the loop.
func (l *Loop) RunOrFail() {
	if err := l.Run(context.TODO()); err != nil {
		log.Fatalln(err)
	}
}

// Wake schedules an immediate iteration.
func (l *Loop) Wake() {
	select {
	case l.wakeUpCh <- struct{}{}:
	default:
	}
}

func (l *Loop) runIteration(ctx context.Context) {
	iter := &loopIteration{loop: l, ctx: ctx, time: time.Now()}
	for phase := Phase(0); phase < PhaseCount; phase++ {
		iter.phase = phase
		for _, task := range l.tasks[phase] {
			if err := task.Tick(iter); err != nil {
				glog.Errorf("%v task error: %v", phase, err)
			}
		}
	}
}

func (t *loopIteration) Context() context.Context {
	return t.ctx
}

func (t *loopIteration) Time() time.Time {
	return t.time
}

func (t *loopIteration) Phase() Phase {
	return t.phase
}

func (t *loopIteration) Wake() {
	t.loop.Wake()
}
