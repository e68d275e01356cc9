package tick

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"devicecore-go/errcode"
	"devicecore-go/x/timex"
)

func checkReload(op string, reload, max uint32) error {
	if reload == 0 || reload > max {
		return errcode.New(errcode.ReloadOverflow, op, "reload out of range")
	}
	return nil
}

// SimTimer models SysTick on the host: once configured it calls irq every
// reload cycles of the current core clock, on its own goroutine, until ctx
// is done. A handler that never returns stops further interrupts.
type SimTimer struct {
	ctx   context.Context
	clock func() uint32
	irq   func(context.Context)

	mu     sync.Mutex
	cancel context.CancelFunc
	fired  atomic.Uint64
}

func NewSimTimer(ctx context.Context, clockHz func() uint32, irq func(context.Context)) *SimTimer {
	return &SimTimer{ctx: ctx, clock: clockHz, irq: irq}
}

// Configure (re)starts the timer with the given cycles per tick.
func (t *SimTimer) Configure(reload uint32) error {
	if err := checkReload("tick.SimTimer.Configure", reload, MaxReload); err != nil {
		return err
	}
	period := timex.CyclesToDuration(reload, t.clock())
	if period <= 0 {
		period = time.Nanosecond
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		t.cancel()
	}
	ctx, cancel := context.WithCancel(t.ctx)
	t.cancel = cancel
	go t.run(ctx, period)
	return nil
}

func (t *SimTimer) run(ctx context.Context, period time.Duration) {
	tk := time.NewTicker(period)
	defer tk.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tk.C:
			t.fired.Add(1)
			t.irq(ctx)
		}
	}
}

// Fired counts interrupts raised so far.
func (t *SimTimer) Fired() uint64 { return t.fired.Load() }

// Stop disables the timer.
func (t *SimTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
}

// ManualTimer raises interrupts only when told to, for deterministic tests.
type ManualTimer struct {
	irq    func(context.Context)
	reload atomic.Uint32
}

func NewManualTimer(irq func(context.Context)) *ManualTimer {
	return &ManualTimer{irq: irq}
}

func (t *ManualTimer) Configure(reload uint32) error {
	if err := checkReload("tick.ManualTimer.Configure", reload, MaxReload); err != nil {
		return err
	}
	t.reload.Store(reload)
	return nil
}

func (t *ManualTimer) Reload() uint32 { return t.reload.Load() }

// Fire raises n interrupts. An unconfigured timer raises none.
func (t *ManualTimer) Fire(ctx context.Context, n int) {
	if t.reload.Load() == 0 {
		return
	}
	for i := 0; i < n; i++ {
		t.irq(ctx)
	}
}
