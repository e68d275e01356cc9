// Package tick is the 1 kHz tick engine: a hardware countdown timer whose
// interrupt bumps a shared counter, and a busy-wait Delay built on it.
package tick

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"devicecore-go/errcode"
	"devicecore-go/x/mathx"
)

// RateHz is the default tick rate: one tick per millisecond.
const RateHz uint32 = 1000

// MaxReload is the largest cycles-per-tick a 24-bit SysTick accepts; the
// reload register holds the count minus one.
const MaxReload uint32 = 1 << 24

// Reload returns the cycles per tick for clockHz at rateHz, truncated toward
// zero. The truncation remainder is accepted rate error.
func Reload(clockHz, rateHz uint32) (uint32, error) {
	return reload(clockHz, rateHz, MaxReload)
}

func reload(clockHz, rateHz, max uint32) (uint32, error) {
	const op = "tick.Reload"
	if rateHz == 0 {
		return 0, errcode.New(errcode.InvalidParams, op, "zero tick rate")
	}
	r := mathx.TruncDiv(clockHz, rateHz)
	if r == 0 || r > max {
		return 0, errcode.New(errcode.ReloadOverflow, op,
			fmt.Sprintf("%d Hz / %d Hz = %d cycles, want 1..%d", clockHz, rateHz, r, max))
	}
	return r, nil
}

// Counter is the tick count. The timer interrupt is its only writer.
type Counter struct {
	n atomic.Uint32
}

func (c *Counter) Inc()         { c.n.Add(1) }
func (c *Counter) Load() uint32 { return c.n.Load() }

// Timer is a periodic interrupt source programmed with cycles per tick.
type Timer interface {
	Configure(reload uint32) error
}

type Option func(*Engine)

// WithRate sets the tick rate.
func WithRate(hz uint32) Option { return func(e *Engine) { e.rate = hz } }

// WithMaxReload sets the widest reload the timer accepts.
func WithMaxReload(n uint32) Option { return func(e *Engine) { e.max = n } }

// WithSpin sets what Delay runs between counter reads.
func WithSpin(fn func()) Option { return func(e *Engine) { e.spin = fn } }

// WithStart presets the counter, e.g. to exercise wraparound.
func WithStart(n uint32) Option { return func(e *Engine) { e.count.n.Store(n) } }

type Engine struct {
	count  Counter
	rate   uint32
	max    uint32
	spin   func()
	reload atomic.Uint32
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{rate: RateHz, max: MaxReload, spin: Nop}
	for _, o := range opts {
		o(e)
	}
	if e.spin == nil {
		e.spin = Nop
	}
	return e
}

// SetSpin replaces the idle hook. Call it before the first Delay.
func (e *Engine) SetSpin(fn func()) {
	if fn == nil {
		fn = Nop
	}
	e.spin = fn
}

func (e *Engine) RateHz() uint32 { return e.rate }

// Reload is the cycles per tick last programmed, 0 before Configure.
func (e *Engine) Reload() uint32 { return e.reload.Load() }

// Configure programs t to interrupt rate times per second of a clockHz core.
func (e *Engine) Configure(t Timer, clockHz uint32) error {
	r, err := reload(clockHz, e.rate, e.max)
	if err != nil {
		return err
	}
	if err := t.Configure(r); err != nil {
		return err
	}
	e.reload.Store(r)
	return nil
}

// Handler is the timer interrupt: one increment, nothing else.
func (e *Engine) Handler(context.Context) { e.count.Inc() }

// Now returns the tick count.
func (e *Engine) Now() uint32 { return e.count.Load() }

// Delay busy-waits until ticks ticks have elapsed, wraparound-safe. It never
// returns if the timer is not running.
func (e *Engine) Delay(ticks uint32) {
	start := e.count.Load()
	for !mathx.Reached(e.count.Load(), start, ticks) {
		e.spin()
	}
}

// Ticks converts d to whole ticks at the engine rate, rounding up.
func (e *Engine) Ticks(d time.Duration) uint32 {
	if d <= 0 || e.rate == 0 {
		return 0
	}
	// Whole seconds and the remainder separately, so d*rate cannot overflow.
	rate := uint64(e.rate)
	sec, frac := uint64(d/time.Second), uint64(d%time.Second)
	if sec > math.MaxUint32/rate {
		return math.MaxUint32
	}
	n := sec*rate + (frac*rate+uint64(time.Second)-1)/uint64(time.Second)
	if n > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(n)
}
