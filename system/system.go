// Package system assembles a bootable image on the host: the built flash
// image, its vector table, the life-cycle machine, the core clock and the
// tick engine. PowerOn drives it the way the core does out of reset.
package system

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"devicecore-go/bus"
	"devicecore-go/clock"
	"devicecore-go/errcode"
	"devicecore-go/image"
	"devicecore-go/startup"
	"devicecore-go/targets"
	"devicecore-go/tick"
	"devicecore-go/x/logx"
)

// HandlerStride is the size given to each synthetic handler in the rendered
// image. The shared default handler sits first in .text.
const HandlerStride uint32 = 0x20

// TimerFactory creates the SysTick model for one power cycle. irq must be
// called from interrupt context on every tick.
type TimerFactory func(ctx context.Context, clockHz func() uint32, irq func(context.Context)) tick.Timer

// SimTimers is the default factory: a free-running host timer.
func SimTimers(ctx context.Context, clockHz func() uint32, irq func(context.Context)) tick.Timer {
	return tick.NewSimTimer(ctx, clockHz, irq)
}

type Config struct {
	Target targets.Target

	// Bus receives machine state; a private bus is created when nil.
	Bus *bus.Bus

	// Initial .data contents and .bss size of the image.
	Data     []uint32
	BSSWords int

	// Main is the application entry point.
	Main func(ctx context.Context, s *System) error

	// Overrides claim exception slots. SysTick is claimed by the tick
	// engine unless overridden here.
	Overrides map[startup.Exception]startup.Handler

	// ClockInReset brings the clock up inside the reset handler, before
	// main. Otherwise StartTick does it.
	ClockInReset bool

	// Oscillator is the HFXO model; defaults to one that starts after a
	// few polls.
	Oscillator clock.Oscillator

	Timers TimerFactory
}

type System struct {
	Target  targets.Target
	Bus     *bus.Bus
	Machine *startup.Machine
	Vectors *startup.Table
	Image   *image.Image
	Clock   *clock.State
	Ticks   *tick.Engine

	cfg     Config
	osc     clock.Oscillator
	clockMu sync.Mutex
	clockUp bool
	powered atomic.Bool
	timer   tick.Timer
}

// New validates cfg and builds the image. It does not apply power.
func New(cfg Config) (*System, error) {
	const op = "system.New"
	t := cfg.Target
	if t.Name == "" {
		return nil, errcode.New(errcode.UnknownTarget, op, "no target")
	}
	if cfg.Bus == nil {
		cfg.Bus = bus.NewBus(16)
	}
	if cfg.Oscillator == nil {
		cfg.Oscillator = &clock.SimOscillator{StartupPolls: 64}
	}
	if cfg.Timers == nil {
		cfg.Timers = SimTimers
	}
	rate := t.SysTick.RateHz
	if rate == 0 {
		rate = tick.RateHz
	}

	s := &System{
		Target:  t,
		Bus:     cfg.Bus,
		Machine: startup.NewMachine(cfg.Bus.NewConnection("core")),
		Clock:   clock.NewState(t.Clock.NominalHz),
		Ticks:   tick.NewEngine(tick.WithRate(rate), tick.WithMaxReload(t.SysTick.MaxReload())),
		cfg:     cfg,
		osc:     cfg.Oscillator,
	}

	overrides := map[startup.Exception]startup.Handler{startup.SysTick: s.Ticks.Handler}
	for e, h := range cfg.Overrides {
		overrides[e] = h
	}
	vt, err := startup.NewTable(startup.StackPointer(t.StackTop()), s.reset, s.Machine.DefaultHandler, t.IRQs, overrides)
	if err != nil {
		return nil, errcode.Wrap(errcode.BadVectorTable, op, err)
	}
	s.Vectors = vt

	words := vt.Words(s.HandlerAddr, s.DefaultAddr())
	img, err := image.Build(image.Spec{
		Target:   t,
		Vectors:  words,
		TextSize: HandlerStride * uint32(vt.Len()+1),
		Data:     cfg.Data,
		BSSWords: cfg.BSSWords,
	})
	if err != nil {
		return nil, err
	}
	s.Image = img
	return s, nil
}

func (s *System) textBase() uint32 {
	return s.Target.Flash.Origin + uint32(s.Vectors.Len())*image.WordSize
}

// DefaultAddr is the address of the shared default handler in the image.
func (s *System) DefaultAddr() uint32 { return s.textBase() }

// HandlerAddr is the address of the handler claiming slot e.
func (s *System) HandlerAddr(e startup.Exception) uint32 {
	return s.textBase() + HandlerStride*uint32(e+1)
}

// reset is slot 1. It is resolved at dispatch time since the image is built
// after the table.
func (s *System) reset(ctx context.Context) {
	rc := startup.ResetConfig{
		Machine: s.Machine,
		Memory:  s.Image.Memory(),
		Layout:  s.Image.Layout,
		Main:    s.main,
	}
	if s.cfg.ClockInReset {
		rc.ClockInit = s.bringUp
	}
	startup.ResetHandler(rc)(ctx)
}

func (s *System) main(ctx context.Context) error {
	if s.cfg.Main == nil {
		return nil
	}
	return s.cfg.Main(ctx, s)
}

// PowerOn applies power: it loads SP from word 0 of the image, runs the reset
// handler on a fresh goroutine and blocks until ctx is done. It returns the
// halt reason, or nil if power was removed while running. A System powers on
// once.
func (s *System) PowerOn(ctx context.Context) error {
	if !s.powered.CompareAndSwap(false, true) {
		return errcode.New(errcode.Unsupported, "system.PowerOn", "already powered")
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.Ticks.SetSpin(func() {
		s.Machine.Yield(ctx)
		tick.Nop()
	})
	s.timer = s.cfg.Timers(ctx, s.Clock.Hz, func(ctx context.Context) {
		s.Vectors.Dispatch(ctx, startup.SysTick)
	})

	sp := startup.StackPointer(s.Image.Vector(0))
	s.Machine.LoadSP(sp)
	logx.Infof("%s: power on, sp=%#08x reset=%#08x", s.Target.Name, uint32(sp), s.Image.Vector(1))

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Vectors.Dispatch(ctx, startup.Reset)
	}()

	select {
	case <-s.Machine.Halted():
		s.stopTimer()
		logx.Errorf("%s: halted: %v", s.Target.Name, s.Machine.Err())
		<-ctx.Done()
	case <-ctx.Done():
	}
	cancel()
	<-done
	s.stopTimer()
	logx.Infof("%s: power off", s.Target.Name)
	return s.Machine.Err()
}

func (s *System) stopTimer() {
	if st, ok := s.timer.(interface{ Stop() }); ok {
		st.Stop()
	}
}

// bringUp starts the HFXO once per power cycle and updates the clock state.
func (s *System) bringUp(ctx context.Context) error {
	s.clockMu.Lock()
	defer s.clockMu.Unlock()
	if s.clockUp {
		return nil
	}
	if err := clock.BringUp(ctx, s.osc, clock.Fixed(s.Target.Clock.HFXOHz), s.Clock); err != nil {
		return err
	}
	s.clockUp = true
	logx.Infof("%s: hfxo running, core clock %d Hz", s.Target.Name, s.Clock.Hz())
	return nil
}

// StartTick brings the clock up if reset did not, then programs SysTick for
// the engine rate. Call it from main before anything that delays.
func (s *System) StartTick(ctx context.Context) error {
	if s.timer == nil {
		return errcode.New(errcode.Unsupported, "system.StartTick", "not powered")
	}
	if err := s.bringUp(ctx); err != nil {
		return err
	}
	if err := s.Ticks.Configure(s.timer, s.Clock.Hz()); err != nil {
		return err
	}
	logx.Infof("%s: systick reload %d at %d Hz", s.Target.Name, s.Ticks.Reload(), s.Ticks.RateHz())
	return nil
}

// Delay busy-waits for d, rounded up to whole ticks.
func (s *System) Delay(d time.Duration) { s.Ticks.Delay(s.Ticks.Ticks(d)) }

// Raise takes exception e through the vector table in the caller's
// goroutine, as if the hardware had pended it.
func (s *System) Raise(ctx context.Context, e startup.Exception) error {
	if int(e) <= int(startup.Reset) || int(e) >= s.Vectors.Len() {
		return errcode.New(errcode.InvalidParams, "system.Raise", fmt.Sprintf("cannot raise %s", e))
	}
	s.Vectors.Dispatch(ctx, e)
	return nil
}
