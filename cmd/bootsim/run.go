package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"devicecore-go/bus"
	"devicecore-go/clock"
	"devicecore-go/services/blinky"
	"devicecore-go/services/config"
	"devicecore-go/startup"
	"devicecore-go/system"
	"devicecore-go/targets"
	"devicecore-go/x/logx"
	"devicecore-go/x/timex"
)

type runOptions struct {
	board        string
	duration     time.Duration
	clockInReset bool
	stuckHFXO    bool
	fault        string
	faultAfter   time.Duration
}

func newRunCmd() *cobra.Command {
	var opts runOptions
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Power on a board and run blinky until the duration expires",
		Long: "Build the board image, apply power and run the blinky application. " +
			"The command fails if the core halts before power is removed.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBoard(cmd.Context(), opts)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.board, "board", "b", "nrf52840dk", "board configuration to boot")
	f.DurationVarP(&opts.duration, "duration", "d", 3*time.Second, "time until power is removed")
	f.BoolVar(&opts.clockInReset, "clock-in-reset", false, "start the HFXO in the reset handler instead of main")
	f.BoolVar(&opts.stuckHFXO, "stuck-hfxo", false, "model a crystal that never starts")
	f.StringVar(&opts.fault, "fault", "", "exception to raise while running, e.g. HardFault or IRQ6")
	f.DurationVar(&opts.faultAfter, "fault-after", time.Second, "delay before --fault is raised")
	return cmd
}

func runBoard(ctx context.Context, opts runOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	board, err := config.Lookup(opts.board)
	if err != nil {
		return err
	}
	tg, err := targets.Find(board.Target)
	if err != nil {
		return err
	}
	var fault startup.Exception
	if opts.fault != "" {
		if fault, err = startup.ParseException(opts.fault); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, opts.duration)
	defer cancel()
	ctx = context.WithValue(ctx, config.CtxBoardKey, board.Name)

	b := bus.NewBus(32)
	go watch(ctx, b.NewConnection("bootsim"))
	config.NewConfigService().Start(ctx, b.NewConnection("config"))

	polls := board.HFXOStartupPolls
	if opts.stuckHFXO {
		polls = -1
	}
	led := blinky.New(blinky.Config{
		Name:      fmt.Sprintf("p0.%02d", board.LED.Pin),
		Pin:       &blinky.SimPin{},
		ActiveLow: board.LED.ActiveLow,
		Period:    time.Duration(board.Blink.PeriodMs) * time.Millisecond,
	}, b.NewConnection("blinky"))

	sys, err := system.New(system.Config{
		Target:       tg,
		Bus:          b,
		Data:         []uint32{uint32(board.LED.Pin), uint32(board.Blink.PeriodMs)},
		BSSWords:     16,
		ClockInReset: board.ClockInReset || opts.clockInReset,
		Oscillator:   &clock.SimOscillator{StartupPolls: polls},
		Main: func(ctx context.Context, s *system.System) error {
			return led.Run(ctx, s)
		},
	})
	if err != nil {
		return err
	}

	if opts.fault != "" {
		go func() {
			select {
			case <-time.After(opts.faultAfter):
				logx.Warnf("raising %s", fault)
				_ = sys.Raise(ctx, fault)
			case <-ctx.Done():
			}
		}()
	}

	start := timex.NowMs()
	err = sys.PowerOn(ctx)
	logx.Infof("%s: up %d ms, %d ticks, state %s", board.Name, timex.NowMs()-start, sys.Ticks.Now(), sys.Machine.State())
	return err
}

// watch logs machine transitions and LED edges until ctx is done.
func watch(ctx context.Context, conn *bus.Connection) {
	defer conn.Disconnect()
	state := conn.Subscribe(startup.TopicState)
	leds := conn.Subscribe(blinky.TopicLED(bus.SingleLevel))
	for {
		select {
		case <-ctx.Done():
			return
		case m := <-state.Channel():
			if st, ok := m.Payload.(startup.Status); ok {
				logx.Infof("core: %s", st.State)
			}
		case m := <-leds.Channel():
			logx.Debugf("%s = %v", m.Topic, m.Payload)
		}
	}
}
