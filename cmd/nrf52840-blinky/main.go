//go:build nrf52840

// Firmware for the nRF52840 DK: bring up the HFXO, start SysTick at 1 kHz and
// blink LED1 from a busy-wait delay.
package main

import (
	"context"
	"machine"
	"time"

	"devicecore-go/clock"
	"devicecore-go/services/blinky"
	"devicecore-go/startup"
	"devicecore-go/tick"
	"devicecore-go/x/logx"
)

type core struct {
	clock *clock.State
	ticks *tick.Engine
}

func (c *core) StartTick(ctx context.Context) error {
	if err := clock.BringUp(ctx, clock.HFXO{}, clock.HFXO{}, c.clock); err != nil {
		return err
	}
	st := tick.SysTick{}
	st.Attach(c.ticks.Handler)
	return c.ticks.Configure(st, c.clock.Hz())
}

func (c *core) Delay(d time.Duration) { c.ticks.Delay(c.ticks.Ticks(d)) }

func main() {
	ctx := context.Background()
	m := startup.NewMachine(nil)
	m.Run()

	c := &core{clock: clock.NewState(clock.NominalHz), ticks: tick.NewEngine()}

	led := machine.LED
	led.Configure(machine.PinConfig{Mode: machine.PinOutput})
	app := blinky.New(blinky.Config{Name: "led1", Pin: led, ActiveLow: true}, nil)

	err := app.Run(ctx, c)
	logx.Errorf("blinky: %v", err)
	m.Halt(ctx, err)
}
