//go:build nrf52840

// On-target self test of the core: bus delivery, HFXO bring-up, SysTick
// reload and Delay accuracy against the RTC-backed runtime clock. Results go
// to the console; the LED stays lit if everything passed.
package main

import (
	"context"
	"machine"
	"time"

	"devicecore-go/bus"
	"devicecore-go/clock"
	"devicecore-go/errcode"
	"devicecore-go/startup"
	"devicecore-go/tick"
	"devicecore-go/x/logx"
)

var (
	clk   = clock.NewState(clock.NominalHz)
	ticks = tick.NewEngine()
)

func expectPayload(sub *bus.Subscription, want string, timeout time.Duration) (bool, string) {
	select {
	case got := <-sub.Channel():
		if s, ok := got.Payload.(string); !ok || s != want {
			return false, "unexpected payload"
		}
		return true, ""
	case <-time.After(timeout):
		return false, "timeout"
	}
}

func expectNone(sub *bus.Subscription, timeout time.Duration) (bool, string) {
	select {
	case <-sub.Channel():
		return false, "unexpected message"
	case <-time.After(timeout):
		return true, ""
	}
}

// --- individual checks --------------------------------------------------------

func checkBusWildcards() (bool, string) {
	b := bus.NewBus(8)
	c := b.NewConnection("selftest")
	plus := c.Subscribe(bus.T("led", "+"))
	hash := c.Subscribe(bus.T("core", "#"))

	c.Publish(c.NewMessage(bus.T("led", "led1"), "on", false))
	if ok, why := expectPayload(plus, "on", 50*time.Millisecond); !ok {
		return false, "led/+: " + why
	}
	if ok, why := expectNone(hash, 20*time.Millisecond); !ok {
		return false, "core/#: " + why
	}
	c.Publish(c.NewMessage(bus.T("core", "state", "x"), "deep", false))
	return expectPayload(hash, "deep", 50*time.Millisecond)
}

func checkBusRetained() (bool, string) {
	b := bus.NewBus(4)
	c := b.NewConnection("selftest")
	c.Publish(c.NewMessage(bus.T("config", "blink"), "persist", true))
	sub := c.Subscribe(bus.T("config", "blink"))
	return expectPayload(sub, "persist", 50*time.Millisecond)
}

func checkHFXO() (bool, string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := clock.BringUp(ctx, clock.HFXO{}, clock.HFXO{}, clk); err != nil {
		return false, "hfxo: " + err.Error()
	}
	if clk.Hz() != clock.NominalHz {
		return false, "core clock not updated"
	}
	return true, ""
}

func checkSysTick() (bool, string) {
	st := tick.SysTick{}
	st.Attach(ticks.Handler)
	if err := ticks.Configure(st, clk.Hz()); err != nil {
		return false, string(errcode.Of(err))
	}
	if ticks.Reload() != 64000 {
		return false, "reload is not 64000"
	}
	return true, ""
}

func checkDelay() (bool, string) {
	start := time.Now()
	ticks.Delay(100)
	got := time.Since(start)
	if got < 99*time.Millisecond || got > 110*time.Millisecond {
		return false, "Delay(100) took " + got.String()
	}
	return true, ""
}

func main() {
	led := machine.LED
	led.Configure(machine.PinConfig{Mode: machine.PinOutput})
	led.High() // off on the DK

	// Let USB CDC enumerate before the first line.
	time.Sleep(2 * time.Second)
	logx.Infof("selftest: start")

	checks := []struct {
		name string
		fn   func() (bool, string)
	}{
		{"bus wildcards", checkBusWildcards},
		{"bus retained", checkBusRetained},
		{"hfxo", checkHFXO},
		{"systick", checkSysTick},
		{"delay", checkDelay},
	}
	failed := 0
	for _, c := range checks {
		if ok, why := c.fn(); ok {
			logx.Infof("selftest: PASS %s", c.name)
		} else {
			failed++
			logx.Errorf("selftest: FAIL %s: %s", c.name, why)
		}
	}
	if failed == 0 {
		led.Low()
		logx.Infof("selftest: all %d passed", len(checks))
	}

	m := startup.NewMachine(nil)
	m.Run()
	m.Halt(context.Background(), errcode.MainReturned)
}
