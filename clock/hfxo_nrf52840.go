//go:build nrf52840

package clock

import "device/nrf"

// HFXO is the 64 MHz crystal oscillator of the nRF52840 CLOCK peripheral.
type HFXO struct{}

func (HFXO) Start()        { nrf.CLOCK.TASKS_HFCLKSTART.Set(1) }
func (HFXO) Started() bool { return nrf.CLOCK.EVENTS_HFCLKSTARTED.Get() != 0 }
func (HFXO) ClearStarted() { nrf.CLOCK.EVENTS_HFCLKSTARTED.Set(0) }

// Hz is fixed: once HFXO runs the core is clocked at 64 MHz.
func (HFXO) Hz() uint32 { return NominalHz }
