// Package clock brings up the high-frequency clock and holds the core clock
// frequency the rest of the firmware reads.
package clock

import (
	"context"
	"sync/atomic"
)

// NominalHz is the core clock before bring-up, and the HFXO rate on nRF52.
const NominalHz uint32 = 64_000_000

// State is the process-wide core clock frequency (SystemCoreClock).
// It is written by BringUp and Update and read by tick configuration.
type State struct {
	hz atomic.Uint32
}

// NewState returns a State holding hz, or NominalHz when hz is 0.
func NewState(hz uint32) *State {
	if hz == 0 {
		hz = NominalHz
	}
	s := &State{}
	s.hz.Store(hz)
	return s
}

func (s *State) Hz() uint32 { return s.hz.Load() }

// Source reports the frequency of the clock currently driving the core.
type Source interface {
	Hz() uint32
}

// Fixed is a source with a known constant rate, such as a crystal.
type Fixed uint32

func (f Fixed) Hz() uint32 { return uint32(f) }

// Update recomputes the core clock from src. It must run again whenever the
// clock tree changes, before anything reads Hz.
func (s *State) Update(src Source) {
	s.hz.Store(src.Hz())
}

// Oscillator is a clock source started by a task and reporting readiness
// through an event flag.
type Oscillator interface {
	Start()        // trigger the start task
	Started() bool // event flag: oscillator running
	ClearStarted() // clear the event flag
}

// BringUp starts osc, spins until it reports running, clears the event and
// publishes src into s. There is no timeout: an oscillator that never starts
// hangs here. The only way out is power removal, reported as ctx.Err().
func BringUp(ctx context.Context, osc Oscillator, src Source, s *State) error {
	osc.Start()
	for !osc.Started() {
		if err := ctx.Err(); err != nil {
			return err
		}
		relax()
	}
	osc.ClearStarted()
	s.Update(src)
	return nil
}
