package blinky

import "sync/atomic"

// SimPin is a host GPIO output that remembers its level and counts writes.
type SimPin struct {
	high   atomic.Bool
	writes atomic.Int32
}

func (p *SimPin) Set(high bool) {
	p.high.Store(high)
	p.writes.Add(1)
}

func (p *SimPin) High() bool  { return p.high.Load() }
func (p *SimPin) Writes() int { return int(p.writes.Load()) }
