package clock

import "sync/atomic"

// SimOscillator is a host model of an oscillator. After Start it reports
// running once it has been polled StartupPolls times. A negative StartupPolls
// never starts.
type SimOscillator struct {
	StartupPolls int

	started atomic.Bool
	event   atomic.Bool
	polls   atomic.Int64
	starts  atomic.Int32
}

func (o *SimOscillator) Start() {
	o.starts.Add(1)
	o.started.Store(true)
}

func (o *SimOscillator) Started() bool {
	if !o.started.Load() || o.StartupPolls < 0 {
		return false
	}
	if o.event.Load() {
		return true
	}
	if o.polls.Add(1) > int64(o.StartupPolls) {
		o.event.Store(true)
		return true
	}
	return false
}

func (o *SimOscillator) ClearStarted() {
	o.event.Store(false)
}

// Polls is how many times Started was consulted before the event fired.
func (o *SimOscillator) Polls() int { return int(o.polls.Load()) }

// Starts counts start task triggers.
func (o *SimOscillator) Starts() int { return int(o.starts.Load()) }

// Pending reports whether the started event is still set.
func (o *SimOscillator) Pending() bool { return o.event.Load() }
