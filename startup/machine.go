package startup

import (
	"context"
	"sync"

	"devicecore-go/bus"
	"devicecore-go/errcode"
)

// State is the life-cycle of the running image.
type State uint8

const (
	Boot    State = iota // reset sequence in progress
	Running              // application entry point running
	Halted               // terminal: fault, unexpected exception or main returned
)

func (s State) String() string {
	switch s {
	case Boot:
		return "boot"
	case Running:
		return "running"
	case Halted:
		return "halted"
	}
	return "unknown"
}

// TopicState carries the retained Status of the machine.
var TopicState = bus.T("core", "state")

// Status is the payload published on every transition.
type Status struct {
	State  State
	Reason errcode.Code // set once Halted
	Err    error
}

// Machine tracks Boot -> Running -> Halted. Halted is terminal and the first
// halt reason is kept.
type Machine struct {
	pub    sync.Mutex // held across a transition and its publish, taken before mu
	mu     sync.Mutex
	state  State
	reason error
	sp     uint32
	halted chan struct{}
	conn   *bus.Connection // may be nil
}

func NewMachine(conn *bus.Connection) *Machine {
	m := &Machine{halted: make(chan struct{}), conn: conn}
	m.publish(Status{State: Boot})
	return m
}

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Err is the halt reason, nil unless Halted.
func (m *Machine) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reason
}

// Halted is closed when the machine enters Halted.
func (m *Machine) Halted() <-chan struct{} { return m.halted }

// LoadSP records the stack pointer fetched from slot 0 at reset.
func (m *Machine) LoadSP(sp StackPointer) {
	m.mu.Lock()
	m.sp = uint32(sp)
	m.mu.Unlock()
}

func (m *Machine) SP() uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sp
}

// Run moves Boot to Running. It reports false if the machine already halted.
func (m *Machine) Run() bool {
	m.pub.Lock()
	defer m.pub.Unlock()
	m.mu.Lock()
	if m.state != Boot {
		m.mu.Unlock()
		return false
	}
	m.state = Running
	m.mu.Unlock()
	m.publish(Status{State: Running})
	return true
}

// Halt enters Halted with reason and then idles until power is removed. It
// does not return while ctx is live.
func (m *Machine) Halt(ctx context.Context, reason error) {
	m.enterHalt(reason)
	idle(ctx)
}

func (m *Machine) enterHalt(reason error) bool {
	if reason == nil {
		reason = errcode.Error
	}
	m.pub.Lock()
	defer m.pub.Unlock()
	m.mu.Lock()
	if m.state == Halted {
		m.mu.Unlock()
		return false
	}
	m.state = Halted
	m.reason = reason
	close(m.halted)
	m.mu.Unlock()
	m.publish(Status{State: Halted, Reason: errcode.Of(reason), Err: reason})
	return true
}

// DefaultHandler is the shared handler of every exception slot nobody
// claimed.
func (m *Machine) DefaultHandler(ctx context.Context) {
	m.Halt(ctx, errcode.UnexpectedIRQ)
}

// Yield is called from busy-wait loops in thread mode. Once the machine is
// halted the caller never proceeds; once power is removed execution stops.
func (m *Machine) Yield(ctx context.Context) {
	select {
	case <-ctx.Done():
		stop()
	case <-m.halted:
		idle(ctx)
		stop()
	default:
	}
}

func (m *Machine) publish(s Status) {
	if m.conn == nil {
		return
	}
	m.conn.Publish(m.conn.NewMessage(TopicState, s, true))
}
