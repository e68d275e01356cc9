package startup

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/exp/slices"

	"devicecore-go/errcode"
)

// Exception is a position in the vector table.
type Exception int

// ARMv7-M core exception positions. The order is fixed by the architecture.
const (
	InitialSP Exception = iota
	Reset
	NMI
	HardFault
	MemManage
	BusFault
	UsageFault
	_ // 7-10 reserved
	_
	_
	_
	SVCall
	DebugMonitor
	_ // 13 reserved
	PendSV
	SysTick

	NumCoreVectors = 16
)

// MaxIRQs is the architectural limit on device interrupts for ARMv7-M.
const MaxIRQs = 240

// IRQ returns the table position of device interrupt n.
func IRQ(n int) Exception { return Exception(NumCoreVectors + n) }

var exceptionNames = [NumCoreVectors]string{
	"InitialSP", "Reset", "NMI", "HardFault", "MemManage", "BusFault", "UsageFault",
	"Reserved", "Reserved", "Reserved", "Reserved",
	"SVCall", "DebugMonitor", "Reserved", "PendSV", "SysTick",
}

func (e Exception) String() string {
	switch {
	case e < 0:
		return "Exception(" + strconv.Itoa(int(e)) + ")"
	case e < NumCoreVectors:
		return exceptionNames[e]
	}
	return "IRQ" + strconv.Itoa(int(e-NumCoreVectors))
}

// ParseException resolves a core exception name or "IRQ<n>". Reserved
// positions have no name and do not parse.
func ParseException(name string) (Exception, error) {
	for i, n := range exceptionNames {
		if n == name && !Exception(i).IsReserved() {
			return Exception(i), nil
		}
	}
	if rest, ok := strings.CutPrefix(name, "IRQ"); ok {
		if n, err := strconv.Atoi(rest); err == nil && n >= 0 && n < MaxIRQs {
			return IRQ(n), nil
		}
	}
	return 0, errcode.New(errcode.InvalidParams, "startup.ParseException", fmt.Sprintf("unknown exception %q", name))
}

// IsReserved reports whether the architecture reserves position e.
func (e Exception) IsReserved() bool {
	switch e {
	case 7, 8, 9, 10, 13:
		return true
	}
	return false
}

// Slot is one vector table entry: a StackPointer, a Handler or Reserved.
type Slot interface{ isSlot() }

// StackPointer is the initial SP value. Only slot 0 may hold one.
type StackPointer uint32

// Handler is an exception entry point. ctx is done when power is removed.
type Handler func(ctx context.Context)

// Reserved is an architecturally reserved slot; it renders as 0.
type Reserved struct{}

func (StackPointer) isSlot() {}
func (Handler) isSlot()      {}
func (Reserved) isSlot()     {}

// Table is the vector table: 16 core slots followed by the device IRQs.
type Table struct {
	core   [NumCoreVectors]Slot
	irqs   []Slot
	custom []bool // slot holds an explicit override (or the reset handler)
	def    Handler
}

// NewTable lays out a table for a part with irqs device interrupts. Every
// handler slot not named in overrides gets def.
func NewTable(sp StackPointer, reset, def Handler, irqs int, overrides map[Exception]Handler) (*Table, error) {
	const op = "startup.NewTable"
	switch {
	case reset == nil:
		return nil, errcode.New(errcode.BadVectorTable, op, "nil reset handler")
	case def == nil:
		return nil, errcode.New(errcode.BadVectorTable, op, "nil default handler")
	case irqs < 0 || irqs > MaxIRQs:
		return nil, errcode.New(errcode.BadVectorTable, op, fmt.Sprintf("irq count %d out of range", irqs))
	}

	t := &Table{
		irqs:   make([]Slot, irqs),
		custom: make([]bool, NumCoreVectors+irqs),
		def:    def,
	}
	for i := Exception(0); int(i) < t.Len(); i++ {
		switch {
		case i == InitialSP:
			t.set(i, sp)
		case i == Reset:
			t.set(i, reset)
			t.custom[i] = true
		case i.IsReserved():
			t.set(i, Reserved{})
		default:
			t.set(i, def)
		}
	}

	keys := make([]Exception, 0, len(overrides))
	for e := range overrides {
		keys = append(keys, e)
	}
	slices.Sort(keys)
	for _, e := range keys {
		h := overrides[e]
		switch {
		case e < 0 || int(e) >= t.Len():
			return nil, errcode.New(errcode.BadVectorTable, op, fmt.Sprintf("no slot %d in a %d-entry table", int(e), t.Len()))
		case e == InitialSP || e == Reset:
			return nil, errcode.New(errcode.BadVectorTable, op, e.String()+" cannot be overridden")
		case e.IsReserved():
			return nil, errcode.New(errcode.BadVectorTable, op, fmt.Sprintf("slot %d is reserved", int(e)))
		case h == nil:
			return nil, errcode.New(errcode.BadVectorTable, op, "nil handler for "+e.String())
		}
		t.set(e, h)
		t.custom[e] = true
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Table) set(e Exception, s Slot) {
	if e < NumCoreVectors {
		t.core[e] = s
		return
	}
	t.irqs[e-NumCoreVectors] = s
}

// Len is the number of slots.
func (t *Table) Len() int { return NumCoreVectors + len(t.irqs) }

// Slot returns entry e, or nil when out of range.
func (t *Table) Slot(e Exception) Slot {
	switch {
	case e < 0 || int(e) >= t.Len():
		return nil
	case e < NumCoreVectors:
		return t.core[e]
	}
	return t.irqs[e-NumCoreVectors]
}

// IsDefault reports whether e resolves to the shared default handler.
func (t *Table) IsDefault(e Exception) bool {
	_, ok := t.Slot(e).(Handler)
	return ok && !t.custom[e]
}

// StackPointer returns slot 0.
func (t *Table) StackPointer() StackPointer {
	sp, _ := t.core[InitialSP].(StackPointer)
	return sp
}

// Validate checks the positional invariants the processor depends on.
func (t *Table) Validate() error {
	const op = "startup.Table.Validate"
	sp, ok := t.core[InitialSP].(StackPointer)
	if !ok {
		return errcode.New(errcode.BadVectorTable, op, "slot 0 is not a stack pointer")
	}
	if sp%8 != 0 {
		return errcode.New(errcode.BadVectorTable, op, fmt.Sprintf("stack pointer %#x not 8-byte aligned", uint32(sp)))
	}
	for i := Exception(1); int(i) < t.Len(); i++ {
		switch s := t.Slot(i).(type) {
		case Reserved:
			if !i.IsReserved() {
				return errcode.New(errcode.BadVectorTable, op, "reserved marker in "+i.String())
			}
		case Handler:
			if i.IsReserved() {
				return errcode.New(errcode.BadVectorTable, op, fmt.Sprintf("handler in reserved slot %d", int(i)))
			}
			if s == nil {
				return errcode.New(errcode.BadVectorTable, op, "nil handler in "+i.String())
			}
		default:
			return errcode.New(errcode.BadVectorTable, op, fmt.Sprintf("slot %d holds %T", int(i), s))
		}
	}
	return nil
}

// Dispatch enters exception e. Slot 0, reserved slots and positions past the
// end resolve to the default handler, as a jump through a zero vector would
// end in a fault.
func (t *Table) Dispatch(ctx context.Context, e Exception) {
	if h, ok := t.Slot(e).(Handler); ok && h != nil {
		h(ctx)
		return
	}
	t.def(ctx)
}

// Words renders the table as it sits at the image base. addr resolves
// overridden handlers; every default slot gets defAddr. Handler addresses get
// the Thumb bit.
func (t *Table) Words(addr func(Exception) uint32, defAddr uint32) []uint32 {
	out := make([]uint32, t.Len())
	for i := range out {
		e := Exception(i)
		switch t.Slot(e).(type) {
		case StackPointer:
			out[i] = uint32(t.StackPointer())
		case Reserved:
			out[i] = 0
		case Handler:
			if t.custom[e] {
				out[i] = addr(e) | 1
			} else {
				out[i] = defAddr | 1
			}
		}
	}
	return out
}
