package startup

import (
	"context"
	"fmt"

	"devicecore-go/errcode"
	"devicecore-go/image"
)

// CopyData copies the .data load image into RAM word by word. The two
// regions must be the same length.
func CopyData(dst, src []uint32) error {
	if len(dst) != len(src) {
		return errcode.New(errcode.BadLayout, "startup.CopyData",
			fmt.Sprintf("destination %d words, source %d words", len(dst), len(src)))
	}
	for i := range dst {
		dst[i] = src[i]
	}
	return nil
}

// ZeroBSS clears .bss word by word.
func ZeroBSS(bss []uint32) {
	for i := range bss {
		bss[i] = 0
	}
}

// InitMemory resolves the layout against mem, then copies .data and zeroes
// .bss. Nothing is written unless every region resolves.
func InitMemory(mem *image.Memory, l image.Layout) error {
	if err := l.Validate(); err != nil {
		return err
	}
	src, err := mem.Slice(l.DataLoad, l.DataLoadEnd())
	if err != nil {
		return errcode.Wrap(errcode.BadLayout, "startup.InitMemory", err)
	}
	dst, err := mem.Slice(l.DataStart, l.DataEnd)
	if err != nil {
		return errcode.Wrap(errcode.BadLayout, "startup.InitMemory", err)
	}
	bss, err := mem.Slice(l.BSSStart, l.BSSEnd)
	if err != nil {
		return errcode.Wrap(errcode.BadLayout, "startup.InitMemory", err)
	}
	if err := CopyData(dst, src); err != nil {
		return err
	}
	ZeroBSS(bss)
	return nil
}

// ResetConfig is what the reset handler needs from the image and the
// application.
type ResetConfig struct {
	Machine *Machine
	Memory  *image.Memory
	Layout  image.Layout

	// ClockInit runs between memory init and main when set. Leaving it nil
	// defers clock bring-up to the application.
	ClockInit func(ctx context.Context) error

	// Main is the application entry point. Returning from it, with or
	// without an error, halts the machine.
	Main func(ctx context.Context) error
}

// ResetHandler returns the slot 1 handler. It never returns while power is
// applied: every path ends in Halt.
func ResetHandler(cfg ResetConfig) Handler {
	return func(ctx context.Context) {
		m := cfg.Machine
		if err := InitMemory(cfg.Memory, cfg.Layout); err != nil {
			m.Halt(ctx, err)
			return
		}
		if cfg.ClockInit != nil {
			if err := cfg.ClockInit(ctx); err != nil {
				if ctx.Err() != nil {
					return
				}
				m.Halt(ctx, err)
				return
			}
		}
		if !m.Run() {
			// An exception halted the machine during init.
			idle(ctx)
			return
		}
		err := callMain(ctx, cfg.Main)
		if ctx.Err() != nil {
			return
		}
		if err == nil {
			err = errcode.MainReturned
		}
		m.Halt(ctx, err)
	}
}

func callMain(ctx context.Context, main func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errcode.New(errcode.MainPanicked, "startup.main", fmt.Sprint(r))
		}
	}()
	if main == nil {
		return nil
	}
	return main(ctx)
}
