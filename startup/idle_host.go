//go:build !cortexm

package startup

import (
	"context"
	"runtime"
)

// idle parks the caller until power is removed.
func idle(ctx context.Context) { <-ctx.Done() }

// stop ends the calling thread of execution.
func stop() { runtime.Goexit() }
