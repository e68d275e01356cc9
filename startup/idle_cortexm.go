//go:build cortexm

package startup

import (
	"context"
	"device/arm"
)

// idle locks up with interrupts masked. Only a reset leaves it.
func idle(context.Context) {
	arm.DisableInterrupts()
	for {
		arm.Asm("wfi")
	}
}

func stop() { idle(context.Background()) }
