//go:build cortexm

package tick

import (
	"context"
	"device/arm"

	"devicecore-go/errcode"
)

// Nop is the default idle step between counter reads.
func Nop() { arm.Asm("nop") }

const (
	systCSREnable    = 1 << 0
	systCSRTickInt   = 1 << 1
	systCSRClkSource = 1 << 2
)

// SysTick is the Cortex-M core timer, clocked from the processor clock.
type SysTick struct{}

var sysTickISR func(context.Context)

// Attach routes the SysTick exception to h.
func (SysTick) Attach(h func(context.Context)) { sysTickISR = h }

func (SysTick) Configure(reload uint32) error {
	if err := checkReload("tick.SysTick.Configure", reload, MaxReload); err != nil {
		return err
	}
	arm.SYST.SYST_CSR.Set(0)
	arm.SYST.SYST_RVR.Set(reload - 1)
	arm.SYST.SYST_CVR.Set(0)
	arm.SYST.SYST_CSR.Set(systCSRClkSource | systCSRTickInt | systCSREnable)
	if arm.SYST.SYST_CSR.Get()&systCSREnable == 0 {
		return errcode.New(errcode.Unsupported, "tick.SysTick.Configure", "SysTick did not enable")
	}
	return nil
}

//export SysTick_Handler
func sysTickHandler() {
	if h := sysTickISR; h != nil {
		h(context.Background())
	}
}
