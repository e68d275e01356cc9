//go:build !cortexm

package tick

import "runtime"

// Nop is the default idle step between counter reads.
func Nop() { runtime.Gosched() }
