//go:build !cortexm

package clock

import "runtime"

func relax() { runtime.Gosched() }
