package timex

import (
	"testing"
	"time"
)

func TestPeriodFromHz(t *testing.T) {
	if got := PeriodFromHz(1000); got != 1_000_000 {
		t.Fatalf("1kHz: got %d ns", got)
	}
	if got := PeriodFromHz(0); got != 1_000_000_000 {
		t.Fatalf("0Hz coerced: got %d ns", got)
	}
}

func TestCyclesToDuration(t *testing.T) {
	if got := CyclesToDuration(64_000, 64_000_000); got != time.Millisecond {
		t.Fatalf("64000 cycles @ 64MHz = %v, want 1ms", got)
	}
	if got := CyclesToDuration(0xFFFFFF, 64_000_000); got != 262143984*time.Nanosecond {
		t.Fatalf("max reload = %v", got)
	}
}
