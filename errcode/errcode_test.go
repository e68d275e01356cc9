package errcode

import (
	"errors"
	"testing"
)

func TestCodesAreStableStrings(t *testing.T) {
	cases := map[string]Code{
		"bad_layout":       BadLayout,
		"bad_address":      BadAddress,
		"bad_vector_table": BadVectorTable,
		"reload_overflow":  ReloadOverflow,
		"unexpected_irq":   UnexpectedIRQ,
		"main_returned":    MainReturned,
		"main_panicked":    MainPanicked,
		"powered_off":      PoweredOff,
	}
	for want, c := range cases {
		if c.Error() != want {
			t.Fatalf("code %q mismatch: got %q", want, c.Error())
		}
	}
}

func TestOf(t *testing.T) {
	if got := Of(nil); got != OK {
		t.Fatalf("Of(nil) = %q, want ok", got)
	}
	if got := Of(BadLayout); got != BadLayout {
		t.Fatalf("Of(Code) = %q", got)
	}
	if got := Of(New(ReloadOverflow, "tick.Reload", "too big")); got != ReloadOverflow {
		t.Fatalf("Of(*E) = %q", got)
	}
	if got := Of(errors.New("x")); got != Error {
		t.Fatalf("Of(plain) = %q, want error", got)
	}
}

func TestWrappedErrorMatchesCodeAndCause(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(MainPanicked, "startup.reset", cause)
	if !errors.Is(err, MainPanicked) {
		t.Fatal("errors.Is should match the code")
	}
	if !errors.Is(err, cause) {
		t.Fatal("errors.Is should match the cause")
	}
	if err.Error() != "startup.reset: main_panicked: boom" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}
