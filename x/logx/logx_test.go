package logx

import (
	"bytes"
	"testing"
)

func TestLevelsAndPrefix(t *testing.T) {
	var buf bytes.Buffer
	prev := SetOutput(&buf)
	prevLevel := SetLevel(LevelInfo)
	t.Cleanup(func() {
		SetOutput(prev)
		SetLevel(prevLevel)
	})

	Debugf("hidden %d", 1)
	Infof("clock %d Hz", 64000000)
	Errorf("halted: %s", "unexpected_irq")

	want := "Info: clock 64000000 Hz\nError: halted: unexpected_irq\n"
	if got := buf.String(); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
