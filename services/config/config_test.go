package config

import (
	"context"
	"errors"
	"testing"
	"time"

	"devicecore-go/bus"
	"devicecore-go/errcode"
)

func TestConfig_PublishEmbedded_RetainedPerKey(t *testing.T) {
	// Override lookup for this test.
	oldLookup := EmbeddedConfigLookup
	EmbeddedConfigLookup = func(board string) ([]byte, bool) {
		if board != "devkit" {
			return nil, false
		}
		return []byte("target: nrf52840\nclock_in_reset: true\nblink:\n  period_ms: 100\n"), true
	}
	t.Cleanup(func() { EmbeddedConfigLookup = oldLookup })

	b := bus.NewBus(16)
	conn := b.NewConnection("test-config")
	svc := NewConfigService()

	ctx := context.WithValue(context.Background(), CtxBoardKey, "devkit")
	svc.Start(ctx, conn)

	// Subscribe; retained messages arrive whether or not the publisher ran first.
	sub := conn.Subscribe(bus.T(configPrefix, "#"))

	wantCount := 3 // target, clock_in_reset, blink
	got := map[string]any{}

	deadline := time.Now().Add(600 * time.Millisecond)
	for len(got) < wantCount && time.Now().Before(deadline) {
		select {
		case m := <-sub.Channel():
			if len(m.Topic) != 2 || m.Topic[0] != configPrefix {
				t.Fatalf("unexpected topic: %v", m.Topic)
			}
			if !m.Retained {
				t.Fatalf("%v: not retained", m.Topic)
			}
			got[m.Topic[1]] = m.Payload
		case <-time.After(10 * time.Millisecond):
		}
	}
	if len(got) != wantCount {
		t.Fatalf("expected %d retained messages, got %d (%v)", wantCount, len(got), got)
	}

	if s, ok := got["target"].(string); !ok || s != "nrf52840" {
		t.Fatalf("target payload = %#v", got["target"])
	}
	if v, ok := got["clock_in_reset"].(bool); !ok || !v {
		t.Fatalf("clock_in_reset payload = %#v", got["clock_in_reset"])
	}
	if m, ok := got["blink"].(map[string]any); !ok {
		t.Fatalf("blink payload type = %T, want map[string]any", got["blink"])
	} else if p, ok := m["period_ms"].(int); !ok || p != 100 {
		t.Fatalf("blink.period_ms = %#v, want 100", m["period_ms"])
	}
}

func TestConfig_PublishConfig_MissingBoard(t *testing.T) {
	b := bus.NewBus(4)
	conn := b.NewConnection("test-missing-board")
	svc := NewConfigService()

	if err := svc.publishConfig(context.Background(), conn); err == nil {
		t.Fatal("expected error for missing board, got nil")
	}
}

func TestConfig_PublishConfig_NoConfigFound(t *testing.T) {
	b := bus.NewBus(4)
	conn := b.NewConnection("test-no-config")
	svc := NewConfigService()

	ctx := context.WithValue(context.Background(), CtxBoardKey, "unknown-board")
	if err := svc.publishConfig(ctx, conn); !errors.Is(err, errcode.UnknownBoard) {
		t.Fatalf("got %v, want unknown_board", err)
	}
}

func TestLookupEmbeddedBoards(t *testing.T) {
	cases := []struct {
		board  string
		target string
		pin    uint8
		reset  bool
	}{
		{"nrf52840dk", "nrf52840", 13, false},
		{"nrf52832dk", "nrf52832", 17, true},
	}
	for _, c := range cases {
		b, err := Lookup(c.board)
		if err != nil {
			t.Fatalf("%s: %v", c.board, err)
		}
		if b.Name != c.board || b.Target != c.target || b.LED.Pin != c.pin || b.ClockInReset != c.reset {
			t.Fatalf("%s: got %+v", c.board, b)
		}
		if !b.LED.ActiveLow || b.Blink.PeriodMs <= 0 {
			t.Fatalf("%s: led/blink not decoded: %+v", c.board, b)
		}
	}
	if len(Boards()) != len(cases) {
		t.Fatalf("Boards() = %v", Boards())
	}
}

func TestLookupUnknownBoard(t *testing.T) {
	if _, err := Lookup("pico"); !errors.Is(err, errcode.UnknownBoard) {
		t.Fatalf("got %v, want unknown_board", err)
	}
}

func TestLookupRejectsBoardWithoutTarget(t *testing.T) {
	oldLookup := EmbeddedConfigLookup
	EmbeddedConfigLookup = func(string) ([]byte, bool) { return []byte("led:\n  pin: 3\n"), true }
	t.Cleanup(func() { EmbeddedConfigLookup = oldLookup })

	if _, err := Lookup("x"); !errors.Is(err, errcode.InvalidParams) {
		t.Fatalf("got %v, want invalid_params", err)
	}
}
