// Package blinky is the application entry point used on every board: start
// the tick, then toggle the user LED forever with a configurable period.
package blinky

import (
	"context"
	"time"

	"devicecore-go/bus"
	"devicecore-go/x/logx"
	"devicecore-go/x/mathx"
)

var topicConfigBlink = bus.T("config", "blink")

const topicLED = "led"

// TopicLED is where the level of the named LED is published: true when lit.
func TopicLED(name string) bus.Topic { return bus.T(topicLED, name) }

const (
	DefaultPeriod = 500 * time.Millisecond
	MinPeriod     = time.Millisecond
	MaxPeriod     = 10 * time.Second
)

// Pin drives one GPIO output. machine.Pin satisfies it.
type Pin interface {
	Set(high bool)
}

// Timebase is what the application needs from the core.
type Timebase interface {
	StartTick(ctx context.Context) error
	Delay(d time.Duration)
}

type Config struct {
	Name      string
	Pin       Pin
	ActiveLow bool
	Period    time.Duration
}

type Service struct {
	cfg  Config
	conn *bus.Connection // may be nil
	lit  bool
}

func New(cfg Config, conn *bus.Connection) *Service {
	if cfg.Name == "" {
		cfg.Name = "led"
	}
	if cfg.Period <= 0 {
		cfg.Period = DefaultPeriod
	}
	cfg.Period = mathx.Clamp(cfg.Period, MinPeriod, MaxPeriod)
	return &Service{cfg: cfg, conn: conn}
}

// Period is the current half-cycle.
func (s *Service) Period() time.Duration { return s.cfg.Period }

// Run is main: StartTick, then LED on, delay, LED off, delay, forever. It
// only returns if the tick cannot be started.
func (s *Service) Run(ctx context.Context, tb Timebase) error {
	if err := tb.StartTick(ctx); err != nil {
		return err
	}

	var cfgSub *bus.Subscription
	if s.conn != nil {
		cfgSub = s.conn.Subscribe(topicConfigBlink)
		defer s.conn.Unsubscribe(cfgSub)
	}

	logx.Infof("blinky: %s every %v", s.cfg.Name, s.cfg.Period)
	for {
		s.poll(cfgSub)
		s.set(true)
		tb.Delay(s.cfg.Period)
		s.set(false)
		tb.Delay(s.cfg.Period)
	}
}

// poll applies pending config/blink messages without blocking.
func (s *Service) poll(sub *bus.Subscription) {
	if sub == nil {
		return
	}
	for {
		select {
		case msg := <-sub.Channel():
			s.apply(msg.Payload)
		default:
			return
		}
	}
}

func (s *Service) apply(payload any) {
	m, ok := payload.(map[string]any)
	if !ok {
		return
	}
	var ms int64
	switch v := m["period_ms"].(type) {
	case int:
		ms = int64(v)
	case int64:
		ms = v
	case uint64:
		ms = int64(v)
	case float64:
		ms = int64(v)
	default:
		return
	}
	p := mathx.Clamp(time.Duration(ms)*time.Millisecond, MinPeriod, MaxPeriod)
	if p != s.cfg.Period {
		s.cfg.Period = p
		logx.Infof("blinky: period set to %v", p)
	}
}

func (s *Service) set(lit bool) {
	s.lit = lit
	s.cfg.Pin.Set(lit != s.cfg.ActiveLow)
	if s.conn != nil {
		s.conn.Publish(s.conn.NewMessage(TopicLED(s.cfg.Name), lit, true))
	}
}
