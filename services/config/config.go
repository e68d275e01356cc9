package config

import (
	"context"
	"embed"
	"fmt"
	"path"
	"strings"

	"devicecore-go/bus"
	"devicecore-go/errcode"
	"devicecore-go/x/logx"

	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------
// String constants
// -----------------------------------------------------------------------------

const (
	serviceName  = "config"
	configPrefix = "config"
	CtxBoardKey  = "board" // context key used for the board name
)

//go:embed boards/*.yaml
var boardFS embed.FS

// EmbeddedConfigLookup allows overriding how board files are resolved.
var EmbeddedConfigLookup = func(board string) ([]byte, bool) {
	b, err := boardFS.ReadFile(path.Join("boards", board+".yaml"))
	return b, err == nil
}

// Boards lists the embedded board names.
func Boards() []string {
	entries, _ := boardFS.ReadDir("boards")
	var out []string
	for _, e := range entries {
		out = append(out, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	return out
}

type LED struct {
	Pin       uint8 `yaml:"pin"`
	ActiveLow bool  `yaml:"active_low"`
}

type Blink struct {
	PeriodMs int `yaml:"period_ms"`
}

// Board is the typed view of one board file.
type Board struct {
	Name         string `yaml:"-"`
	Target       string `yaml:"target"`
	LED          LED    `yaml:"led"`
	Blink        Blink  `yaml:"blink"`
	ClockInReset bool   `yaml:"clock_in_reset"`

	// Host simulation only: polls before the modelled HFXO reports running.
	HFXOStartupPolls int `yaml:"hfxo_startup_polls"`
}

// Lookup decodes the embedded file for board.
func Lookup(board string) (Board, error) {
	const op = "config.Lookup"
	raw, ok := EmbeddedConfigLookup(board)
	if !ok || len(raw) == 0 {
		return Board{}, errcode.New(errcode.UnknownBoard, op, board)
	}
	var b Board
	if err := yaml.Unmarshal(raw, &b); err != nil {
		return Board{}, errcode.Wrap(errcode.InvalidParams, op, err)
	}
	if b.Target == "" {
		return Board{}, errcode.New(errcode.InvalidParams, op, fmt.Sprintf("%s: no target", board))
	}
	b.Name = board
	return b, nil
}

// -----------------------------------------------------------------------------
// Config Service
// -----------------------------------------------------------------------------

type ConfigService struct {
	Name string
}

func NewConfigService() *ConfigService {
	return &ConfigService{Name: serviceName}
}

// publishConfig reads the board file and publishes each top-level key as a
// retained message on config/<key>.
func (s *ConfigService) publishConfig(ctx context.Context, conn *bus.Connection) error {
	board, _ := ctx.Value(CtxBoardKey).(string)
	if board == "" {
		return errcode.New(errcode.InvalidParams, "config.publish", "missing board in context")
	}

	raw, ok := EmbeddedConfigLookup(board)
	if !ok || len(raw) == 0 {
		return errcode.New(errcode.UnknownBoard, "config.publish", board)
	}

	var m map[string]any
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return errcode.Wrap(errcode.InvalidParams, "config.publish", err)
	}
	if m == nil {
		return errcode.New(errcode.InvalidParams, "config.publish", "board file is not a mapping")
	}

	for k, v := range m {
		conn.Publish(conn.NewMessage(bus.T(configPrefix, k), v, true))
	}
	return nil
}

// Start publishes the board configuration in a goroutine.
func (s *ConfigService) Start(ctx context.Context, conn *bus.Connection) {
	go func() {
		if err := s.publishConfig(ctx, conn); err != nil {
			logx.Errorf("%s: %v", s.Name, err)
			return
		}
		logx.Infof("%s: published board config", s.Name)
	}()
}
