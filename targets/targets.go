// Package targets is the embedded catalogue of chip descriptors: memory
// geometry, interrupt count, clock rates and SysTick width.
package targets

import (
	_ "embed"
	"strings"

	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"

	"devicecore-go/errcode"
)

//go:embed targets.yaml
var rawTargets []byte

var targets Targets

// Memory is one linker MEMORY block.
type Memory struct {
	Origin uint32 `yaml:"origin"`
	Size   uint32 `yaml:"size"`
}

// End is the first address past the block.
func (m Memory) End() uint32 { return m.Origin + m.Size }

type Clock struct {
	NominalHz uint32 `yaml:"nominal_hz"` // value of the clock state before bring-up
	HFXOHz    uint32 `yaml:"hfxo_hz"`    // frequency once the crystal is running
}

type SysTick struct {
	ReloadBits uint8  `yaml:"reload_bits"`
	RateHz     uint32 `yaml:"rate_hz"`
}

// MaxReload is the largest cycle count per tick the reload field can hold
// (the register stores count-1).
func (s SysTick) MaxReload() uint32 {
	if s.ReloadBits == 0 || s.ReloadBits >= 32 {
		return 1<<32 - 1
	}
	return 1 << s.ReloadBits
}

type Target struct {
	Name    string   `yaml:"name"`
	Chips   []string `yaml:"chips"`
	CPU     string   `yaml:"cpu"`
	Tags    []string `yaml:"tags"`
	Flash   Memory   `yaml:"flash"`
	RAM     Memory   `yaml:"ram"`
	IRQs    int      `yaml:"irqs"`
	Clock   Clock    `yaml:"clock"`
	SysTick SysTick  `yaml:"systick"`
}

// StackTop is the initial stack pointer: the first address past RAM.
func (t Target) StackTop() uint32 { return t.RAM.End() }

type Targets []Target

// All returns the embedded catalogue.
func All() Targets { return targets }

// Find looks a target up by name, falling back to its chip list.
func Find(name string) (Target, error) {
	if t, err := targets.FindByName(name); err == nil {
		return t, nil
	}
	return targets.FindByChip(name)
}

func (t Targets) FindByName(name string) (Target, error) {
	i := slices.IndexFunc(t, func(x Target) bool { return x.Name == strings.ToLower(name) })
	if i < 0 {
		return Target{}, errcode.New(errcode.UnknownTarget, "targets.FindByName", name)
	}
	return t[i], nil
}

func (t Targets) FindByChip(name string) (Target, error) {
	for _, target := range t {
		if slices.Contains(target.Chips, strings.ToLower(name)) {
			return target, nil
		}
	}
	return Target{}, errcode.New(errcode.UnknownTarget, "targets.FindByChip", name)
}

// Names lists the catalogue in sorted order.
func (t Targets) Names() []string {
	names := make([]string, 0, len(t))
	for _, x := range t {
		names = append(names, x.Name)
	}
	slices.Sort(names)
	return names
}

func init() {
	var t struct {
		Elements []Target `yaml:"targets"`
	}
	if err := yaml.Unmarshal(rawTargets, &t); err != nil {
		panic(err)
	}
	targets = t.Elements
}
