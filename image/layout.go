// Package image describes the flash/RAM image the startup code consumes: the
// linker's region symbols, a word-addressed memory model to resolve them
// against, and the builder that lays out a bootable image.
package image

import (
	"fmt"

	"devicecore-go/errcode"
)

// WordSize is the width of one memory cell moved by the startup code.
const WordSize = 4

// Layout carries the region symbols produced by the link step.
//
//	DataLoad  _sidata  initialized-data image in flash
//	DataStart _sdata   .data destination start in RAM
//	DataEnd   _edata   .data destination end
//	BSSStart  _sbss    .bss start
//	BSSEnd    _ebss    .bss end
//	StackTop  _estack  initial stack pointer
type Layout struct {
	DataLoad  uint32 `yaml:"sidata"`
	DataStart uint32 `yaml:"sdata"`
	DataEnd   uint32 `yaml:"edata"`
	BSSStart  uint32 `yaml:"sbss"`
	BSSEnd    uint32 `yaml:"ebss"`
	StackTop  uint32 `yaml:"estack"`
}

// DataWords is the number of words the reset sequence copies.
func (l Layout) DataWords() int { return int(l.DataEnd-l.DataStart) / WordSize }

// BSSWords is the number of words the reset sequence zeroes.
func (l Layout) BSSWords() int { return int(l.BSSEnd-l.BSSStart) / WordSize }

// DataLoadEnd is the first flash address past the .data load image.
func (l Layout) DataLoadEnd() uint32 { return l.DataLoad + (l.DataEnd - l.DataStart) }

// Validate checks the invariants the reset sequence relies on.
func (l Layout) Validate() error {
	const op = "image.Layout.Validate"
	if l.DataEnd < l.DataStart {
		return errcode.New(errcode.BadLayout, op, fmt.Sprintf(".data end %#x before start %#x", l.DataEnd, l.DataStart))
	}
	if l.BSSEnd < l.BSSStart {
		return errcode.New(errcode.BadLayout, op, fmt.Sprintf(".bss end %#x before start %#x", l.BSSEnd, l.BSSStart))
	}
	for _, a := range [...]uint32{l.DataLoad, l.DataStart, l.DataEnd, l.BSSStart, l.BSSEnd, l.StackTop} {
		if a%WordSize != 0 {
			return errcode.New(errcode.BadLayout, op, fmt.Sprintf("address %#x not word aligned", a))
		}
	}
	if l.DataWords() > 0 && l.BSSWords() > 0 && l.DataStart < l.BSSEnd && l.BSSStart < l.DataEnd {
		return errcode.New(errcode.BadLayout, op, ".data and .bss overlap")
	}
	if l.StackTop < l.DataEnd || l.StackTop < l.BSSEnd {
		return errcode.New(errcode.BadLayout, op, fmt.Sprintf("stack top %#x below a region end", l.StackTop))
	}
	return nil
}

func (l Layout) String() string {
	return fmt.Sprintf("sidata=%#08x sdata=%#08x edata=%#08x sbss=%#08x ebss=%#08x estack=%#08x",
		l.DataLoad, l.DataStart, l.DataEnd, l.BSSStart, l.BSSEnd, l.StackTop)
}
