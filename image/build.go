package image

import (
	"fmt"

	"devicecore-go/errcode"
	"devicecore-go/targets"
)

// Garbage is what RAM holds in a freshly built image, standing in for the
// undefined contents of SRAM at power-on.
const Garbage uint32 = 0xA5A5A5A5

// Spec is the input of the image builder.
type Spec struct {
	Target   targets.Target
	Vectors  []uint32 // rendered vector table, placed at the flash origin
	TextSize uint32   // bytes of code between the table and the .data image
	Data     []uint32 // initial values of .data
	BSSWords int
}

// Image is a built flash image plus the RAM it boots into.
type Image struct {
	Target targets.Target
	Layout Layout
	Flash  *Region
	RAM    *Region
}

// Build lays out vectors, code and the .data load image in flash and reserves
// .data and .bss at the bottom of RAM. The stack grows down from the top of RAM.
func Build(s Spec) (*Image, error) {
	const op = "image.Build"
	t := s.Target
	if len(s.Vectors) < 2 {
		return nil, errcode.New(errcode.BadImage, op, "vector table needs at least stack pointer and reset")
	}
	if s.BSSWords < 0 {
		return nil, errcode.New(errcode.BadImage, op, "negative .bss size")
	}

	tableEnd := t.Flash.Origin + uint32(len(s.Vectors))*WordSize
	dataLoad := alignUp(tableEnd+s.TextSize, WordSize)
	dataBytes := uint32(len(s.Data)) * WordSize

	l := Layout{
		DataLoad:  dataLoad,
		DataStart: t.RAM.Origin,
		DataEnd:   t.RAM.Origin + dataBytes,
		BSSStart:  t.RAM.Origin + dataBytes,
		BSSEnd:    t.RAM.Origin + dataBytes + uint32(s.BSSWords)*WordSize,
		StackTop:  t.StackTop(),
	}
	if l.DataLoadEnd() > t.Flash.End() {
		return nil, errcode.New(errcode.BadImage, op, fmt.Sprintf("flash overflow: need %#x, have %#x", l.DataLoadEnd()-t.Flash.Origin, t.Flash.Size))
	}
	if l.BSSEnd > t.RAM.End() {
		return nil, errcode.New(errcode.BadImage, op, fmt.Sprintf("RAM overflow: need %#x, have %#x", l.BSSEnd-t.RAM.Origin, t.RAM.Size))
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}

	img := &Image{
		Target: t,
		Layout: l,
		Flash:  NewRegion("flash", t.Flash.Origin, t.Flash.Size),
		RAM:    NewRegion("ram", t.RAM.Origin, t.RAM.Size),
	}
	copy(img.Flash.Words, s.Vectors)
	lo := (dataLoad - t.Flash.Origin) / WordSize
	copy(img.Flash.Words[lo:], s.Data)
	img.Scramble(Garbage)
	return img, nil
}

// Memory returns the address space of the image.
func (img *Image) Memory() *Memory { return NewMemory(img.Flash, img.RAM) }

// Scramble fills RAM with pattern, as after a power cycle.
func (img *Image) Scramble(pattern uint32) {
	for i := range img.RAM.Words {
		img.RAM.Words[i] = pattern
	}
}

// Vector returns word n of the table at the flash origin.
func (img *Image) Vector(n int) uint32 {
	if n < 0 || n >= len(img.Flash.Words) {
		return 0
	}
	return img.Flash.Words[n]
}

// used is the flash range holding table, code and .data image.
func (img *Image) used() (uint32, uint32) {
	return img.Flash.Origin, img.Layout.DataLoadEnd()
}

func alignUp(v, a uint32) uint32 { return (v + a - 1) &^ (a - 1) }
