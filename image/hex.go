package image

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/marcinbor85/gohex"

	"devicecore-go/errcode"
)

// hexLineLength is the data bytes per record, as emitted by objcopy.
const hexLineLength = 16

// WriteHex dumps the used part of flash as Intel HEX. The start address
// record carries the reset vector.
func (img *Image) WriteHex(w io.Writer) error {
	lo, hi := img.used()
	words, err := NewMemory(img.Flash).Slice(lo, hi)
	if err != nil {
		return err
	}
	buf := make([]byte, len(words)*WordSize)
	for i, v := range words {
		binary.LittleEndian.PutUint32(buf[i*WordSize:], v)
	}

	mem := gohex.NewMemory()
	if err := mem.AddBinary(lo, buf); err != nil {
		return errcode.Wrap(errcode.BadImage, "image.WriteHex", err)
	}
	mem.SetStartAddress(img.Vector(1))
	return mem.DumpIntelHex(w, hexLineLength)
}

// ReadHex parses Intel HEX from r into flash. Every data segment must be word
// aligned and fall inside the region. It returns the start address record, or
// 0 when the file has none.
func ReadHex(r io.Reader, flash *Region) (uint32, error) {
	const op = "image.ReadHex"
	mem := gohex.NewMemory()
	if err := mem.ParseIntelHex(r); err != nil {
		return 0, errcode.Wrap(errcode.BadImage, op, err)
	}
	space := NewMemory(flash)
	for _, seg := range mem.GetDataSegments() {
		if len(seg.Data)%WordSize != 0 {
			return 0, errcode.New(errcode.BadImage, op, fmt.Sprintf("segment at %#x is %d bytes, not whole words", seg.Address, len(seg.Data)))
		}
		words, err := space.Slice(seg.Address, seg.Address+uint32(len(seg.Data)))
		if err != nil {
			return 0, errcode.Wrap(errcode.BadImage, op, err)
		}
		for i := range words {
			words[i] = binary.LittleEndian.Uint32(seg.Data[i*WordSize:])
		}
	}
	start, _ := mem.GetStartAddress()
	return start, nil
}
