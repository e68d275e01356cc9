package image

import (
	"fmt"

	"devicecore-go/errcode"
)

// Region is a word-addressed block of simulated memory.
type Region struct {
	Name   string
	Origin uint32
	Words  []uint32
}

// NewRegion allocates size bytes (rounded down to whole words) at origin.
func NewRegion(name string, origin, size uint32) *Region {
	return &Region{Name: name, Origin: origin, Words: make([]uint32, size/WordSize)}
}

// End is the first address past the region.
func (r *Region) End() uint32 { return r.Origin + uint32(len(r.Words))*WordSize }

func (r *Region) contains(start, end uint32) bool {
	return start >= r.Origin && end <= r.End() && start <= end
}

// Memory is a set of non-overlapping regions forming an address space.
type Memory struct {
	regions []*Region
}

func NewMemory(regions ...*Region) *Memory {
	return &Memory{regions: regions}
}

func (m *Memory) Regions() []*Region { return m.regions }

// Slice returns the words backing [start, end). The range must be word aligned
// and lie inside a single region; the returned slice aliases the region.
func (m *Memory) Slice(start, end uint32) ([]uint32, error) {
	const op = "image.Memory.Slice"
	if start%WordSize != 0 || end%WordSize != 0 {
		return nil, errcode.New(errcode.BadAddress, op, fmt.Sprintf("[%#x,%#x) not word aligned", start, end))
	}
	for _, r := range m.regions {
		if r.contains(start, end) {
			lo := (start - r.Origin) / WordSize
			hi := (end - r.Origin) / WordSize
			return r.Words[lo:hi:hi], nil
		}
	}
	return nil, errcode.New(errcode.BadAddress, op, fmt.Sprintf("[%#x,%#x) outside mapped memory", start, end))
}

// Load reads the word at addr.
func (m *Memory) Load(addr uint32) (uint32, error) {
	w, err := m.Slice(addr, addr+WordSize)
	if err != nil {
		return 0, err
	}
	return w[0], nil
}

// Store writes the word at addr.
func (m *Memory) Store(addr, v uint32) error {
	w, err := m.Slice(addr, addr+WordSize)
	if err != nil {
		return err
	}
	w[0] = v
	return nil
}
