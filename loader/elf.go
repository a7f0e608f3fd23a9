// Package loader reads program images for the emulator: raw BIOS or
// cartridge dumps and 32-bit ARM ELF executables.
package loader

import (
	"debug/elf"
	"fmt"
	"io"
)

// SegmentFlags represents memory protection flags for a segment.
type SegmentFlags uint32

const (
	// SegmentFlagExecute indicates the segment is executable.
	SegmentFlagExecute SegmentFlags = 1 << iota
	// SegmentFlagWrite indicates the segment is writable.
	SegmentFlagWrite
	// SegmentFlagRead indicates the segment is readable.
	SegmentFlagRead
)

// Segment represents a contiguous piece of a program image.
type Segment struct {
	// Addr is the address where this segment should be loaded.
	Addr uint32
	// Data contains the segment contents from the file.
	Data []byte
	// MemSize is the size in memory (may be larger than len(Data) for BSS).
	MemSize uint32
	// Flags contains the segment protection flags.
	Flags SegmentFlags
}

// Program represents a loaded program image ready to be installed.
type Program struct {
	// EntryPoint is the address where execution should begin, with bit 0
	// cleared.
	EntryPoint uint32
	// Thumb is set when the entry point selects Thumb state.
	Thumb bool
	// Segments contains all loadable segments.
	Segments []Segment
}

// Target receives segment contents. *memory.Memory satisfies it.
type Target interface {
	Load(addr uint32, data []byte) error
}

// Install copies every segment into target. The part of a segment beyond its
// file data is zero-filled.
func (p *Program) Install(target Target) error {
	for _, seg := range p.Segments {
		data := seg.Data
		if seg.MemSize > uint32(len(data)) {
			data = make([]byte, seg.MemSize)
			copy(data, seg.Data)
		}
		if len(data) == 0 {
			continue
		}

		if err := target.Load(seg.Addr, data); err != nil {
			return fmt.Errorf("failed to install segment at 0x%08X: %w", seg.Addr, err)
		}
	}
	return nil
}

// LoadELF parses a 32-bit little-endian ARM ELF executable.
func LoadELF(path string) (*Program, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ELF file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if f.Class != elf.ELFCLASS32 {
		return nil, fmt.Errorf("not a 32-bit ELF file")
	}

	if f.Machine != elf.EM_ARM {
		return nil, fmt.Errorf("not an ARM ELF file (machine type: %v)", f.Machine)
	}

	if f.Data != elf.ELFDATA2LSB {
		return nil, fmt.Errorf("not a little-endian ELF file")
	}

	entry := uint32(f.Entry)
	prog := &Program{
		EntryPoint: entry &^ 1,
		Thumb:      entry&1 != 0,
	}

	for _, phdr := range f.Progs {
		if phdr.Type != elf.PT_LOAD {
			continue
		}

		seg, err := readSegment(phdr)
		if err != nil {
			return nil, err
		}
		prog.Segments = append(prog.Segments, seg)
	}

	return prog, nil
}

func readSegment(phdr *elf.Prog) (Segment, error) {
	data := make([]byte, phdr.Filesz)
	if phdr.Filesz > 0 {
		n, err := phdr.ReadAt(data, 0)
		if err != nil && err != io.EOF {
			return Segment{}, fmt.Errorf("failed to read segment at 0x%x: %w", phdr.Vaddr, err)
		}
		if uint64(n) != phdr.Filesz {
			return Segment{}, fmt.Errorf("short read for segment at 0x%x: got %d bytes, expected %d",
				phdr.Vaddr, n, phdr.Filesz)
		}
	}

	var flags SegmentFlags
	if phdr.Flags&elf.PF_X != 0 {
		flags |= SegmentFlagExecute
	}
	if phdr.Flags&elf.PF_W != 0 {
		flags |= SegmentFlagWrite
	}
	if phdr.Flags&elf.PF_R != 0 {
		flags |= SegmentFlagRead
	}

	// Load address, not run address: initialized data is placed in ROM.
	return Segment{
		Addr:    uint32(phdr.Paddr),
		Data:    data,
		MemSize: uint32(phdr.Memsz),
		Flags:   flags,
	}, nil
}
