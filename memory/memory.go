// Package memory models the Game Boy Advance physical address space.
//
// Every region of the memory map is backed by an akita storage unit sized to
// the region. Accesses are little-endian and must fall entirely inside one
// region; anything else fails with ErrUnmapped.
package memory

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/sarchlab/akita/v4/mem/mem"
)

var (
	// ErrUnmapped is returned for accesses outside every defined region.
	ErrUnmapped = errors.New("unmapped address")

	// ErrReadOnly is returned for CPU writes to a region loaded as read-only.
	ErrReadOnly = errors.New("write to read-only region")
)

// Region names.
const (
	RegionBIOS    = "BIOS"
	RegionEWRAM   = "EWRAM"
	RegionIWRAM   = "IWRAM"
	RegionIO      = "IO"
	RegionPalette = "PALETTE"
	RegionVRAM    = "VRAM"
	RegionOAM     = "OAM"
	RegionROM0    = "ROM_WS0"
	RegionROM1    = "ROM_WS1"
	RegionROM2    = "ROM_WS2"
	RegionSRAM    = "SRAM"
)

// Base addresses and sizes of the memory map.
const (
	BIOSStart    uint32 = 0x00000000
	BIOSSize     uint32 = 0x4000
	EWRAMStart   uint32 = 0x02000000
	EWRAMSize    uint32 = 0x40000
	IWRAMStart   uint32 = 0x03000000
	IWRAMSize    uint32 = 0x8000
	IOStart      uint32 = 0x04000000
	IOSize       uint32 = 0x400
	PaletteStart uint32 = 0x05000000
	PaletteSize  uint32 = 0x400
	VRAMStart    uint32 = 0x06000000
	VRAMSize     uint32 = 0x18000
	OAMStart     uint32 = 0x07000000
	OAMSize      uint32 = 0x400
	ROM0Start    uint32 = 0x08000000
	ROM1Start    uint32 = 0x0A000000
	ROM2Start    uint32 = 0x0C000000
	ROMSize      uint32 = 0x2000000
	SRAMStart    uint32 = 0x0E000000
	SRAMSize     uint32 = 0x10000
)

// POSTFLG is the post-boot flag register, cleared on reset.
const POSTFLG uint32 = 0x04000300

// Region is one contiguous window of the address space.
type Region struct {
	Name     string
	Start    uint32
	Size     uint32
	ReadOnly bool

	storage *mem.Storage
}

// Contains reports whether [addr, addr+n) lies inside the region.
func (r *Region) Contains(addr, n uint32) bool {
	if addr < r.Start {
		return false
	}
	offset := uint64(addr - r.Start)
	return offset+uint64(n) <= uint64(r.Size)
}

// End returns the first address past the region.
func (r *Region) End() uint32 {
	return r.Start + r.Size
}

// Option configures a Memory.
type Option func(*Memory)

// WithReadOnlyBIOS rejects CPU writes to the BIOS region. Load still works.
func WithReadOnlyBIOS() Option {
	return func(m *Memory) {
		m.region(RegionBIOS).ReadOnly = true
	}
}

// Memory is the GBA memory image.
type Memory struct {
	regions []*Region
}

// New creates a memory image with every region zeroed.
func New(opts ...Option) *Memory {
	m := &Memory{
		regions: []*Region{
			{Name: RegionBIOS, Start: BIOSStart, Size: BIOSSize},
			{Name: RegionEWRAM, Start: EWRAMStart, Size: EWRAMSize},
			{Name: RegionIWRAM, Start: IWRAMStart, Size: IWRAMSize},
			{Name: RegionIO, Start: IOStart, Size: IOSize},
			{Name: RegionPalette, Start: PaletteStart, Size: PaletteSize},
			{Name: RegionVRAM, Start: VRAMStart, Size: VRAMSize},
			{Name: RegionOAM, Start: OAMStart, Size: OAMSize},
			{Name: RegionROM0, Start: ROM0Start, Size: ROMSize},
			{Name: RegionROM1, Start: ROM1Start, Size: ROMSize},
			{Name: RegionROM2, Start: ROM2Start, Size: ROMSize},
			{Name: RegionSRAM, Start: SRAMStart, Size: SRAMSize},
		},
	}

	for _, opt := range opts {
		opt(m)
	}

	m.Reset()

	return m
}

// Reset discards the contents of every region and clears POSTFLG.
func (m *Memory) Reset() {
	for _, r := range m.regions {
		r.storage = mem.NewStorage(uint64(r.Size))
	}
}

// Regions returns the memory map in address order.
func (m *Memory) Regions() []*Region {
	return m.regions
}

// Lookup returns the region holding [addr, addr+n).
func (m *Memory) Lookup(addr, n uint32) (*Region, error) {
	for _, r := range m.regions {
		if r.Contains(addr, n) {
			return r, nil
		}
	}
	return nil, fmt.Errorf("%w: 0x%08X (%d bytes)", ErrUnmapped, addr, n)
}

func (m *Memory) region(name string) *Region {
	for _, r := range m.regions {
		if r.Name == name {
			return r
		}
	}
	return nil
}

func (m *Memory) read(addr, n uint32) ([]byte, error) {
	r, err := m.Lookup(addr, n)
	if err != nil {
		return nil, err
	}

	data, err := r.storage.Read(uint64(addr-r.Start), uint64(n))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s at 0x%08X: %w", r.Name, addr, err)
	}
	return data, nil
}

func (m *Memory) write(addr uint32, data []byte, force bool) error {
	r, err := m.Lookup(addr, uint32(len(data)))
	if err != nil {
		return err
	}
	if r.ReadOnly && !force {
		return fmt.Errorf("%w: %s at 0x%08X", ErrReadOnly, r.Name, addr)
	}

	if err := r.storage.Write(uint64(addr-r.Start), data); err != nil {
		return fmt.Errorf("failed to write %s at 0x%08X: %w", r.Name, addr, err)
	}
	return nil
}

// Read8 reads a byte.
func (m *Memory) Read8(addr uint32) (uint8, error) {
	data, err := m.read(addr, 1)
	if err != nil {
		return 0, err
	}
	return data[0], nil
}

// Read16 reads a little-endian halfword.
func (m *Memory) Read16(addr uint32) (uint16, error) {
	data, err := m.read(addr, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(data), nil
}

// Read32 reads a little-endian word.
func (m *Memory) Read32(addr uint32) (uint32, error) {
	data, err := m.read(addr, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(data), nil
}

// Write8 writes a byte.
func (m *Memory) Write8(addr uint32, value uint8) error {
	return m.write(addr, []byte{value}, false)
}

// Write16 writes a little-endian halfword.
func (m *Memory) Write16(addr uint32, value uint16) error {
	return m.write(addr, binary.LittleEndian.AppendUint16(nil, value), false)
}

// Write32 writes a little-endian word.
func (m *Memory) Write32(addr uint32, value uint32) error {
	return m.write(addr, binary.LittleEndian.AppendUint32(nil, value), false)
}

// Load copies data byte-for-byte starting at addr, ignoring read-only
// protection. The whole image must fit in one region.
func (m *Memory) Load(addr uint32, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	return m.write(addr, data, true)
}

// Dump returns a copy of n bytes starting at addr.
func (m *Memory) Dump(addr, n uint32) ([]byte, error) {
	data, err := m.read(addr, n)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), data...), nil
}
