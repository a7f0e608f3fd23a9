package emu

import (
	"io"

	"github.com/k0kubun/pp/v3"
)

// Snapshot is a copy of the architectural state visible to a debugger.
type Snapshot struct {
	Mode      string
	Thumb     bool
	Registers [16]uint32
	CPSR      uint32
	SPSR      uint32
	HasSPSR   bool
	Pipeline  [3]Slot // fetch, decode, execute
	Retired   uint64
}

// Snapshot captures the current register and pipeline state through the
// active register view.
func (c *CPU) Snapshot() Snapshot {
	s := Snapshot{
		Mode:    c.regs.Mode().String(),
		Thumb:   c.regs.T(),
		CPSR:    c.regs.CPSR(),
		Retired: c.retired,
		Pipeline: [3]Slot{
			c.pipeline.Fetch,
			c.pipeline.Decode,
			c.pipeline.Execute,
		},
	}
	for i := range s.Registers {
		s.Registers[i] = c.regs.ReadReg(uint8(i))
	}
	s.SPSR, s.HasSPSR = c.regs.SPSR()
	return s
}

// Dump pretty-prints the snapshot to w without terminal colors.
func (s Snapshot) Dump(w io.Writer) error {
	printer := pp.New()
	printer.SetColoringEnabled(false)
	_, err := printer.Fprintln(w, s)
	return err
}
