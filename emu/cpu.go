package emu

import (
	"fmt"

	"github.com/sarchlab/gbasim/insts"
)

// Memory is the address space the core executes against. The core never
// owns it; the caller passes it to every Dispatch.
type Memory interface {
	Read8(addr uint32) (uint8, error)
	Read16(addr uint32) (uint16, error)
	Read32(addr uint32) (uint32, error)
	Write8(addr uint32, value uint8) error
	Write16(addr uint32, value uint16) error
	Write32(addr uint32, value uint32) error
}

// ResetLR is the deterministic value seeded into r14 on reset. Hardware
// leaves it undefined.
const ResetLR uint32 = 9

// Exception vectors.
const (
	VectorReset     uint32 = 0x00
	VectorUndefined uint32 = 0x04
	VectorSWI       uint32 = 0x08
)

// CPU is the ARM7TDMI execution core.
type CPU struct {
	regs     *RegFile
	pipeline Pipeline
	decoder  *insts.Decoder
	tracer   Tracer

	trapUndefined bool

	// Per-dispatch state.
	mem      Memory
	execAddr uint32
	branched bool

	retired uint64
}

// CPUOption is a functional option for configuring the CPU.
type CPUOption func(*CPU)

// WithTracer installs a trace sink.
func WithTracer(t Tracer) CPUOption {
	return func(c *CPU) {
		c.tracer = t
	}
}

// WithUndefinedTrap makes undefined instructions enter the Undefined
// exception instead of failing the dispatch.
func WithUndefinedTrap(enabled bool) CPUOption {
	return func(c *CPU) {
		c.trapUndefined = enabled
	}
}

// NewCPU creates a CPU in its reset state.
func NewCPU(opts ...CPUOption) *CPU {
	c := &CPU{
		regs:    NewRegFile(),
		decoder: insts.NewDecoder(),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.Reset()

	return c
}

// RegFile returns the CPU's register file.
func (c *CPU) RegFile() *RegFile {
	return c.regs
}

// Pipeline returns the CPU's pipeline state.
func (c *CPU) Pipeline() *Pipeline {
	return &c.pipeline
}

// Retired returns the number of instructions that reached execute.
func (c *CPU) Retired() uint64 {
	return c.retired
}

// Reset puts the core into Supervisor mode in ARM state with the pipeline
// empty, PC at 0 and r14 set to ResetLR.
func (c *CPU) Reset() {
	c.regs.Reset()
	c.regs.WriteReg(14, ResetLR)
	c.pipeline.Flush()
	c.retired = 0
}

// Dispatch performs one pipeline step: it fetches at PC, advances the
// pipeline, and executes whatever reached the execute stage. While the
// pipeline is refilling only PC moves.
func (c *CPU) Dispatch(mem Memory) error {
	if err := c.regs.Rebind(); err != nil {
		return err
	}

	c.mem = mem
	defer func() { c.mem = nil }()

	pc := c.regs.PC()
	set, width := c.state()

	word, err := c.fetch(pc, set)
	if err != nil {
		return fmt.Errorf("%w: fetch at 0x%08X: %w", ErrPCOutOfRange, pc, err)
	}

	slot := c.pipeline.Advance(word, pc)
	if !slot.Valid {
		c.regs.SetPC(pc + width)
		return nil
	}

	inst := c.decoder.Decode(set, slot.Word)
	c.execAddr = slot.Addr
	c.branched = false
	c.retired++

	passed := EvaluateCondition(inst.Cond, c.regs.CPSR())
	c.traceDispatch(inst, passed)

	if isUnknown(inst) {
		return c.undefined(inst)
	}

	if passed {
		if err := c.execute(inst); err != nil {
			return err
		}
	}

	if !c.branched {
		c.regs.SetPC(pc + width)
	}

	return nil
}

func (c *CPU) state() (insts.InstructionSet, uint32) {
	if c.regs.T() {
		return insts.SetThumb, 2
	}
	return insts.SetArm, 4
}

func (c *CPU) fetch(pc uint32, set insts.InstructionSet) (uint32, error) {
	if set == insts.SetThumb {
		hw, err := c.mem.Read16(pc &^ 1)
		return uint32(hw), err
	}
	return c.mem.Read32(pc &^ 3)
}

func isUnknown(inst *insts.Instruction) bool {
	if inst.Set == insts.SetThumb {
		return inst.ThumbOp == insts.ThumbUnknown
	}
	return inst.ArmOp == insts.ArmUnknown
}

// execute dispatches a decoded instruction whose condition passed.
func (c *CPU) execute(inst *insts.Instruction) error {
	if inst.Set == insts.SetThumb {
		return c.executeThumb(inst)
	}

	switch inst.Format {
	case insts.FormatDataProcessing:
		c.executeDataProcessing(inst)
	case insts.FormatMultiply:
		c.executeMultiply(inst)
	case insts.FormatMultiplyLong:
		c.executeMultiplyLong(inst)
	case insts.FormatPSRTransfer:
		c.executePSRTransfer(inst)
	case insts.FormatBranchExchange:
		c.branchExchange(c.regs.ReadReg(inst.Rm))
	case insts.FormatBranch:
		c.executeBranch(inst)
	case insts.FormatSingleTransfer:
		return c.executeSingleTransfer(inst)
	case insts.FormatHalfwordTransfer:
		return c.executeHalfwordTransfer(inst)
	case insts.FormatBlockTransfer:
		return c.transferBlock(inst.Rn, inst.RegList, blockFlags{
			preIndex:  inst.PreIndex,
			up:        inst.Up,
			writeback: inst.Writeback,
			load:      inst.Load,
			forceUser: inst.ForceUser,
		})
	case insts.FormatSwap:
		return c.executeSwap(inst)
	case insts.FormatSoftwareInterrupt:
		return c.enterException(ModeSupervisor, VectorSWI)
	default:
		return c.undefined(inst)
	}

	return nil
}

// undefined handles encodings with no defined behavior on this core.
func (c *CPU) undefined(inst *insts.Instruction) error {
	if c.trapUndefined {
		return c.enterException(ModeUndefined, VectorUndefined)
	}
	return fmt.Errorf("%w: 0x%08X at 0x%08X", ErrUndefinedInstruction, inst.Word, c.execAddr)
}

// enterException switches to mode, saves the CPSR into the new mode's SPSR,
// links the next instruction address and jumps to vector in ARM state with
// IRQs disabled.
func (c *CPU) enterException(mode Mode, vector uint32) error {
	_, width := c.state()
	saved := c.regs.CPSR()

	if err := c.regs.SwitchMode(mode); err != nil {
		return err
	}
	c.regs.SetSPSR(saved)
	c.regs.WriteReg(14, c.execAddr+width)
	c.regs.SetT(false)
	c.regs.SetI(true)

	c.branchTo(vector)
	return nil
}

// branchTo moves PC to target, aligned for the current state, and flushes
// the pipeline.
func (c *CPU) branchTo(target uint32) {
	if c.regs.T() {
		target &^= 1
	} else {
		target &^= 3
	}
	c.regs.SetPC(target)
	c.pipeline.Flush()
	c.branched = true
}

// writeReg writes a result register. A write to r15 branches.
func (c *CPU) writeReg(reg uint8, value uint32) {
	if reg == 15 {
		c.branchTo(value)
		return
	}
	c.regs.WriteReg(reg, value)
}

// restoreCPSR copies the SPSR into the CPSR. It does nothing in modes that
// have no SPSR.
func (c *CPU) restoreCPSR() {
	if spsr, ok := c.regs.SPSR(); ok {
		c.regs.SetCPSR(spsr)
	}
}

// storedPC is the value r15 contributes to STR and STM: twelve bytes past the
// instruction in ARM state.
func (c *CPU) storedPC() uint32 {
	return c.regs.PC() + 4
}

func (c *CPU) traceDispatch(inst *insts.Instruction, passed bool) {
	if c.tracer == nil {
		return
	}

	op := inst.ArmOp.String()
	if inst.Set == insts.SetThumb {
		op = inst.ThumbOp.String()
	}

	c.tracer.RecordDispatch(DispatchRecord{
		Addr:   c.execAddr,
		Word:   inst.Word,
		Set:    inst.Set,
		Op:     op,
		Mode:   c.regs.Mode(),
		Passed: passed,
	})
}
