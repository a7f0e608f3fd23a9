package emu

import (
	"fmt"

	"github.com/sarchlab/gbasim/bitutil"
	"github.com/sarchlab/gbasim/insts"
)

func (c *CPU) traceLoad(addr, value uint32, width int) {
	if c.tracer != nil {
		c.tracer.RecordLoad(MemoryRecord{Addr: addr, Value: value, Width: width})
	}
}

func (c *CPU) traceStore(addr, value uint32, width int) {
	if c.tracer != nil {
		c.tracer.RecordStore(MemoryRecord{Addr: addr, Value: value, Width: width})
	}
}

func (c *CPU) load8(addr uint32) (uint32, error) {
	v, err := c.mem.Read8(addr)
	if err != nil {
		return 0, fmt.Errorf("load at 0x%08X (pc=0x%08X): %w", addr, c.execAddr, err)
	}
	c.traceLoad(addr, uint32(v), 1)
	return uint32(v), nil
}

func (c *CPU) load16(addr uint32) (uint32, error) {
	if addr&1 != 0 {
		return 0, fmt.Errorf("%w: halfword load at 0x%08X (pc=0x%08X)",
			ErrMisalignedAccess, addr, c.execAddr)
	}
	v, err := c.mem.Read16(addr)
	if err != nil {
		return 0, fmt.Errorf("load at 0x%08X (pc=0x%08X): %w", addr, c.execAddr, err)
	}
	c.traceLoad(addr, uint32(v), 2)
	return uint32(v), nil
}

// load32 reads the aligned word containing addr.
func (c *CPU) load32(addr uint32) (uint32, error) {
	aligned := addr &^ 3
	v, err := c.mem.Read32(aligned)
	if err != nil {
		return 0, fmt.Errorf("load at 0x%08X (pc=0x%08X): %w", addr, c.execAddr, err)
	}
	c.traceLoad(aligned, v, 4)
	return v, nil
}

// loadRotated implements ARM LDR/SWP: an unaligned address reads the aligned
// word rotated so the addressed byte lands in bits [7:0].
func (c *CPU) loadRotated(addr uint32) (uint32, error) {
	v, err := c.load32(addr)
	if err != nil {
		return 0, err
	}
	return bitutil.RotateRight(v, uint(addr&3)*8), nil
}

func (c *CPU) store8(addr, value uint32) error {
	if err := c.mem.Write8(addr, uint8(value)); err != nil {
		return fmt.Errorf("store at 0x%08X (pc=0x%08X): %w", addr, c.execAddr, err)
	}
	c.traceStore(addr, value&0xFF, 1)
	return nil
}

func (c *CPU) store16(addr, value uint32) error {
	if addr&1 != 0 {
		return fmt.Errorf("%w: halfword store at 0x%08X (pc=0x%08X)",
			ErrMisalignedAccess, addr, c.execAddr)
	}
	if err := c.mem.Write16(addr, uint16(value)); err != nil {
		return fmt.Errorf("store at 0x%08X (pc=0x%08X): %w", addr, c.execAddr, err)
	}
	c.traceStore(addr, value&0xFFFF, 2)
	return nil
}

// store32 writes a word to the aligned address containing addr.
func (c *CPU) store32(addr, value uint32) error {
	aligned := addr &^ 3
	if err := c.mem.Write32(aligned, value); err != nil {
		return fmt.Errorf("store at 0x%08X (pc=0x%08X): %w", addr, c.execAddr, err)
	}
	c.traceStore(aligned, value, 4)
	return nil
}

// storeValue reads a register for a store. r15 reads one word further ahead.
func (c *CPU) storeValue(reg uint8) uint32 {
	if reg == 15 {
		return c.storedPC()
	}
	return c.regs.ReadReg(reg)
}

// executeSingleTransfer handles LDR, STR and their byte and translated forms.
// There is no MMU, so translated forms behave like their plain versions.
func (c *CPU) executeSingleTransfer(inst *insts.Instruction) error {
	offset := inst.Imm
	if !inst.Immediate {
		// Register offsets reuse the shifter but never touch C.
		offset = c.shiftedRegister(inst.Shifter&^0x10, c.regs.C()).Value
	}

	base := c.regs.ReadReg(inst.Rn)
	addr, newBase := SingleTransferAddress(base, offset, inst.PreIndex, inst.Up)
	writeback := (!inst.PreIndex || inst.Writeback) && inst.Rn != 15

	if inst.PreIndex && writeback {
		c.regs.WriteReg(inst.Rn, newBase)
	}

	byteAccess := inst.ArmOp == insts.ArmLDRB || inst.ArmOp == insts.ArmSTRB ||
		inst.ArmOp == insts.ArmLDRBT || inst.ArmOp == insts.ArmSTRBT

	if inst.Load {
		var value uint32
		var err error
		if byteAccess {
			value, err = c.load8(addr)
		} else {
			value, err = c.loadRotated(addr)
		}
		if err != nil {
			return err
		}
		if !inst.PreIndex && writeback {
			c.regs.WriteReg(inst.Rn, newBase)
		}
		c.writeReg(inst.Rd, value)
		return nil
	}

	value := c.storeValue(inst.Rd)
	var err error
	if byteAccess {
		err = c.store8(addr, value)
	} else {
		err = c.store32(addr, value)
	}
	if err != nil {
		return err
	}
	if !inst.PreIndex && writeback {
		c.regs.WriteReg(inst.Rn, newBase)
	}
	return nil
}

// executeHalfwordTransfer handles LDRH, STRH, LDRSB and LDRSH.
func (c *CPU) executeHalfwordTransfer(inst *insts.Instruction) error {
	offset := inst.Imm
	if !inst.Immediate {
		offset = c.regs.ReadReg(inst.Rm)
	}

	base := c.regs.ReadReg(inst.Rn)
	addr, newBase := SingleTransferAddress(base, offset, inst.PreIndex, inst.Up)
	writeback := (!inst.PreIndex || inst.Writeback) && inst.Rn != 15

	if inst.PreIndex && writeback {
		c.regs.WriteReg(inst.Rn, newBase)
	}

	if inst.ArmOp == insts.ArmSTRH {
		if err := c.store16(addr, c.storeValue(inst.Rd)); err != nil {
			return err
		}
		if !inst.PreIndex && writeback {
			c.regs.WriteReg(inst.Rn, newBase)
		}
		return nil
	}

	value, err := c.loadExtended(inst.ArmOp == insts.ArmLDRSB, inst.ArmOp != insts.ArmLDRH, addr)
	if err != nil {
		return err
	}
	if !inst.PreIndex && writeback {
		c.regs.WriteReg(inst.Rn, newBase)
	}
	c.writeReg(inst.Rd, value)
	return nil
}

// loadExtended loads a byte or halfword, sign-extending when signed is set.
func (c *CPU) loadExtended(byteAccess, signed bool, addr uint32) (uint32, error) {
	if byteAccess {
		v, err := c.load8(addr)
		if err != nil {
			return 0, err
		}
		if signed {
			v = bitutil.SignExtend(v, 8)
		}
		return v, nil
	}

	v, err := c.load16(addr)
	if err != nil {
		return 0, err
	}
	if signed {
		v = bitutil.SignExtend(v, 16)
	}
	return v, nil
}

// executeSwap handles SWP and SWPB: an atomic load followed by a store to the
// same address.
func (c *CPU) executeSwap(inst *insts.Instruction) error {
	addr := c.regs.ReadReg(inst.Rn)
	source := c.regs.ReadReg(inst.Rm)

	if inst.ArmOp == insts.ArmSWPB {
		old, err := c.load8(addr)
		if err != nil {
			return err
		}
		if err := c.store8(addr, source); err != nil {
			return err
		}
		c.regs.WriteReg(inst.Rd, old)
		return nil
	}

	old, err := c.loadRotated(addr)
	if err != nil {
		return err
	}
	if err := c.store32(addr, source); err != nil {
		return err
	}
	c.regs.WriteReg(inst.Rd, old)
	return nil
}

// blockFlags selects the addressing mode and behavior of a block transfer.
type blockFlags struct {
	preIndex  bool
	up        bool
	writeback bool
	load      bool
	forceUser bool
}

// transferBlock performs LDM/STM and the Thumb PUSH/POP/LDMIA/STMIA forms.
//
// Writeback is applied before any register is transferred. A store of the
// base register writes its original value, taken from the User bank when the
// User bank is transferred; a load of the base register
// overwrites the written-back value. With forceUser, a load that includes r15
// restores the CPSR from the SPSR; otherwise the User bank is transferred.
func (c *CPU) transferBlock(rn uint8, list uint16, f blockFlags) error {
	base := c.regs.ReadReg(rn)
	userBase := c.regs.ReadUserReg(rn)
	rng := BlockTransferRange(base, list, f.preIndex, f.up)

	if f.writeback {
		c.regs.WriteReg(rn, rng.NewBase)
	}

	withPC := list&(1<<15) != 0
	userBank := f.forceUser && !(f.load && withPC)

	addr := rng.Start
	for i := uint8(0); i < 16; i++ {
		if list&(1<<i) == 0 {
			continue
		}

		if f.load {
			value, err := c.load32(addr)
			if err != nil {
				return err
			}
			switch {
			case i == 15:
				if f.forceUser {
					c.restoreCPSR()
				}
				c.branchTo(value)
			case userBank:
				c.regs.WriteUserReg(i, value)
			default:
				c.regs.WriteReg(i, value)
			}
		} else {
			var value uint32
			switch {
			case i == 15:
				value = c.storedPC()
			case userBank && i == rn:
				value = userBase
			case userBank:
				value = c.regs.ReadUserReg(i)
			case i == rn:
				value = base
			default:
				value = c.regs.ReadReg(i)
			}
			if err := c.store32(addr, value); err != nil {
				return err
			}
		}

		addr += 4
	}

	return nil
}
