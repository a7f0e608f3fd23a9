package emu

import (
	"fmt"

	"github.com/sarchlab/gbasim/insts"
)

// executeThumb dispatches a decoded Thumb instruction.
func (c *CPU) executeThumb(inst *insts.Instruction) error {
	switch inst.Format {
	case insts.FormatThumbShift:
		c.thumbShiftImmediate(inst)
	case insts.FormatThumbAddSub, insts.FormatThumbImmediate:
		c.thumbAddSub(inst)
	case insts.FormatThumbALU:
		c.thumbALU(inst)
	case insts.FormatThumbHighRegister:
		c.thumbHighRegister(inst)
	case insts.FormatThumbLoadStore:
		return c.thumbLoadStore(inst)
	case insts.FormatThumbAddress:
		base := c.regs.ReadReg(inst.Rn)
		if inst.Rn == 15 {
			base &^= 3
		}
		c.regs.WriteReg(inst.Rd, base+inst.Imm)
	case insts.FormatThumbStackAdjust:
		sp := c.regs.ReadReg(13)
		if inst.ThumbOp == insts.ThumbSUB4 {
			c.regs.WriteReg(13, sp-inst.Imm)
		} else {
			c.regs.WriteReg(13, sp+inst.Imm)
		}
	case insts.FormatThumbBlock:
		return c.thumbBlock(inst)
	case insts.FormatThumbBranch:
		c.thumbBranch(inst)
	case insts.FormatSoftwareInterrupt:
		return c.enterException(ModeSupervisor, VectorSWI)
	default:
		return c.undefined(inst)
	}
	return nil
}

// thumbShiftImmediate handles LSL1, LSR1 and ASR1. An immediate of 0 has the
// same meaning as in the ARM shifter: LSL #0, LSR #32 and ASR #32.
func (c *CPU) thumbShiftImmediate(inst *insts.Instruction) {
	kind := insts.ShiftLSL
	switch inst.ThumbOp {
	case insts.ThumbLSR1:
		kind = insts.ShiftLSR
	case insts.ThumbASR1:
		kind = insts.ShiftASR
	}

	r := ShiftByImmediate(kind, c.regs.ReadReg(inst.Rm), inst.Imm, c.regs.C())
	c.regs.WriteReg(inst.Rd, r.Value)
	c.regs.SetNZ(r.Value)
	c.regs.SetC(r.Carry)
}

// thumbAddSub handles the flag-setting add, subtract, move and compare forms
// with a low register or immediate operand.
func (c *CPU) thumbAddSub(inst *insts.Instruction) {
	a := c.regs.ReadReg(inst.Rn)
	b := inst.Imm
	if !inst.Immediate {
		b = c.regs.ReadReg(inst.Rm)
	}

	var r aluResult
	switch inst.ThumbOp {
	case insts.ThumbMOV1:
		c.regs.WriteReg(inst.Rd, b)
		c.regs.SetNZ(b)
		return
	case insts.ThumbADD1, insts.ThumbADD2, insts.ThumbADD3:
		r = c.alu(insts.ArmADD, a, b, false)
	default: // SUB1, SUB2, SUB3, CMP1
		r = c.alu(insts.ArmSUB, a, b, false)
	}

	if inst.ThumbOp != insts.ThumbCMP1 {
		c.regs.WriteReg(inst.Rd, r.value)
	}
	c.setFlags(r)
}

// thumbALUOps maps the register ALU forms that share ARM semantics onto their
// ARM opcodes.
var thumbALUOps = map[insts.ThumbOp]insts.ArmOp{
	insts.ThumbAND:  insts.ArmAND,
	insts.ThumbEOR:  insts.ArmEOR,
	insts.ThumbADC:  insts.ArmADC,
	insts.ThumbSBC:  insts.ArmSBC,
	insts.ThumbTST:  insts.ArmTST,
	insts.ThumbCMP2: insts.ArmCMP,
	insts.ThumbCMN:  insts.ArmCMN,
	insts.ThumbORR:  insts.ArmORR,
	insts.ThumbBIC:  insts.ArmBIC,
	insts.ThumbMVN:  insts.ArmMVN,
}

var thumbShiftOps = map[insts.ThumbOp]insts.ShiftType{
	insts.ThumbLSL2: insts.ShiftLSL,
	insts.ThumbLSR2: insts.ShiftLSR,
	insts.ThumbASR2: insts.ShiftASR,
	insts.ThumbROR:  insts.ShiftROR,
}

// thumbALU handles the sixteen register-to-register ALU operations. All of
// them set flags.
func (c *CPU) thumbALU(inst *insts.Instruction) {
	rd := c.regs.ReadReg(inst.Rd)
	rm := c.regs.ReadReg(inst.Rm)

	if kind, ok := thumbShiftOps[inst.ThumbOp]; ok {
		r := ShiftByRegister(kind, rd, rm, c.regs.C())
		c.regs.WriteReg(inst.Rd, r.Value)
		c.regs.SetNZ(r.Value)
		c.regs.SetC(r.Carry)
		return
	}

	switch inst.ThumbOp {
	case insts.ThumbNEG:
		r := c.alu(insts.ArmRSB, rm, 0, false)
		c.regs.WriteReg(inst.Rd, r.value)
		c.setFlags(r)
		return
	case insts.ThumbMUL:
		result := rd * rm
		c.regs.WriteReg(inst.Rd, result)
		c.regs.SetNZ(result)
		return
	}

	op := thumbALUOps[inst.ThumbOp]
	r := c.alu(op, rd, rm, c.regs.C())
	if !op.IsCompare() {
		c.regs.WriteReg(inst.Rd, r.value)
	}
	c.setFlags(r)
}

// thumbHighRegister handles ADD4, CMP3, MOV3 and BX, which reach r8-r15.
// Only CMP3 sets flags.
func (c *CPU) thumbHighRegister(inst *insts.Instruction) {
	rm := c.regs.ReadReg(inst.Rm)

	switch inst.ThumbOp {
	case insts.ThumbADD4:
		c.writeReg(inst.Rd, c.regs.ReadReg(inst.Rd)+rm)
	case insts.ThumbCMP3:
		c.setFlags(c.alu(insts.ArmCMP, c.regs.ReadReg(inst.Rd), rm, false))
	case insts.ThumbMOV3:
		c.writeReg(inst.Rd, rm)
	default:
		c.branchExchange(rm)
	}
}

// thumbLoadStore handles every Thumb single-register transfer. Word accesses
// must be word aligned and halfword accesses halfword aligned.
func (c *CPU) thumbLoadStore(inst *insts.Instruction) error {
	base := c.regs.ReadReg(inst.Rn)
	if inst.Rn == 15 {
		base &^= 3
	}

	offset := inst.Imm
	if !inst.Immediate {
		offset = c.regs.ReadReg(inst.Rm)
	}
	addr := base + offset

	switch inst.ThumbOp {
	case insts.ThumbLDR1, insts.ThumbLDR2, insts.ThumbLDR3, insts.ThumbLDR4:
		if addr&3 != 0 {
			return c.misalignedWord(addr)
		}
		v, err := c.load32(addr)
		if err != nil {
			return err
		}
		c.regs.WriteReg(inst.Rd, v)

	case insts.ThumbSTR1, insts.ThumbSTR2, insts.ThumbSTR3:
		if addr&3 != 0 {
			return c.misalignedWord(addr)
		}
		return c.store32(addr, c.regs.ReadReg(inst.Rd))

	case insts.ThumbLDRB1, insts.ThumbLDRB2, insts.ThumbLDRSB:
		v, err := c.loadExtended(true, inst.ThumbOp == insts.ThumbLDRSB, addr)
		if err != nil {
			return err
		}
		c.regs.WriteReg(inst.Rd, v)

	case insts.ThumbSTRB1, insts.ThumbSTRB2:
		return c.store8(addr, c.regs.ReadReg(inst.Rd))

	case insts.ThumbLDRH1, insts.ThumbLDRH2, insts.ThumbLDRSH:
		v, err := c.loadExtended(false, inst.ThumbOp == insts.ThumbLDRSH, addr)
		if err != nil {
			return err
		}
		c.regs.WriteReg(inst.Rd, v)

	default: // STRH1, STRH2
		return c.store16(addr, c.regs.ReadReg(inst.Rd))
	}

	return nil
}

func (c *CPU) misalignedWord(addr uint32) error {
	return fmt.Errorf("%w: word access at 0x%08X (pc=0x%08X)",
		ErrMisalignedAccess, addr, c.execAddr)
}

// thumbBlock handles PUSH (STMDB sp!), POP (LDMIA sp!), LDMIA and STMIA.
func (c *CPU) thumbBlock(inst *insts.Instruction) error {
	f := blockFlags{up: true, writeback: true, load: inst.Load}
	if inst.ThumbOp == insts.ThumbPUSH {
		f.up = false
		f.preIndex = true
	}
	return c.transferBlock(inst.Rn, inst.RegList, f)
}

// thumbBranch handles B1, B2 and the two halves of BL. r15 reads as the
// instruction address plus 4.
func (c *CPU) thumbBranch(inst *insts.Instruction) {
	pc := c.regs.PC()
	offset := uint32(inst.BranchOffset)

	switch inst.ThumbOp {
	case insts.ThumbBLPrefix:
		c.regs.WriteReg(14, pc+offset)
	case insts.ThumbBLSuffix:
		target := c.regs.ReadReg(14) + offset
		c.regs.WriteReg(14, (c.execAddr+2)|1)
		c.branchTo(target)
	default:
		c.branchTo(pc + offset)
	}
}
