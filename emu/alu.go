package emu

import (
	"github.com/sarchlab/gbasim/bitutil"
	"github.com/sarchlab/gbasim/insts"
)

// AddWithCarry returns a+b+carryIn with the carry-out and signed overflow of
// the addition. Subtraction a-b is AddWithCarry(a, ^b, true).
func AddWithCarry(a, b uint32, carryIn bool) (result uint32, carry, overflow bool) {
	var c uint32
	if carryIn {
		c = 1
	}
	result = a + b + c
	carry = bitutil.UnsignedAddCarryIn(a, b, carryIn)
	overflow = bitutil.SignedAddOverflowIn(a, b, carryIn)
	return result, carry, overflow
}

// aluResult is the outcome of one ALU operation before it is committed.
type aluResult struct {
	value    uint32
	carry    bool
	overflow bool
	logical  bool // V is left untouched
}

// alu computes a data-processing opcode. shifterCarry is the carry-out of
// operand 2, used by the logical operations.
func (c *CPU) alu(op insts.ArmOp, a, b uint32, shifterCarry bool) aluResult {
	carryIn := c.regs.C()

	arith := func(x, y uint32, cin bool) aluResult {
		v, carry, overflow := AddWithCarry(x, y, cin)
		return aluResult{value: v, carry: carry, overflow: overflow}
	}
	logical := func(v uint32) aluResult {
		return aluResult{value: v, carry: shifterCarry, logical: true}
	}

	switch op {
	case insts.ArmAND, insts.ArmTST:
		return logical(a & b)
	case insts.ArmEOR, insts.ArmTEQ:
		return logical(a ^ b)
	case insts.ArmSUB, insts.ArmCMP:
		return arith(a, ^b, true)
	case insts.ArmRSB:
		return arith(b, ^a, true)
	case insts.ArmADD, insts.ArmCMN:
		return arith(a, b, false)
	case insts.ArmADC:
		return arith(a, b, carryIn)
	case insts.ArmSBC:
		return arith(a, ^b, carryIn)
	case insts.ArmRSC:
		return arith(b, ^a, carryIn)
	case insts.ArmORR:
		return logical(a | b)
	case insts.ArmMOV:
		return logical(b)
	case insts.ArmBIC:
		return logical(a &^ b)
	default: // MVN
		return logical(^b)
	}
}

// setFlags commits N, Z, C and, for arithmetic results, V.
func (c *CPU) setFlags(r aluResult) {
	c.regs.SetNZ(r.value)
	c.regs.SetC(r.carry)
	if !r.logical {
		c.regs.SetV(r.overflow)
	}
}

func (c *CPU) executeDataProcessing(inst *insts.Instruction) {
	op2 := c.shifterOperand(inst)
	r := c.alu(inst.ArmOp, c.regs.ReadReg(inst.Rn), op2.Value, op2.Carry)

	if inst.ArmOp.IsCompare() {
		c.setFlags(r)
		return
	}

	if inst.Rd == 15 {
		// Writing PC with S set returns from an exception.
		if inst.SetFlags {
			c.restoreCPSR()
		}
		c.branchTo(r.value)
		return
	}

	c.regs.WriteReg(inst.Rd, r.value)
	if inst.SetFlags {
		c.setFlags(r)
	}
}

// executeMultiply handles MUL and MLA. C is left unchanged.
func (c *CPU) executeMultiply(inst *insts.Instruction) {
	result := c.regs.ReadReg(inst.Rm) * c.regs.ReadReg(inst.Rs)
	if inst.ArmOp == insts.ArmMLA {
		result += c.regs.ReadReg(inst.Rn)
	}

	c.regs.WriteReg(inst.Rd, result)
	if inst.SetFlags {
		c.regs.SetNZ(result)
	}
}

// executeMultiplyLong handles the 64-bit multiplies.
func (c *CPU) executeMultiplyLong(inst *insts.Instruction) {
	rm := c.regs.ReadReg(inst.Rm)
	rs := c.regs.ReadReg(inst.Rs)

	var result uint64
	switch inst.ArmOp {
	case insts.ArmUMULL, insts.ArmUMLAL:
		result = uint64(rm) * uint64(rs)
	default:
		result = uint64(int64(int32(rm)) * int64(int32(rs)))
	}

	if inst.ArmOp == insts.ArmUMLAL || inst.ArmOp == insts.ArmSMLAL {
		acc := uint64(c.regs.ReadReg(inst.RdHi))<<32 | uint64(c.regs.ReadReg(inst.RdLo))
		result += acc
	}

	c.regs.WriteReg(inst.RdLo, uint32(result))
	c.regs.WriteReg(inst.RdHi, uint32(result>>32))

	if inst.SetFlags {
		c.regs.SetN(result>>63 != 0)
		c.regs.SetZ(result == 0)
	}
}

// psrFieldMask expands the MSR field mask (c, x, s, f) into a bit mask.
func psrFieldMask(fields uint8) uint32 {
	var mask uint32
	for i := uint(0); i < 4; i++ {
		if fields&(1<<i) != 0 {
			mask |= 0xFF << (8 * i)
		}
	}
	return mask
}

// executePSRTransfer handles MRS and MSR. Without an SPSR, MRS of the SPSR
// reads the CPSR and MSR to the SPSR is ignored. User mode may only write the
// condition flags. The T bit is never written by MSR.
func (c *CPU) executePSRTransfer(inst *insts.Instruction) {
	if inst.ArmOp == insts.ArmMRS {
		value := c.regs.CPSR()
		if inst.SPSR {
			if spsr, ok := c.regs.SPSR(); ok {
				value = spsr
			}
		}
		c.regs.WriteReg(inst.Rd, value)
		return
	}

	var operand uint32
	if inst.Immediate {
		operand = RotatedImmediate(inst.Shifter, false).Value
	} else {
		operand = c.regs.ReadReg(inst.Rm)
	}

	mask := psrFieldMask(inst.FieldMask)

	if inst.SPSR {
		if spsr, ok := c.regs.SPSR(); ok {
			c.regs.SetSPSR(bitutil.SetBitsInMask(spsr, operand, mask))
		}
		return
	}

	if !c.regs.Mode().Privileged() {
		mask &= PSRFlags
	}
	mask &^= PSRThumb

	c.regs.SetCPSR(bitutil.SetBitsInMask(c.regs.CPSR(), operand, mask))
}
