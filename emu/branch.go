package emu

import "github.com/sarchlab/gbasim/insts"

// EvaluateCondition evaluates an ARM condition code against the N, Z, C and
// V bits of a status register value. NV never passes.
func EvaluateCondition(cond insts.Cond, psr uint32) bool {
	n := psr&PSRN != 0
	z := psr&PSRZ != 0
	c := psr&PSRC != 0
	v := psr&PSRV != 0

	switch cond {
	case insts.CondEQ:
		return z
	case insts.CondNE:
		return !z
	case insts.CondCS:
		return c
	case insts.CondCC:
		return !c
	case insts.CondMI:
		return n
	case insts.CondPL:
		return !n
	case insts.CondVS:
		return v
	case insts.CondVC:
		return !v
	case insts.CondHI:
		return c && !z
	case insts.CondLS:
		return !c || z
	case insts.CondGE:
		return n == v
	case insts.CondLT:
		return n != v
	case insts.CondGT:
		return !z && n == v
	case insts.CondLE:
		return z || n != v
	case insts.CondAL:
		return true
	default:
		return false
	}
}

// executeBranch handles B and BL. r15 already reads as the instruction
// address plus 8.
func (c *CPU) executeBranch(inst *insts.Instruction) {
	target := c.regs.PC() + uint32(inst.BranchOffset)
	if inst.ArmOp == insts.ArmBL {
		c.regs.WriteReg(14, c.execAddr+4)
	}
	c.branchTo(target)
}

// branchExchange jumps to target, selecting Thumb state from bit 0.
func (c *CPU) branchExchange(target uint32) {
	c.regs.SetT(target&1 != 0)
	c.branchTo(target)
}
