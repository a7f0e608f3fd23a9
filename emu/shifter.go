package emu

import (
	"github.com/sarchlab/gbasim/bitutil"
	"github.com/sarchlab/gbasim/insts"
)

// ShifterResult is a computed shifter operand and its carry-out.
type ShifterResult struct {
	Value uint32
	Carry bool
}

// RotatedImmediate evaluates the immediate form of a 12-bit operand field:
// an 8-bit constant rotated right by twice the 4-bit rotate field.
func RotatedImmediate(field uint32, carryIn bool) ShifterResult {
	imm := field & 0xFF
	rotate := uint(bitutil.GetBitsInRange(field, 8, 12)) * 2
	if rotate == 0 {
		return ShifterResult{Value: imm, Carry: carryIn}
	}
	value := bitutil.RotateRight(imm, rotate)
	return ShifterResult{Value: value, Carry: bitutil.IsSet(value, 31)}
}

// ShiftByImmediate applies a shift encoded with a 5-bit immediate amount.
// An amount of 0 selects LSL #0, LSR #32, ASR #32 or RRX depending on kind.
func ShiftByImmediate(kind insts.ShiftType, value, amount uint32, carryIn bool) ShifterResult {
	n := uint(amount & 31)

	switch kind {
	case insts.ShiftLSL:
		if n == 0 {
			return ShifterResult{Value: value, Carry: carryIn}
		}
		return ShifterResult{
			Value: value << n,
			Carry: bitutil.IsSet(value, 32-n),
		}

	case insts.ShiftLSR:
		if n == 0 {
			return ShifterResult{Value: 0, Carry: bitutil.IsSet(value, 31)}
		}
		return ShifterResult{
			Value: value >> n,
			Carry: bitutil.IsSet(value, n-1),
		}

	case insts.ShiftASR:
		if n == 0 {
			return asrSaturated(value)
		}
		return ShifterResult{
			Value: bitutil.ArithmeticShiftRight(value, n),
			Carry: bitutil.IsSet(value, n-1),
		}

	default:
		if n == 0 {
			// RRX
			var top uint32
			if carryIn {
				top = 1
			}
			return ShifterResult{
				Value: bitutil.ConcatBits(top, value>>1, 31),
				Carry: bitutil.IsSet(value, 0),
			}
		}
		return ShifterResult{
			Value: bitutil.RotateRight(value, n),
			Carry: bitutil.IsSet(value, n-1),
		}
	}
}

// ShiftByRegister applies a shift whose amount comes from the bottom byte of
// a register.
func ShiftByRegister(kind insts.ShiftType, value, amount uint32, carryIn bool) ShifterResult {
	n := uint(amount & 0xFF)
	if n == 0 {
		return ShifterResult{Value: value, Carry: carryIn}
	}

	switch kind {
	case insts.ShiftLSL:
		switch {
		case n < 32:
			return ShifterResult{Value: value << n, Carry: bitutil.IsSet(value, 32-n)}
		case n == 32:
			return ShifterResult{Value: 0, Carry: bitutil.IsSet(value, 0)}
		default:
			return ShifterResult{}
		}

	case insts.ShiftLSR:
		switch {
		case n < 32:
			return ShifterResult{Value: value >> n, Carry: bitutil.IsSet(value, n-1)}
		case n == 32:
			return ShifterResult{Value: 0, Carry: bitutil.IsSet(value, 31)}
		default:
			return ShifterResult{}
		}

	case insts.ShiftASR:
		if n >= 32 {
			return asrSaturated(value)
		}
		return ShifterResult{
			Value: bitutil.ArithmeticShiftRight(value, n),
			Carry: bitutil.IsSet(value, n-1),
		}

	default:
		rot := n & 31
		if rot == 0 {
			return ShifterResult{Value: value, Carry: bitutil.IsSet(value, 31)}
		}
		return ShifterResult{
			Value: bitutil.RotateRight(value, rot),
			Carry: bitutil.IsSet(value, rot-1),
		}
	}
}

func asrSaturated(value uint32) ShifterResult {
	if bitutil.IsSet(value, 31) {
		return ShifterResult{Value: 0xFFFFFFFF, Carry: true}
	}
	return ShifterResult{Value: 0, Carry: false}
}

// shifterOperand computes operand 2 of a data-processing instruction.
func (c *CPU) shifterOperand(inst *insts.Instruction) ShifterResult {
	carry := c.regs.C()
	if inst.Immediate {
		return RotatedImmediate(inst.Shifter, carry)
	}
	return c.shiftedRegister(inst.Shifter, carry)
}

// shiftedRegister evaluates the register forms of a 12-bit operand field.
func (c *CPU) shiftedRegister(field uint32, carry bool) ShifterResult {
	rm := c.regs.ReadReg(uint8(field & 0xF))
	kind := insts.ShiftType(bitutil.GetBitsInRange(field, 5, 7))

	if bitutil.IsSet(field, 4) {
		rs := c.regs.ReadReg(uint8(bitutil.GetBitsInRange(field, 8, 12)))
		return ShiftByRegister(kind, rm, rs, carry)
	}
	return ShiftByImmediate(kind, rm, bitutil.GetBitsInRange(field, 7, 12), carry)
}
