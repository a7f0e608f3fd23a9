// Package insts provides ARM7TDMI instruction definitions, classification and
// decoding for both the 32-bit ARM and the 16-bit Thumb instruction sets.
//
// Classification follows a fixed priority order: a raw word is tested against
// an ordered table of (mask, encoding) pairs and the first match wins. For ARM
// the extended table (multiplies, halfword transfers, PSR transfers and branch
// exchange) is checked before the main table because those encodings are
// proper subsets of the data-processing mask.
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	inst := decoder.DecodeArm(0xE3A00005) // MOV r0, #5
//	fmt.Printf("Op: %v, Rd: %d, Cond: %v\n", inst.ArmOp, inst.Rd, inst.Cond)
package insts

// InstructionSet identifies the encoding an instruction was fetched in.
type InstructionSet uint8

// Instruction sets.
const (
	SetArm InstructionSet = iota
	SetThumb
)

// Cond represents an ARM condition code.
type Cond uint8

// ARM condition codes.
const (
	CondEQ Cond = 0b0000 // Equal (Z == 1)
	CondNE Cond = 0b0001 // Not Equal (Z == 0)
	CondCS Cond = 0b0010 // Carry Set / Unsigned higher or same (C == 1)
	CondCC Cond = 0b0011 // Carry Clear / Unsigned lower (C == 0)
	CondMI Cond = 0b0100 // Minus / Negative (N == 1)
	CondPL Cond = 0b0101 // Plus / Positive or zero (N == 0)
	CondVS Cond = 0b0110 // Overflow (V == 1)
	CondVC Cond = 0b0111 // No overflow (V == 0)
	CondHI Cond = 0b1000 // Unsigned higher (C == 1 && Z == 0)
	CondLS Cond = 0b1001 // Unsigned lower or same (C == 0 || Z == 1)
	CondGE Cond = 0b1010 // Signed greater than or equal (N == V)
	CondLT Cond = 0b1011 // Signed less than (N != V)
	CondGT Cond = 0b1100 // Signed greater than (Z == 0 && N == V)
	CondLE Cond = 0b1101 // Signed less than or equal (Z == 1 || N != V)
	CondAL Cond = 0b1110 // Always (unconditional)
	CondNV Cond = 0b1111 // Never (reserved on ARMv4)
)

var condNames = [16]string{
	"EQ", "NE", "CS", "CC", "MI", "PL", "VS", "VC",
	"HI", "LS", "GE", "LT", "GT", "LE", "AL", "NV",
}

func (c Cond) String() string {
	return condNames[c&0xF]
}

// ShiftType represents a shift type for register operands.
type ShiftType uint8

// Shift types.
const (
	ShiftLSL ShiftType = 0b00 // Logical shift left
	ShiftLSR ShiftType = 0b01 // Logical shift right
	ShiftASR ShiftType = 0b10 // Arithmetic shift right
	ShiftROR ShiftType = 0b11 // Rotate right
)

var shiftNames = [4]string{"LSL", "LSR", "ASR", "ROR"}

func (s ShiftType) String() string {
	return shiftNames[s&3]
}

// entry is one row of a classification table.
type entry[T any] struct {
	mask     uint32
	encoding uint32
	op       T
}

func (e entry[T]) matches(word uint32) bool {
	return word&e.mask == e.encoding
}
