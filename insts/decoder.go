package insts

import "github.com/sarchlab/gbasim/bitutil"

// Format represents an instruction encoding format.
type Format uint8

// Instruction formats.
const (
	FormatUnknown Format = iota

	// ARM formats
	FormatDataProcessing   // ALU ops with a shifter operand
	FormatMultiply         // MUL, MLA
	FormatMultiplyLong     // UMULL, UMLAL, SMULL, SMLAL
	FormatPSRTransfer      // MRS, MSR
	FormatBranchExchange   // BX
	FormatBranch           // B, BL
	FormatSingleTransfer   // LDR, STR and byte/translated variants
	FormatHalfwordTransfer // LDRH, STRH, LDRSB, LDRSH
	FormatBlockTransfer    // LDM, STM
	FormatSwap             // SWP, SWPB
	FormatSoftwareInterrupt
	FormatCoprocessor
	FormatUndefined

	// Thumb formats
	FormatThumbShift        // LSL1, LSR1, ASR1
	FormatThumbAddSub       // ADD1, ADD3, SUB1, SUB3
	FormatThumbImmediate    // MOV1, CMP1, ADD2, SUB2
	FormatThumbALU          // register ALU operations
	FormatThumbHighRegister // ADD4, CMP3, MOV3, BX
	FormatThumbLoadStore    // all single transfers
	FormatThumbAddress      // ADD5, ADD6
	FormatThumbStackAdjust  // ADD7, SUB4
	FormatThumbBlock        // PUSH, POP, LDMIA, STMIA
	FormatThumbBranch       // B1, B2, BL prefix and suffix
)

// Instruction represents a decoded ARM or Thumb instruction.
//
// Register fields hold architectural register numbers. Immediate fields are
// already scaled to bytes where the encoding scales them.
type Instruction struct {
	Set     InstructionSet
	Word    uint32 // Raw encoding; Thumb halfwords are zero-extended
	ArmOp   ArmOp
	ThumbOp ThumbOp
	Format  Format
	Cond    Cond

	Rd   uint8
	Rn   uint8
	Rm   uint8
	Rs   uint8
	RdHi uint8
	RdLo uint8

	SetFlags  bool // S bit of data processing and multiplies
	Immediate bool // Operand or offset is an immediate
	PreIndex  bool // P bit
	Up        bool // U bit
	Writeback bool // W bit
	Load      bool // L bit
	ForceUser bool // S bit of LDM/STM: user bank or CPSR restore
	SPSR      bool // R bit of PSR transfers
	FieldMask uint8

	Shifter      uint32 // Bits [11:0]: shifter operand or register offset
	Imm          uint32
	RegList      uint16
	BranchOffset int32
}

// Decoder decodes ARM and Thumb machine code into instructions.
type Decoder struct{}

// NewDecoder creates a new instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes word according to the given instruction set.
func (d *Decoder) Decode(set InstructionSet, word uint32) *Instruction {
	if set == SetThumb {
		return d.DecodeThumb(uint16(word))
	}
	return d.DecodeArm(word)
}

// DecodeArm decodes a 32-bit ARM instruction word.
func (d *Decoder) DecodeArm(word uint32) *Instruction {
	inst := &Instruction{
		Set:   SetArm,
		Word:  word,
		ArmOp: ClassifyArm(word),
		Cond:  Cond(word >> 28),
	}

	switch op := inst.ArmOp; {
	case op.IsDataProcessing():
		d.decodeDataProcessing(word, inst)
	case op == ArmMUL || op == ArmMLA:
		d.decodeMultiply(word, inst)
	case op >= ArmUMULL && op <= ArmSMLAL:
		d.decodeMultiplyLong(word, inst)
	case op == ArmMRS || op == ArmMSRReg || op == ArmMSRImm:
		d.decodePSRTransfer(word, inst)
	case op == ArmBX:
		inst.Format = FormatBranchExchange
		inst.Rm = reg(word, 0)
	case op == ArmB || op == ArmBL:
		inst.Format = FormatBranch
		offset := bitutil.GetBitsInRange(word, 0, 24) << 2
		inst.BranchOffset = int32(bitutil.SignExtend(offset, 26))
	case op >= ArmLDR && op <= ArmSTRBT:
		d.decodeSingleTransfer(word, inst)
	case op >= ArmLDRH && op <= ArmLDRSH:
		d.decodeHalfwordTransfer(word, inst)
	case op == ArmLDM || op == ArmSTM:
		d.decodeBlockTransfer(word, inst)
	case op == ArmSWP || op == ArmSWPB:
		inst.Format = FormatSwap
		inst.Rn = reg(word, 16)
		inst.Rd = reg(word, 12)
		inst.Rm = reg(word, 0)
	case op == ArmSWI:
		inst.Format = FormatSoftwareInterrupt
		inst.Imm = bitutil.GetBitsInRange(word, 0, 24)
	case op >= ArmCDP && op <= ArmMRC:
		inst.Format = FormatCoprocessor
	case op == ArmUndefined:
		inst.Format = FormatUndefined
	}

	return inst
}

func reg(word uint32, lsb uint) uint8 {
	return uint8(bitutil.GetBitsInRange(word, lsb, lsb+4))
}

func (d *Decoder) decodeDataProcessing(word uint32, inst *Instruction) {
	inst.Format = FormatDataProcessing
	inst.Immediate = bitutil.IsSet(word, 25)
	inst.SetFlags = bitutil.IsSet(word, 20)
	inst.Rn = reg(word, 16)
	inst.Rd = reg(word, 12)
	inst.Rs = reg(word, 8)
	inst.Rm = reg(word, 0)
	inst.Shifter = bitutil.GetBitsInRange(word, 0, 12)
}

// decodeMultiply decodes MUL/MLA. The destination lives in bits [19:16] and
// the accumulator in bits [15:12].
func (d *Decoder) decodeMultiply(word uint32, inst *Instruction) {
	inst.Format = FormatMultiply
	inst.SetFlags = bitutil.IsSet(word, 20)
	inst.Rd = reg(word, 16)
	inst.Rn = reg(word, 12)
	inst.Rs = reg(word, 8)
	inst.Rm = reg(word, 0)
}

func (d *Decoder) decodeMultiplyLong(word uint32, inst *Instruction) {
	inst.Format = FormatMultiplyLong
	inst.SetFlags = bitutil.IsSet(word, 20)
	inst.RdHi = reg(word, 16)
	inst.RdLo = reg(word, 12)
	inst.Rs = reg(word, 8)
	inst.Rm = reg(word, 0)
}

func (d *Decoder) decodePSRTransfer(word uint32, inst *Instruction) {
	inst.Format = FormatPSRTransfer
	inst.SPSR = bitutil.IsSet(word, 22)
	inst.Immediate = inst.ArmOp == ArmMSRImm
	inst.FieldMask = uint8(bitutil.GetBitsInRange(word, 16, 20))
	inst.Rd = reg(word, 12)
	inst.Rm = reg(word, 0)
	inst.Shifter = bitutil.GetBitsInRange(word, 0, 12)
}

// decodeSingleTransfer decodes word/byte loads and stores. Note the inverted
// sense of the I bit: 0 selects an immediate offset.
func (d *Decoder) decodeSingleTransfer(word uint32, inst *Instruction) {
	inst.Format = FormatSingleTransfer
	inst.Immediate = !bitutil.IsSet(word, 25)
	inst.PreIndex = bitutil.IsSet(word, 24)
	inst.Up = bitutil.IsSet(word, 23)
	inst.Writeback = bitutil.IsSet(word, 21)
	inst.Load = bitutil.IsSet(word, 20)
	inst.Rn = reg(word, 16)
	inst.Rd = reg(word, 12)
	inst.Rm = reg(word, 0)
	inst.Shifter = bitutil.GetBitsInRange(word, 0, 12)
	inst.Imm = inst.Shifter
}

func (d *Decoder) decodeHalfwordTransfer(word uint32, inst *Instruction) {
	inst.Format = FormatHalfwordTransfer
	inst.PreIndex = bitutil.IsSet(word, 24)
	inst.Up = bitutil.IsSet(word, 23)
	inst.Immediate = bitutil.IsSet(word, 22)
	inst.Writeback = bitutil.IsSet(word, 21)
	inst.Load = bitutil.IsSet(word, 20)
	inst.Rn = reg(word, 16)
	inst.Rd = reg(word, 12)
	inst.Rm = reg(word, 0)
	inst.Imm = bitutil.ConcatBits(
		bitutil.GetBitsInRange(word, 8, 12), bitutil.GetBitsInRange(word, 0, 4), 4)
}

func (d *Decoder) decodeBlockTransfer(word uint32, inst *Instruction) {
	inst.Format = FormatBlockTransfer
	inst.PreIndex = bitutil.IsSet(word, 24)
	inst.Up = bitutil.IsSet(word, 23)
	inst.ForceUser = bitutil.IsSet(word, 22)
	inst.Writeback = bitutil.IsSet(word, 21)
	inst.Load = bitutil.IsSet(word, 20)
	inst.Rn = reg(word, 16)
	inst.RegList = uint16(word)
}

// DecodeThumb decodes a 16-bit Thumb instruction.
func (d *Decoder) DecodeThumb(halfword uint16) *Instruction {
	word := uint32(halfword)
	inst := &Instruction{
		Set:     SetThumb,
		Word:    word,
		ThumbOp: ClassifyThumb(halfword),
		Cond:    CondAL,
	}

	lowRd := uint8(word & 7)
	lowRn := uint8((word >> 3) & 7)
	imm5 := bitutil.GetBitsInRange(word, 6, 11)
	imm8 := word & 0xFF

	switch op := inst.ThumbOp; op {
	case ThumbLSL1, ThumbLSR1, ThumbASR1:
		inst.Format = FormatThumbShift
		inst.Rd, inst.Rm = lowRd, lowRn
		inst.Imm = imm5

	case ThumbADD3, ThumbSUB3, ThumbADD1, ThumbSUB1:
		inst.Format = FormatThumbAddSub
		inst.Rd, inst.Rn = lowRd, lowRn
		inst.Rm = uint8((word >> 6) & 7)
		inst.Imm = (word >> 6) & 7
		inst.Immediate = op == ThumbADD1 || op == ThumbSUB1

	case ThumbMOV1, ThumbCMP1, ThumbADD2, ThumbSUB2:
		inst.Format = FormatThumbImmediate
		inst.Rd = uint8((word >> 8) & 7)
		inst.Rn = inst.Rd
		inst.Imm = imm8
		inst.Immediate = true

	case ThumbADD4, ThumbCMP3, ThumbMOV3, ThumbBX:
		inst.Format = FormatThumbHighRegister
		inst.Rd = lowRd | uint8((word>>4)&8)
		inst.Rn = inst.Rd
		inst.Rm = uint8((word >> 3) & 0xF)

	case ThumbLDR3:
		inst.Format = FormatThumbLoadStore
		inst.Rd = uint8((word >> 8) & 7)
		inst.Rn = 15
		inst.Imm = imm8 << 2
		inst.Immediate = true
		inst.Load = true

	case ThumbSTR2, ThumbSTRH2, ThumbSTRB2, ThumbLDRSB,
		ThumbLDR2, ThumbLDRH2, ThumbLDRB2, ThumbLDRSH:
		inst.Format = FormatThumbLoadStore
		inst.Rd, inst.Rn = lowRd, lowRn
		inst.Rm = uint8((word >> 6) & 7)
		inst.Load = bitutil.IsSet(word, 11) || op == ThumbLDRSB

	case ThumbSTR1, ThumbLDR1:
		d.decodeThumbImmOffset(word, inst, imm5<<2)
	case ThumbSTRB1, ThumbLDRB1:
		d.decodeThumbImmOffset(word, inst, imm5)
	case ThumbSTRH1, ThumbLDRH1:
		d.decodeThumbImmOffset(word, inst, imm5<<1)

	case ThumbSTR3, ThumbLDR4:
		inst.Format = FormatThumbLoadStore
		inst.Rd = uint8((word >> 8) & 7)
		inst.Rn = 13
		inst.Imm = imm8 << 2
		inst.Immediate = true
		inst.Load = op == ThumbLDR4

	case ThumbADD5, ThumbADD6:
		inst.Format = FormatThumbAddress
		inst.Rd = uint8((word >> 8) & 7)
		inst.Rn = 15
		if op == ThumbADD6 {
			inst.Rn = 13
		}
		inst.Imm = imm8 << 2
		inst.Immediate = true

	case ThumbADD7, ThumbSUB4:
		inst.Format = FormatThumbStackAdjust
		inst.Rd, inst.Rn = 13, 13
		inst.Imm = (word & 0x7F) << 2
		inst.Immediate = true

	case ThumbPUSH, ThumbPOP:
		inst.Format = FormatThumbBlock
		inst.Rn = 13
		inst.RegList = uint16(imm8)
		if bitutil.IsSet(word, 8) {
			if op == ThumbPUSH {
				inst.RegList |= 1 << 14
			} else {
				inst.RegList |= 1 << 15
			}
		}
		inst.Load = op == ThumbPOP

	case ThumbSTMIA, ThumbLDMIA:
		inst.Format = FormatThumbBlock
		inst.Rn = uint8((word >> 8) & 7)
		inst.RegList = uint16(imm8)
		inst.Load = op == ThumbLDMIA

	case ThumbB1:
		inst.Format = FormatThumbBranch
		inst.Cond = Cond((word >> 8) & 0xF)
		inst.BranchOffset = int32(bitutil.SignExtend(imm8<<1, 9))
	case ThumbB2:
		inst.Format = FormatThumbBranch
		inst.BranchOffset = int32(bitutil.SignExtend((word&0x7FF)<<1, 12))
	case ThumbBLPrefix:
		inst.Format = FormatThumbBranch
		inst.BranchOffset = int32(bitutil.SignExtend(word&0x7FF, 11) << 12)
	case ThumbBLSuffix:
		inst.Format = FormatThumbBranch
		inst.BranchOffset = int32((word & 0x7FF) << 1)

	case ThumbSWI:
		inst.Format = FormatSoftwareInterrupt
		inst.Imm = imm8
	case ThumbUndefined:
		inst.Format = FormatUndefined

	default:
		if op >= ThumbAND && op <= ThumbMVN {
			inst.Format = FormatThumbALU
			inst.Rd, inst.Rm = lowRd, lowRn
			inst.Rn = lowRd
		}
	}

	return inst
}

func (d *Decoder) decodeThumbImmOffset(word uint32, inst *Instruction, offset uint32) {
	inst.Format = FormatThumbLoadStore
	inst.Rd = uint8(word & 7)
	inst.Rn = uint8((word >> 3) & 7)
	inst.Imm = offset
	inst.Immediate = true
	inst.Load = bitutil.IsSet(word, 11)
}
