package insts

// ArmOp represents a 32-bit ARM opcode.
type ArmOp uint8

// ARM opcodes.
const (
	ArmUnknown ArmOp = iota

	// Data processing, in opcode-field order.
	ArmAND
	ArmEOR
	ArmSUB
	ArmRSB
	ArmADD
	ArmADC
	ArmSBC
	ArmRSC
	ArmTST
	ArmTEQ
	ArmCMP
	ArmCMN
	ArmORR
	ArmMOV
	ArmBIC
	ArmMVN

	// Multiplies
	ArmMUL
	ArmMLA
	ArmUMULL
	ArmUMLAL
	ArmSMULL
	ArmSMLAL

	// Status register transfers
	ArmMRS
	ArmMSRReg
	ArmMSRImm

	// Branches
	ArmBX
	ArmB
	ArmBL

	// Single data transfers
	ArmLDR
	ArmLDRB
	ArmSTR
	ArmSTRB
	ArmLDRT
	ArmLDRBT
	ArmSTRT
	ArmSTRBT
	ArmLDRH
	ArmSTRH
	ArmLDRSB
	ArmLDRSH

	// Block transfers and swaps
	ArmLDM
	ArmSTM
	ArmSWP
	ArmSWPB

	// Exceptions and coprocessor space
	ArmSWI
	ArmCDP
	ArmLDC
	ArmSTC
	ArmMCR
	ArmMRC
	ArmUndefined
)

var armOpNames = map[ArmOp]string{
	ArmUnknown: "UNKNOWN",
	ArmAND:     "AND", ArmEOR: "EOR", ArmSUB: "SUB", ArmRSB: "RSB",
	ArmADD: "ADD", ArmADC: "ADC", ArmSBC: "SBC", ArmRSC: "RSC",
	ArmTST: "TST", ArmTEQ: "TEQ", ArmCMP: "CMP", ArmCMN: "CMN",
	ArmORR: "ORR", ArmMOV: "MOV", ArmBIC: "BIC", ArmMVN: "MVN",
	ArmMUL: "MUL", ArmMLA: "MLA", ArmUMULL: "UMULL", ArmUMLAL: "UMLAL",
	ArmSMULL: "SMULL", ArmSMLAL: "SMLAL",
	ArmMRS: "MRS", ArmMSRReg: "MSR", ArmMSRImm: "MSR",
	ArmBX: "BX", ArmB: "B", ArmBL: "BL",
	ArmLDR: "LDR", ArmLDRB: "LDRB", ArmSTR: "STR", ArmSTRB: "STRB",
	ArmLDRT: "LDRT", ArmLDRBT: "LDRBT", ArmSTRT: "STRT", ArmSTRBT: "STRBT",
	ArmLDRH: "LDRH", ArmSTRH: "STRH", ArmLDRSB: "LDRSB", ArmLDRSH: "LDRSH",
	ArmLDM: "LDM", ArmSTM: "STM", ArmSWP: "SWP", ArmSWPB: "SWPB",
	ArmSWI: "SWI", ArmCDP: "CDP", ArmLDC: "LDC", ArmSTC: "STC",
	ArmMCR: "MCR", ArmMRC: "MRC", ArmUndefined: "UNDEFINED",
}

func (op ArmOp) String() string {
	if name, ok := armOpNames[op]; ok {
		return name
	}
	return "UNKNOWN"
}

// IsDataProcessing reports whether op is one of the sixteen ALU opcodes.
func (op ArmOp) IsDataProcessing() bool {
	return op >= ArmAND && op <= ArmMVN
}

// IsCompare reports whether op only updates flags (TST, TEQ, CMP, CMN).
func (op ArmOp) IsCompare() bool {
	return op >= ArmTST && op <= ArmCMN
}

// armExtendedTable holds the encodings that alias the generic data-processing
// and load/store masks. It is always searched before armTable.
var armExtendedTable = []entry[ArmOp]{
	{0x0FFFFFF0, 0x012FFF10, ArmBX},
	{0x0FBF0FFF, 0x010F0000, ArmMRS},
	{0x0FB0FFF0, 0x0120F000, ArmMSRReg},
	{0x0FB0F000, 0x0320F000, ArmMSRImm},

	{0x0FE000F0, 0x00000090, ArmMUL},
	{0x0FE000F0, 0x00200090, ArmMLA},
	{0x0FE000F0, 0x00800090, ArmUMULL},
	{0x0FE000F0, 0x00A00090, ArmUMLAL},
	{0x0FE000F0, 0x00C00090, ArmSMULL},
	{0x0FE000F0, 0x00E00090, ArmSMLAL},

	{0x0FF00FF0, 0x01000090, ArmSWP},
	{0x0FF00FF0, 0x01400090, ArmSWPB},

	{0x0E1000F0, 0x000000B0, ArmSTRH},
	{0x0E1000F0, 0x001000B0, ArmLDRH},
	{0x0E1000F0, 0x001000D0, ArmLDRSB},
	{0x0E1000F0, 0x001000F0, ArmLDRSH},

	// Leftover multiply/extra load-store space, the media space, and the
	// flag-less compare space not claimed by the PSR transfers above.
	{0x0E000090, 0x00000090, ArmUndefined},
	{0x0E000010, 0x06000010, ArmUndefined},
	{0x0D900000, 0x01000000, ArmUndefined},
}

var armTable = []entry[ArmOp]{
	{0x0DE00000, 0x00000000, ArmAND},
	{0x0DE00000, 0x00200000, ArmEOR},
	{0x0DE00000, 0x00400000, ArmSUB},
	{0x0DE00000, 0x00600000, ArmRSB},
	{0x0DE00000, 0x00800000, ArmADD},
	{0x0DE00000, 0x00A00000, ArmADC},
	{0x0DE00000, 0x00C00000, ArmSBC},
	{0x0DE00000, 0x00E00000, ArmRSC},
	{0x0DE00000, 0x01000000, ArmTST},
	{0x0DE00000, 0x01200000, ArmTEQ},
	{0x0DE00000, 0x01400000, ArmCMP},
	{0x0DE00000, 0x01600000, ArmCMN},
	{0x0DE00000, 0x01800000, ArmORR},
	{0x0DE00000, 0x01A00000, ArmMOV},
	{0x0DE00000, 0x01C00000, ArmBIC},
	{0x0DE00000, 0x01E00000, ArmMVN},

	{0x0D700000, 0x04300000, ArmLDRT},
	{0x0D700000, 0x04700000, ArmLDRBT},
	{0x0D700000, 0x04200000, ArmSTRT},
	{0x0D700000, 0x04600000, ArmSTRBT},

	{0x0C500000, 0x04100000, ArmLDR},
	{0x0C500000, 0x04500000, ArmLDRB},
	{0x0C500000, 0x04000000, ArmSTR},
	{0x0C500000, 0x04400000, ArmSTRB},

	{0x0E100000, 0x08100000, ArmLDM},
	{0x0E100000, 0x08000000, ArmSTM},

	{0x0F000000, 0x0A000000, ArmB},
	{0x0F000000, 0x0B000000, ArmBL},

	{0x0E100000, 0x0C100000, ArmLDC},
	{0x0E100000, 0x0C000000, ArmSTC},
	{0x0F000010, 0x0E000000, ArmCDP},
	{0x0F100010, 0x0E100010, ArmMRC},
	{0x0F100010, 0x0E000010, ArmMCR},

	{0x0F000000, 0x0F000000, ArmSWI},
}

// ClassifyArm returns the opcode of a 32-bit ARM instruction word, or
// ArmUnknown if no table entry matches.
func ClassifyArm(word uint32) ArmOp {
	for _, e := range armExtendedTable {
		if e.matches(word) {
			return e.op
		}
	}
	for _, e := range armTable {
		if e.matches(word) {
			return e.op
		}
	}
	return ArmUnknown
}
