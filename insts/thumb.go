package insts

// ThumbOp represents a 16-bit Thumb opcode. Names follow the numbered forms
// of the ARM Architecture Reference Manual (LSL1 is shift by immediate, LSL2
// is shift by register, and so on).
type ThumbOp uint8

// Thumb opcodes.
const (
	ThumbUnknown ThumbOp = iota

	ThumbLSL1
	ThumbLSR1
	ThumbASR1
	ThumbADD3
	ThumbSUB3
	ThumbADD1
	ThumbSUB1
	ThumbMOV1
	ThumbCMP1
	ThumbADD2
	ThumbSUB2

	// Register ALU operations, in opcode-field order.
	ThumbAND
	ThumbEOR
	ThumbLSL2
	ThumbLSR2
	ThumbASR2
	ThumbADC
	ThumbSBC
	ThumbROR
	ThumbTST
	ThumbNEG
	ThumbCMP2
	ThumbCMN
	ThumbORR
	ThumbMUL
	ThumbBIC
	ThumbMVN

	// High register operations
	ThumbADD4
	ThumbCMP3
	ThumbMOV3
	ThumbBX

	// Loads and stores
	ThumbLDR3
	ThumbSTR2
	ThumbSTRH2
	ThumbSTRB2
	ThumbLDRSB
	ThumbLDR2
	ThumbLDRH2
	ThumbLDRB2
	ThumbLDRSH
	ThumbSTR1
	ThumbLDR1
	ThumbSTRB1
	ThumbLDRB1
	ThumbSTRH1
	ThumbLDRH1
	ThumbSTR3
	ThumbLDR4

	// Address generation and stack adjustment
	ThumbADD5
	ThumbADD6
	ThumbADD7
	ThumbSUB4

	// Block transfers
	ThumbPUSH
	ThumbPOP
	ThumbSTMIA
	ThumbLDMIA

	// Branches and exceptions
	ThumbB1
	ThumbB2
	ThumbBLPrefix
	ThumbBLSuffix
	ThumbSWI
	ThumbUndefined
)

var thumbOpNames = map[ThumbOp]string{
	ThumbUnknown: "UNKNOWN",
	ThumbLSL1:    "LSL", ThumbLSR1: "LSR", ThumbASR1: "ASR",
	ThumbADD3: "ADD", ThumbSUB3: "SUB", ThumbADD1: "ADD", ThumbSUB1: "SUB",
	ThumbMOV1: "MOV", ThumbCMP1: "CMP", ThumbADD2: "ADD", ThumbSUB2: "SUB",
	ThumbAND: "AND", ThumbEOR: "EOR", ThumbLSL2: "LSL", ThumbLSR2: "LSR",
	ThumbASR2: "ASR", ThumbADC: "ADC", ThumbSBC: "SBC", ThumbROR: "ROR",
	ThumbTST: "TST", ThumbNEG: "NEG", ThumbCMP2: "CMP", ThumbCMN: "CMN",
	ThumbORR: "ORR", ThumbMUL: "MUL", ThumbBIC: "BIC", ThumbMVN: "MVN",
	ThumbADD4: "ADD", ThumbCMP3: "CMP", ThumbMOV3: "MOV", ThumbBX: "BX",
	ThumbLDR3: "LDR", ThumbSTR2: "STR", ThumbSTRH2: "STRH", ThumbSTRB2: "STRB",
	ThumbLDRSB: "LDRSB", ThumbLDR2: "LDR", ThumbLDRH2: "LDRH", ThumbLDRB2: "LDRB",
	ThumbLDRSH: "LDRSH", ThumbSTR1: "STR", ThumbLDR1: "LDR", ThumbSTRB1: "STRB",
	ThumbLDRB1: "LDRB", ThumbSTRH1: "STRH", ThumbLDRH1: "LDRH", ThumbSTR3: "STR",
	ThumbLDR4: "LDR", ThumbADD5: "ADD", ThumbADD6: "ADD", ThumbADD7: "ADD",
	ThumbSUB4: "SUB", ThumbPUSH: "PUSH", ThumbPOP: "POP", ThumbSTMIA: "STMIA",
	ThumbLDMIA: "LDMIA", ThumbB1: "B", ThumbB2: "B", ThumbBLPrefix: "BL",
	ThumbBLSuffix: "BL", ThumbSWI: "SWI", ThumbUndefined: "UNDEFINED",
}

func (op ThumbOp) String() string {
	if name, ok := thumbOpNames[op]; ok {
		return name
	}
	return "UNKNOWN"
}

var thumbTable = []entry[ThumbOp]{
	{0xF800, 0x0000, ThumbLSL1},
	{0xF800, 0x0800, ThumbLSR1},
	{0xF800, 0x1000, ThumbASR1},
	{0xFE00, 0x1800, ThumbADD3},
	{0xFE00, 0x1A00, ThumbSUB3},
	{0xFE00, 0x1C00, ThumbADD1},
	{0xFE00, 0x1E00, ThumbSUB1},
	{0xF800, 0x2000, ThumbMOV1},
	{0xF800, 0x2800, ThumbCMP1},
	{0xF800, 0x3000, ThumbADD2},
	{0xF800, 0x3800, ThumbSUB2},

	{0xFFC0, 0x4000, ThumbAND},
	{0xFFC0, 0x4040, ThumbEOR},
	{0xFFC0, 0x4080, ThumbLSL2},
	{0xFFC0, 0x40C0, ThumbLSR2},
	{0xFFC0, 0x4100, ThumbASR2},
	{0xFFC0, 0x4140, ThumbADC},
	{0xFFC0, 0x4180, ThumbSBC},
	{0xFFC0, 0x41C0, ThumbROR},
	{0xFFC0, 0x4200, ThumbTST},
	{0xFFC0, 0x4240, ThumbNEG},
	{0xFFC0, 0x4280, ThumbCMP2},
	{0xFFC0, 0x42C0, ThumbCMN},
	{0xFFC0, 0x4300, ThumbORR},
	{0xFFC0, 0x4340, ThumbMUL},
	{0xFFC0, 0x4380, ThumbBIC},
	{0xFFC0, 0x43C0, ThumbMVN},

	{0xFF00, 0x4400, ThumbADD4},
	{0xFF00, 0x4500, ThumbCMP3},
	{0xFF00, 0x4600, ThumbMOV3},
	{0xFF80, 0x4700, ThumbBX},

	{0xF800, 0x4800, ThumbLDR3},

	{0xFE00, 0x5000, ThumbSTR2},
	{0xFE00, 0x5200, ThumbSTRH2},
	{0xFE00, 0x5400, ThumbSTRB2},
	{0xFE00, 0x5600, ThumbLDRSB},
	{0xFE00, 0x5800, ThumbLDR2},
	{0xFE00, 0x5A00, ThumbLDRH2},
	{0xFE00, 0x5C00, ThumbLDRB2},
	{0xFE00, 0x5E00, ThumbLDRSH},

	{0xF800, 0x6000, ThumbSTR1},
	{0xF800, 0x6800, ThumbLDR1},
	{0xF800, 0x7000, ThumbSTRB1},
	{0xF800, 0x7800, ThumbLDRB1},
	{0xF800, 0x8000, ThumbSTRH1},
	{0xF800, 0x8800, ThumbLDRH1},
	{0xF800, 0x9000, ThumbSTR3},
	{0xF800, 0x9800, ThumbLDR4},
	{0xF800, 0xA000, ThumbADD5},
	{0xF800, 0xA800, ThumbADD6},

	{0xFF80, 0xB000, ThumbADD7},
	{0xFF80, 0xB080, ThumbSUB4},
	{0xFE00, 0xB400, ThumbPUSH},
	{0xFE00, 0xBC00, ThumbPOP},

	{0xF800, 0xC000, ThumbSTMIA},
	{0xF800, 0xC800, ThumbLDMIA},

	// Condition 0b1110 and 0b1111 in the conditional branch space.
	{0xFF00, 0xDE00, ThumbUndefined},
	{0xFF00, 0xDF00, ThumbSWI},
	{0xF000, 0xD000, ThumbB1},

	{0xF800, 0xE000, ThumbB2},
	{0xF800, 0xF000, ThumbBLPrefix},
	{0xF800, 0xF800, ThumbBLSuffix},
}

// ClassifyThumb returns the opcode of a 16-bit Thumb instruction, or
// ThumbUnknown if no table entry matches.
func ClassifyThumb(halfword uint16) ThumbOp {
	word := uint32(halfword)
	for _, e := range thumbTable {
		if e.matches(word) {
			return e.op
		}
	}
	return ThumbUnknown
}
