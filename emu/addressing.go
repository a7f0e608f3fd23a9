package emu

import "github.com/sarchlab/gbasim/bitutil"

// SingleTransferAddress resolves a word/byte/halfword transfer address.
// It returns the address to access and the base value to write back.
// Pre-indexed transfers access base±offset; post-indexed transfers access the
// unmodified base. Both write back base±offset.
func SingleTransferAddress(base, offset uint32, preIndex, up bool) (addr, newBase uint32) {
	newBase = base - offset
	if up {
		newBase = base + offset
	}
	if preIndex {
		return newBase, newBase
	}
	return base, newBase
}

// BlockRange describes the memory touched by a block transfer.
type BlockRange struct {
	// Start is the lowest address transferred.
	Start uint32
	// End is the highest address transferred.
	End uint32
	// NewBase is the base register value after writeback.
	NewBase uint32
}

// BlockTransferRange resolves the four LDM/STM addressing modes. Registers are
// always transferred in ascending order from Start.
func BlockTransferRange(base uint32, regList uint16, preIndex, up bool) BlockRange {
	size := uint32(bitutil.CountSetBits(uint32(regList))) * 4

	switch {
	case up && !preIndex: // increment after
		return BlockRange{Start: base, End: base + size - 4, NewBase: base + size}
	case up && preIndex: // increment before
		return BlockRange{Start: base + 4, End: base + size, NewBase: base + size}
	case !up && !preIndex: // decrement after
		return BlockRange{Start: base - size + 4, End: base, NewBase: base - size}
	default: // decrement before
		return BlockRange{Start: base - size, End: base - 4, NewBase: base - size}
	}
}
