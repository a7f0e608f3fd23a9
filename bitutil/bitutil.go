// Package bitutil provides the 32-bit bit manipulation primitives used by the
// instruction decoder and the execution core.
//
// All functions are pure and operate on unsigned words. Shift and rotate
// helpers treat an amount of 0 as a no-op and never rely on Go's behavior for
// shifts of 32 or more.
package bitutil

import "math/bits"

// GetBit returns bit n of word (0 is the least significant bit).
func GetBit(word uint32, n uint) uint32 {
	return (word >> (n & 31)) & 1
}

// IsSet reports whether bit n of word is 1.
func IsSet(word uint32, n uint) bool {
	return GetBit(word, n) == 1
}

// GetBitsInRange returns bits [start, end) of word, shifted down to bit 0.
// An end of 32 means "to the top of the word". An empty range returns 0.
func GetBitsInRange(word uint32, start, end uint) uint32 {
	if end <= start || start >= 32 {
		return 0
	}
	if end > 32 {
		end = 32
	}
	width := end - start
	if width == 32 {
		return word
	}
	return (word >> start) & ((1 << width) - 1)
}

// ConcatBits returns (high << lowWidth) | low.
func ConcatBits(high, low uint32, lowWidth uint) uint32 {
	if lowWidth >= 32 {
		return low
	}
	return (high << lowWidth) | low
}

// SignExtend sign-extends a numBits wide two's complement value to 32 bits.
// A 32-bit value is returned unchanged.
func SignExtend(value uint32, numBits uint) uint32 {
	if numBits >= 32 {
		return value
	}
	shift := 32 - numBits
	return uint32(int32(value<<shift) >> shift)
}

// RotateRight rotates value right by n bits. n is taken modulo 32.
func RotateRight(value uint32, n uint) uint32 {
	return bits.RotateLeft32(value, -int(n&31))
}

// LogicalShiftLeft shifts value left by n. Amounts of 32 or more yield 0.
func LogicalShiftLeft(value uint32, n uint) uint32 {
	if n >= 32 {
		return 0
	}
	return value << n
}

// LogicalShiftRight shifts value right by n, filling with zeros. Amounts of 32
// or more yield 0.
func LogicalShiftRight(value uint32, n uint) uint32 {
	if n >= 32 {
		return 0
	}
	return value >> n
}

// ArithmeticShiftRight shifts value right by n, replicating the sign bit.
// Amounts of 32 or more saturate to all sign bits.
func ArithmeticShiftRight(value uint32, n uint) uint32 {
	if n >= 32 {
		n = 31
	}
	return uint32(int32(value) >> n)
}

// SetBitsInMask returns current with the bits selected by mask replaced by the
// corresponding bits of newBits.
func SetBitsInMask(current, newBits, mask uint32) uint32 {
	return (current &^ mask) | (newBits & mask)
}

// AssignBit returns word with bit n set to the given value.
func AssignBit(word uint32, n uint, set bool) uint32 {
	var v uint32
	if set {
		v = 1
	}
	return SetBitsInMask(word, v<<(n&31), 1<<(n&31))
}

// UnsignedAddCarry reports whether a+b carries out of bit 31.
func UnsignedAddCarry(a, b uint32) bool {
	return a > ^b
}

// UnsignedAddCarryIn reports whether a+b+carry carries out of bit 31.
func UnsignedAddCarryIn(a, b uint32, carry bool) bool {
	var c uint32
	if carry {
		c = 1
	}
	_, out := bits.Add32(a, b, c)
	return out != 0
}

// UnsignedSubBorrow reports whether a-b borrows, i.e. b > a.
func UnsignedSubBorrow(a, b uint32) bool {
	return b > a
}

// SignedAddOverflow reports whether a+b overflows the signed 32-bit range.
func SignedAddOverflow(a, b uint32) bool {
	sum := a + b
	return (^(a ^ b) & (a ^ sum) >> 31) != 0
}

// SignedAddOverflowIn reports whether a+b+carry overflows the signed 32-bit
// range.
func SignedAddOverflowIn(a, b uint32, carry bool) bool {
	var c uint32
	if carry {
		c = 1
	}
	sum := a + b + c
	return (^(a ^ b) & (a ^ sum) >> 31) != 0
}

// SignedSubOverflow reports whether a-b overflows the signed 32-bit range.
func SignedSubOverflow(a, b uint32) bool {
	diff := a - b
	return ((a ^ b) & (a ^ diff) >> 31) != 0
}

// CountSetBits returns the population count of word.
func CountSetBits(word uint32) uint {
	return uint(bits.OnesCount32(word))
}
