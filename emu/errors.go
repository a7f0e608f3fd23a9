package emu

import "errors"

var (
	// ErrUndefinedInstruction is returned when an instruction matches no
	// encoding, or an undefined encoding, and undefined trapping is off.
	ErrUndefinedInstruction = errors.New("undefined instruction")

	// ErrPCOutOfRange is returned when the program counter points outside
	// the addressable memory image.
	ErrPCOutOfRange = errors.New("program counter out of range")

	// ErrInvalidMode is returned when the CPSR mode field selects no mode.
	ErrInvalidMode = errors.New("invalid processor mode")

	// ErrMisalignedAccess is returned for halfword accesses to odd addresses
	// and Thumb word accesses to unaligned addresses.
	ErrMisalignedAccess = errors.New("misaligned memory access")

	// ErrMaxInstructions is returned by the Emulator once its instruction
	// limit is reached.
	ErrMaxInstructions = errors.New("max instructions reached")
)
