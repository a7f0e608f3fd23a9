// Package emu provides functional ARM7TDMI emulation.
package emu

import (
	"fmt"

	"github.com/sarchlab/gbasim/bitutil"
)

// Mode is a processor mode as encoded in CPSR[4:0].
type Mode uint8

// Processor modes.
const (
	ModeUser       Mode = 0x10
	ModeFIQ        Mode = 0x11
	ModeIRQ        Mode = 0x12
	ModeSupervisor Mode = 0x13
	ModeAbort      Mode = 0x17
	ModeUndefined  Mode = 0x1B
	ModeSystem     Mode = 0x1F
)

var modeNames = map[Mode]string{
	ModeUser:       "USR",
	ModeFIQ:        "FIQ",
	ModeIRQ:        "IRQ",
	ModeSupervisor: "SVC",
	ModeAbort:      "ABT",
	ModeUndefined:  "UND",
	ModeSystem:     "SYS",
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("INVALID(0x%02X)", uint8(m))
}

// Valid reports whether m is one of the seven architectural modes.
func (m Mode) Valid() bool {
	_, ok := modeNames[m]
	return ok
}

// Privileged reports whether m is any mode other than User.
func (m Mode) Privileged() bool {
	return m != ModeUser
}

// CPSR bit positions and masks.
const (
	PSRModeMask uint32 = 0x1F
	PSRThumb    uint32 = 1 << 5
	PSRFIQ      uint32 = 1 << 6
	PSRIRQ      uint32 = 1 << 7
	PSRV        uint32 = 1 << 28
	PSRC        uint32 = 1 << 29
	PSRZ        uint32 = 1 << 30
	PSRN        uint32 = 1 << 31
	PSRFlags           = PSRN | PSRZ | PSRC | PSRV
)

// Backing slot layout. Slots 0-15 are shared by User and System mode (and by
// every other mode for the registers it does not bank).
const (
	slotFIQ   = 16 // r8_fiq..r14_fiq
	slotSVC   = 23 // r13_svc, r14_svc
	slotAbort = 25
	slotUnd   = 27
	slotIRQ   = 29
	slotCount = 31
)

const (
	spsrFIQ = iota
	spsrSVC
	spsrAbort
	spsrUnd
	spsrIRQ
	spsrCount

	noSPSR = -1
)

// bankView maps logical register numbers to backing slots for one mode.
type bankView struct {
	mode  Mode
	slots [16]uint8
	spsr  int
}

var bankViews = buildBankViews()

func buildBankViews() map[Mode]*bankView {
	shared := func(mode Mode, spsr int) *bankView {
		v := &bankView{mode: mode, spsr: spsr}
		for i := range v.slots {
			v.slots[i] = uint8(i)
		}
		return v
	}
	banked := func(mode Mode, first uint8, spsr int) *bankView {
		v := shared(mode, spsr)
		v.slots[13] = first
		v.slots[14] = first + 1
		return v
	}

	fiq := shared(ModeFIQ, spsrFIQ)
	for i := 8; i <= 14; i++ {
		fiq.slots[i] = uint8(slotFIQ + i - 8)
	}

	return map[Mode]*bankView{
		ModeUser:       shared(ModeUser, noSPSR),
		ModeSystem:     shared(ModeSystem, noSPSR),
		ModeFIQ:        fiq,
		ModeSupervisor: banked(ModeSupervisor, slotSVC, spsrSVC),
		ModeAbort:      banked(ModeAbort, slotAbort, spsrAbort),
		ModeUndefined:  banked(ModeUndefined, slotUnd, spsrUnd),
		ModeIRQ:        banked(ModeIRQ, slotIRQ, spsrIRQ),
	}
}

// RegFile represents the ARM7TDMI register file.
//
// All 31 physical registers live in one backing array. The active view,
// selected from the CPSR mode field by Rebind, maps r0-r15 onto that array so
// that mode switches never copy register values. r15 is never banked.
type RegFile struct {
	slots [slotCount]uint32
	spsrs [spsrCount]uint32
	cpsr  uint32
	view  *bankView
}

// NewRegFile creates a register file in Supervisor mode with every register
// cleared.
func NewRegFile() *RegFile {
	r := &RegFile{}
	r.Reset()
	return r
}

// Reset clears every register and selects Supervisor mode in ARM state.
func (r *RegFile) Reset() {
	r.slots = [slotCount]uint32{}
	r.spsrs = [spsrCount]uint32{}
	r.cpsr = uint32(ModeSupervisor)
	r.view = bankViews[ModeSupervisor]
}

// ReadReg reads r0-r15 through the active view.
func (r *RegFile) ReadReg(reg uint8) uint32 {
	return r.slots[r.view.slots[reg&15]]
}

// WriteReg writes r0-r15 through the active view.
func (r *RegFile) WriteReg(reg uint8, value uint32) {
	r.slots[r.view.slots[reg&15]] = value
}

// ReadUserReg reads a register through the User mode view regardless of the
// current mode. Used by block transfers with the S bit set.
func (r *RegFile) ReadUserReg(reg uint8) uint32 {
	return r.slots[bankViews[ModeUser].slots[reg&15]]
}

// WriteUserReg writes a register through the User mode view.
func (r *RegFile) WriteUserReg(reg uint8, value uint32) {
	r.slots[bankViews[ModeUser].slots[reg&15]] = value
}

// PC returns r15.
func (r *RegFile) PC() uint32 {
	return r.slots[15]
}

// SetPC sets r15.
func (r *RegFile) SetPC(value uint32) {
	r.slots[15] = value
}

// CPSR returns the current program status register.
func (r *RegFile) CPSR() uint32 {
	return r.cpsr
}

// SetCPSR replaces the CPSR. The register view follows on the next Rebind.
func (r *RegFile) SetCPSR(value uint32) {
	r.cpsr = value
}

// SPSR returns the saved status register of the active view. ok is false in
// User and System mode, which have none.
func (r *RegFile) SPSR() (value uint32, ok bool) {
	if r.view.spsr == noSPSR {
		return 0, false
	}
	return r.spsrs[r.view.spsr], true
}

// SetSPSR writes the saved status register of the active view. It reports
// false, and does nothing, in User and System mode.
func (r *RegFile) SetSPSR(value uint32) bool {
	if r.view.spsr == noSPSR {
		return false
	}
	r.spsrs[r.view.spsr] = value
	return true
}

// Mode returns the mode encoded in the CPSR.
func (r *RegFile) Mode() Mode {
	return Mode(r.cpsr & PSRModeMask)
}

// ViewMode returns the mode of the active register view.
func (r *RegFile) ViewMode() Mode {
	return r.view.mode
}

// Rebind selects the register view matching the CPSR mode field.
func (r *RegFile) Rebind() error {
	view, ok := bankViews[r.Mode()]
	if !ok {
		return fmt.Errorf("%w: CPSR=0x%08X", ErrInvalidMode, r.cpsr)
	}
	r.view = view
	return nil
}

// SwitchMode writes the CPSR mode field and rebinds the register view.
func (r *RegFile) SwitchMode(m Mode) error {
	r.cpsr = bitutil.SetBitsInMask(r.cpsr, uint32(m), PSRModeMask)
	return r.Rebind()
}

func (r *RegFile) flag(mask uint32) bool {
	return r.cpsr&mask != 0
}

func (r *RegFile) setFlag(mask uint32, set bool) {
	var bits uint32
	if set {
		bits = mask
	}
	r.cpsr = bitutil.SetBitsInMask(r.cpsr, bits, mask)
}

// N returns the negative flag.
func (r *RegFile) N() bool { return r.flag(PSRN) }

// Z returns the zero flag.
func (r *RegFile) Z() bool { return r.flag(PSRZ) }

// C returns the carry flag.
func (r *RegFile) C() bool { return r.flag(PSRC) }

// V returns the overflow flag.
func (r *RegFile) V() bool { return r.flag(PSRV) }

// T reports whether the core is in Thumb state.
func (r *RegFile) T() bool { return r.flag(PSRThumb) }

// SetN sets the negative flag.
func (r *RegFile) SetN(set bool) { r.setFlag(PSRN, set) }

// SetZ sets the zero flag.
func (r *RegFile) SetZ(set bool) { r.setFlag(PSRZ, set) }

// SetC sets the carry flag.
func (r *RegFile) SetC(set bool) { r.setFlag(PSRC, set) }

// SetV sets the overflow flag.
func (r *RegFile) SetV(set bool) { r.setFlag(PSRV, set) }

// SetT sets the Thumb state bit.
func (r *RegFile) SetT(set bool) { r.setFlag(PSRThumb, set) }

// SetI sets the IRQ disable bit.
func (r *RegFile) SetI(set bool) { r.setFlag(PSRIRQ, set) }

// SetF sets the FIQ disable bit.
func (r *RegFile) SetF(set bool) { r.setFlag(PSRFIQ, set) }

// SetM writes the mode field without rebinding.
func (r *RegFile) SetM(m Mode) {
	r.cpsr = bitutil.SetBitsInMask(r.cpsr, uint32(m), PSRModeMask)
}

// SetNZ sets N and Z from a result.
func (r *RegFile) SetNZ(result uint32) {
	r.SetN(result&0x80000000 != 0)
	r.SetZ(result == 0)
}
