package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/gbasim/emu"
	"github.com/sarchlab/gbasim/insts"
)

var _ = Describe("Shifter operand", func() {
	Describe("RotatedImmediate", func() {
		It("should pass the carry through when not rotated", func() {
			r := emu.RotatedImmediate(0x0FF, true)
			Expect(r.Value).To(Equal(uint32(0xFF)))
			Expect(r.Carry).To(BeTrue())
		})

		It("should take the carry from bit 31 when rotated", func() {
			r := emu.RotatedImmediate(0x20F, false) // 0x0F ROR 4
			Expect(r.Value).To(Equal(uint32(0xF0000000)))
			Expect(r.Carry).To(BeTrue())

			r = emu.RotatedImmediate(0xF01, true) // 0x01 ROR 30
			Expect(r.Value).To(Equal(uint32(0x4)))
			Expect(r.Carry).To(BeFalse())
		})
	})

	DescribeTable("ShiftByImmediate",
		func(kind insts.ShiftType, value, amount uint32, carryIn bool, expected uint32, carryOut bool) {
			r := emu.ShiftByImmediate(kind, value, amount, carryIn)
			Expect(r.Value).To(Equal(expected))
			Expect(r.Carry).To(Equal(carryOut))
		},
		Entry("LSL #0 passes through", insts.ShiftLSL, uint32(0x12345678), uint32(0), true, uint32(0x12345678), true),
		Entry("LSL #0 keeps a clear carry", insts.ShiftLSL, uint32(0x80000000), uint32(0), false, uint32(0x80000000), false),
		Entry("LSL #1", insts.ShiftLSL, uint32(0x80000001), uint32(1), false, uint32(0x00000002), true),
		Entry("LSL #31", insts.ShiftLSL, uint32(0x00000003), uint32(31), false, uint32(0x80000000), true),
		Entry("LSR #0 means #32", insts.ShiftLSR, uint32(0x80000000), uint32(0), false, uint32(0), true),
		Entry("LSR #0 with clear bit 31", insts.ShiftLSR, uint32(0x7FFFFFFF), uint32(0), true, uint32(0), false),
		Entry("LSR #4", insts.ShiftLSR, uint32(0x000000F8), uint32(4), false, uint32(0x0F), true),
		Entry("ASR #0 means #32 for negatives", insts.ShiftASR, uint32(0x80000000), uint32(0), false, uint32(0xFFFFFFFF), true),
		Entry("ASR #0 means #32 for positives", insts.ShiftASR, uint32(0x7FFFFFFF), uint32(0), true, uint32(0), false),
		Entry("ASR #31 of the sign bit", insts.ShiftASR, uint32(0x80000000), uint32(31), false, uint32(0xFFFFFFFF), false),
		Entry("ASR #1", insts.ShiftASR, uint32(0x80000001), uint32(1), false, uint32(0xC0000000), true),
		Entry("RRX with carry in", insts.ShiftROR, uint32(0x00000001), uint32(0), true, uint32(0x80000000), true),
		Entry("RRX moves bit 0 to carry", insts.ShiftROR, uint32(0x00000002), uint32(0), true, uint32(0x80000001), false),
		Entry("ROR #8", insts.ShiftROR, uint32(0x000000FF), uint32(8), false, uint32(0xFF000000), true),
	)

	DescribeTable("ShiftByRegister",
		func(kind insts.ShiftType, value, amount uint32, carryIn bool, expected uint32, carryOut bool) {
			r := emu.ShiftByRegister(kind, value, amount, carryIn)
			Expect(r.Value).To(Equal(expected))
			Expect(r.Carry).To(Equal(carryOut))
		},
		Entry("LSL by 0 passes through", insts.ShiftLSL, uint32(0xABCD), uint32(0), true, uint32(0xABCD), true),
		Entry("LSL by 0 ignores upper bits", insts.ShiftLSL, uint32(0xABCD), uint32(0x100), false, uint32(0xABCD), false),
		Entry("LSL by 4", insts.ShiftLSL, uint32(0xF0000001), uint32(4), false, uint32(0x00000010), true),
		Entry("LSL by 32", insts.ShiftLSL, uint32(0x00000001), uint32(32), false, uint32(0), true),
		Entry("LSL by 33", insts.ShiftLSL, uint32(0xFFFFFFFF), uint32(33), true, uint32(0), false),
		Entry("LSR by 32", insts.ShiftLSR, uint32(0x80000000), uint32(32), false, uint32(0), true),
		Entry("LSR by 33", insts.ShiftLSR, uint32(0xFFFFFFFF), uint32(33), true, uint32(0), false),
		Entry("LSR by 1", insts.ShiftLSR, uint32(0x00000003), uint32(1), false, uint32(1), true),
		Entry("ASR by 32 of a negative", insts.ShiftASR, uint32(0x80000000), uint32(32), false, uint32(0xFFFFFFFF), true),
		Entry("ASR by 255 of a negative", insts.ShiftASR, uint32(0x80000000), uint32(255), false, uint32(0xFFFFFFFF), true),
		Entry("ASR by 40 of a positive", insts.ShiftASR, uint32(0x40000000), uint32(40), true, uint32(0), false),
		Entry("ASR by 4", insts.ShiftASR, uint32(0x80000008), uint32(4), false, uint32(0xF8000000), true),
		Entry("ROR by 32 keeps value", insts.ShiftROR, uint32(0x80000001), uint32(32), false, uint32(0x80000001), true),
		Entry("ROR by 64 keeps value", insts.ShiftROR, uint32(0x00000001), uint32(64), true, uint32(0x00000001), false),
		Entry("ROR by 36 rotates by 4", insts.ShiftROR, uint32(0x0000001F), uint32(36), false, uint32(0xF0000001), true),
	)

	Describe("in data processing", func() {
		It("should shift a register by an immediate", func() {
			e := newARM(0xE1A00201) // MOV r0, r1, LSL #4
			e.RegFile().WriteReg(1, 0x0F)
			execute(e, 1)

			Expect(e.RegFile().ReadReg(0)).To(Equal(uint32(0xF0)))
		})

		It("should set carry from LSR #32", func() {
			e := newARM(0xE1B00021) // MOVS r0, r1, LSR #32
			e.RegFile().WriteReg(1, 0x80000000)
			execute(e, 1)

			Expect(e.RegFile().ReadReg(0)).To(BeZero())
			Expect(e.RegFile().C()).To(BeTrue())
			Expect(e.RegFile().Z()).To(BeTrue())
		})

		It("should rotate with extend", func() {
			e := newARM(0xE1B00061) // MOVS r0, r1, RRX
			e.RegFile().WriteReg(1, 0x00000001)
			e.RegFile().SetC(true)
			execute(e, 1)

			Expect(e.RegFile().ReadReg(0)).To(Equal(uint32(0x80000000)))
			Expect(e.RegFile().C()).To(BeTrue())
			Expect(e.RegFile().N()).To(BeTrue())
		})

		It("should shift by a register amount", func() {
			e := newARM(0xE1A00231) // MOV r0, r1, LSR r2
			e.RegFile().WriteReg(1, 0x100)
			e.RegFile().WriteReg(2, 4)
			execute(e, 1)

			Expect(e.RegFile().ReadReg(0)).To(Equal(uint32(0x10)))
		})
	})
})
