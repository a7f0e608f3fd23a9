package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/gbasim/emu"
	"github.com/sarchlab/gbasim/insts"
)

func flagsPSR(n, z, c, v bool) uint32 {
	psr := uint32(emu.ModeSupervisor)
	if n {
		psr |= emu.PSRN
	}
	if z {
		psr |= emu.PSRZ
	}
	if c {
		psr |= emu.PSRC
	}
	if v {
		psr |= emu.PSRV
	}
	return psr
}

var _ = Describe("EvaluateCondition", func() {
	truth := map[insts.Cond]func(n, z, c, v bool) bool{
		insts.CondEQ: func(n, z, c, v bool) bool { return z },
		insts.CondNE: func(n, z, c, v bool) bool { return !z },
		insts.CondCS: func(n, z, c, v bool) bool { return c },
		insts.CondCC: func(n, z, c, v bool) bool { return !c },
		insts.CondMI: func(n, z, c, v bool) bool { return n },
		insts.CondPL: func(n, z, c, v bool) bool { return !n },
		insts.CondVS: func(n, z, c, v bool) bool { return v },
		insts.CondVC: func(n, z, c, v bool) bool { return !v },
		insts.CondHI: func(n, z, c, v bool) bool { return c && !z },
		insts.CondLS: func(n, z, c, v bool) bool { return !c || z },
		insts.CondGE: func(n, z, c, v bool) bool { return n == v },
		insts.CondLT: func(n, z, c, v bool) bool { return n != v },
		insts.CondGT: func(n, z, c, v bool) bool { return !z && n == v },
		insts.CondLE: func(n, z, c, v bool) bool { return z || n != v },
		insts.CondAL: func(n, z, c, v bool) bool { return true },
		insts.CondNV: func(n, z, c, v bool) bool { return false },
	}

	It("should match the architectural truth table for every flag combination", func() {
		for cond, expected := range truth {
			for flags := 0; flags < 16; flags++ {
				n, z, c, v := flags&8 != 0, flags&4 != 0, flags&2 != 0, flags&1 != 0
				Expect(emu.EvaluateCondition(cond, flagsPSR(n, z, c, v))).
					To(Equal(expected(n, z, c, v)), "cond %v flags %04b", cond, flags)
			}
		}
	})

	DescribeTable("spot checks",
		func(cond insts.Cond, psr uint32, expected bool) {
			Expect(emu.EvaluateCondition(cond, psr)).To(Equal(expected))
		},
		Entry("LS with carry set and zero clear", insts.CondLS, flagsPSR(false, false, true, false), false),
		Entry("LS with carry clear", insts.CondLS, flagsPSR(false, false, false, false), true),
		Entry("GE with N and V set", insts.CondGE, flagsPSR(true, false, false, true), true),
		Entry("LE with N set and V clear", insts.CondLE, flagsPSR(true, false, false, false), true),
		Entry("AL with nothing set", insts.CondAL, uint32(0), true),
	)
})

var _ = Describe("Branches", func() {
	It("should branch to PC+8+offset and flush", func() {
		e := newARM(
			0xEA000001, // 0x00: B 0x0C
			0xE3A00001, // 0x04: MOV r0, #1
			0xE3A00002, // 0x08: MOV r0, #2
			0xE3A00003, // 0x0C: MOV r0, #3
		)
		execute(e, 1)

		Expect(e.RegFile().PC()).To(Equal(uint32(0x0C)))
		Expect(e.CPU().Pipeline().Empty()).To(BeTrue())

		execute(e, 1)
		Expect(e.RegFile().ReadReg(0)).To(Equal(uint32(3)))
	})

	It("should not execute the in-flight instruction after a taken branch", func() {
		e := newARM(
			0xEA000000, // 0x00: B 0x08
			0xE3A00001, // 0x04: MOV r0, #1
			0xE3A01002, // 0x08: MOV r1, #2
		)
		execute(e, 1)

		result := e.Step()
		Expect(result.Err).NotTo(HaveOccurred())
		Expect(result.Executed).To(BeFalse())
		result = e.Step()
		Expect(result.Executed).To(BeFalse())

		execute(e, 1)
		Expect(e.RegFile().ReadReg(0)).To(BeZero())
		Expect(e.RegFile().ReadReg(1)).To(Equal(uint32(2)))
	})

	It("should link the next instruction on BL", func() {
		e := newARM(
			0xE1A00000, // 0x00: NOP (MOV r0, r0)
			0xEB000001, // 0x04: BL 0x10
		)
		execute(e, 2)

		Expect(e.RegFile().ReadReg(14)).To(Equal(uint32(0x08)))
		Expect(e.RegFile().PC()).To(Equal(uint32(0x10)))
	})

	It("should skip a branch whose condition fails", func() {
		e := newARM(
			0x0A000001, // 0x00: BEQ 0x0C
			0xE3A00001, // 0x04: MOV r0, #1
		)
		e.RegFile().SetZ(false)
		execute(e, 2)

		Expect(e.RegFile().ReadReg(0)).To(Equal(uint32(1)))
	})

	It("should enter Thumb state through BX", func() {
		e := newARM(
			0xE12FFF10, // 0x00: BX r0
		)
		e.RegFile().WriteReg(0, 0x101)
		execute(e, 1)

		Expect(e.RegFile().T()).To(BeTrue())
		Expect(e.RegFile().PC()).To(Equal(uint32(0x100)))
	})
})
