package memory_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/gbasim/memory"
)

var _ = Describe("Memory", func() {
	var m *memory.Memory

	BeforeEach(func() {
		m = memory.New()
	})

	Describe("memory map", func() {
		DescribeTable("should map each region to its fixed window",
			func(addr uint32, name string) {
				r, err := m.Lookup(addr, 1)
				Expect(err).NotTo(HaveOccurred())
				Expect(r.Name).To(Equal(name))
			},
			Entry("BIOS start", uint32(0x00000000), memory.RegionBIOS),
			Entry("BIOS end", uint32(0x00003FFF), memory.RegionBIOS),
			Entry("EWRAM", uint32(0x0203FFFF), memory.RegionEWRAM),
			Entry("IWRAM", uint32(0x03007FFF), memory.RegionIWRAM),
			Entry("IO", uint32(0x040003FF), memory.RegionIO),
			Entry("Palette", uint32(0x05000000), memory.RegionPalette),
			Entry("VRAM", uint32(0x06017FFF), memory.RegionVRAM),
			Entry("OAM", uint32(0x07000000), memory.RegionOAM),
			Entry("ROM wait state 0", uint32(0x09FFFFFF), memory.RegionROM0),
			Entry("ROM wait state 1", uint32(0x0A000000), memory.RegionROM1),
			Entry("ROM wait state 2", uint32(0x0C000000), memory.RegionROM2),
			Entry("SRAM", uint32(0x0E00FFFF), memory.RegionSRAM),
		)

		DescribeTable("should reject addresses between regions",
			func(addr uint32) {
				_, err := m.Read8(addr)
				Expect(err).To(MatchError(memory.ErrUnmapped))
			},
			Entry("after BIOS", uint32(0x00004000)),
			Entry("after EWRAM", uint32(0x02040000)),
			Entry("after VRAM", uint32(0x06018000)),
			Entry("after SRAM", uint32(0x0E010000)),
			Entry("top of the address space", uint32(0xFFFFFFFF)),
		)

		It("should reject accesses straddling a region end", func() {
			_, err := m.Read32(memory.BIOSSize - 2)
			Expect(err).To(MatchError(memory.ErrUnmapped))
		})

		It("should list regions in address order", func() {
			regions := m.Regions()
			Expect(regions).To(HaveLen(11))
			for i := 1; i < len(regions); i++ {
				Expect(regions[i].Start).To(BeNumerically(">=", regions[i-1].End()))
			}
		})
	})

	Describe("reads and writes", func() {
		It("should be little-endian", func() {
			Expect(m.Write32(memory.IWRAMStart, 0xDEADBEEF)).To(Succeed())

			b, err := m.Read8(memory.IWRAMStart)
			Expect(err).NotTo(HaveOccurred())
			Expect(b).To(Equal(uint8(0xEF)))

			h, err := m.Read16(memory.IWRAMStart + 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(h).To(Equal(uint16(0xDEAD)))
		})

		It("should round-trip each width", func() {
			Expect(m.Write8(memory.EWRAMStart, 0x12)).To(Succeed())
			Expect(m.Write16(memory.EWRAMStart+2, 0x3456)).To(Succeed())
			Expect(m.Write32(memory.EWRAMStart+4, 0x789ABCDE)).To(Succeed())

			w, err := m.Read32(memory.EWRAMStart)
			Expect(err).NotTo(HaveOccurred())
			Expect(w).To(Equal(uint32(0x34560012)))

			w, err = m.Read32(memory.EWRAMStart + 4)
			Expect(err).NotTo(HaveOccurred())
			Expect(w).To(Equal(uint32(0x789ABCDE)))
		})

		It("should fail writes to unmapped addresses", func() {
			Expect(m.Write32(0x01000000, 1)).To(MatchError(memory.ErrUnmapped))
		})
	})

	Describe("Load", func() {
		It("should copy an image byte for byte", func() {
			image := []byte{0x05, 0x00, 0xA0, 0xE3}
			Expect(m.Load(memory.ROM0Start, image)).To(Succeed())

			w, err := m.Read32(memory.ROM0Start)
			Expect(err).NotTo(HaveOccurred())
			Expect(w).To(Equal(uint32(0xE3A00005)))

			dump, err := m.Dump(memory.ROM0Start, 4)
			Expect(err).NotTo(HaveOccurred())
			Expect(dump).To(Equal(image))
		})

		It("should reject images larger than the region", func() {
			image := make([]byte, memory.BIOSSize+1)
			Expect(m.Load(memory.BIOSStart, image)).To(MatchError(memory.ErrUnmapped))
		})
	})

	Describe("read-only BIOS", func() {
		BeforeEach(func() {
			m = memory.New(memory.WithReadOnlyBIOS())
		})

		It("should reject CPU writes but allow loading", func() {
			Expect(m.Write32(0, 1)).To(MatchError(memory.ErrReadOnly))
			Expect(m.Load(0, []byte{1, 2, 3, 4})).To(Succeed())

			w, err := m.Read32(0)
			Expect(err).NotTo(HaveOccurred())
			Expect(w).To(Equal(uint32(0x04030201)))
		})
	})

	Describe("Reset", func() {
		It("should clear memory and POSTFLG", func() {
			Expect(m.Write8(memory.POSTFLG, 1)).To(Succeed())
			Expect(m.Write32(memory.VRAMStart, 0xFFFFFFFF)).To(Succeed())

			m.Reset()

			b, err := m.Read8(memory.POSTFLG)
			Expect(err).NotTo(HaveOccurred())
			Expect(b).To(BeZero())

			w, err := m.Read32(memory.VRAMStart)
			Expect(err).NotTo(HaveOccurred())
			Expect(w).To(BeZero())
		})
	})
})
