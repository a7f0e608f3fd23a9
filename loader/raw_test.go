package loader_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/gbasim/loader"
	"github.com/sarchlab/gbasim/memory"
)

var _ = Describe("Raw image loader", func() {
	var tempDir string

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "raw-loader-test")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		_ = os.RemoveAll(tempDir)
	})

	It("should place the whole file at the base address", func() {
		path := filepath.Join(tempDir, "rom.gba")
		Expect(os.WriteFile(path, armCode, 0644)).To(Succeed())

		prog, err := loader.LoadRaw(path, memory.ROM0Start)
		Expect(err).NotTo(HaveOccurred())
		Expect(prog.EntryPoint).To(Equal(memory.ROM0Start))
		Expect(prog.Thumb).To(BeFalse())
		Expect(prog.Segments).To(HaveLen(1))
		Expect(prog.Segments[0].Addr).To(Equal(memory.ROM0Start))
		Expect(prog.Segments[0].Data).To(Equal(armCode))
	})

	It("should reject an empty image", func() {
		path := filepath.Join(tempDir, "empty.bin")
		Expect(os.WriteFile(path, nil, 0644)).To(Succeed())

		_, err := loader.LoadRaw(path, 0)
		Expect(err).To(HaveOccurred())
	})

	It("should report a missing file", func() {
		_, err := loader.LoadRaw(filepath.Join(tempDir, "missing.bin"), 0)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("failed to read"))
	})

	Describe("Load", func() {
		It("should detect ELF files", func() {
			path := filepath.Join(tempDir, "prog.elf")
			createARMELF(path, 0x03000000, testSegment{addr: 0x03000000, data: armCode, flags: 0x7})

			prog, err := loader.Load(path, memory.ROM0Start)
			Expect(err).NotTo(HaveOccurred())
			Expect(prog.EntryPoint).To(Equal(uint32(0x03000000)))
		})

		It("should fall back to a raw image", func() {
			path := filepath.Join(tempDir, "bios.bin")
			Expect(os.WriteFile(path, armCode, 0644)).To(Succeed())

			prog, err := loader.Load(path, memory.BIOSStart)
			Expect(err).NotTo(HaveOccurred())
			Expect(prog.EntryPoint).To(Equal(memory.BIOSStart))
		})

		It("should treat a file shorter than the magic number as raw", func() {
			path := filepath.Join(tempDir, "tiny.bin")
			Expect(os.WriteFile(path, []byte{0x7f, 'E'}, 0644)).To(Succeed())

			prog, err := loader.Load(path, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Segments[0].Data).To(HaveLen(2))
		})

		It("should report a missing file", func() {
			_, err := loader.Load(filepath.Join(tempDir, "missing.bin"), 0)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("failed to open"))
		})
	})
})
