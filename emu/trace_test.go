package emu_test

import (
	"strings"

	"github.com/go-logr/logr/funcr"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/gbasim/emu"
	"github.com/sarchlab/gbasim/insts"
)

func tracedARM(tracer emu.Tracer, words ...uint32) *emu.Emulator {
	e := emu.NewEmulator(emu.WithCPUOptions(emu.WithTracer(tracer)))
	Expect(e.LoadProgram(0, armProgram(words...))).To(Succeed())
	return e
}

var _ = Describe("Tracing", func() {
	It("should record dispatches and memory traffic", func() {
		rec := &emu.TraceRecorder{}
		e := tracedARM(rec,
			0xE5910000, // 0x00: LDR r0, [r1]
			0xE5810004, // 0x04: STR r0, [r1, #4]
			0x03A00001, // 0x08: MOVEQ r0, #1
		)
		write32(e, data, 0x77)
		e.RegFile().WriteReg(1, data)
		execute(e, 3)

		Expect(rec.Dispatches).To(HaveLen(3))
		Expect(rec.Dispatches[0]).To(Equal(emu.DispatchRecord{
			Addr:   0,
			Word:   0xE5910000,
			Set:    insts.SetArm,
			Op:     "LDR",
			Mode:   emu.ModeSupervisor,
			Passed: true,
		}))
		Expect(rec.Dispatches[2].Passed).To(BeFalse())

		Expect(rec.Loads).To(Equal([]emu.MemoryRecord{{Addr: data, Value: 0x77, Width: 4}}))
		Expect(rec.Stores).To(Equal([]emu.MemoryRecord{{Addr: data + 4, Value: 0x77, Width: 4}}))

		rec.Reset()
		Expect(rec.Dispatches).To(BeEmpty())
		Expect(rec.Loads).To(BeEmpty())
		Expect(rec.Stores).To(BeEmpty())
	})

	It("should record Thumb dispatches", func() {
		rec := &emu.TraceRecorder{}
		e := emu.NewEmulator(
			emu.WithEntryPoint(0, true),
			emu.WithCPUOptions(emu.WithTracer(rec)),
		)
		Expect(e.LoadProgram(0, thumbProgram(0x2005))).To(Succeed())
		execute(e, 1)

		Expect(rec.Dispatches).To(HaveLen(1))
		Expect(rec.Dispatches[0].Set).To(Equal(insts.SetThumb))
		Expect(rec.Dispatches[0].Word).To(Equal(uint32(0x2005)))
	})

	It("should fan out through a MultiTracer", func() {
		a, b := &emu.TraceRecorder{}, &emu.TraceRecorder{}
		e := tracedARM(emu.MultiTracer{a, b}, 0xE3A00005)
		execute(e, 1)

		Expect(a.Dispatches).To(HaveLen(1))
		Expect(b.Dispatches).To(Equal(a.Dispatches))
	})

	It("should log events by verbosity", func() {
		var lines []string
		logger := funcr.New(func(prefix, args string) {
			lines = append(lines, args)
		}, funcr.Options{Verbosity: 2})

		e := tracedARM(emu.NewLogTracer(logger),
			0xE5810000, // STR r0, [r1]
		)
		e.RegFile().WriteReg(0, 0xABCD)
		e.RegFile().WriteReg(1, data)
		execute(e, 1)

		Expect(lines).To(HaveLen(2))
		Expect(lines[0]).To(ContainSubstring(`"msg"="dispatch"`))
		Expect(lines[0]).To(ContainSubstring(`"op"="STR"`))
		Expect(lines[0]).To(ContainSubstring(`"addr"="0x00000000"`))
		Expect(lines[1]).To(ContainSubstring(`"msg"="store"`))
		Expect(lines[1]).To(ContainSubstring(`"value"="0x0000ABCD"`))
	})

	It("should stay quiet below the dispatch verbosity", func() {
		var lines []string
		logger := funcr.New(func(prefix, args string) {
			lines = append(lines, args)
		}, funcr.Options{})

		e := tracedARM(emu.NewLogTracer(logger), 0xE3A00005)
		execute(e, 1)

		Expect(strings.Join(lines, "\n")).To(BeEmpty())
	})

	It("should accept the suite logger", func() {
		e := tracedARM(emu.NewLogTracer(GinkgoLogr), 0xE3A00005)
		execute(e, 1)

		Expect(e.RegFile().ReadReg(0)).To(Equal(uint32(5)))
	})
})
