package emu

import (
	"errors"
	"fmt"

	"github.com/sarchlab/gbasim/memory"
)

// StepResult represents the result of a single pipeline step.
type StepResult struct {
	// Executed is true if an instruction reached the execute stage. It is
	// false while the pipeline refills after a reset or branch.
	Executed bool

	// Err is set if an error occurred during execution.
	Err error
}

// Emulator drives a CPU against a GBA memory image.
type Emulator struct {
	cpu    *CPU
	memory *memory.Memory

	cpuOpts []CPUOption

	entryPoint uint32
	thumbEntry bool

	// Execution state
	stepCount       uint64
	maxInstructions uint64 // 0 means no limit
}

// EmulatorOption is a functional option for configuring the Emulator.
type EmulatorOption func(*Emulator)

// WithMemory uses an existing memory image instead of a fresh one.
func WithMemory(m *memory.Memory) EmulatorOption {
	return func(e *Emulator) {
		e.memory = m
	}
}

// WithMaxInstructions sets the maximum number of executed instructions.
// A value of 0 means no limit.
func WithMaxInstructions(max uint64) EmulatorOption {
	return func(e *Emulator) {
		e.maxInstructions = max
	}
}

// WithEntryPoint sets the address execution starts from after Reset.
func WithEntryPoint(addr uint32, thumb bool) EmulatorOption {
	return func(e *Emulator) {
		e.entryPoint = addr
		e.thumbEntry = thumb
	}
}

// WithCPUOptions passes options through to the CPU.
func WithCPUOptions(opts ...CPUOption) EmulatorOption {
	return func(e *Emulator) {
		e.cpuOpts = append(e.cpuOpts, opts...)
	}
}

// NewEmulator creates an emulator with the CPU reset at the entry point.
func NewEmulator(opts ...EmulatorOption) *Emulator {
	e := &Emulator{}

	for _, opt := range opts {
		opt(e)
	}

	if e.memory == nil {
		e.memory = memory.New()
	}
	e.cpu = NewCPU(e.cpuOpts...)
	e.Reset()

	return e
}

// CPU returns the emulator's CPU.
func (e *Emulator) CPU() *CPU {
	return e.cpu
}

// RegFile returns the CPU's register file.
func (e *Emulator) RegFile() *RegFile {
	return e.cpu.RegFile()
}

// Memory returns the emulator's memory image.
func (e *Emulator) Memory() *memory.Memory {
	return e.memory
}

// InstructionCount returns the number of instructions executed since reset.
func (e *Emulator) InstructionCount() uint64 {
	return e.cpu.Retired()
}

// StepCount returns the number of pipeline steps since reset.
func (e *Emulator) StepCount() uint64 {
	return e.stepCount
}

// LoadProgram copies a raw image into memory at entry and resets the CPU to
// start there.
func (e *Emulator) LoadProgram(entry uint32, program []byte) error {
	if err := e.memory.Load(entry, program); err != nil {
		return fmt.Errorf("failed to load program at 0x%08X: %w", entry, err)
	}
	e.entryPoint = entry
	e.Reset()
	return nil
}

// Reset resets the CPU and points it at the entry point. Memory is kept.
func (e *Emulator) Reset() {
	e.cpu.Reset()
	e.cpu.RegFile().SetPC(e.entryPoint)
	e.cpu.RegFile().SetT(e.thumbEntry)
	e.stepCount = 0
}

// Step performs one pipeline step.
func (e *Emulator) Step() StepResult {
	if e.maxInstructions > 0 && e.cpu.Retired() >= e.maxInstructions {
		return StepResult{Err: ErrMaxInstructions}
	}

	before := e.cpu.Retired()
	err := e.cpu.Dispatch(e.memory)
	e.stepCount++

	return StepResult{
		Executed: e.cpu.Retired() != before,
		Err:      err,
	}
}

// Run steps until an error occurs or the instruction limit is reached.
// Reaching the limit is not an error and returns nil.
func (e *Emulator) Run() error {
	for {
		result := e.Step()
		if errors.Is(result.Err, ErrMaxInstructions) {
			return nil
		}
		if result.Err != nil {
			return result.Err
		}
	}
}
