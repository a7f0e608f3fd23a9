package emu

import (
	"fmt"

	"github.com/go-logr/logr"

	"github.com/sarchlab/gbasim/insts"
)

// DispatchRecord describes one instruction that reached the execute stage.
type DispatchRecord struct {
	Addr   uint32
	Word   uint32
	Set    insts.InstructionSet
	Op     string
	Mode   Mode
	Passed bool // condition check passed
}

// MemoryRecord describes one data load or store issued by an instruction.
type MemoryRecord struct {
	Addr  uint32
	Value uint32
	Width int // bytes
}

// Tracer receives execution events from the core. Implementations must not
// modify CPU or memory state.
type Tracer interface {
	RecordDispatch(rec DispatchRecord)
	RecordLoad(rec MemoryRecord)
	RecordStore(rec MemoryRecord)
}

// LogTracer writes trace events to a logr.Logger. Dispatches log at V(1) and
// memory traffic at V(2).
type LogTracer struct {
	log logr.Logger
}

// NewLogTracer creates a tracer that logs through log.
func NewLogTracer(log logr.Logger) *LogTracer {
	return &LogTracer{log: log}
}

// RecordDispatch logs an executed instruction.
func (t *LogTracer) RecordDispatch(rec DispatchRecord) {
	t.log.V(1).Info("dispatch",
		"addr", hex32(rec.Addr),
		"word", hex32(rec.Word),
		"op", rec.Op,
		"thumb", rec.Set == insts.SetThumb,
		"mode", rec.Mode.String(),
		"passed", rec.Passed)
}

// RecordLoad logs a data load.
func (t *LogTracer) RecordLoad(rec MemoryRecord) {
	t.log.V(2).Info("load", "addr", hex32(rec.Addr), "value", hex32(rec.Value), "width", rec.Width)
}

// RecordStore logs a data store.
func (t *LogTracer) RecordStore(rec MemoryRecord) {
	t.log.V(2).Info("store", "addr", hex32(rec.Addr), "value", hex32(rec.Value), "width", rec.Width)
}

// TraceRecorder keeps every trace event in memory.
type TraceRecorder struct {
	Dispatches []DispatchRecord
	Loads      []MemoryRecord
	Stores     []MemoryRecord
}

// RecordDispatch appends rec to Dispatches.
func (r *TraceRecorder) RecordDispatch(rec DispatchRecord) {
	r.Dispatches = append(r.Dispatches, rec)
}

// RecordLoad appends rec to Loads.
func (r *TraceRecorder) RecordLoad(rec MemoryRecord) {
	r.Loads = append(r.Loads, rec)
}

// RecordStore appends rec to Stores.
func (r *TraceRecorder) RecordStore(rec MemoryRecord) {
	r.Stores = append(r.Stores, rec)
}

// Reset drops all recorded events.
func (r *TraceRecorder) Reset() {
	r.Dispatches = nil
	r.Loads = nil
	r.Stores = nil
}

// MultiTracer fans events out to several tracers.
type MultiTracer []Tracer

// RecordDispatch forwards rec to every tracer.
func (m MultiTracer) RecordDispatch(rec DispatchRecord) {
	for _, t := range m {
		t.RecordDispatch(rec)
	}
}

// RecordLoad forwards rec to every tracer.
func (m MultiTracer) RecordLoad(rec MemoryRecord) {
	for _, t := range m {
		t.RecordLoad(rec)
	}
}

// RecordStore forwards rec to every tracer.
func (m MultiTracer) RecordStore(rec MemoryRecord) {
	for _, t := range m {
		t.RecordStore(rec)
	}
}

// hex32 renders addresses and words in hex through logr.Marshaler.
type hex32 uint32

func (h hex32) MarshalLog() interface{} {
	return fmt.Sprintf("0x%08X", uint32(h))
}
