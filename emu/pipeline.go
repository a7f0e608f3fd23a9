package emu

// Slot is one stage of the fetch/decode/execute pipeline.
type Slot struct {
	// Valid indicates if this slot holds a fetched instruction.
	Valid bool

	// Word is the raw instruction. Thumb halfwords are zero-extended.
	Word uint32

	// Addr is the address the instruction was fetched from.
	Addr uint32
}

// Clear resets the slot to empty.
func (s *Slot) Clear() {
	s.Valid = false
	s.Word = 0
	s.Addr = 0
}

// Pipeline is the three-deep instruction shift register. After a flush the
// next two Advance calls return empty execute slots while it refills.
type Pipeline struct {
	Fetch   Slot
	Decode  Slot
	Execute Slot
}

// Advance shifts a newly fetched instruction in and returns the slot that
// reached the execute stage.
func (p *Pipeline) Advance(word, addr uint32) Slot {
	p.Execute = p.Decode
	p.Decode = p.Fetch
	p.Fetch = Slot{Valid: true, Word: word, Addr: addr}
	return p.Execute
}

// Flush discards every in-flight instruction.
func (p *Pipeline) Flush() {
	p.Fetch.Clear()
	p.Decode.Clear()
	p.Execute.Clear()
}

// Empty reports whether no slot holds an instruction.
func (p *Pipeline) Empty() bool {
	return !p.Fetch.Valid && !p.Decode.Valid && !p.Execute.Valid
}
