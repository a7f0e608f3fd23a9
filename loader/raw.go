package loader

import (
	"bytes"
	"fmt"
	"os"
)

var elfMagic = []byte{0x7f, 'E', 'L', 'F'}

// LoadRaw reads a flat binary image to be placed at base. Execution starts at
// base in ARM state.
func LoadRaw(path string, base uint32) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	if len(data) == 0 {
		return nil, fmt.Errorf("empty image %s", path)
	}

	return &Program{
		EntryPoint: base,
		Segments: []Segment{{
			Addr:    base,
			Data:    data,
			MemSize: uint32(len(data)),
			Flags:   SegmentFlagRead | SegmentFlagExecute,
		}},
	}, nil
}

// Load reads an ELF executable if path starts with the ELF magic number and a
// raw image placed at base otherwise.
func Load(path string, base uint32) (*Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}

	header := make([]byte, len(elfMagic))
	n, _ := f.Read(header)
	_ = f.Close()

	if n == len(elfMagic) && bytes.Equal(header, elfMagic) {
		return LoadELF(path)
	}
	return LoadRaw(path, base)
}
