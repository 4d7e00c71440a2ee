// This file is part of Gopher2600.
//
// Gopher2600 is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Gopher2600 is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Gopher2600.  If not, see <https://www.gnu.org/licenses/>.

package wasmdebug

import (
	"encoding/binary"
	"fmt"

	"github.com/tetratelabs/wazero/wasm/leb128"
)

const wasmSymbolTable = 0x08
const wasmSymbolUndefinedFlag = 0x10

const (
	symbolTypeFunction = 0x00
	symbolTypeData     = 0x01
	symbolTypeGlobal   = 0x02
	symbolTypeSection  = 0x03
)

const (
	relocTypeData    = 5
	relocTypeFunc    = 8
	relocTypeSection = 9
)

// ApplyRelocations patches the 32-bit little-endian fixup slots embedded in
// ds.Tables according to ds.Linking's symbol table and ds.RelocTables'
// per-section fixup entries, and returns the number of fixups applied. It
// mutates ds.Tables in place; no other field of ds is written. It is a fatal
// error to call this when ds.Linking is nil.
//
// This generalizes relocateELFSection's "read relocation entries, resolve a
// symbol, patch a 4-byte LE slot in place" shape from ELF/ARM relocation
// types to wasm linking-section symbol kinds.
func ApplyRelocations(ds *DebugSections) (int, error) {
	if ds.Linking == nil {
		return 0, Errorf(UnsupportedLinkingVersion, "no linking section present")
	}

	funcIndices, symbols, err := parseLinkingSection(ds.Linking)
	if err != nil {
		return 0, err
	}

	applied := 0
	for name, reloc := range ds.RelocTables {
		n, err := applyRelocTable(ds, name, reloc, funcIndices, symbols)
		if err != nil {
			return applied, err
		}
		applied += n
	}
	return applied, nil
}

// parseLinkingSection reads the leading version field and the WASM_SYMBOL_TABLE
// subtable, building the two lookup maps the fixup pass needs.
func parseLinkingSection(linking []byte) (funcIndices map[uint32]uint32, symbols map[uint32]SymbolKind, err error) {
	r := newByteReader(linking)

	ver, err := r.varuint32()
	if err != nil {
		return nil, nil, Errorf(Io, "reading linking section version: %v", err)
	}
	if ver != 1 {
		return nil, nil, Errorf(UnsupportedLinkingVersion, "linking section version %d", ver)
	}

	funcIndices = make(map[uint32]uint32)
	symbols = make(map[uint32]SymbolKind)

	for !r.eof() {
		code, err := r.varuint32()
		if err != nil {
			return nil, nil, Errorf(Io, "reading linking subtable code: %v", err)
		}
		payload, err := r.bytesVector()
		if err != nil {
			return nil, nil, Errorf(Io, "reading linking subtable payload: %v", err)
		}
		if code != wasmSymbolTable {
			continue
		}

		sr := newByteReader(payload)
		count, err := sr.varuint32()
		if err != nil {
			return nil, nil, Errorf(Io, "reading symbol table count: %v", err)
		}
		for i := uint32(0); i < count; i++ {
			if err := readSymbol(sr, i, funcIndices, symbols); err != nil {
				return nil, nil, err
			}
		}
	}

	return funcIndices, symbols, nil
}

func readSymbol(r *byteReader, index uint32, funcIndices map[uint32]uint32, symbols map[uint32]SymbolKind) error {
	kind, err := r.varuint32()
	if err != nil {
		return Errorf(Io, "reading symbol kind: %v", err)
	}
	flags, err := r.varuint32()
	if err != nil {
		return Errorf(Io, "reading symbol flags: %v", err)
	}
	defined := flags&wasmSymbolUndefinedFlag == 0

	switch kind {
	case symbolTypeFunction:
		elemIndex, err := r.varuint32()
		if err != nil {
			return Errorf(Io, "reading function symbol elem index: %v", err)
		}
		if defined {
			if _, err := r.str(); err != nil {
				return Errorf(Io, "reading function symbol name: %v", err)
			}
		}
		funcIndices[index] = elemIndex

	case symbolTypeData:
		if _, err := r.str(); err != nil {
			return Errorf(Io, "reading data symbol name: %v", err)
		}
		if defined {
			segmentIndex, err := r.varuint32()
			if err != nil {
				return Errorf(Io, "reading data symbol segment index: %v", err)
			}
			segmentOffset, err := r.varuint32()
			if err != nil {
				return Errorf(Io, "reading data symbol segment offset: %v", err)
			}
			if _, err := r.varuint32(); err != nil { // size, unused downstream
				return Errorf(Io, "reading data symbol size: %v", err)
			}
			symbols[index] = SymbolKind{kind: symbolData, SegmentIndex: segmentIndex, SegmentOffset: segmentOffset}
		}

	case symbolTypeGlobal:
		if _, err := r.varuint32(); err != nil { // global index
			return Errorf(Io, "reading global symbol index: %v", err)
		}
		if defined {
			if _, err := r.str(); err != nil {
				return Errorf(Io, "reading global symbol name: %v", err)
			}
		}

	case symbolTypeSection:
		sectionIndex, err := r.varuint32()
		if err != nil {
			return Errorf(Io, "reading section symbol index: %v", err)
		}
		symbols[index] = SymbolKind{kind: symbolSection, SectionIndex: sectionIndex}

	default:
		return Errorf(UnknownSymbolKind, "symbol kind %d", kind)
	}

	return nil
}

func applyRelocTable(ds *DebugSections, name string, reloc []byte, funcIndices map[uint32]uint32, symbols map[uint32]SymbolKind) (int, error) {
	suffix := name[len("reloc."):]
	target, ok := ds.Tables[suffix]
	if !ok {
		return 0, Errorf(Io, "relocation table %q targets unknown section %q", name, suffix)
	}

	r := newByteReader(reloc)
	if _, err := r.varuint32(); err != nil { // section index, unused
		return 0, Errorf(Io, "reading %q section index: %v", name, err)
	}
	count, err := r.varuint32()
	if err != nil {
		return 0, Errorf(Io, "reading %q entry count: %v", name, err)
	}

	for i := uint32(0); i < count; i++ {
		ty, err := r.varuint32()
		if err != nil {
			return int(i), Errorf(Io, "reading %q entry %d type: %v", name, i, err)
		}
		fixupOffset, err := r.varuint32()
		if err != nil {
			return int(i), Errorf(Io, "reading %q entry %d fixup offset: %v", name, i, err)
		}
		symbolIndex, err := r.varuint32()
		if err != nil {
			return int(i), Errorf(Io, "reading %q entry %d symbol index: %v", name, i, err)
		}
		addend, err := r.varuint32()
		if err != nil {
			return int(i), Errorf(Io, "reading %q entry %d addend: %v", name, i, err)
		}

		var targetOffset uint32
		switch ty {
		case relocTypeData:
			sym, ok := symbols[symbolIndex]
			if !ok || !sym.IsData() {
				return int(i), Errorf(SymbolKindMismatch, "reloc entry %d in %q expected a data symbol", i, name)
			}
			if int(sym.SegmentIndex) >= len(ds.DataSegmentOffsets) {
				return int(i), Errorf(SymbolKindMismatch, "reloc entry %d in %q references out-of-range data segment %d", i, name, sym.SegmentIndex)
			}
			targetOffset = ds.DataSegmentOffsets[sym.SegmentIndex] + sym.SegmentOffset
		case relocTypeFunc:
			elemIndex, ok := funcIndices[symbolIndex]
			if !ok {
				return int(i), Errorf(UnknownSymbolKind, "reloc entry %d in %q references unknown function symbol %d", i, name, symbolIndex)
			}
			if int(elemIndex) >= len(ds.FuncOffsets) {
				return int(i), Errorf(SymbolKindMismatch, "reloc entry %d in %q references out-of-range function %d", i, name, elemIndex)
			}
			targetOffset = uint32(ds.FuncOffsets[elemIndex])
		case relocTypeSection:
			targetOffset = 0
		default:
			return int(i), Errorf(UnknownRelocType, "reloc type %d", ty)
		}

		offset := targetOffset + addend
		if int(fixupOffset)+4 > len(target) {
			return int(i), Errorf(Io, "fixup offset %d in %q out of range", fixupOffset, suffix)
		}
		binary.LittleEndian.PutUint32(target[fixupOffset:fixupOffset+4], offset)
	}

	return int(count), nil
}

// byteReader is a small cursor over an in-memory buffer used to parse the
// linking section and its relocation tables; it shares LEB128 decoding with
// internal/wasmwalk via the same third-party decoder.
type byteReader struct {
	buf []byte
	pos int
}

func newByteReader(buf []byte) *byteReader {
	return &byteReader{buf: buf}
}

func (r *byteReader) eof() bool {
	return r.pos >= len(r.buf)
}

func (r *byteReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.buf) {
		return 0, fmt.Errorf("eof")
	}
	n := copy(p, r.buf[r.pos:])
	r.pos += n
	return n, nil
}

func (r *byteReader) ReadByte() (byte, error) {
	if r.pos >= len(r.buf) {
		return 0, fmt.Errorf("eof")
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

func (r *byteReader) varuint32() (uint32, error) {
	v, _, err := leb128.DecodeUint32(r)
	return v, err
}

func (r *byteReader) bytesVector() ([]byte, error) {
	n, err := r.varuint32()
	if err != nil {
		return nil, err
	}
	if r.pos+int(n) > len(r.buf) {
		return nil, fmt.Errorf("vector of %d bytes overruns buffer", n)
	}
	b := r.buf[r.pos : r.pos+int(n)]
	r.pos += int(n)
	return b, nil
}

func (r *byteReader) str() (string, error) {
	b, err := r.bytesVector()
	if err != nil {
		return "", err
	}
	return string(b), nil
}
