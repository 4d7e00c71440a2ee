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
	"debug/dwarf"
	"io"
	"math/bits"
	"sort"
	"strings"
)

const unknownSourceName = "<unknown>"

// WalkLineProgram drives the standard library's DWARF line-number program
// for every compilation unit in ds.Tables, translating each row's address
// into a wasm module offset (code_content + row address) and interning its
// source file into DebugLocInfo.Sources. ds.Tables is read only; call
// ApplyRelocations first if the binary carries linking relocations.
func WalkLineProgram(ds *DebugSections) (*DebugLocInfo, error) {
	data, err := dwarf.New(
		ds.Tables[".debug_abbrev"],
		nil, // aranges
		nil, // frame
		ds.Tables[".debug_info"],
		ds.Tables[".debug_line"],
		nil, // pubnames
		nil, // ranges
		ds.Tables[".debug_str"],
	)
	if err != nil {
		return nil, Errorf(DwarfParseError, "opening dwarf data: %v", err)
	}

	info := &DebugLocInfo{}
	sourceIDs := make(map[string]uint32)

	r := data.Reader()
	sawUnit := false
	for {
		entry, err := r.Next()
		if err != nil {
			return nil, Errorf(DwarfParseError, "%v", err)
		}
		if entry == nil {
			break
		}
		if entry.Tag != dwarf.TagCompileUnit {
			r.SkipChildren()
			continue
		}
		sawUnit = true

		if err := walkCompileUnit(data, entry, ds.CodeContent, info, sourceIDs); err != nil {
			return nil, err
		}
		r.SkipChildren()
	}

	if !sawUnit {
		return nil, Errorf(MissingCompileUnit, "no compile unit found in .debug_info")
	}

	sort.SliceStable(info.Locations, func(i, j int) bool {
		return info.Locations[i].Address < info.Locations[j].Address
	})

	return info, nil
}

func walkCompileUnit(data *dwarf.Data, cu *dwarf.Entry, codeContent uint64, info *DebugLocInfo, sourceIDs map[string]uint32) error {
	stmtList, ok := cu.Val(dwarf.AttrStmtList).(int64)
	if !ok {
		// units with no line program (e.g. pure declarations) are silently
		// skipped; they have nothing to contribute.
		return nil
	}
	_ = stmtList

	compDir, _ := cu.Val(dwarf.AttrCompDir).(string)

	lr, err := data.LineReader(cu)
	if err != nil {
		return Errorf(DwarfParseError, "opening line program for unit at offset %d: %v", cu.Offset, err)
	}
	if lr == nil {
		return nil
	}

	var seq []dwarf.LineEntry
	for {
		var row dwarf.LineEntry
		err := lr.Next(&row)
		if err == io.EOF {
			break
		}
		if err != nil {
			return Errorf(DwarfParseError, "reading line program for unit at offset %d: %v", cu.Offset, err)
		}

		seq = append(seq, row)
		if row.EndSequence {
			emitSequence(seq, codeContent, info, sourceIDs, compDir)
			seq = seq[:0]
		}
	}

	return nil
}

// emitSequence applies the dead-function-removal heuristic to one line
// program sequence (a run of rows terminated by an end-sequence marker, which
// corresponds to a single function body) and, if the sequence survives,
// appends its rows (translated to wasm module offsets) to info.
func emitSequence(seq []dwarf.LineEntry, codeContent uint64, info *DebugLocInfo, sourceIDs map[string]uint32, compDir string) {
	if len(seq) < 2 {
		return
	}

	addrStart := seq[0].Address
	addrEnd := seq[len(seq)-1].Address

	fnSize := addrEnd - addrStart + 1
	fieldLen := leb128FieldLen(fnSize)
	if addrStart <= fieldLen {
		// the sequence starts no further into the code section than the
		// length of its own body-size field, which no live function body
		// can: the linker discarded this function and left its rows
		// pointing near the start of the code section.
		return
	}

	for _, row := range seq[:len(seq)-1] {
		sourceID := internSource(row, info, sourceIDs, compDir)
		info.Locations = append(info.Locations, DebugLoc{
			Address:  codeContent + row.Address,
			SourceID: sourceID,
			Line:     uint32(row.Line),
			Column:   uint32(row.Column),
		})
	}
}

// leb128FieldLen returns the number of bytes a LEB128 varuint32 encoding of
// a non-zero size would occupy (0 when size is 0), mirroring
// fn_size_field_len's (fn_size+1).next_power_of_two().trailing_zeros()
// computation, which bits.Len64(size) reproduces directly.
func leb128FieldLen(size uint64) uint64 {
	nbits := bits.Len64(size)
	return uint64(nbits+6) / 7
}

func internSource(row dwarf.LineEntry, info *DebugLocInfo, sourceIDs map[string]uint32, compDir string) uint32 {
	name := unknownSourceName
	if row.File != nil && row.File.Name != "" {
		name = row.File.Name
		if !strings.HasPrefix(name, "/") && compDir != "" {
			name = compDir + "/" + name
		}
	}
	return internSourceByName(name, info, sourceIDs, compDir)
}

// internSourceByName interns an already-resolved source path, de-duplicating
// against every name seen so far across the whole walk (not just the
// current compilation unit).
func internSourceByName(name string, info *DebugLocInfo, sourceIDs map[string]uint32, compDir string) uint32 {
	if id, ok := sourceIDs[name]; ok {
		return id
	}
	id := uint32(len(info.Sources))
	sourceIDs[name] = id
	info.Sources = append(info.Sources, name)
	return id
}
