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
	"errors"
	"strings"

	"github.com/jetsetilly/wasmdwarf/internal/wasmwalk"
)

const debugSectionPrefix = ".debug_"
const relocDebugSectionPrefix = "reloc..debug_"
const linkingSectionName = "linking"

// ExtractDebugSections streams wasm once, capturing the raw bytes of every
// `.debug_*`, `reloc..debug_*`, and `linking` custom section, and recording
// the byte-offset geometry (code_content, func_offsets,
// data_segment_offsets) needed to translate DWARF addresses into wasm
// module offsets.
func ExtractDebugSections(wasm []byte) (*DebugSections, error) {
	ex := &extractor{
		ds: &DebugSections{
			Tables:      make(map[string][]byte),
			RelocTables: make(map[string][]byte),
			TablesIndex: make(map[int]string),
		},
	}

	if err := wasmwalk.Walk(wasm, ex); err != nil {
		if errors.Is(err, wasmwalk.ErrMalformedInitExpr) {
			return nil, Errorf(MalformedDataSegment, "%v", err)
		}
		return nil, Errorf(ParseError, "%v", err)
	}

	if len(ex.ds.Tables) > 0 && !ex.ds.HasCode {
		return nil, Errorf(NoCodeSection, "debug sections present but no function body was found")
	}

	return ex.ds, nil
}

// extractor implements wasmwalk.Visitor, accumulating a DebugSections value
// as the module is walked. It mirrors, section-event for section-event, the
// bookkeeping performed by DebugSections::read_sections in the original
// wasm_read.rs.
type extractor struct {
	ds           *DebugSections
	sectionIndex int
}

func (ex *extractor) CustomSection(name string, data []byte) error {
	ex.sectionIndex++
	ex.ds.TablesIndex[ex.sectionIndex] = name

	switch {
	case strings.HasPrefix(name, debugSectionPrefix):
		buf := make([]byte, len(data))
		copy(buf, data)
		ex.ds.Tables[name] = buf
	case strings.HasPrefix(name, relocDebugSectionPrefix):
		buf := make([]byte, len(data))
		copy(buf, data)
		ex.ds.RelocTables[name] = buf
	case name == linkingSectionName:
		buf := make([]byte, len(data))
		copy(buf, data)
		ex.ds.Linking = buf
	}
	// sourceMappingURL and any other custom section is accepted but not
	// retained; it exists only to round-trip through wasmrewrite.
	return nil
}

func (ex *extractor) ImportFunc() error {
	// imported functions occupy the low indices of the function index
	// space and contribute no body of their own.
	ex.ds.FuncOffsets = append(ex.ds.FuncOffsets, 0)
	return nil
}

func (ex *extractor) FunctionBody(offset uint64) error {
	if !ex.ds.HasCode {
		ex.ds.HasCode = true
		ex.ds.CodeContent = offset
	}
	ex.ds.FuncOffsets = append(ex.ds.FuncOffsets, offset-ex.ds.CodeContent)
	return nil
}

func (ex *extractor) ActiveDataSegment(base uint32) error {
	ex.ds.DataSegmentOffsets = append(ex.ds.DataSegmentOffsets, base)
	return nil
}
