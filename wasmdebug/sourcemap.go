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
	"github.com/jetsetilly/wasmdwarf/wasmdebug/vlq"
)

// SourceMap is the JSON shape of a source-map v3 document, per §6.5. Names
// is always present but always empty: a wasm byte-offset-to-line mapping has
// no notion of a symbol name at a mapped position.
type SourceMap struct {
	Version        int      `json:"version"`
	Sources        []string `json:"sources"`
	Names          []string `json:"names"`
	Mappings       string   `json:"mappings"`
	SourcesContent []string `json:"sourcesContent,omitempty"`
}

// EmitSourceMap encodes info as a single-line source-map v3 document: every
// surviving DebugLoc becomes one VLQ-encoded segment on the map's one
// generated line, comma-separated, with no trailing comma and no semicolons
// (the generated "file" here is an address space, not a line-oriented text
// file).
func EmitSourceMap(info *DebugLocInfo) (*SourceMap, error) {
	sm := &SourceMap{
		Version: 3,
		Sources: info.Sources,
		Names:   []string{},
	}
	if len(info.SourcesContent) > 0 {
		sm.SourcesContent = info.SourcesContent
	}

	var buf []byte
	var prevColumn, prevSource, prevLine, prevOrigColumn int64 = 0, 0, 1, 1

	first := true
	for _, loc := range info.Locations {
		if loc.Line == 0 || loc.Column == 0 {
			continue
		}

		if !first {
			buf = append(buf, ',')
		}
		first = false

		column := int64(loc.Address)
		source := int64(loc.SourceID)
		line := int64(loc.Line)
		origColumn := int64(loc.Column)

		buf = vlq.Encode(column-prevColumn, buf)
		buf = vlq.Encode(source-prevSource, buf)
		buf = vlq.Encode(line-prevLine, buf)
		buf = vlq.Encode(origColumn-prevOrigColumn, buf)

		prevColumn, prevSource, prevLine, prevOrigColumn = column, source, line, origColumn
	}

	sm.Mappings = string(buf)
	return sm, nil
}
