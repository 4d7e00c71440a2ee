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

// Package wasmrewrite performs the small, surgical rewrites this module
// needs to perform on a wasm binary after a conversion run: stripping the
// DWARF custom sections a browser has no use for, and appending a
// sourceMappingURL custom section pointing at the emitted source map.
//
// Neither operation needs the full Visitor-driven walk internal/wasmwalk
// performs; both only need section boundaries, so this package carries its
// own minimal section scanner built on the same third-party LEB128 decoder.
package wasmrewrite

import (
	"bytes"
	"fmt"

	"github.com/tetratelabs/wazero/wasm/leb128"
)

var magic = []byte{0x00, 0x61, 0x73, 0x6d}
var version = []byte{0x01, 0x00, 0x00, 0x00}

const sectionCustom = 0

const sourceMappingURLSection = "sourceMappingURL"

// section describes one top-level section's extent in the original buffer,
// header included.
type section struct {
	id         byte
	start, end int // header start, payload end
	name       string
	nameEnd    int // end of the custom section's name sub-field, valid when id == sectionCustom
}

func scan(wasm []byte) ([]section, error) {
	if len(wasm) < 8 || !bytes.Equal(wasm[0:4], magic) || !bytes.Equal(wasm[4:8], version) {
		return nil, fmt.Errorf("not a recognised wasm module")
	}

	var sections []section
	pos := 8
	for pos < len(wasm) {
		start := pos
		id := wasm[pos]
		pos++

		size, n, err := leb128.DecodeUint32(bytes.NewReader(wasm[pos:]))
		if err != nil {
			return nil, fmt.Errorf("reading section size: %w", err)
		}
		pos += int(n)

		payloadStart := pos
		end := payloadStart + int(size)
		if end > len(wasm) {
			return nil, fmt.Errorf("section overruns module (id %d)", id)
		}

		s := section{id: id, start: start, end: end}
		if id == sectionCustom {
			nameLen, nn, err := leb128.DecodeUint32(bytes.NewReader(wasm[payloadStart:]))
			if err != nil {
				return nil, fmt.Errorf("reading custom section name length: %w", err)
			}
			nameStart := payloadStart + int(nn)
			nameEnd := nameStart + int(nameLen)
			if nameEnd > end {
				return nil, fmt.Errorf("malformed custom section name")
			}
			s.name = string(wasm[nameStart:nameEnd])
			s.nameEnd = nameEnd
		}

		sections = append(sections, s)
		pos = end
	}

	return sections, nil
}

func isDebugSection(name string) bool {
	switch {
	case len(name) >= len(".debug_") && name[:len(".debug_")] == ".debug_":
		return true
	case len(name) >= len("reloc..debug_") && name[:len("reloc..debug_")] == "reloc..debug_":
		return true
	case name == "linking":
		return true
	case name == sourceMappingURLSection:
		return true
	}
	return false
}

// StripDebugSections returns a copy of wasm with every `.debug_*`,
// `reloc..debug_*`, `linking`, and `sourceMappingURL` custom section
// removed. All other sections, custom or otherwise, are copied verbatim and
// in their original order.
func StripDebugSections(wasm []byte) ([]byte, error) {
	sections, err := scan(wasm)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(wasm))
	out = append(out, wasm[:8]...)
	for _, s := range sections {
		if s.id == sectionCustom && isDebugSection(s.name) {
			continue
		}
		out = append(out, wasm[s.start:s.end]...)
	}
	return out, nil
}

// AppendSourceMappingURL returns a copy of wasm with a new sourceMappingURL
// custom section appended, whose payload (after the section's own name
// sub-field) is url as a LEB128 length-prefixed string.
func AppendSourceMappingURL(wasm []byte, url string) []byte {
	name := []byte(sourceMappingURLSection)
	payload := []byte(url)

	var body bytes.Buffer
	body.Write(leb128.EncodeUint32(uint32(len(name))))
	body.Write(name)
	body.Write(leb128.EncodeUint32(uint32(len(payload))))
	body.Write(payload)

	var out bytes.Buffer
	out.Write(wasm)
	out.WriteByte(sectionCustom)
	out.Write(leb128.EncodeUint32(uint32(body.Len())))
	out.Write(body.Bytes())

	return out.Bytes()
}
