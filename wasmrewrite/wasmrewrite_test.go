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

package wasmrewrite_test

import (
	"testing"

	"github.com/jetsetilly/wasmdwarf/test"
	"github.com/jetsetilly/wasmdwarf/wasmrewrite"
)

func uleb(n int) byte { return byte(n) }

func customSection(name string, data []byte) []byte {
	payload := append([]byte{uleb(len(name))}, []byte(name)...)
	payload = append(payload, data...)
	return append([]byte{0, uleb(len(payload))}, payload...)
}

func typeSection() []byte {
	// an empty, but structurally valid, type section
	return []byte{1, 1, 0}
}

func module(sections ...[]byte) []byte {
	b := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
	for _, s := range sections {
		b = append(b, s...)
	}
	return b
}

func TestStripDebugSections(t *testing.T) {
	wasm := module(
		typeSection(),
		customSection(".debug_info", []byte{1, 2, 3}),
		customSection("reloc..debug_info", []byte{4, 5}),
		customSection("linking", []byte{0}),
		customSection("name", []byte{9}),
	)

	out, err := wasmrewrite.StripDebugSections(wasm)
	test.ExpectSuccess(t, err)

	want := module(
		typeSection(),
		customSection("name", []byte{9}),
	)
	test.ExpectEquality(t, out, want)
}

func TestAppendSourceMappingURL(t *testing.T) {
	wasm := module(typeSection())

	out := wasmrewrite.AppendSourceMappingURL(wasm, "out.wasm.map")

	want := module(
		typeSection(),
		customSection("sourceMappingURL", append([]byte{uleb(len("out.wasm.map"))}, "out.wasm.map"...)),
	)
	test.ExpectEquality(t, out, want)
}

func TestStripDebugSectionsRejectsBadMagic(t *testing.T) {
	_, err := wasmrewrite.StripDebugSections([]byte("not wasm"))
	test.ExpectFailure(t, err)
}
