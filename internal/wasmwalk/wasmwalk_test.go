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

package wasmwalk_test

import (
	"errors"
	"testing"

	"github.com/jetsetilly/wasmdwarf/internal/wasmwalk"
	"github.com/jetsetilly/wasmdwarf/test"
)

// uleb encodes small (<128) unsigned values as a single LEB128 byte; every
// fixture in this file stays within that range for readability.
func uleb(n int) byte {
	return byte(n)
}

func customSection(name string, data []byte) []byte {
	var b []byte
	b = append(b, 0) // section id: custom
	payload := append([]byte{uleb(len(name))}, []byte(name)...)
	payload = append(payload, data...)
	b = append(b, uleb(len(payload)))
	b = append(b, payload...)
	return b
}

func codeSection(bodies [][]byte) []byte {
	var payload []byte
	payload = append(payload, uleb(len(bodies)))
	for _, body := range bodies {
		payload = append(payload, uleb(len(body)))
		payload = append(payload, body...)
	}
	var b []byte
	b = append(b, 10) // section id: code
	b = append(b, uleb(len(payload)))
	b = append(b, payload...)
	return b
}

func dataSection(segments [][]byte) []byte {
	var payload []byte
	payload = append(payload, uleb(len(segments)))
	for _, seg := range segments {
		payload = append(payload, seg...)
	}
	var b []byte
	b = append(b, 11) // section id: data
	b = append(b, uleb(len(payload)))
	b = append(b, payload...)
	return b
}

// activeSegment builds one flags=0 (active, implicit memory 0) data segment
// with a bare i32.const base offset expression and the given content.
func activeSegment(base byte, content []byte) []byte {
	var seg []byte
	seg = append(seg, 0) // flags: active, implicit mem 0
	seg = append(seg, 0x41, base, 0x0b)
	seg = append(seg, uleb(len(content)))
	seg = append(seg, content...)
	return seg
}

func malformedSegment() []byte {
	var seg []byte
	seg = append(seg, 0)
	seg = append(seg, 0x99, 0x0b) // not i32.const
	seg = append(seg, uleb(0))
	return seg
}

func module(sections ...[]byte) []byte {
	b := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
	for _, s := range sections {
		b = append(b, s...)
	}
	return b
}

type recorder struct {
	customNames []string
	importFuncs int
	bodyOffsets []uint64
	dataBases   []uint32
}

func (r *recorder) CustomSection(name string, data []byte) error {
	r.customNames = append(r.customNames, name)
	return nil
}

func (r *recorder) ImportFunc() error {
	r.importFuncs++
	return nil
}

func (r *recorder) FunctionBody(offset uint64) error {
	r.bodyOffsets = append(r.bodyOffsets, offset)
	return nil
}

func (r *recorder) ActiveDataSegment(base uint32) error {
	r.dataBases = append(r.dataBases, base)
	return nil
}

func TestWalkCustomAndCode(t *testing.T) {
	wasm := module(
		customSection(".debug_info", []byte{1, 2, 3, 4}),
		codeSection([][]byte{{0x00, 0x0b}, {0x01, 0x02, 0x0b}}),
	)

	r := &recorder{}
	err := wasmwalk.Walk(wasm, r)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, r.customNames, []string{".debug_info"})
	test.ExpectEquality(t, len(r.bodyOffsets), 2)
}

func TestWalkActiveDataSegment(t *testing.T) {
	wasm := module(
		dataSection([][]byte{activeSegment(42, []byte("hello"))}),
	)

	r := &recorder{}
	err := wasmwalk.Walk(wasm, r)
	test.ExpectSuccess(t, err)
	test.ExpectEquality(t, r.dataBases, []uint32{42})
}

func TestWalkMalformedDataSegment(t *testing.T) {
	wasm := module(
		dataSection([][]byte{malformedSegment()}),
	)

	r := &recorder{}
	err := wasmwalk.Walk(wasm, r)
	test.ExpectFailure(t, err)
	if !errors.Is(err, wasmwalk.ErrMalformedInitExpr) {
		t.Errorf("expected ErrMalformedInitExpr, got %v", err)
	}
}

func TestWalkBadMagic(t *testing.T) {
	err := wasmwalk.Walk([]byte("not a wasm file"), &recorder{})
	test.ExpectFailure(t, err)
}
