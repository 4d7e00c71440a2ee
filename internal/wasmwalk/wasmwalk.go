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

// Package wasmwalk is a minimal, single-pass walker over the WebAssembly
// binary format (MVP, https://www.w3.org/TR/wasm-core-1/#binary-format).
//
// No example in the corpus this package was built from exposes an
// importable, public Go library with the exact push-parser contract wasm
// section extraction needs here (every tetratelabs/wazero snapshot
// retrieved keeps its binary decoder under an unexported or since-removed
// package path), so this is hand-written, in the same single-for-loop,
// switch-on-section-id style the rest of this module's streaming binary
// readers use. It delegates only LEB128 varuint/varint decoding to
// github.com/tetratelabs/wazero/wasm/leb128, a dependency actually present
// in this corpus.
package wasmwalk

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/tetratelabs/wazero/wasm/leb128"
)

// ErrMalformedInitExpr is returned (wrapped) when a data segment's init
// expression is not a bare i32.const — the only form this extractor
// understands.
var ErrMalformedInitExpr = errors.New("malformed data segment init expression")

// section IDs, per the WebAssembly binary format.
const (
	sectionCustom = iota
	sectionType
	sectionImport
	sectionFunction
	sectionTable
	sectionMemory
	sectionGlobal
	sectionExport
	sectionStart
	sectionElement
	sectionCode
	sectionData
)

// import kinds, per the WebAssembly binary format.
const (
	importKindFunc = iota
	importKindTable
	importKindMemory
	importKindGlobal
)

var magic = []byte{0x00, 0x61, 0x73, 0x6d}
var version = []byte{0x01, 0x00, 0x00, 0x00}

// Visitor receives the events the Extractor needs in order to build a
// DebugSections value. Every method may be called zero or more times; the
// walk continues as long as each call returns a nil error.
type Visitor interface {
	// CustomSection is called once per custom section, with the section's
	// name and raw payload bytes. The caller decides whether the name is
	// interesting; sections it doesn't recognise are simply not acted upon.
	CustomSection(name string, data []byte) error

	// ImportFunc is called once per imported function, in declaration
	// order, before any FunctionBody event.
	ImportFunc() error

	// FunctionBody is called once per defined function body, in
	// declaration order, with the absolute byte offset (from the start of
	// the wasm binary) at which the body's contents begin (immediately
	// after the body's own size field).
	FunctionBody(offset uint64) error

	// ActiveDataSegment is called once per active data segment whose init
	// expression is a single i32.const, with that constant value
	// interpreted as an unsigned 32-bit base address.
	ActiveDataSegment(base uint32) error
}

// Walk performs a single pass over wasm, a complete WebAssembly binary
// module, invoking v's methods as the relevant constructs are encountered.
func Walk(wasm []byte, v Visitor) error {
	if len(wasm) < 8 || !bytes.Equal(wasm[0:4], magic) {
		return fmt.Errorf("not a wasm module (bad magic)")
	}
	if !bytes.Equal(wasm[4:8], version) {
		return fmt.Errorf("unsupported wasm version")
	}

	r := &cursor{buf: wasm, pos: 8}

	for r.pos < len(wasm) {
		id, err := r.readByte()
		if err != nil {
			return fmt.Errorf("reading section id: %w", err)
		}

		size, err := r.readVaruint32()
		if err != nil {
			return fmt.Errorf("reading section size: %w", err)
		}

		sectionStart := r.pos
		sectionEnd := sectionStart + int(size)
		if sectionEnd > len(wasm) {
			return fmt.Errorf("section overruns module (id %d)", id)
		}

		switch id {
		case sectionCustom:
			if err := r.readCustomSection(sectionEnd, v); err != nil {
				return err
			}
		case sectionImport:
			if err := r.readImportSection(v); err != nil {
				return err
			}
		case sectionCode:
			if err := r.readCodeSection(v); err != nil {
				return err
			}
		case sectionData:
			if err := r.readDataSection(v); err != nil {
				return err
			}
		default:
			// not of interest to the extractor; skip the whole section.
			r.pos = sectionEnd
		}

		if r.pos != sectionEnd {
			return fmt.Errorf("section id %d: expected to consume %d bytes, consumed %d", id, size, r.pos-sectionStart)
		}
	}

	return nil
}

// cursor is a position-tracking reader over an in-memory wasm module. It
// implements io.Reader/io.ByteReader so leb128 decoding can share it.
type cursor struct {
	buf []byte
	pos int
}

func (c *cursor) Read(p []byte) (int, error) {
	if c.pos >= len(c.buf) {
		return 0, io.EOF
	}
	n := copy(p, c.buf[c.pos:])
	c.pos += n
	return n, nil
}

func (c *cursor) ReadByte() (byte, error) {
	if c.pos >= len(c.buf) {
		return 0, io.EOF
	}
	b := c.buf[c.pos]
	c.pos++
	return b, nil
}

func (c *cursor) readByte() (byte, error) {
	return c.ReadByte()
}

func (c *cursor) readVaruint32() (uint32, error) {
	v, _, err := leb128.DecodeUint32(c)
	return v, err
}

func (c *cursor) readVarint32() (int32, error) {
	v, _, err := leb128.DecodeInt32(c)
	return v, err
}

func (c *cursor) readBytes(n int) ([]byte, error) {
	if c.pos+n > len(c.buf) {
		return nil, io.ErrUnexpectedEOF
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

func (c *cursor) readName() (string, error) {
	n, err := c.readVaruint32()
	if err != nil {
		return "", err
	}
	b, err := c.readBytes(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (c *cursor) readCustomSection(sectionEnd int, v Visitor) error {
	name, err := c.readName()
	if err != nil {
		return fmt.Errorf("reading custom section name: %w", err)
	}
	if c.pos > sectionEnd {
		return fmt.Errorf("malformed custom section %q", name)
	}
	data, err := c.readBytes(sectionEnd - c.pos)
	if err != nil {
		return fmt.Errorf("reading custom section %q payload: %w", name, err)
	}
	return v.CustomSection(name, data)
}

func (c *cursor) readImportSection(v Visitor) error {
	count, err := c.readVaruint32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		if _, err := c.readName(); err != nil { // module name
			return err
		}
		if _, err := c.readName(); err != nil { // field name
			return err
		}
		kind, err := c.readByte()
		if err != nil {
			return err
		}
		switch kind {
		case importKindFunc:
			if _, err := c.readVaruint32(); err != nil { // type index
				return err
			}
			if err := v.ImportFunc(); err != nil {
				return err
			}
		case importKindTable:
			if err := c.skipTableType(); err != nil {
				return err
			}
		case importKindMemory:
			if err := c.skipLimits(); err != nil {
				return err
			}
		case importKindGlobal:
			if _, err := c.readByte(); err != nil { // valtype
				return err
			}
			if _, err := c.readByte(); err != nil { // mutability
				return err
			}
		default:
			return fmt.Errorf("unknown import kind %d", kind)
		}
	}
	return nil
}

func (c *cursor) skipTableType() error {
	if _, err := c.readByte(); err != nil { // reftype
		return err
	}
	return c.skipLimits()
}

func (c *cursor) skipLimits() error {
	flag, err := c.readByte()
	if err != nil {
		return err
	}
	if _, err := c.readVaruint32(); err != nil { // min
		return err
	}
	if flag == 1 {
		if _, err := c.readVaruint32(); err != nil { // max
			return err
		}
	}
	return nil
}

func (c *cursor) readCodeSection(v Visitor) error {
	count, err := c.readVaruint32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		size, err := c.readVaruint32()
		if err != nil {
			return err
		}
		if err := v.FunctionBody(uint64(c.pos)); err != nil {
			return err
		}
		if _, err := c.readBytes(int(size)); err != nil {
			return err
		}
	}
	return nil
}

func (c *cursor) readDataSection(v Visitor) error {
	count, err := c.readVaruint32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		flags, err := c.readVaruint32()
		if err != nil {
			return err
		}

		switch flags {
		case 0: // active, implicit memory 0
			base, err := c.readActiveOffsetExpr()
			if err != nil {
				return err
			}
			if err := v.ActiveDataSegment(base); err != nil {
				return err
			}
		case 1: // passive
			// no offset expression
		case 2: // active, explicit memory index
			if _, err := c.readVaruint32(); err != nil {
				return err
			}
			base, err := c.readActiveOffsetExpr()
			if err != nil {
				return err
			}
			if err := v.ActiveDataSegment(base); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown data segment flags %d", flags)
		}

		n, err := c.readVaruint32()
		if err != nil {
			return err
		}
		if _, err := c.readBytes(int(n)); err != nil {
			return err
		}
	}
	return nil
}

// readActiveOffsetExpr reads a data segment's init expression and returns
// its value as an unsigned 32-bit base address. The only init expression
// this extractor understands is a bare i32.const terminated by `end`
// (0x0b); anything else is a malformed data segment as far as this tool is
// concerned.
func (c *cursor) readActiveOffsetExpr() (uint32, error) {
	op, err := c.readByte()
	if err != nil {
		return 0, err
	}
	const opI32Const = 0x41
	const opEnd = 0x0b
	if op != opI32Const {
		return 0, fmt.Errorf("%w: unexpected init expression operator 0x%02x", ErrMalformedInitExpr, op)
	}
	v, err := c.readVarint32()
	if err != nil {
		return 0, err
	}
	end, err := c.readByte()
	if err != nil {
		return 0, err
	}
	if end != opEnd {
		return 0, fmt.Errorf("%w: unterminated init expression", ErrMalformedInitExpr)
	}
	return uint32(v), nil
}
