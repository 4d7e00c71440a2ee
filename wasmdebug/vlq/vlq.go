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

// Package vlq implements the base64 variable-length-quantity encoding used by
// the source-map v3 "mappings" field.
package vlq

const base64Chars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

// Encode appends the VLQ encoding of delta to buf and returns the extended
// slice. The sign occupies the low bit of the first digit, matching the
// source-map spec's "continuation bit in the high bit of each base64 digit,
// sign in the low bit of the first digit" layout.
func Encode(delta int64, buf []byte) []byte {
	v := uint64(delta)
	if delta < 0 {
		v = uint64(-delta)
	}
	v <<= 1
	if delta < 0 {
		v |= 1
	}

	for {
		digit := v & 0x1f
		v >>= 5
		if v > 0 {
			digit |= 0x20
		}
		buf = append(buf, base64Chars[digit])
		if v == 0 {
			break
		}
	}
	return buf
}
