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

package vlq_test

import (
	"testing"

	"github.com/jetsetilly/wasmdwarf/test"
	"github.com/jetsetilly/wasmdwarf/wasmdebug/vlq"
)

func TestEncodeZero(t *testing.T) {
	got := string(vlq.Encode(0, nil))
	test.ExpectEquality(t, got, "A")
}

func TestEncodeSmallPositive(t *testing.T) {
	got := string(vlq.Encode(1, nil))
	test.ExpectEquality(t, got, "C")
}

func TestEncodeSmallNegative(t *testing.T) {
	got := string(vlq.Encode(-1, nil))
	test.ExpectEquality(t, got, "D")
}

func TestEncodeMultiDigit(t *testing.T) {
	// 16 requires a continuation: 16<<1 = 32 = 0b100000, split into 5-bit
	// groups [0, 1] with continuation bit set on the first.
	got := string(vlq.Encode(16, nil))
	test.ExpectEquality(t, got, "gB")
}

func TestEncodeAppendsToExistingBuffer(t *testing.T) {
	buf := []byte("AA")
	buf = vlq.Encode(0, buf)
	test.ExpectEquality(t, string(buf), "AAA")
}
