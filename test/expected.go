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

// Package test collects small assertion helpers shared by this module's
// test files, in place of a third-party assertion library.
package test

import (
	"math"
	"reflect"
	"testing"
)

// Equate fails the test unless value and expected are deeply equal. Call
// sites that have already computed their own pass/fail condition (e.g. a
// Writer.Compare result) pass it as value with true as expected.
func Equate(t *testing.T, value interface{}, expected interface{}) {
	t.Helper()
	if !reflect.DeepEqual(value, expected) {
		t.Errorf("expected %v, got %v", expected, value)
	}
}

// ExpectSuccess fails the test unless value indicates success: true, a nil
// error, or nil. A value of any other type also counts as success.
func ExpectSuccess(t *testing.T, value interface{}) {
	t.Helper()
	if !isSuccess(value) {
		t.Errorf("expected success, got %v", value)
	}
}

// ExpectFailure fails the test unless value indicates failure: false or a
// non-nil error.
func ExpectFailure(t *testing.T, value interface{}) {
	t.Helper()
	if isSuccess(value) {
		t.Errorf("expected failure, got %v", value)
	}
}

func isSuccess(value interface{}) bool {
	switch v := value.(type) {
	case bool:
		return v
	case error:
		return v == nil
	case nil:
		return true
	}
	return true
}

// ExpectEquality fails the test unless a and b are deeply equal.
func ExpectEquality(t *testing.T, a interface{}, b interface{}) {
	t.Helper()
	if !reflect.DeepEqual(a, b) {
		t.Errorf("expected %v to equal %v", a, b)
	}
}

// ExpectInequality fails the test if a and b are deeply equal.
func ExpectInequality(t *testing.T, a interface{}, b interface{}) {
	t.Helper()
	if reflect.DeepEqual(a, b) {
		t.Errorf("expected %v to not equal %v", a, b)
	}
}

// ExpectApproximate fails the test unless a is within tolerance of b, where
// tolerance is a fraction of b (0.1 allows a to differ from b by 10% of b).
func ExpectApproximate(t *testing.T, a float64, b float64, tolerance float64) {
	t.Helper()
	if math.Abs(a-b) > math.Abs(b)*tolerance {
		t.Errorf("expected %v to approximate %v (tolerance %v)", a, b, tolerance)
	}
}
