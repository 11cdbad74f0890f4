// This file is part of Gopher8.
//
// Gopher8 is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Gopher8 is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Gopher8.  If not, see <https://www.gnu.org/licenses/>.

package test

import (
	"testing"
)

// ExpectEquality is used to test equality between one value and another.
func ExpectEquality[T comparable](t *testing.T, value T, expectedValue T) bool {
	t.Helper()
	if value != expectedValue {
		t.Errorf("equality test of type %T failed: '%v' does not equal '%v')", value, value, expectedValue)
		return false
	}
	return true
}

// DemandEquality is used to test equality between one value and another. The
// test will fail immediately if the values are not equal.
func DemandEquality[T comparable](t *testing.T, value T, expectedValue T) {
	t.Helper()
	if value != expectedValue {
		t.Fatalf("equality test of type %T failed: '%v' does not equal '%v')", value, value, expectedValue)
	}
}

// ExpectInequality is used to test inequality between one value and another.
// In other words, the test does not want the values to be equal.
func ExpectInequality[T comparable](t *testing.T, value T, expectedValue T) bool {
	t.Helper()
	if value == expectedValue {
		t.Errorf("inequality test of type %T failed: '%v' does equal '%v')", value, value, expectedValue)
		return false
	}
	return true
}

// Approximation constraint for the ExpectApproximate function.
type Approximation interface {
	~float32 | ~float64 | ~int | ~int64 | ~uint64
}

// ExpectApproximate is used to test approximate equality between one value
// and another. The tolerance value is a percentage (eg. 0.01 for 1%) of the
// expected value.
func ExpectApproximate[T Approximation](t *testing.T, value T, expectedValue T, tolerance float64) bool {
	t.Helper()

	top := float64(expectedValue) * (1 + tolerance)
	bot := float64(expectedValue) * (1 - tolerance)
	if bot > top {
		top, bot = bot, top
	}

	if float64(value) < bot || float64(value) > top {
		t.Errorf("approximation test of type %T failed: '%v' is outside the range '%v' to '%v'", value, value, bot, top)
		return false
	}
	return true
}

// ExpectSuccess tests argument v for a success condition suitable for its
// type. Supported types are bool and error. A nil argument is treated as
// success.
func ExpectSuccess(t *testing.T, v interface{}) bool {
	t.Helper()

	switch v := v.(type) {
	case bool:
		if !v {
			t.Errorf("expected success (bool)")
			return false
		}

	case error:
		if v != nil {
			t.Errorf("expected success (error: %v)", v)
			return false
		}

	case nil:
		return true

	default:
		t.Fatalf("unsupported type (%T) for success testing", v)
		return false
	}

	return true
}

// ExpectFailure tests argument v for a failure condition suitable for its
// type. Supported types are bool and error. A nil argument fails the test.
func ExpectFailure(t *testing.T, v interface{}) bool {
	t.Helper()

	switch v := v.(type) {
	case bool:
		if v {
			t.Errorf("expected failure (bool)")
			return false
		}

	case error:
		if v == nil {
			t.Errorf("expected failure (error)")
			return false
		}

	case nil:
		t.Errorf("expected failure (nil)")
		return false

	default:
		t.Fatalf("unsupported type (%T) for failure testing", v)
		return false
	}

	return true
}

// DemandSuccess is the same as ExpectSuccess except that the test ends
// immediately on failure.
func DemandSuccess(t *testing.T, v interface{}) {
	t.Helper()
	if !ExpectSuccess(t, v) {
		t.FailNow()
	}
}

// DemandFailure is the same as ExpectFailure except that the test ends
// immediately on failure.
func DemandFailure(t *testing.T, v interface{}) {
	t.Helper()
	if !ExpectFailure(t, v) {
		t.FailNow()
	}
}
