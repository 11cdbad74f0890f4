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

package logger_test

import (
	"strings"
	"testing"

	"github.com/jetsetilly/gopher8/logger"
	"github.com/jetsetilly/gopher8/test"
)

func TestLog(t *testing.T) {
	logger.Clear()
	logger.Log(logger.Allow, "test", "hello")

	b := &strings.Builder{}
	logger.Write(b)
	test.ExpectEquality(t, b.String(), "test: hello\n")
}

func TestRepeatFolding(t *testing.T) {
	logger.Clear()
	logger.Log(logger.Allow, "test", "same")
	logger.Log(logger.Allow, "test", "same")
	logger.Log(logger.Allow, "test", "same")

	b := &strings.Builder{}
	logger.Write(b)
	test.ExpectEquality(t, b.String(), "test: same (repeat x3)\n")
}

func TestWriteRecent(t *testing.T) {
	logger.Clear()
	logger.Log(logger.Allow, "test", "first")

	b := &strings.Builder{}
	logger.WriteRecent(b)
	test.ExpectEquality(t, b.String(), "test: first\n")

	// second call should write nothing new
	b.Reset()
	logger.WriteRecent(b)
	test.ExpectEquality(t, b.String(), "")

	logger.Log(logger.Allow, "test", "second")
	b.Reset()
	logger.WriteRecent(b)
	test.ExpectEquality(t, b.String(), "test: second\n")
}

func TestTail(t *testing.T) {
	logger.Clear()
	logger.Log(logger.Allow, "test", "one")
	logger.Log(logger.Allow, "test", "two")
	logger.Log(logger.Allow, "test", "three")

	b := &strings.Builder{}
	logger.Tail(b, 2)
	test.ExpectEquality(t, b.String(), "test: two\ntest: three\n")
}
