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

package curated_test

import (
	"errors"
	"testing"

	"github.com/jetsetilly/gopher8/curated"
	"github.com/jetsetilly/gopher8/test"
)

const testPattern = curated.Sentinel("test: %v")
const otherPattern = curated.Sentinel("other: %v")

func TestIs(t *testing.T) {
	e := curated.Errorf(testPattern, "detail")

	test.ExpectSuccess(t, curated.IsAny(e))
	test.ExpectSuccess(t, curated.Is(e, testPattern))
	test.ExpectFailure(t, curated.Is(e, otherPattern))

	// plain errors are never curated
	p := errors.New("plain")
	test.ExpectFailure(t, curated.IsAny(p))
	test.ExpectFailure(t, curated.Is(p, testPattern))

	// nil is never curated
	test.ExpectFailure(t, curated.IsAny(nil))
}

func TestHas(t *testing.T) {
	e := curated.Errorf(testPattern, "detail")
	f := curated.Errorf(otherPattern, e)

	test.ExpectFailure(t, curated.Is(f, testPattern))
	test.ExpectSuccess(t, curated.Has(f, testPattern))
	test.ExpectSuccess(t, curated.Has(f, otherPattern))
	test.ExpectSuccess(t, curated.Has(e, testPattern))
}

func TestNormalisation(t *testing.T) {
	// duplicate adjacent parts are removed when the message is formatted
	e := curated.Errorf(testPattern, "not yet implemented")
	f := curated.Errorf(testPattern, e)

	test.ExpectEquality(t, f.Error(), "test: not yet implemented")
}
