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

// Package curated is a helper package for the plain Go language error type.
// Curated errors implement the error interface.
//
// Curated errors are created with the Errorf() function. This is similar to
// the Errorf() function in the fmt package. It takes a formatting pattern,
// placeholder values and returns an error.
//
// Patterns are declared as Sentinel constants. The package that originates
// an error declares its patterns and callers compare against them:
//
//	const NotMapped = curated.Sentinel("bus: nothing mapped at %#04x")
//
//	err := curated.Errorf(NotMapped, address)
//
//	if curated.Is(err, NotMapped) {
//		fmt.Println("true")
//	}
//
// The Has() function is similar to Is() but checks if a pattern occurs
// somewhere in the error chain, rather than only at the outermost wrapping:
//
//	e := curated.Errorf(NotMapped, address)
//	f := curated.Errorf("session: %v", e)
//
//	curated.Is(f, NotMapped)  -> false
//	curated.Has(f, NotMapped) -> true
//
// The IsAny() function answers whether the error was created by
// curated.Errorf() at all. Put another way, it distinguishes 'expected'
// errors from 'unexpected' errors that have escaped from outside the
// project.
//
// The Error() function implementation for curated errors normalises the
// error chain, removing duplicate adjacent parts. The practical advantage is
// that it alleviates the problem of when and how to wrap errors: a message
// wrapped at every level of a deep call chain still reads as a single clean
// chain of parts separated by the sub-string ': ' (as suggested on p239 of
// "The Go Programming Language", Donovan, Kernighan).
package curated
