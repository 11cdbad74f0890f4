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

package curated

import (
	"fmt"
	"strings"
)

// Sentinel is the type of a curated error pattern. Packages declare their
// error patterns as Sentinel constants so that callers can test for them
// with the Is() and Has() functions.
type Sentinel string

// curated is an implementation of the go language error interface.
type curated struct {
	pattern Sentinel
	values  []interface{}
}

// Errorf creates a new curated error.
//
// Unlike the Errorf() function in the fmt package the first argument is
// named "pattern" not "format". The pattern is what identifies the error in
// the Is() and Has() functions.
func Errorf(pattern Sentinel, values ...interface{}) error {
	// the arguments are stored and not formatted until the Error() function
	// is called
	return curated{
		pattern: pattern,
		values:  values,
	}
}

// Error returns the normalised error message. Normalisation being the
// removal of duplicate adjacent parts in the error message chain. It doesn't
// affect letter-case or white space.
//
// Implements the go language error interface.
func (er curated) Error() string {
	s := fmt.Errorf(string(er.pattern), er.values...).Error()

	// de-duplicate error message parts
	p := strings.SplitN(s, ": ", 3)
	if len(p) > 1 && p[0] == p[1] {
		return strings.Join(p[1:], ": ")
	}

	return strings.Join(p, ": ")
}

// IsAny checks if the error is a curated error.
func IsAny(err error) bool {
	if err == nil {
		return false
	}

	_, ok := err.(curated)
	return ok
}

// Is checks if error is a curated error with the specified pattern.
func Is(err error, pattern Sentinel) bool {
	if err == nil {
		return false
	}

	if er, ok := err.(curated); ok {
		return er.pattern == pattern
	}

	return false
}

// Has checks if error is a curated error with the specified pattern
// somewhere in the chain.
func Has(err error, pattern Sentinel) bool {
	if err == nil {
		return false
	}

	if Is(err, pattern) {
		return true
	}

	if er, ok := err.(curated); ok {
		for i := range er.values {
			if e, ok := er.values[i].(curated); ok {
				if Has(e, pattern) {
					return true
				}
			}
		}
	}

	return false
}
