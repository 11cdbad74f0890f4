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

// Package clock tracks the virtual time of a single emulated machine.
// Virtual time is counted in machine cycles at the cycle rate declared by
// the machine backend, and is distinct from the wall-clock time of the host.
//
// The Advance() function converts a wall-clock duration into the number of
// cycles owed at the declared rate. The sub-cycle remainder of the
// conversion is carried over to the next call so that the average rate is
// exact over time, whatever the size and cadence of the individual
// wall-clock deltas.
package clock

import (
	"time"

	"github.com/jetsetilly/gopher8/curated"
)

// Error patterns originating in the clock package.
const (
	InvalidRate = curated.Sentinel("clock: invalid cycle rate (%d)")
)

// Clock is the virtual clock for one emulated machine. Not safe for
// concurrent use; the scheduler is the only mutator.
type Clock struct {
	rate int

	// cycles executed so far. only ever increased by AddCycles()
	cycles uint64

	// sub-cycle remainder from the most recent Advance(), in units of
	// cycle-nanoseconds (ie. nanoseconds multiplied by the cycle rate,
	// modulo one second)
	remainder int64
}

// NewClock is the preferred method of initialisation for the Clock type.
// The rate argument is the machine's cycle rate in cycles per second.
func NewClock(rate int) (*Clock, error) {
	if rate <= 0 {
		return nil, curated.Errorf(InvalidRate, rate)
	}
	return &Clock{rate: rate}, nil
}

// Rate returns the cycle rate the clock was created with.
func (c *Clock) Rate() int {
	return c.rate
}

// Advance converts a wall-clock duration into the number of cycles owed at
// the clock's rate. The fractional part of the conversion is accumulated
// and paid out on a later call, so splitting a duration over many calls
// yields the same total as a single call.
//
// Advance does not change the cycle counter. Owed cycles enter the counter
// through AddCycles() once they have actually been executed.
func (c *Clock) Advance(delta time.Duration) int {
	if delta <= 0 {
		return 0
	}

	n := delta.Nanoseconds()*int64(c.rate) + c.remainder
	c.remainder = n % 1e9

	return int(n / 1e9)
}

// AddCycles increases the cycle counter by the number of cycles just
// executed.
func (c *Clock) AddCycles(n int) {
	if n <= 0 {
		return
	}
	c.cycles += uint64(n)
}

// Cycles returns the number of cycles executed since the last reset.
func (c *Clock) Cycles() uint64 {
	return c.cycles
}

// Elapsed returns the virtual time represented by the cycle counter.
func (c *Clock) Elapsed() time.Duration {
	secs := c.cycles / uint64(c.rate)
	rem := c.cycles % uint64(c.rate)
	return time.Duration(secs)*time.Second + time.Duration(rem*1e9/uint64(c.rate))
}

// Reset zeroes the cycle counter and the accumulated remainder.
func (c *Clock) Reset() {
	c.cycles = 0
	c.remainder = 0
}

// Restore the cycle counter to a previously saved value. Used when loading
// a save-state. The accumulated remainder is discarded.
func (c *Clock) Restore(cycles uint64) {
	c.cycles = cycles
	c.remainder = 0
}
