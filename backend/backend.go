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

// Package backend defines the capability set a machine implementation must
// provide in order to be driven by the scheduler. The set of variants is
// closed and known at build time; the session package maps a Variant value
// to the corresponding implementation.
package backend

import (
	"github.com/jetsetilly/gopher8/bus"
	"github.com/jetsetilly/gopher8/curated"
	"github.com/jetsetilly/gopher8/frame"
)

// Variant identifies one machine implementation. It also appears in
// save-states, where it guards against restoring the state of one machine
// into another.
type Variant string

// List of defined variants.
const (
	Chip8     Variant = "CHIP-8"
	SuperChip Variant = "SUPER-CHIP"
	Simple    Variant = "SIMPLE"
)

// Error patterns originating in backend implementations.
const (
	// the program image is malformed or does not fit the machine's memory.
	// returned by Load() before any state has been mutated
	InvalidProgram = curated.Sentinel("invalid program: %v")

	// an opaque state snapshot cannot be restored into this backend
	BadSnapshot = curated.Sentinel("bad snapshot: %v")
)

// StepOutcome is the result of a single backend step.
type StepOutcome struct {
	// the number of cycles the step consumed. always at least one for a
	// completed step; variable-length instructions may consume more
	Cycles int

	// audio produced during the step, at the backend's SampleRate(). the
	// slice is only valid until the next call to Step()
	Samples []float32

	// the display buffer changed during this step
	Display bool

	// a machine fault (invalid opcode, illegal machine state). the step did
	// not complete and machine state is as of the last completed step.
	// faults are recoverable at the session level; they never crash the
	// process
	Fault error
}

// Backend is the capability set of one emulated machine.
//
// Steps are atomic: a step either completes fully (machine state, bus and
// emitted samples all updated) or reports a fault and changes nothing.
type Backend interface {
	// Variant tag of this implementation
	Variant() Variant

	// CycleRate is the machine's native step rate in cycles per virtual
	// second
	CycleRate() int

	// SampleRate of the audio emitted by Step(), in samples per virtual
	// second. independent of the cycle rate so tones are not forced below
	// the stream's Nyquist limit
	SampleRate() int

	// Load validates the program image and builds the machine's memory map
	// on the bus. Fails with InvalidProgram, leaving the machine unchanged.
	Load(program []byte, b *bus.Bus) error

	// Mount builds the machine's memory map on an empty bus without a
	// program image. used when a save-state is restored into a session
	// that never loaded a program
	Mount(b *bus.Bus) error

	// Reset internal machine registers. Bus contents are left alone unless
	// the backend defines otherwise.
	Reset()

	// Step runs one fetch-decode-execute step against the bus
	Step(b *bus.Bus) StepOutcome

	// Frame renders the machine's current display
	Frame() *frame.Frame

	// Snapshot returns an opaque serialisation of internal machine state
	Snapshot() ([]byte, error)

	// Restore internal machine state from a Snapshot() of the same variant
	Restore(state []byte) error
}
