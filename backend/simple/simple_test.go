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

package simple_test

import (
	"testing"

	"github.com/jetsetilly/gopher8/backend"
	"github.com/jetsetilly/gopher8/backend/simple"
	"github.com/jetsetilly/gopher8/bus"
	"github.com/jetsetilly/gopher8/curated"
	"github.com/jetsetilly/gopher8/test"
)

func TestLoadValidation(t *testing.T) {
	s := simple.New()
	test.ExpectEquality(t, s.CycleRate(), simple.DefaultCycleRate)

	err := s.Load(nil, bus.NewBus())
	test.ExpectSuccess(t, curated.Is(err, backend.InvalidProgram))

	err = s.Load(make([]byte, 0x101), bus.NewBus())
	test.ExpectSuccess(t, curated.Is(err, backend.InvalidProgram))
}

func TestInvalidRate(t *testing.T) {
	_, err := simple.NewWithRate(0)
	test.ExpectSuccess(t, curated.Is(err, simple.InvalidRate))
}

func TestStepping(t *testing.T) {
	s := simple.New()
	b := bus.NewBus()
	test.DemandSuccess(t, s.Load([]byte{0x01, 0x02, 0x03}, b))

	// tone toggles on. each cycle at the default rate covers 96 samples of
	// 48kHz audio
	out := s.Step(b)
	test.DemandSuccess(t, out.Fault)
	test.ExpectEquality(t, out.Cycles, 1)
	test.ExpectEquality(t, len(out.Samples), 96)
	test.ExpectInequality(t, out.Samples[0], 0.0)

	// draw
	out = s.Step(b)
	test.DemandSuccess(t, out.Fault)
	test.ExpectSuccess(t, out.Display)

	// halted. the program counter stops but cycles keep flowing
	for i := 0; i < 10; i++ {
		out = s.Step(b)
		test.DemandSuccess(t, out.Fault)
		test.ExpectFailure(t, out.Display)
	}
}

func TestUnknownOpcode(t *testing.T) {
	s := simple.New()
	b := bus.NewBus()
	test.DemandSuccess(t, s.Load([]byte{0xff}, b))

	out := s.Step(b)
	test.ExpectSuccess(t, curated.Is(out.Fault, simple.UnknownOpcode))

	// faults do not advance the machine
	out = s.Step(b)
	test.ExpectSuccess(t, curated.Is(out.Fault, simple.UnknownOpcode))
}

func TestProgramCounterWrap(t *testing.T) {
	s := simple.New()
	b := bus.NewBus()

	// a single no-op followed by 255 zero bytes. the counter wraps without
	// ever faulting
	test.DemandSuccess(t, s.Load([]byte{0x00}, b))
	for i := 0; i < 300; i++ {
		out := s.Step(b)
		test.DemandSuccess(t, out.Fault)
	}
}

func TestSnapshotRestore(t *testing.T) {
	s := simple.New()
	b := bus.NewBus()
	test.DemandSuccess(t, s.Load([]byte{0x00, 0x00, 0x01}, b))

	s.Step(b)
	snap, err := s.Snapshot()
	test.DemandSuccess(t, err)

	s.Step(b)
	s.Step(b)
	test.DemandSuccess(t, s.Restore(snap))

	again, err := s.Snapshot()
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, len(snap), len(again))
	for i := range snap {
		test.DemandEquality(t, snap[i], again[i])
	}
}
