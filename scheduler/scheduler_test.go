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

package scheduler_test

import (
	"testing"
	"time"

	"github.com/jetsetilly/gopher8/audio"
	"github.com/jetsetilly/gopher8/backend"
	"github.com/jetsetilly/gopher8/backend/chip8"
	"github.com/jetsetilly/gopher8/backend/simple"
	"github.com/jetsetilly/gopher8/bus"
	"github.com/jetsetilly/gopher8/clock"
	"github.com/jetsetilly/gopher8/curated"
	"github.com/jetsetilly/gopher8/frame"
	"github.com/jetsetilly/gopher8/scheduler"
	"github.com/jetsetilly/gopher8/test"
)

func newTestScheduler(t *testing.T, bck backend.Backend, program []byte, maxPerTick int) (*scheduler.Scheduler, *frame.Buffer, *audio.Pipeline) {
	t.Helper()

	b := bus.NewBus()
	test.DemandSuccess(t, bck.Load(program, b))

	clk, err := clock.NewClock(bck.CycleRate())
	test.DemandSuccess(t, err)

	pipeline, err := audio.NewPipeline(48000, 5000)
	test.DemandSuccess(t, err)

	display := &frame.Buffer{}

	sch, err := scheduler.New(bck, b, clk, pipeline, display, maxPerTick)
	test.DemandSuccess(t, err)

	return sch, display, pipeline
}

func TestInvalidClamp(t *testing.T) {
	_, err := scheduler.New(simple.New(), bus.NewBus(), nil, nil, nil, 0)
	test.ExpectSuccess(t, curated.Is(err, scheduler.InvalidClamp))
}

func TestTick(t *testing.T) {
	// two no-ops at 500Hz. 4ms is exactly two cycles
	sch, _, _ := newTestScheduler(t, simple.New(), []byte{0x00, 0x00}, 125)

	rep := sch.Tick(4 * time.Millisecond)
	test.DemandSuccess(t, rep.Fault)
	test.ExpectEquality(t, rep.Steps, 2)
	test.ExpectEquality(t, rep.Cycles, 2)
	test.ExpectEquality(t, rep.Discarded, 0)
}

func TestClamp(t *testing.T) {
	sch, _, _ := newTestScheduler(t, simple.New(), []byte{0x00}, 125)

	// a full second at 500Hz owes 500 cycles. the clamp allows 125
	rep := sch.Tick(time.Second)
	test.DemandSuccess(t, rep.Fault)
	test.ExpectEquality(t, rep.Cycles, 125)
	test.ExpectEquality(t, rep.Discarded, 375)
	test.ExpectEquality(t, sch.Discarded(), 375)

	// discarded cycles stay discarded. the next tick owes only its own
	rep = sch.Tick(2 * time.Millisecond)
	test.ExpectEquality(t, rep.Cycles, 1)
}

func TestFaultStopsTick(t *testing.T) {
	sch, _, _ := newTestScheduler(t, simple.New(), []byte{0x00, 0xff}, 125)

	rep := sch.Tick(10 * time.Millisecond)
	test.ExpectFailure(t, rep.Fault)
	test.ExpectSuccess(t, curated.Is(rep.Fault, simple.UnknownOpcode))

	// the no-op before the bad opcode did run
	test.ExpectEquality(t, rep.Steps, 1)
}

func TestFramePublication(t *testing.T) {
	sch, display, _ := newTestScheduler(t, simple.New(), []byte{0x00, 0x02, 0x03}, 125)

	rep := sch.Tick(2 * time.Millisecond)
	test.DemandSuccess(t, rep.Fault)
	test.ExpectSuccess(t, display.Latest() == nil)

	rep = sch.Tick(2 * time.Millisecond)
	test.DemandSuccess(t, rep.Fault)
	test.ExpectSuccess(t, display.Latest() != nil)
}

func TestAudioDelivery(t *testing.T) {
	sch, _, pipeline := newTestScheduler(t, simple.New(), []byte{0x01, 0x03}, 125)

	// every 500Hz step delivers 96 samples of 48kHz audio to the queue
	rep := sch.Tick(100 * time.Millisecond)
	test.DemandSuccess(t, rep.Fault)
	test.ExpectEquality(t, pipeline.Status().QueueLen, rep.Steps*96)
}

func TestVariableLengthSteps(t *testing.T) {
	// a draw on the base CHIP-8 waits for the vblank, consuming more
	// cycles than a tick may owe. the overdraft must carry so that cycle
	// totals match over many ticks
	bck, err := chip8.New(backend.Chip8)
	test.DemandSuccess(t, err)

	sch, _, _ := newTestScheduler(t, bck, []byte{
		0x60, 0x00, // V0=0
		0x61, 0x00, // V1=0
		0xf0, 0x29, // I=font
		0xd0, 0x15, // draw
		0x12, 0x06, // loop back to the draw
	}, 700)

	total := 0
	for i := 0; i < 100; i++ {
		rep := sch.Tick(time.Second / 700)
		test.DemandSuccess(t, rep.Fault)
		total += rep.Cycles
	}

	// 100 ticks owing roughly one cycle each, give or take one vblank
	// wait of debt
	test.ExpectSuccess(t, total >= 99)
	test.ExpectSuccess(t, total <= 111)
}
