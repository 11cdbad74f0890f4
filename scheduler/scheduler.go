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

// Package scheduler drives a machine backend in wall-clock time. Each call
// to Tick() converts the elapsed host duration into machine cycles through
// the virtual clock and runs backend steps until the owed cycles are spent.
//
// Steps run strictly in sequence. A variable-length step can consume more
// cycles than are owed; the overdraft is carried into the next tick so that
// the cycle total over many ticks is exact.
//
// A tick is clamped to a maximum number of cycles. Without the clamp a long
// host stall (a debugger pause, a laptop suspend) would be paid back as a
// burst of emulation at many times real speed. Cycles beyond the clamp are
// discarded, deliberately losing virtual time instead of racing to catch
// up.
package scheduler

import (
	"time"

	"github.com/jetsetilly/gopher8/audio"
	"github.com/jetsetilly/gopher8/backend"
	"github.com/jetsetilly/gopher8/bus"
	"github.com/jetsetilly/gopher8/clock"
	"github.com/jetsetilly/gopher8/curated"
	"github.com/jetsetilly/gopher8/frame"
	"github.com/jetsetilly/gopher8/logger"
)

// Error patterns originating in the scheduler package.
const (
	InvalidClamp = curated.Sentinel("scheduler: invalid cycle clamp (%d)")
)

// Report summarises one Tick().
type Report struct {
	// cycles actually executed
	Cycles int

	// backend steps taken
	Steps int

	// cycles discarded by the anti-runaway clamp
	Discarded int

	// the fault that stopped the tick early, or nil. cycles owed at the
	// time of the fault remain owed
	Fault error
}

// Scheduler connects a clock, a backend and the output channels. It borrows
// all of them; the session owns them.
type Scheduler struct {
	clk      *clock.Clock
	bck      backend.Backend
	bus      *bus.Bus
	pipeline *audio.Pipeline
	display  *frame.Buffer

	maxPerTick int

	// cycle balance owed to the backend. a variable-length step can push
	// this negative, in which case the next tick starts in debt
	pending int64

	// number of audio samples pushed so far, stamping each sample with its
	// position on the backend's audio timeline
	sampleRate  int
	sampleCount uint64

	discarded uint64

	loggedClamp bool
}

// New is the preferred method of initialisation for the Scheduler type.
// maxPerTick is the anti-runaway clamp in cycles.
func New(bck backend.Backend, b *bus.Bus, clk *clock.Clock, pipeline *audio.Pipeline, display *frame.Buffer, maxPerTick int) (*Scheduler, error) {
	if maxPerTick <= 0 {
		return nil, curated.Errorf(InvalidClamp, maxPerTick)
	}
	return &Scheduler{
		clk:        clk,
		bck:        bck,
		bus:        b,
		pipeline:   pipeline,
		display:    display,
		maxPerTick: maxPerTick,
		sampleRate: bck.SampleRate(),
	}, nil
}

// virtual time of the most recent audio sample. the integer seconds are
// split out so the calculation cannot overflow however long the session
// runs.
func (s *Scheduler) sampleTime() time.Duration {
	secs := s.sampleCount / uint64(s.sampleRate)
	rem := s.sampleCount % uint64(s.sampleRate)
	return time.Duration(secs)*time.Second + time.Duration(rem*uint64(time.Second)/uint64(s.sampleRate))
}

// Tick runs the backend for the cycles owed by the elapsed host duration.
func (s *Scheduler) Tick(delta time.Duration) Report {
	var rep Report

	due := s.clk.Advance(delta)
	if due > s.maxPerTick {
		rep.Discarded = due - s.maxPerTick
		s.discarded += uint64(rep.Discarded)
		due = s.maxPerTick

		if !s.loggedClamp {
			s.loggedClamp = true
			logger.Logf(logger.Allow, "scheduler", "tick clamped to %d cycles, %d discarded", s.maxPerTick, rep.Discarded)
		}
	}

	s.pending += int64(due)

	for s.pending > 0 {
		out := s.bck.Step(s.bus)
		if out.Fault != nil {
			rep.Fault = out.Fault
			break
		}

		cycles := out.Cycles
		if cycles < 1 {
			cycles = 1
		}

		s.pending -= int64(cycles)
		s.clk.AddCycles(cycles)
		rep.Cycles += cycles
		rep.Steps++

		for _, v := range out.Samples {
			s.sampleCount++
			s.pipeline.Push(audio.TimedSample{
				Time:  s.sampleTime(),
				Value: v,
			})
		}
		if out.Display {
			s.display.Publish(s.bck.Frame())
		}
	}

	return rep
}

// Discarded returns the total number of cycles lost to the clamp.
func (s *Scheduler) Discarded() uint64 {
	return s.discarded
}

// Reset forgets the pending cycle balance, the audio sample count and the
// discard count. The clock and backend are reset by their owner.
func (s *Scheduler) Reset() {
	s.pending = 0
	s.discarded = 0
	s.sampleCount = 0
	s.loggedClamp = false
}
