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

// Package simple implements a minimal test machine. It is useful for
// exercising the scheduler and session machinery without the complication
// of a real instruction set.
//
// The machine has a 256 byte address space with one byte per instruction.
// Four instructions are defined: 0x00 is a no-op, 0x01 toggles the beeper,
// 0x02 renders the gradient display and 0x03 halts (the program counter
// stops advancing). Any other value faults. The program counter wraps at
// the end of the address space, so the zero fill beyond a short program
// reads as no-ops.
package simple

import (
	"bytes"
	"encoding/gob"
	"math"

	"github.com/jetsetilly/gopher8/backend"
	"github.com/jetsetilly/gopher8/bus"
	"github.com/jetsetilly/gopher8/curated"
	"github.com/jetsetilly/gopher8/frame"
)

// Error patterns originating in the simple package.
const (
	UnknownOpcode = curated.Sentinel("simple: unknown opcode %#02x")
	InvalidRate   = curated.Sentinel("simple: invalid cycle rate (%d)")
)

// DefaultCycleRate is the step rate used by New().
const DefaultCycleRate = 500

// Instruction set.
const (
	opNop  = 0x00
	opTone = 0x01
	opDraw = 0x02
	opHalt = 0x03
)

const memorySize = 0x100

// display dimensions
const (
	videoWidth  = 100
	videoHeight = 100
)

// the tone is synthesised at a fixed audio rate, independent of the cycle
// rate, so it stays below the stream's Nyquist limit
const (
	toneFrequency = 440
	audioRate     = 48000
)

type machineState struct {
	PC      uint8
	Counter uint64
	ToneOn  bool

	// oscillator phase in the range [0, 1)
	TonePhase float64

	// audio-sample accumulator against the cycle rate
	AudioAcc int
}

// Simple implements the backend.Backend interface.
type Simple struct {
	rate int
	st   machineState

	// reused between steps to avoid an allocation per step
	sampleBuf []float32
}

// New is the preferred method of initialisation for the Simple type.
func New() *Simple {
	s, _ := NewWithRate(DefaultCycleRate)
	return s
}

// NewWithRate creates a machine stepping at a non-standard rate.
func NewWithRate(rate int) (*Simple, error) {
	if rate <= 0 {
		return nil, curated.Errorf(InvalidRate, rate)
	}
	return &Simple{rate: rate}, nil
}

// Variant implements the backend.Backend interface.
func (s *Simple) Variant() backend.Variant {
	return backend.Simple
}

// CycleRate implements the backend.Backend interface.
func (s *Simple) CycleRate() int {
	return s.rate
}

// SampleRate implements the backend.Backend interface.
func (s *Simple) SampleRate() int {
	return audioRate
}

// Mount implements the backend.Backend interface.
func (s *Simple) Mount(b *bus.Bus) error {
	return b.Mount(0x00, bus.NewBlock(memorySize))
}

// Load implements the backend.Backend interface.
func (s *Simple) Load(program []byte, b *bus.Bus) error {
	if len(program) == 0 {
		return curated.Errorf(backend.InvalidProgram, curated.Errorf("simple: empty program"))
	}
	if len(program) > memorySize {
		return curated.Errorf(backend.InvalidProgram,
			curated.Errorf("simple: program of %d bytes exceeds the %d byte limit", len(program), memorySize))
	}

	if err := s.Mount(b); err != nil {
		return err
	}
	if err := b.Write(0x00, program); err != nil {
		return err
	}

	s.Reset()
	return nil
}

// Reset implements the backend.Backend interface.
func (s *Simple) Reset() {
	s.st = machineState{}
}

// Step implements the backend.Backend interface. Every step takes exactly
// one cycle.
func (s *Simple) Step(b *bus.Bus) backend.StepOutcome {
	var out backend.StepOutcome
	out.Cycles = 1

	op, err := b.Read8(bus.Address(s.st.PC))
	if err != nil {
		out.Fault = err
		return out
	}

	switch op {
	case opNop:
		s.st.PC++
	case opTone:
		s.st.ToneOn = !s.st.ToneOn
		s.st.PC++
	case opDraw:
		out.Display = true
		s.st.PC++
	case opHalt:
		// PC stays put. the machine keeps consuming cycles
	default:
		out.Fault = curated.Errorf(UnknownOpcode, op)
		return out
	}

	s.st.Counter++
	out.Samples = s.audioSamples()

	return out
}

// audioSamples produces the tone output covering one cycle, at audioRate.
// The accumulator carries the fractional sample between steps.
func (s *Simple) audioSamples() []float32 {
	s.st.AudioAcc += audioRate
	n := s.st.AudioAcc / s.rate
	s.st.AudioAcc %= s.rate

	if cap(s.sampleBuf) < n {
		s.sampleBuf = make([]float32, n)
	}
	buf := s.sampleBuf[:n]

	for i := range buf {
		s.st.TonePhase += toneFrequency / float64(audioRate)
		if s.st.TonePhase >= 1.0 {
			s.st.TonePhase -= 1.0
		}
		if s.st.ToneOn {
			buf[i] = float32(math.Sin(2 * math.Pi * s.st.TonePhase))
		} else {
			buf[i] = 0
		}
	}

	return buf
}

// Frame implements the backend.Backend interface. The image is a gradient
// that slides as the step counter advances.
func (s *Simple) Frame() *frame.Frame {
	f := frame.NewFrame(videoWidth, videoHeight)
	for y := 0; y < videoHeight; y++ {
		for x := 0; x < videoWidth; x++ {
			v := uint8(int(s.st.Counter) + x + y)
			f.SetPixel(x, y, v, v, 255-v, 255)
		}
	}
	return f
}

// Snapshot implements the backend.Backend interface.
func (s *Simple) Snapshot() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s.st); err != nil {
		return nil, curated.Errorf("simple: %v", err)
	}
	return buf.Bytes(), nil
}

// Restore implements the backend.Backend interface.
func (s *Simple) Restore(state []byte) error {
	var st machineState
	if err := gob.NewDecoder(bytes.NewReader(state)).Decode(&st); err != nil {
		return curated.Errorf(backend.BadSnapshot, err)
	}
	s.st = st
	return nil
}
