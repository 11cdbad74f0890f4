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

// Package chip8 implements the CHIP-8 machine as a Gopher8 backend. Two
// variants are supported: the original CHIP-8 and the SUPER-CHIP, which
// differ only in the quirks table.
//
// The memory map follows convention: the interpreter area occupies
// 0x000-0x1ff with the font at 0x50, programs load at 0x200 and the
// address space ends at 0xfff. The delay and sound timers are memory
// mapped inside the interpreter area so that bus peripherals (and the
// sound sample generator) can observe them.
package chip8

import (
	"math"
	"math/rand"
	"time"

	"github.com/jetsetilly/gopher8/backend"
	"github.com/jetsetilly/gopher8/bus"
	"github.com/jetsetilly/gopher8/curated"
	"github.com/jetsetilly/gopher8/frame"
)

// Error patterns originating in the chip8 package.
const (
	UnknownOpcode      = curated.Sentinel("chip8: unknown opcode %#04x")
	StackOverflow      = curated.Sentinel("chip8: stack overflow at %#04x")
	StackUnderflow     = curated.Sentinel("chip8: stack underflow at %#04x")
	MemoryFault        = curated.Sentinel("chip8: %v")
	UnsupportedVariant = curated.Sentinel("chip8: unsupported variant (%s)")
)

// CycleRate is the number of fetch-decode-execute steps per virtual second.
const CycleRate = 700

// the delay and sound timers decrement at 60Hz, which is also the vblank
// rate a DRW instruction waits on
const timerRate = 60

// frequency of the beeper tone while the sound timer is running. the tone
// is synthesised at a fixed audio rate rather than the cycle rate, which at
// 700Hz would put the tone well above the stream's Nyquist limit
const (
	toneFrequency = 440
	audioRate     = 48000
)

// Display dimensions.
const (
	VideoWidth  = 64
	VideoHeight = 32
)

// Memory map.
const (
	memorySize = 0x1000
	originAddr = 0x200
	fontAddr   = 0x50

	// DelayTimer and SoundTimer are the bus addresses of the two timer
	// registers
	DelayTimer = bus.Address(0x100)
	SoundTimer = bus.Address(0x101)
)

// the conventional CHIP-8 font, sixteen glyphs of five bytes.
// from http://devernay.free.fr/hacks/chip8/C8TECH10.HTM#2.5
var fontset = [80]byte{
	0xF0, 0x90, 0x90, 0x90, 0xF0, // 0
	0x20, 0x60, 0x20, 0x20, 0x70, // 1
	0xF0, 0x10, 0xF0, 0x80, 0xF0, // 2
	0xF0, 0x10, 0xF0, 0x10, 0xF0, // 3
	0x90, 0x90, 0xF0, 0x10, 0x10, // 4
	0xF0, 0x80, 0xF0, 0x10, 0xF0, // 5
	0xF0, 0x80, 0xF0, 0x90, 0xF0, // 6
	0xF0, 0x10, 0x20, 0x40, 0x40, // 7
	0xF0, 0x90, 0xF0, 0x90, 0xF0, // 8
	0xF0, 0x90, 0xF0, 0x10, 0xF0, // 9
	0xF0, 0x90, 0xF0, 0x90, 0x90, // A
	0xE0, 0x90, 0xE0, 0x90, 0xE0, // B
	0xF0, 0x80, 0x80, 0x80, 0xF0, // C
	0xE0, 0x90, 0x90, 0x90, 0xE0, // D
	0xF0, 0x80, 0xF0, 0x80, 0xF0, // E
	0xF0, 0x80, 0xF0, 0x80, 0x80, // F
}

// quirks are the behavioural differences between CHIP-8 platforms. See
// New() for the two supported rows of the table.
type quirks struct {
	shiftUsesX       bool
	loadStoreLeavesI bool
	jumpUsesX        bool
	drawNoVBlankWait bool
	logicKeepsFlag   bool
}

// machineState is the snapshottable internal state of the machine. Fields
// are exported for the benefit of the gob encoding used by Snapshot().
type machineState struct {
	V     [16]uint8
	I     uint16
	PC    uint16
	SP    uint8
	Stack [16]uint16

	// register index waiting for a key release, or -1
	WaitKey int8

	// a DRW instruction has asked to wait for the next vblank
	WaitVBlank bool

	Video  [VideoWidth * VideoHeight]bool
	Keypad [bus.NumKeys]bool

	// 60Hz accumulator against the cycle rate, in units of timer-ticks
	TimerPhase int

	// beeper oscillator phase in the range [0, 1)
	BeepPhase float64

	// audio-sample accumulator against the cycle rate, in units of
	// cycle-samples
	AudioAcc int
}

func newMachineState() machineState {
	return machineState{
		PC:      originAddr,
		WaitKey: -1,
	}
}

// Chip8 implements the backend.Backend interface.
type Chip8 struct {
	variant backend.Variant
	quirks  quirks
	st      machineState
	rnd     *rand.Rand

	// the display changed during the current step
	dirty bool

	// reused between steps to avoid an allocation per step
	sampleBuf []float32
}

// New is the preferred method of initialisation for the Chip8 type. The
// variant argument selects between backend.Chip8 and backend.SuperChip.
func New(variant backend.Variant) (*Chip8, error) {
	c := &Chip8{
		variant: variant,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	switch variant {
	case backend.Chip8:
		c.quirks = quirks{}
	case backend.SuperChip:
		c.quirks = quirks{
			shiftUsesX:       true,
			loadStoreLeavesI: true,
			jumpUsesX:        true,
			drawNoVBlankWait: true,
			logicKeepsFlag:   true,
		}
	default:
		return nil, curated.Errorf(UnsupportedVariant, variant)
	}

	c.Reset()
	return c, nil
}

// Variant implements the backend.Backend interface.
func (c *Chip8) Variant() backend.Variant {
	return c.variant
}

// CycleRate implements the backend.Backend interface.
func (c *Chip8) CycleRate() int {
	return CycleRate
}

// SampleRate implements the backend.Backend interface.
func (c *Chip8) SampleRate() int {
	return audioRate
}

// Mount implements the backend.Backend interface. The interpreter area
// (font, timer registers) and the program RAM are mounted, the RAM empty.
func (c *Chip8) Mount(b *bus.Bus) error {
	sys := make([]byte, originAddr)
	copy(sys[fontAddr:], fontset[:])
	if err := b.Mount(0x000, bus.NewBlockFromData(originAddr, sys)); err != nil {
		return err
	}
	return b.Mount(originAddr, bus.NewBlock(memorySize-originAddr))
}

// Load implements the backend.Backend interface. The bus should be freshly
// created; Load mounts the memory map and writes the program to it.
func (c *Chip8) Load(program []byte, b *bus.Bus) error {
	if len(program) == 0 {
		return curated.Errorf(backend.InvalidProgram, curated.Errorf("chip8: empty program"))
	}
	if len(program) > memorySize-originAddr {
		return curated.Errorf(backend.InvalidProgram,
			curated.Errorf("chip8: program of %d bytes exceeds the %d byte limit", len(program), memorySize-originAddr))
	}

	if err := c.Mount(b); err != nil {
		return err
	}
	if err := b.Write(originAddr, program); err != nil {
		return err
	}

	c.Reset()
	return nil
}

// Reset implements the backend.Backend interface. Internal registers are
// cleared; bus contents, including the timer registers, are left alone.
func (c *Chip8) Reset() {
	c.st = newMachineState()
	c.dirty = false
}

// Step implements the backend.Backend interface.
func (c *Chip8) Step(b *bus.Bus) backend.StepOutcome {
	c.pollKeypad(b)
	c.dirty = false

	var out backend.StepOutcome
	out.Cycles = 1

	if c.st.WaitKey < 0 {
		opcode, err := b.Read16BE(bus.Address(c.st.PC))
		if err != nil {
			out.Fault = curated.Errorf(MemoryFault, err)
			return out
		}

		// a step is atomic. execution works on the live state but a copy
		// is kept so that a faulting instruction can put everything back
		prev := c.st
		c.st.PC += 2

		if err := c.execute(opcode, b); err != nil {
			c.st = prev
			out.Fault = err
			return out
		}
	}

	// a DRW instruction on a platform without the no-wait quirk stalls the
	// machine until the next vblank. expressed here as a variable-length
	// step
	if c.st.WaitVBlank {
		c.st.WaitVBlank = false
		out.Cycles = c.cyclesToVBlank()
	}

	c.tickTimers(b, out.Cycles)

	out.Samples = c.audioSamples(b, out.Cycles)
	out.Display = c.dirty

	return out
}

// pollKeypad reads the keypad state injected through the bus. A machine
// waiting on an Fx0A instruction resumes when a previously pressed key is
// released.
func (c *Chip8) pollKeypad(b *bus.Bus) {
	cur := b.Keypad()

	if c.st.WaitKey >= 0 {
		for k := 0; k < bus.NumKeys; k++ {
			if c.st.Keypad[k] && !cur[k] {
				c.st.V[c.st.WaitKey] = uint8(k)
				c.st.WaitKey = -1
				break
			}
		}
	}

	c.st.Keypad = cur
}

// cyclesToVBlank returns the number of cycles remaining until the timer
// phase next wraps.
func (c *Chip8) cyclesToVBlank() int {
	return (CycleRate - c.st.TimerPhase + timerRate - 1) / timerRate
}

// tickTimers advances the 60Hz timer phase by the given number of cycles,
// decrementing the memory mapped delay and sound timers on each wrap.
//
// the timer registers are always mapped once Load() has run, so bus errors
// here are ignored; they would indicate a bug in Load() rather than
// anything the program did.
func (c *Chip8) tickTimers(b *bus.Bus, cycles int) {
	for i := 0; i < cycles; i++ {
		c.st.TimerPhase += timerRate
		if c.st.TimerPhase >= CycleRate {
			c.st.TimerPhase -= CycleRate

			if dt, err := b.Read8(DelayTimer); err == nil && dt > 0 {
				_ = b.Write8(DelayTimer, dt-1)
			}
			if st, err := b.Read8(SoundTimer); err == nil && st > 0 {
				_ = b.Write8(SoundTimer, st-1)
			}
		}
	}
}

// audioSamples produces the beeper output covering the cycles just
// executed, at audioRate. The accumulator carries the fractional sample so
// the rate is exact on average. The beeper sounds while the sound timer is
// non-zero; silent periods still produce (zero) samples so the stream stays
// continuous.
func (c *Chip8) audioSamples(b *bus.Bus, cycles int) []float32 {
	c.st.AudioAcc += cycles * audioRate
	n := c.st.AudioAcc / CycleRate
	c.st.AudioAcc %= CycleRate

	if cap(c.sampleBuf) < n {
		c.sampleBuf = make([]float32, n)
	}
	buf := c.sampleBuf[:n]

	st, err := b.Read8(SoundTimer)
	beeping := err == nil && st > 0

	for i := range buf {
		c.st.BeepPhase += toneFrequency / float64(audioRate)
		if c.st.BeepPhase >= 1.0 {
			c.st.BeepPhase -= 1.0
		}
		if beeping {
			buf[i] = float32(math.Sin(2 * math.Pi * c.st.BeepPhase))
		} else {
			buf[i] = 0
		}
	}

	return buf
}

// Frame implements the backend.Backend interface.
func (c *Chip8) Frame() *frame.Frame {
	f := frame.NewFrame(VideoWidth, VideoHeight)
	for y := 0; y < VideoHeight; y++ {
		for x := 0; x < VideoWidth; x++ {
			if c.st.Video[y*VideoWidth+x] {
				f.SetPixel(x, y, 255, 255, 255, 255)
			}
		}
	}
	return f
}
