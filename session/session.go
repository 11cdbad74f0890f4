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

// Package session assembles a machine backend, bus, clock, scheduler and
// audio pipeline into one emulation session and polices the lifecycle
// around them.
//
// The session is the concurrency boundary of the emulation. All methods
// are safe to call from any goroutine; the frontend typically calls Tick()
// from its update loop, AudioPull() from the sound device callback and
// Frame() from the render loop.
package session

import (
	"sync"
	"time"

	goaudio "github.com/go-audio/audio"

	"github.com/jetsetilly/gopher8/audio"
	"github.com/jetsetilly/gopher8/backend"
	"github.com/jetsetilly/gopher8/backend/chip8"
	"github.com/jetsetilly/gopher8/backend/simple"
	"github.com/jetsetilly/gopher8/bus"
	"github.com/jetsetilly/gopher8/clock"
	"github.com/jetsetilly/gopher8/curated"
	"github.com/jetsetilly/gopher8/frame"
	"github.com/jetsetilly/gopher8/logger"
	"github.com/jetsetilly/gopher8/scheduler"
)

// Error patterns originating in the session package.
const (
	UnknownVariant    = curated.Sentinel("session: unknown variant (%s)")
	InvalidTransition = curated.Sentinel("session: cannot %s from the %s state")
	NoProgram         = curated.Sentinel("session: no program loaded")
	IncompatibleState = curated.Sentinel("session: incompatible save-state: %v")
)

// Default session parameters, overridable through the With* options.
const (
	DefaultHostSampleRate = 48000
	DefaultQueueCapacity  = 5000
)

// Option modifies a session at creation time.
type Option func(*Session)

// WithHostSampleRate sets the rate the audio pipeline resamples to.
func WithHostSampleRate(rate int) Option {
	return func(s *Session) {
		s.hostRate = rate
	}
}

// WithAudioQueueCapacity sets the depth of the timed sample queue.
func WithAudioQueueCapacity(capacity int) Option {
	return func(s *Session) {
		s.queueCap = capacity
	}
}

// WithMaxCyclesPerTick sets the anti-runaway clamp. The default is a
// quarter of a virtual second at the machine's cycle rate.
func WithMaxCyclesPerTick(cycles int) Option {
	return func(s *Session) {
		s.maxPerTick = cycles
	}
}

// Session is one emulated machine and everything attached to it.
type Session struct {
	crit sync.Mutex

	variant backend.Variant
	bck     backend.Backend

	// nil until the first LoadProgram()
	bus *bus.Bus
	sch *scheduler.Scheduler

	clk      *clock.Clock
	pipeline *audio.Pipeline
	display  *frame.Buffer

	state State

	hostRate   int
	queueCap   int
	maxPerTick int
}

// NewSession is the preferred method of initialisation for the Session
// type. The variant argument selects the machine implementation from the
// closed set declared in the backend package.
func NewSession(variant backend.Variant, opts ...Option) (*Session, error) {
	var bck backend.Backend
	var err error

	switch variant {
	case backend.Chip8, backend.SuperChip:
		bck, err = chip8.New(variant)
		if err != nil {
			return nil, err
		}
	case backend.Simple:
		bck = simple.New()
	default:
		return nil, curated.Errorf(UnknownVariant, variant)
	}

	s := &Session{
		variant:  variant,
		bck:      bck,
		display:  &frame.Buffer{},
		hostRate: DefaultHostSampleRate,
		queueCap: DefaultQueueCapacity,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.maxPerTick == 0 {
		s.maxPerTick = bck.CycleRate() / 4
	}

	s.clk, err = clock.NewClock(bck.CycleRate())
	if err != nil {
		return nil, err
	}

	s.pipeline, err = audio.NewPipeline(s.hostRate, s.queueCap)
	if err != nil {
		return nil, err
	}

	logger.Logf(logger.Allow, "session", "new %s session at %dHz", variant, bck.CycleRate())

	return s, nil
}

// Variant of the machine in the session.
func (s *Session) Variant() backend.Variant {
	return s.variant
}

// State the session is currently in.
func (s *Session) State() State {
	s.crit.Lock()
	defer s.crit.Unlock()
	return s.state
}

// LoadProgram builds a fresh bus for the program and readies the session.
// On failure the session is left exactly as it was.
func (s *Session) LoadProgram(program []byte) error {
	s.crit.Lock()
	defer s.crit.Unlock()

	nb := bus.NewBus()
	if err := s.bck.Load(program, nb); err != nil {
		return err
	}

	sch, err := scheduler.New(s.bck, nb, s.clk, s.pipeline, s.display, s.maxPerTick)
	if err != nil {
		return err
	}

	s.bus = nb
	s.sch = sch
	s.clk.Reset()
	s.pipeline.Reset()
	s.display.Reset()
	s.state = Ready

	logger.Logf(logger.Allow, "session", "%d byte program loaded", len(program))

	return nil
}

// Run the emulation. Valid from the Ready and Paused states.
func (s *Session) Run() error {
	s.crit.Lock()
	defer s.crit.Unlock()

	if s.state != Ready && s.state != Paused {
		return curated.Errorf(InvalidTransition, "run", s.state)
	}
	s.state = Running
	return nil
}

// Pause the emulation. Valid from the Running state.
func (s *Session) Pause() error {
	s.crit.Lock()
	defer s.crit.Unlock()

	if s.state != Running {
		return curated.Errorf(InvalidTransition, "pause", s.state)
	}
	s.state = Paused
	return nil
}

// Reset returns the session to the Ready state, clearing machine registers,
// virtual time and the output channels. Valid from the Ready, Paused and
// Faulted states. Bus contents survive a reset; reload the program for a
// pristine machine.
func (s *Session) Reset() error {
	s.crit.Lock()
	defer s.crit.Unlock()

	if s.state != Ready && s.state != Paused && s.state != Faulted {
		return curated.Errorf(InvalidTransition, "reset", s.state)
	}

	s.bck.Reset()
	s.clk.Reset()
	s.sch.Reset()
	s.pipeline.Reset()
	s.display.Reset()
	s.state = Ready
	return nil
}

// Tick runs the emulation for the elapsed host duration. In any state
// other than Running the call is a no-op and the report is empty, so the
// frontend can call it unconditionally from its update loop.
//
// A machine fault moves the session to the Faulted state and is returned
// in the report.
func (s *Session) Tick(delta time.Duration) scheduler.Report {
	s.crit.Lock()
	defer s.crit.Unlock()

	if s.state != Running {
		return scheduler.Report{}
	}

	rep := s.sch.Tick(delta)
	if rep.Fault != nil {
		s.state = Faulted
		logger.Logf(logger.Allow, "session", "fault: %v", rep.Fault)
	}
	return rep
}

// StepOnce runs exactly one backend step, regardless of wall-clock time.
// Valid from the Ready and Paused states; the session stays in that state.
//
// Virtual time does not advance and no audio enters the pipeline. A frame
// is published if the step changed the display.
func (s *Session) StepOnce() error {
	s.crit.Lock()
	defer s.crit.Unlock()

	if s.state != Ready && s.state != Paused {
		return curated.Errorf(InvalidTransition, "step", s.state)
	}

	out := s.bck.Step(s.bus)
	if out.Fault != nil {
		s.state = Faulted
		logger.Logf(logger.Allow, "session", "fault: %v", out.Fault)
		return out.Fault
	}

	if out.Display {
		s.display.Publish(s.bck.Frame())
	}

	return nil
}

// Frame returns the most recently published display frame, or nil.
func (s *Session) Frame() *frame.Frame {
	return s.display.Latest()
}

// AudioPull removes n samples at the host rate from the audio pipeline.
// Safe to call from the sound device callback.
func (s *Session) AudioPull(n int) []float32 {
	return s.pipeline.Pull(n)
}

// AudioPullBuffer is AudioPull in the buffer format used by the go-audio
// ecosystem, suitable for handing straight to a recorder or encoder.
func (s *Session) AudioPullBuffer(n int) *goaudio.FloatBuffer {
	return s.pipeline.PullBuffer(n)
}

// AudioStatus reports the health of the audio pipeline.
func (s *Session) AudioStatus() audio.Status {
	return s.pipeline.Status()
}

// SetKey presses or releases one key of the machine's keypad.
func (s *Session) SetKey(key int, pressed bool) error {
	s.crit.Lock()
	defer s.crit.Unlock()

	if s.bus == nil {
		return curated.Errorf(NoProgram)
	}
	return s.bus.SetKey(key, pressed)
}
