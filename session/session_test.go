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

package session_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/jetsetilly/gopher8/backend"
	"github.com/jetsetilly/gopher8/curated"
	"github.com/jetsetilly/gopher8/session"
	"github.com/jetsetilly/gopher8/test"
)

func TestUnknownVariant(t *testing.T) {
	_, err := session.NewSession(backend.Variant("VIC-20"))
	test.ExpectSuccess(t, curated.Is(err, session.UnknownVariant))
}

func TestLifecycle(t *testing.T) {
	s, err := session.NewSession(backend.Simple)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, s.State(), session.Uninitialized)
	test.ExpectEquality(t, s.Variant(), backend.Simple)

	// nothing to run yet
	err = s.Run()
	test.ExpectSuccess(t, curated.Is(err, session.InvalidTransition))

	test.DemandSuccess(t, s.LoadProgram([]byte{0x00, 0x00}))
	test.ExpectEquality(t, s.State(), session.Ready)

	test.DemandSuccess(t, s.Run())
	test.ExpectEquality(t, s.State(), session.Running)

	// 4ms at the default 500Hz is exactly two steps
	rep := s.Tick(4 * time.Millisecond)
	test.DemandSuccess(t, rep.Fault)
	test.ExpectEquality(t, rep.Steps, 2)

	// audio accumulated during the tick is pulled at the host rate
	test.ExpectEquality(t, len(s.AudioPull(10)), 10)

	test.DemandSuccess(t, s.Pause())
	test.ExpectEquality(t, s.State(), session.Paused)

	// ticking a paused session does nothing
	rep = s.Tick(time.Second)
	test.ExpectEquality(t, rep.Steps, 0)
	test.ExpectEquality(t, rep.Discarded, 0)

	test.DemandSuccess(t, s.Reset())
	test.ExpectEquality(t, s.State(), session.Ready)
}

func TestLoadProgramFailure(t *testing.T) {
	s, err := session.NewSession(backend.Simple)
	test.DemandSuccess(t, err)

	err = s.LoadProgram(nil)
	test.ExpectSuccess(t, curated.Is(err, backend.InvalidProgram))
	test.ExpectEquality(t, s.State(), session.Uninitialized)
}

func TestFault(t *testing.T) {
	s, err := session.NewSession(backend.Simple)
	test.DemandSuccess(t, err)
	test.DemandSuccess(t, s.LoadProgram([]byte{0xff}))
	test.DemandSuccess(t, s.Run())

	rep := s.Tick(100 * time.Millisecond)
	test.ExpectFailure(t, rep.Fault)
	test.ExpectEquality(t, rep.Steps, 0)
	test.ExpectEquality(t, s.State(), session.Faulted)

	// a faulted session will not run again without a reset
	err = s.Run()
	test.ExpectSuccess(t, curated.Is(err, session.InvalidTransition))

	rep = s.Tick(100 * time.Millisecond)
	test.DemandSuccess(t, rep.Fault)
	test.ExpectEquality(t, rep.Steps, 0)

	test.DemandSuccess(t, s.Reset())
	test.ExpectEquality(t, s.State(), session.Ready)
}

func TestStepOnce(t *testing.T) {
	s, err := session.NewSession(backend.Simple)
	test.DemandSuccess(t, err)
	test.DemandSuccess(t, s.LoadProgram([]byte{0x00, 0x02}))

	// stepping does not move virtual time, so no audio accumulates
	test.DemandSuccess(t, s.StepOnce())
	test.ExpectEquality(t, s.State(), session.Ready)
	test.ExpectEquality(t, s.AudioStatus().QueueLen, 0)

	// and the pulled stream is silence
	buf := s.AudioPullBuffer(16)
	test.DemandEquality(t, len(buf.Data), 16)
	test.ExpectEquality(t, buf.Format.SampleRate, session.DefaultHostSampleRate)
	for _, v := range buf.Data {
		test.DemandEquality(t, v, 0)
	}

	// the second step draws. the frame must be published even though the
	// session never ran
	test.DemandSuccess(t, s.StepOnce())
	test.ExpectSuccess(t, s.Frame() != nil)

	// stepping a running session is not allowed
	test.DemandSuccess(t, s.Run())
	err = s.StepOnce()
	test.ExpectSuccess(t, curated.Is(err, session.InvalidTransition))
}

func TestStepOnceFault(t *testing.T) {
	s, err := session.NewSession(backend.Simple)
	test.DemandSuccess(t, err)
	test.DemandSuccess(t, s.LoadProgram([]byte{0xff}))

	err = s.StepOnce()
	test.ExpectFailure(t, err)
	test.ExpectEquality(t, s.State(), session.Faulted)
}

func TestKeypad(t *testing.T) {
	s, err := session.NewSession(backend.Chip8)
	test.DemandSuccess(t, err)

	err = s.SetKey(5, true)
	test.ExpectSuccess(t, curated.Is(err, session.NoProgram))

	test.DemandSuccess(t, s.LoadProgram([]byte{0x12, 0x00}))
	test.ExpectSuccess(t, s.SetKey(5, true))
}

// encode a save-state so that two of them can be compared byte for byte
func encode(t *testing.T, st *session.SaveState) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	test.DemandSuccess(t, st.Write(buf))
	return buf.Bytes()
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s, err := session.NewSession(backend.Chip8)
	test.DemandSuccess(t, err)

	// V0=5 then spin
	test.DemandSuccess(t, s.LoadProgram([]byte{0x60, 0x05, 0x12, 0x02}))
	test.DemandSuccess(t, s.Run())
	s.Tick(100 * time.Millisecond)

	st, err := s.Save()
	test.DemandSuccess(t, err)

	// run on, then rewind to the save
	s.Tick(100 * time.Millisecond)
	test.DemandSuccess(t, s.Load(st))
	test.ExpectEquality(t, s.State(), session.Paused)
	test.ExpectSuccess(t, s.Frame() != nil)

	// saving again reproduces the first save-state exactly
	again, err := s.Save()
	test.DemandSuccess(t, err)
	test.ExpectSuccess(t, bytes.Equal(encode(t, st), encode(t, again)))
	test.ExpectEquality(t, again.Cycles, st.Cycles)
}

func TestLoadIncompatible(t *testing.T) {
	chip, err := session.NewSession(backend.Chip8)
	test.DemandSuccess(t, err)
	test.DemandSuccess(t, chip.LoadProgram([]byte{0x12, 0x00}))

	st, err := chip.Save()
	test.DemandSuccess(t, err)

	// a save from one variant will not load into another
	simple, err := session.NewSession(backend.Simple)
	test.DemandSuccess(t, err)
	test.DemandSuccess(t, simple.LoadProgram([]byte{0x00}))
	err = simple.Load(st)
	test.ExpectSuccess(t, curated.Is(err, session.IncompatibleState))

	// nor will a save from a different save-state version
	st.Version++
	err = chip.Load(st)
	test.ExpectSuccess(t, curated.Is(err, session.IncompatibleState))
}

func TestLoadIntoFreshSession(t *testing.T) {
	src, err := session.NewSession(backend.Chip8)
	test.DemandSuccess(t, err)

	// V0=7 then spin
	test.DemandSuccess(t, src.LoadProgram([]byte{0x60, 0x07, 0x12, 0x02}))
	test.DemandSuccess(t, src.Run())
	src.Tick(50 * time.Millisecond)

	st, err := src.Save()
	test.DemandSuccess(t, err)

	// a fresh session of the same variant accepts the save-state without
	// ever having loaded a program
	dst, err := session.NewSession(backend.Chip8)
	test.DemandSuccess(t, err)
	test.DemandSuccess(t, dst.Load(st))
	test.ExpectEquality(t, dst.State(), session.Paused)
	test.ExpectSuccess(t, dst.Frame() != nil)

	// the restored session saves identically to the original
	again, err := dst.Save()
	test.DemandSuccess(t, err)
	test.ExpectSuccess(t, bytes.Equal(encode(t, st), encode(t, again)))

	// and runs on from where the save was taken
	test.DemandSuccess(t, dst.Run())
	rep := dst.Tick(10 * time.Millisecond)
	test.DemandSuccess(t, rep.Fault)
	test.ExpectSuccess(t, rep.Steps > 0)
}

func TestSaveStatePersistence(t *testing.T) {
	s, err := session.NewSession(backend.SuperChip)
	test.DemandSuccess(t, err)
	test.DemandSuccess(t, s.LoadProgram([]byte{0x60, 0xaa, 0x12, 0x02}))
	test.DemandSuccess(t, s.Run())
	s.Tick(50 * time.Millisecond)

	st, err := s.Save()
	test.DemandSuccess(t, err)

	buf := &bytes.Buffer{}
	test.DemandSuccess(t, st.Write(buf))

	restored, err := session.ReadSaveState(buf)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, restored.Variant, backend.SuperChip)
	test.ExpectEquality(t, restored.Cycles, st.Cycles)

	test.DemandSuccess(t, s.Load(restored))
	test.ExpectEquality(t, s.State(), session.Paused)

	// garbage in the stream is caught
	_, err = session.ReadSaveState(bytes.NewReader([]byte{0x01, 0x02}))
	test.ExpectSuccess(t, curated.Is(err, session.IncompatibleState))
}

func TestStructureDump(t *testing.T) {
	s, err := session.NewSession(backend.Simple)
	test.DemandSuccess(t, err)

	buf := &bytes.Buffer{}
	s.WriteStructure(buf)
	test.ExpectSuccess(t, buf.Len() > 0)
}
