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

package session

import (
	"encoding/gob"
	"io"

	"github.com/jetsetilly/gopher8/backend"
	"github.com/jetsetilly/gopher8/bus"
	"github.com/jetsetilly/gopher8/crunched"
	"github.com/jetsetilly/gopher8/curated"
	"github.com/jetsetilly/gopher8/logger"
	"github.com/jetsetilly/gopher8/scheduler"
)

// bump whenever the layout of SaveState changes
const stateVersion = 1

// SaveState is a complete picture of a session's machine at one moment:
// internal machine state, bus memory and the virtual clock. Fields are
// exported for the gob encoding used by Write() and ReadSaveState().
type SaveState struct {
	Version int
	Variant backend.Variant

	// opaque machine state, as produced by the backend's Snapshot()
	Machine []byte

	// full bus memory image
	Bus crunched.Image

	// virtual clock position
	Cycles uint64
}

// Save captures the current machine state. Valid from the Ready, Running
// and Paused states.
func (s *Session) Save() (*SaveState, error) {
	s.crit.Lock()
	defer s.crit.Unlock()

	if s.state != Ready && s.state != Running && s.state != Paused {
		return nil, curated.Errorf(InvalidTransition, "save", s.state)
	}

	machine, err := s.bck.Snapshot()
	if err != nil {
		return nil, err
	}

	return &SaveState{
		Version: stateVersion,
		Variant: s.variant,
		Machine: machine,
		Bus:     crunched.Crunch(s.bus.Snapshot()),
		Cycles:  s.clk.Cycles(),
	}, nil
}

// Load replaces the session's machine state with a previously saved one.
// The save-state must come from the same variant and save-state version;
// anything else fails with IncompatibleState and changes nothing.
//
// A successful load leaves the session Paused with the restored display
// frame published, whatever state it was in before. A session that has
// never loaded a program is fine: the backend knows its own memory
// geometry, so the bus is built for the restore to land in.
func (s *Session) Load(st *SaveState) error {
	s.crit.Lock()
	defer s.crit.Unlock()

	if st.Version != stateVersion {
		return curated.Errorf(IncompatibleState, curated.Errorf("version %d, want %d", st.Version, stateVersion))
	}
	if st.Variant != s.variant {
		return curated.Errorf(IncompatibleState, curated.Errorf("variant %s, want %s", st.Variant, s.variant))
	}

	img, err := st.Bus.Uncrunch()
	if err != nil {
		return curated.Errorf(IncompatibleState, err)
	}

	b := s.bus
	sch := s.sch
	if b == nil {
		b = bus.NewBus()
		if err := s.bck.Mount(b); err != nil {
			return err
		}
		sch, err = scheduler.New(s.bck, b, s.clk, s.pipeline, s.display, s.maxPerTick)
		if err != nil {
			return err
		}
	}

	if len(img) != b.Size() {
		return curated.Errorf(IncompatibleState, curated.Errorf("bus image of %d bytes, want %d", len(img), b.Size()))
	}

	// the backend restore is all-or-nothing, so checking the bus image
	// first means a failure at any point leaves the session untouched
	if err := s.bck.Restore(st.Machine); err != nil {
		return curated.Errorf(IncompatibleState, err)
	}
	if err := b.Restore(img); err != nil {
		return curated.Errorf(IncompatibleState, err)
	}

	s.bus = b
	s.sch = sch
	s.clk.Restore(st.Cycles)
	s.sch.Reset()
	s.pipeline.Reset()
	s.display.Publish(s.bck.Frame())
	s.state = Paused

	logger.Logf(logger.Allow, "session", "save-state loaded at cycle %d", st.Cycles)

	return nil
}

// Write the save-state to a stream.
func (st *SaveState) Write(w io.Writer) error {
	if err := gob.NewEncoder(w).Encode(st); err != nil {
		return curated.Errorf("session: %v", err)
	}
	return nil
}

// ReadSaveState reads a save-state previously written with Write().
func ReadSaveState(r io.Reader) (*SaveState, error) {
	st := &SaveState{}
	if err := gob.NewDecoder(r).Decode(st); err != nil {
		return nil, curated.Errorf(IncompatibleState, err)
	}
	return st, nil
}
