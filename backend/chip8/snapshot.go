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

package chip8

import (
	"bytes"
	"encoding/gob"

	"github.com/jetsetilly/gopher8/backend"
	"github.com/jetsetilly/gopher8/curated"
)

// Snapshot implements the backend.Backend interface.
func (c *Chip8) Snapshot() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(c.st); err != nil {
		return nil, curated.Errorf(MemoryFault, err)
	}
	return buf.Bytes(), nil
}

// Restore implements the backend.Backend interface. The snapshot replaces
// machine state in full or not at all.
func (c *Chip8) Restore(state []byte) error {
	var st machineState
	if err := gob.NewDecoder(bytes.NewReader(state)).Decode(&st); err != nil {
		return curated.Errorf(backend.BadSnapshot, err)
	}
	c.st = st
	return nil
}
