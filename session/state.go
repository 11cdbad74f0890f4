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

// State of a session.
type State int

// List of valid State values. A session begins Uninitialized and becomes
// Ready when a program loads. Running and Paused alternate from there. A
// machine fault puts the session in the Faulted state, which only Reset()
// or a save-state load leaves.
const (
	Uninitialized State = iota
	Ready
	Running
	Paused
	Faulted
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Ready:
		return "ready"
	case Running:
		return "running"
	case Paused:
		return "paused"
	case Faulted:
		return "faulted"
	}
	return "unknown"
}
