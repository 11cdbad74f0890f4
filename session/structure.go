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
	"io"

	"github.com/bradleyjkemp/memviz"
)

// WriteStructure dumps the object graph of the session in graphviz dot
// format. Intended for development use, when a picture of how the session
// components connect is more useful than a debugger.
func (s *Session) WriteStructure(w io.Writer) {
	s.crit.Lock()
	defer s.crit.Unlock()

	memviz.Map(w, s)
}
