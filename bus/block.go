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

package bus

import (
	"github.com/jetsetilly/gopher8/curated"
)

// Block is a contiguous run of bus memory. Blocks are created by the
// backend during program load and mounted on the Bus.
type Block struct {
	data     []byte
	readOnly bool
}

// NewBlock creates a zeroed block of the given size.
func NewBlock(size int) *Block {
	return &Block{data: make([]byte, size)}
}

// NewBlockFromData creates a block of the given size with the leading bytes
// initialised from data. If data is larger than size the block takes the
// size of the data.
func NewBlockFromData(size int, data []byte) *Block {
	if len(data) > size {
		size = len(data)
	}
	b := &Block{data: make([]byte, size)}
	copy(b.data, data)
	return b
}

// SetReadOnly marks the block as read-only. Restore() of a bus snapshot
// ignores the flag.
func (b *Block) SetReadOnly() {
	b.readOnly = true
}

// Size of the block in bytes.
func (b *Block) Size() int {
	return len(b.data)
}

func (b *Block) read(address Address, data []byte) error {
	if int(address)+len(data) > len(b.data) {
		return curated.Errorf(OutOfBounds, len(data), address)
	}
	copy(data, b.data[address:int(address)+len(data)])
	return nil
}

func (b *Block) write(address Address, data []byte) error {
	if b.readOnly {
		return curated.Errorf(ReadOnly, address)
	}
	if int(address)+len(data) > len(b.data) {
		return curated.Errorf(OutOfBounds, len(data), address)
	}
	copy(b.data[address:int(address)+len(data)], data)
	return nil
}
