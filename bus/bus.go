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

// Package bus is the memory/IO bus shared between a machine backend and the
// host-facing peripherals. Memory is arranged as blocks mounted at a base
// address; device registers are plain addresses inside a mounted block, as
// decided by the backend that builds the memory map.
//
// All access is bounds checked. A backend that addresses outside the mapped
// space receives a curated error, never a panic.
//
// The bus also carries the keypad state for the machine. Key events are
// injected by the frontend through the SetKey() function and polled by the
// backend during a step. Keypad injection must happen on the same execution
// context that drives the emulation; the display and audio buffers are the
// only structures in the core that synchronise across contexts.
package bus

import (
	"encoding/binary"

	"github.com/jetsetilly/gopher8/curated"
)

// Address is a location on the bus. Backends with smaller address spaces
// simply mount less memory.
type Address uint16

// NumKeys is the size of the keypad state carried by the bus.
const NumKeys = 16

// Error patterns originating in the bus package.
const (
	NotMapped   = curated.Sentinel("bus: access of %d bytes at %#04x does not map to a single block")
	OutOfBounds = curated.Sentinel("bus: access of %d bytes at %#04x is out of bounds")
	ReadOnly    = curated.Sentinel("bus: write to read-only memory at %#04x")
	InvalidKey  = curated.Sentinel("bus: no such key (%d)")
	MountClash  = curated.Sentinel("bus: mount at %#04x overlaps an existing block")
	BadImage    = curated.Sentinel("bus: image of %d bytes does not fit a bus of %d bytes")
)

type mount struct {
	base  Address
	block *Block
}

func (m mount) contains(address Address) bool {
	return address >= m.base && int(address) < int(m.base)+m.block.Size()
}

// Bus is the addressable memory map for one machine instance. A fresh Bus
// has nothing mounted; the backend builds the map during program load.
type Bus struct {
	mounts []mount
	keypad [NumKeys]bool
}

// NewBus is the preferred method of initialisation for the Bus type.
func NewBus() *Bus {
	return &Bus{}
}

// Mount a block at the base address. Blocks may not overlap.
func (b *Bus) Mount(base Address, block *Block) error {
	end := int(base) + block.Size()
	for _, m := range b.mounts {
		mEnd := int(m.base) + m.block.Size()
		if int(base) < mEnd && end > int(m.base) {
			return curated.Errorf(MountClash, base)
		}
	}

	b.mounts = append(b.mounts, mount{base: base, block: block})

	// keep mounts sorted by base address. Snapshot()/Restore() rely on a
	// stable order
	for i := len(b.mounts) - 1; i > 0; i-- {
		if b.mounts[i].base < b.mounts[i-1].base {
			b.mounts[i], b.mounts[i-1] = b.mounts[i-1], b.mounts[i]
		}
	}

	return nil
}

// Size returns the total number of mounted bytes.
func (b *Bus) Size() int {
	sz := 0
	for _, m := range b.mounts {
		sz += m.block.Size()
	}
	return sz
}

func (b *Bus) find(address Address, size int) (*Block, Address, error) {
	if size > 0 {
		for _, m := range b.mounts {
			if m.contains(address) && m.contains(address+Address(size)-1) {
				return m.block, address - m.base, nil
			}
		}
	}
	return nil, 0, curated.Errorf(NotMapped, size, address)
}

// Read copies len(data) bytes from the bus, starting at the address. The
// range must fall inside a single mounted block.
func (b *Bus) Read(address Address, data []byte) error {
	block, rel, err := b.find(address, len(data))
	if err != nil {
		return err
	}
	return block.read(rel, data)
}

// Write copies len(data) bytes to the bus, starting at the address. The
// range must fall inside a single mounted block.
func (b *Bus) Write(address Address, data []byte) error {
	block, rel, err := b.find(address, len(data))
	if err != nil {
		return err
	}
	return block.write(rel, data)
}

// Read8 returns the byte at the address.
func (b *Bus) Read8(address Address) (uint8, error) {
	var d [1]byte
	if err := b.Read(address, d[:]); err != nil {
		return 0, err
	}
	return d[0], nil
}

// Write8 sets the byte at the address.
func (b *Bus) Write8(address Address, value uint8) error {
	return b.Write(address, []byte{value})
}

// Read16BE returns the big-endian word at the address.
func (b *Bus) Read16BE(address Address) (uint16, error) {
	var d [2]byte
	if err := b.Read(address, d[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(d[:]), nil
}

// Read16LE returns the little-endian word at the address.
func (b *Bus) Read16LE(address Address) (uint16, error) {
	var d [2]byte
	if err := b.Read(address, d[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(d[:]), nil
}

// Write16BE sets the big-endian word at the address.
func (b *Bus) Write16BE(address Address, value uint16) error {
	var d [2]byte
	binary.BigEndian.PutUint16(d[:], value)
	return b.Write(address, d[:])
}

// Write16LE sets the little-endian word at the address.
func (b *Bus) Write16LE(address Address, value uint16) error {
	var d [2]byte
	binary.LittleEndian.PutUint16(d[:], value)
	return b.Write(address, d[:])
}

// SetKey records a key down/up event from the frontend.
func (b *Bus) SetKey(key int, pressed bool) error {
	if key < 0 || key >= NumKeys {
		return curated.Errorf(InvalidKey, key)
	}
	b.keypad[key] = pressed
	return nil
}

// Key returns the current state of a single key.
func (b *Bus) Key(key int) (bool, error) {
	if key < 0 || key >= NumKeys {
		return false, curated.Errorf(InvalidKey, key)
	}
	return b.keypad[key], nil
}

// Keypad returns a copy of the entire keypad state.
func (b *Bus) Keypad() [NumKeys]bool {
	return b.keypad
}

// Snapshot returns a copy of the contents of every mounted block, in mount
// order. Read-only flags and the memory map itself are not part of the
// snapshot; they are recreated by the backend on program load.
func (b *Bus) Snapshot() []byte {
	img := make([]byte, 0, b.Size())
	for _, m := range b.mounts {
		img = append(img, m.block.data...)
	}
	return img
}

// Restore the contents of every mounted block from a previous Snapshot().
// The image must be exactly the size of the mounted space. Read-only flags
// are ignored during restore.
func (b *Bus) Restore(img []byte) error {
	if len(img) != b.Size() {
		return curated.Errorf(BadImage, len(img), b.Size())
	}

	for _, m := range b.mounts {
		copy(m.block.data, img[:m.block.Size()])
		img = img[m.block.Size():]
	}

	return nil
}
