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
	"github.com/jetsetilly/gopher8/bus"
	"github.com/jetsetilly/gopher8/curated"
)

// execute one decoded instruction. PC has already advanced past the opcode.
// an instruction performs at most one bus mutation and performs it through a
// single bounds-checked call, keeping the step atomic in the presence of
// faults.
func (c *Chip8) execute(op uint16, b *bus.Bus) error {
	x := uint8((op >> 8) & 0x0f)
	y := uint8((op >> 4) & 0x0f)
	n := uint8(op & 0x000f)
	nn := uint8(op & 0x00ff)
	nnn := op & 0x0fff

	switch op >> 12 {
	case 0x0:
		switch op {
		case 0x00e0: // CLS
			c.st.Video = [VideoWidth * VideoHeight]bool{}
			c.dirty = true

		case 0x00ee: // RET
			if c.st.SP == 0 {
				return curated.Errorf(StackUnderflow, c.st.PC-2)
			}
			c.st.SP--
			c.st.PC = c.st.Stack[c.st.SP]

		default:
			// 0nnn SYS. there is no machine code to jump into so the address
			// is simply taken as the next PC
			c.st.PC = nnn
		}

	case 0x1: // JP nnn
		c.st.PC = nnn

	case 0x2: // CALL nnn
		if int(c.st.SP) >= len(c.st.Stack) {
			return curated.Errorf(StackOverflow, c.st.PC-2)
		}
		c.st.Stack[c.st.SP] = c.st.PC
		c.st.SP++
		c.st.PC = nnn

	case 0x3: // SE Vx, nn
		if c.st.V[x] == nn {
			c.st.PC += 2
		}

	case 0x4: // SNE Vx, nn
		if c.st.V[x] != nn {
			c.st.PC += 2
		}

	case 0x5: // SE Vx, Vy
		if n != 0 {
			return curated.Errorf(UnknownOpcode, op)
		}
		if c.st.V[x] == c.st.V[y] {
			c.st.PC += 2
		}

	case 0x6: // LD Vx, nn
		c.st.V[x] = nn

	case 0x7: // ADD Vx, nn (no carry flag)
		c.st.V[x] += nn

	case 0x8:
		return c.executeALU(op, x, y, n)

	case 0x9: // SNE Vx, Vy
		if n != 0 {
			return curated.Errorf(UnknownOpcode, op)
		}
		if c.st.V[x] != c.st.V[y] {
			c.st.PC += 2
		}

	case 0xa: // LD I, nnn
		c.st.I = nnn

	case 0xb: // JP V0, nnn
		if c.quirks.jumpUsesX {
			c.st.PC = nnn + uint16(c.st.V[x])
		} else {
			c.st.PC = nnn + uint16(c.st.V[0])
		}

	case 0xc: // RND Vx, nn
		c.st.V[x] = uint8(c.rnd.Intn(256)) & nn

	case 0xd: // DRW Vx, Vy, n
		return c.draw(x, y, n, b)

	case 0xe:
		key := int(c.st.V[x] & 0x0f)
		switch nn {
		case 0x9e: // SKP Vx
			if c.st.Keypad[key] {
				c.st.PC += 2
			}
		case 0xa1: // SKNP Vx
			if !c.st.Keypad[key] {
				c.st.PC += 2
			}
		default:
			return curated.Errorf(UnknownOpcode, op)
		}

	case 0xf:
		return c.executeMisc(op, x, nn, b)
	}

	return nil
}

// executeALU handles the 8xyn group.
func (c *Chip8) executeALU(op uint16, x uint8, y uint8, n uint8) error {
	vx := c.st.V[x]
	vy := c.st.V[y]

	switch n {
	case 0x0: // LD Vx, Vy
		c.st.V[x] = vy

	case 0x1: // OR Vx, Vy
		c.st.V[x] = vx | vy
		if !c.quirks.logicKeepsFlag {
			c.st.V[0xf] = 0
		}

	case 0x2: // AND Vx, Vy
		c.st.V[x] = vx & vy
		if !c.quirks.logicKeepsFlag {
			c.st.V[0xf] = 0
		}

	case 0x3: // XOR Vx, Vy
		c.st.V[x] = vx ^ vy
		if !c.quirks.logicKeepsFlag {
			c.st.V[0xf] = 0
		}

	case 0x4: // ADD Vx, Vy
		sum := uint16(vx) + uint16(vy)
		c.st.V[x] = uint8(sum)
		c.st.V[0xf] = uint8(sum >> 8)

	case 0x5: // SUB Vx, Vy
		c.st.V[x] = vx - vy
		if vx >= vy {
			c.st.V[0xf] = 1
		} else {
			c.st.V[0xf] = 0
		}

	case 0x6: // SHR
		src := vy
		if c.quirks.shiftUsesX {
			src = vx
		}
		c.st.V[x] = src >> 1
		c.st.V[0xf] = src & 0x01

	case 0x7: // SUBN Vx, Vy
		c.st.V[x] = vy - vx
		if vy >= vx {
			c.st.V[0xf] = 1
		} else {
			c.st.V[0xf] = 0
		}

	case 0xe: // SHL
		src := vy
		if c.quirks.shiftUsesX {
			src = vx
		}
		c.st.V[x] = src << 1
		c.st.V[0xf] = src >> 7

	default:
		return curated.Errorf(UnknownOpcode, op)
	}

	return nil
}

// executeMisc handles the Fxnn group.
func (c *Chip8) executeMisc(op uint16, x uint8, nn uint8, b *bus.Bus) error {
	switch nn {
	case 0x07: // LD Vx, DT
		dt, err := b.Read8(DelayTimer)
		if err != nil {
			return curated.Errorf(MemoryFault, err)
		}
		c.st.V[x] = dt

	case 0x0a: // LD Vx, K
		// the machine idles until pollKeypad() sees a key release
		c.st.WaitKey = int8(x)

	case 0x15: // LD DT, Vx
		if err := b.Write8(DelayTimer, c.st.V[x]); err != nil {
			return curated.Errorf(MemoryFault, err)
		}

	case 0x18: // LD ST, Vx
		if err := b.Write8(SoundTimer, c.st.V[x]); err != nil {
			return curated.Errorf(MemoryFault, err)
		}

	case 0x1e: // ADD I, Vx
		c.st.I += uint16(c.st.V[x])

	case 0x29: // LD F, Vx
		c.st.I = fontAddr + uint16(c.st.V[x]&0x0f)*5

	case 0x33: // LD B, Vx
		v := c.st.V[x]
		bcd := []byte{v / 100, (v / 10) % 10, v % 10}
		if err := b.Write(bus.Address(c.st.I), bcd); err != nil {
			return curated.Errorf(MemoryFault, err)
		}

	case 0x55: // LD [I], Vx
		if err := b.Write(bus.Address(c.st.I), c.st.V[:int(x)+1]); err != nil {
			return curated.Errorf(MemoryFault, err)
		}
		if !c.quirks.loadStoreLeavesI {
			c.st.I += uint16(x) + 1
		}

	case 0x65: // LD Vx, [I]
		if err := b.Read(bus.Address(c.st.I), c.st.V[:int(x)+1]); err != nil {
			return curated.Errorf(MemoryFault, err)
		}
		if !c.quirks.loadStoreLeavesI {
			c.st.I += uint16(x) + 1
		}

	default:
		return curated.Errorf(UnknownOpcode, op)
	}

	return nil
}

// draw handles the DRW instruction. Start coordinates wrap; the sprite
// itself clips at the display edges.
func (c *Chip8) draw(x uint8, y uint8, n uint8, b *bus.Bus) error {
	startX := int(c.st.V[x]) % VideoWidth
	startY := int(c.st.V[y]) % VideoHeight

	// sprite data is read in one call, before any pixel changes, so that an
	// out of bounds sprite address faults without a half-drawn display
	rows := make([]byte, n)
	if n > 0 {
		if err := b.Read(bus.Address(c.st.I), rows); err != nil {
			return curated.Errorf(MemoryFault, err)
		}
	}

	c.st.V[0xf] = 0
	for row := 0; row < int(n); row++ {
		py := startY + row
		if py >= VideoHeight {
			break
		}
		for col := 0; col < 8; col++ {
			px := startX + col
			if px >= VideoWidth {
				break
			}
			if rows[row]&(0x80>>col) == 0 {
				continue
			}
			idx := py*VideoWidth + px
			if c.st.Video[idx] {
				c.st.V[0xf] = 1
			}
			c.st.Video[idx] = !c.st.Video[idx]
		}
	}
	c.dirty = true

	if !c.quirks.drawNoVBlankWait {
		c.st.WaitVBlank = true
	}

	return nil
}
