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

// Package frame is the display boundary between a machine backend and the
// rendering frontend. The backend renders into a Frame; the Buffer type
// holds the most recent completed frame for the frontend to collect at its
// own cadence.
package frame

import (
	"sync"
)

// Frame is a single completed display image. Pixels are packed RGBA, four
// bytes per pixel, rows in order from the top of the image. The dimensions
// are decided by the backend.
type Frame struct {
	Width  int
	Height int
	Pixels []byte
}

// NewFrame creates an opaque black frame of the given dimensions.
func NewFrame(width int, height int) *Frame {
	f := &Frame{
		Width:  width,
		Height: height,
		Pixels: make([]byte, width*height*4),
	}
	for i := 3; i < len(f.Pixels); i += 4 {
		f.Pixels[i] = 255
	}
	return f
}

// SetPixel sets the colour of a single pixel. Out of range coordinates are
// ignored.
func (f *Frame) SetPixel(x int, y int, r uint8, g uint8, b uint8, a uint8) {
	if x < 0 || x >= f.Width || y < 0 || y >= f.Height {
		return
	}
	i := (y*f.Width + x) * 4
	f.Pixels[i] = r
	f.Pixels[i+1] = g
	f.Pixels[i+2] = b
	f.Pixels[i+3] = a
}

// Clone returns a deep copy of the frame.
func (f *Frame) Clone() *Frame {
	c := &Frame{
		Width:  f.Width,
		Height: f.Height,
		Pixels: make([]byte, len(f.Pixels)),
	}
	copy(c.Pixels, f.Pixels)
	return c
}

// Buffer holds the most recent completed frame. The scheduler is the only
// publisher and the render loop of the frontend is the only consumer, which
// may be on a different execution context; a mutex guards the swap.
type Buffer struct {
	crit   sync.Mutex
	latest *Frame
}

// Publish a newly completed frame. The frame is cloned so the backend is
// free to continue drawing into its own copy.
func (b *Buffer) Publish(f *Frame) {
	if f == nil {
		return
	}
	c := f.Clone()

	b.crit.Lock()
	defer b.crit.Unlock()
	b.latest = c
}

// Latest returns the most recently published frame, or nil if nothing has
// been published since the last reset. The returned frame is never written
// to again and can be read without further synchronisation.
func (b *Buffer) Latest() *Frame {
	b.crit.Lock()
	defer b.crit.Unlock()
	return b.latest
}

// Reset discards the held frame.
func (b *Buffer) Reset() {
	b.crit.Lock()
	defer b.crit.Unlock()
	b.latest = nil
}
