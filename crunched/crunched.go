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

// Package crunched compresses byte slices for storage inside save-states.
// Emulated memory images compress extremely well with even a very basic RLE
// scheme because they are mostly runs of zeroes.
//
// If the RLE form of an image would be no smaller than the original then
// the original bytes are stored as they are. Either way the Image type
// records which form it holds, so it can be embedded in a larger structure
// and serialised without further ceremony.
package crunched

import (
	"github.com/jetsetilly/gopher8/curated"
)

// Error patterns originating in the crunched package.
const (
	Malformed = curated.Sentinel("crunched: malformed image: %v")
)

// Image is a byte slice in either crunched or plain form. The zero value is
// a valid image of zero length. Fields are exported so the type can pass
// through gob untouched.
type Image struct {
	// the data is in RLE form
	Crunched bool

	// length of the original byte slice
	Size int

	Data []byte
}

// Crunch a byte slice into an Image, keeping the RLE form only if it is
// strictly smaller than the original.
//
// the RLE stream is pairs of bytes: a value followed by a repeat count.
// a count of zero means the value appears once; the maximum run per pair
// is 256.
func Crunch(data []byte) Image {
	img := Image{Size: len(data)}

	if len(data) == 0 {
		return img
	}

	rle := make([]byte, 0, len(data)+2)
	cur := data[0]
	ct := 0
	for _, v := range data[1:] {
		if v == cur && ct < 255 {
			ct++
		} else {
			rle = append(rle, cur, byte(ct))
			cur = v
			ct = 0
		}
	}
	rle = append(rle, cur, byte(ct))

	if len(rle) < len(data) {
		img.Crunched = true
		img.Data = rle
		return img
	}

	img.Data = make([]byte, len(data))
	copy(img.Data, data)
	return img
}

// Uncrunch recovers the original byte slice. Fails with Malformed if the
// image does not decode to exactly the recorded size.
func (img Image) Uncrunch() ([]byte, error) {
	if !img.Crunched {
		if len(img.Data) != img.Size {
			return nil, curated.Errorf(Malformed, curated.Errorf("plain data of %d bytes, expected %d", len(img.Data), img.Size))
		}
		out := make([]byte, img.Size)
		copy(out, img.Data)
		return out, nil
	}

	if len(img.Data)&0x01 == 0x01 {
		return nil, curated.Errorf(Malformed, curated.Errorf("odd number of bytes in RLE stream"))
	}

	out := make([]byte, 0, img.Size)
	for i := 0; i < len(img.Data); i += 2 {
		run := int(img.Data[i+1]) + 1
		if len(out)+run > img.Size {
			return nil, curated.Errorf(Malformed, curated.Errorf("RLE stream overruns the recorded size"))
		}
		for r := 0; r < run; r++ {
			out = append(out, img.Data[i])
		}
	}

	if len(out) != img.Size {
		return nil, curated.Errorf(Malformed, curated.Errorf("RLE stream decodes to %d bytes, expected %d", len(out), img.Size))
	}

	return out, nil
}
