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

// Package wavwriter allows writing of audio data to disk as a WAV file.
// Note that audio data is buffered in memory in its entirety and written to
// disk on End(). It is therefore probably only suitable for testing
// purposes and short captures.
package wavwriter

import (
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/jetsetilly/gopher8/curated"
	"github.com/jetsetilly/gopher8/logger"
)

// WavWriter collects host-rate audio samples and writes them out as a
// 16bit mono WAV file.
type WavWriter struct {
	filename   string
	sampleRate int
	buffer     []int
}

// New is the preferred method of initialisation for the WavWriter type.
// The sampleRate argument should match the rate of the pipeline the
// samples are pulled from.
func New(filename string, sampleRate int) (*WavWriter, error) {
	if sampleRate <= 0 {
		return nil, curated.Errorf("wavwriter: invalid sample rate (%d)", sampleRate)
	}
	return &WavWriter{
		filename:   filename,
		sampleRate: sampleRate,
		buffer:     make([]int, 0),
	}, nil
}

// Write appends a batch of samples pulled from the audio pipeline. Sample
// values are expected in the range [-1.0, 1.0]; values outside the range
// are clipped.
func (aw *WavWriter) Write(buf *goaudio.FloatBuffer) {
	if buf == nil {
		return
	}
	for _, s := range buf.Data {
		if s > 1.0 {
			s = 1.0
		} else if s < -1.0 {
			s = -1.0
		}
		aw.buffer = append(aw.buffer, int(s*32767))
	}
}

// End writes the accumulated samples to disk.
func (aw *WavWriter) End() (rerr error) {
	f, err := os.Create(aw.filename)
	if err != nil {
		return curated.Errorf("wavwriter: %v", err)
	}
	defer func() {
		err := f.Close()
		if err != nil && rerr == nil {
			rerr = curated.Errorf("wavwriter: %v", err)
		}
	}()

	enc := wav.NewEncoder(f, aw.sampleRate, 16, 1, 1)

	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: 1,
			SampleRate:  aw.sampleRate,
		},
		Data:           aw.buffer,
		SourceBitDepth: 16,
	}

	if err := enc.Write(buf); err != nil {
		_ = enc.Close()
		return curated.Errorf("wavwriter: %v", err)
	}
	if err := enc.Close(); err != nil {
		return curated.Errorf("wavwriter: %v", err)
	}

	logger.Logf(logger.Allow, "wavwriter", "%d samples written to %s", len(aw.buffer), aw.filename)

	return nil
}
