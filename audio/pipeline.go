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

// Package audio carries machine audio from the scheduler to the host sound
// device. Backends produce samples at the machine's native cycle rate; the
// Pipeline resamples them by linear interpolation to the host rate as the
// consumer pulls.
//
// The producer side (Push) is called from the emulation loop and the
// consumer side (Pull) is expected to be called from the host audio
// callback, so the pipeline is safe for use from two goroutines.
package audio

import (
	"sync"
	"time"

	goaudio "github.com/go-audio/audio"

	"github.com/jetsetilly/gopher8/curated"
	"github.com/jetsetilly/gopher8/logger"
)

// Error patterns originating in the audio package.
const (
	InvalidRate     = curated.Sentinel("audio: invalid host sample rate (%d)")
	InvalidCapacity = curated.Sentinel("audio: invalid queue capacity (%d)")
)

// Status is a point-in-time picture of pipeline health.
type Status struct {
	// samples waiting in the queue
	QueueLen int

	// samples dropped because the queue was full
	Overruns uint64

	// output samples synthesised because the queue was empty
	Underruns uint64
}

// Pipeline resamples the machine audio stream to the host sample rate.
type Pipeline struct {
	crit sync.Mutex

	queue    *queue
	hostRate int

	// the two source samples the output cursor currently sits between.
	// primed is false until the first source sample arrives
	prev   TimedSample
	next   TimedSample
	primed bool

	// number of output samples produced so far. the output cursor in
	// virtual time derives from this and the host rate, offset by base
	outCount uint64

	// offset anchoring the output cursor to the source timeline. set when
	// the first source sample arrives and re-based whenever the two
	// timelines drift apart, eg. across a pause or a save-state restore
	base time.Duration

	underruns uint64

	// overruns and underruns are logged once, when first seen
	loggedOverrun  bool
	loggedUnderrun bool
}

// NewPipeline is the preferred method of initialisation for the Pipeline
// type.
func NewPipeline(hostRate int, queueCapacity int) (*Pipeline, error) {
	if hostRate <= 0 {
		return nil, curated.Errorf(InvalidRate, hostRate)
	}
	if queueCapacity <= 0 {
		return nil, curated.Errorf(InvalidCapacity, queueCapacity)
	}
	return &Pipeline{
		queue:    newQueue(queueCapacity),
		hostRate: hostRate,
	}, nil
}

// HostRate the pipeline resamples to.
func (p *Pipeline) HostRate() int {
	return p.hostRate
}

// Push one machine sample into the pipeline. If the queue is full the
// oldest queued sample is dropped.
func (p *Pipeline) Push(s TimedSample) {
	p.crit.Lock()
	defer p.crit.Unlock()

	before := p.queue.overruns
	p.queue.push(s)
	if p.queue.overruns > before && !p.loggedOverrun {
		p.loggedOverrun = true
		logger.Log(logger.Allow, "audio", "queue overrun: machine audio is outpacing the consumer")
	}
}

// cursor is the position of the next output sample on the source timeline.
// the integer seconds are split out so the calculation cannot overflow
// however long the session runs.
func (p *Pipeline) cursor() time.Duration {
	secs := p.outCount / uint64(p.hostRate)
	rem := p.outCount % uint64(p.hostRate)
	return p.base + time.Duration(secs)*time.Second + time.Duration(rem*uint64(time.Second)/uint64(p.hostRate))
}

// nextSample produces one output sample at the cursor, advancing the pair
// of source samples the cursor interpolates between. held is true if the
// queue ran dry and the most recent value was repeated.
func (p *Pipeline) nextSample() (float32, bool) {
	cursor := p.cursor()

	// the cursor is anchored to wherever the source timeline begins. after
	// a Reset() this also re-anchors to a restored machine's clock position
	if !p.primed {
		s, ok := p.queue.pop()
		if !ok {
			return 0, false
		}
		p.prev = s
		p.next = s
		p.primed = true
		p.base += s.Time - cursor
		cursor = s.Time
	}

	// if even the newest queued sample is behind the cursor then the
	// consumer has pulled across a gap in production (a paused machine, for
	// instance). snap the cursor back onto the source timeline rather than
	// draining the queue as one long underrun
	if newest, ok := p.queue.newest(); ok && newest.Time < cursor {
		p.base -= cursor - p.next.Time
		cursor = p.next.Time
	}

	for p.next.Time <= cursor {
		s, ok := p.queue.pop()
		if !ok {
			return p.next.Value, true
		}
		p.prev = p.next
		p.next = s
	}

	if p.next.Time <= p.prev.Time {
		return p.next.Value, false
	}

	f := float64(cursor-p.prev.Time) / float64(p.next.Time-p.prev.Time)
	if f < 0 {
		f = 0
	}
	if f > 1 {
		f = 1
	}
	return p.prev.Value + float32(f)*(p.next.Value-p.prev.Value), false
}

// Pull n samples at the host rate. The slice is always fully populated; if
// the machine has not produced enough audio the most recent value is held,
// which the Underruns counter records.
func (p *Pipeline) Pull(n int) []float32 {
	p.crit.Lock()
	defer p.crit.Unlock()

	buf := make([]float32, n)
	for i := range buf {
		v, held := p.nextSample()
		buf[i] = v
		if held {
			p.underruns++
			if !p.loggedUnderrun {
				p.loggedUnderrun = true
				logger.Log(logger.Allow, "audio", "queue underrun: holding last sample")
			}
		}
		p.outCount++
	}
	return buf
}

// PullBuffer is Pull in the buffer format used by the go-audio ecosystem,
// suitable for handing to an encoder or transform chain.
func (p *Pipeline) PullBuffer(n int) *goaudio.FloatBuffer {
	data := p.Pull(n)
	buf := &goaudio.FloatBuffer{
		Format: &goaudio.Format{
			NumChannels: 1,
			SampleRate:  p.hostRate,
		},
		Data: make([]float64, n),
	}
	for i, v := range data {
		buf.Data[i] = float64(v)
	}
	return buf
}

// Status of the pipeline.
func (p *Pipeline) Status() Status {
	p.crit.Lock()
	defer p.crit.Unlock()
	return Status{
		QueueLen:  p.queue.used,
		Overruns:  p.queue.overruns,
		Underruns: p.underruns,
	}
}

// Reset the pipeline to its initial state. Queued samples and counters are
// discarded.
func (p *Pipeline) Reset() {
	p.crit.Lock()
	defer p.crit.Unlock()
	p.queue.reset()
	p.prev = TimedSample{}
	p.next = TimedSample{}
	p.primed = false
	p.outCount = 0
	p.base = 0
	p.underruns = 0
	p.loggedOverrun = false
	p.loggedUnderrun = false
}
