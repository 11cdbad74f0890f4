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

package audio

import (
	"time"
)

// TimedSample is one sample of machine audio stamped with the virtual time
// at which it was produced.
type TimedSample struct {
	Time  time.Duration
	Value float32
}

// queue is a bounded ring of timed samples. when full the oldest sample is
// dropped in favour of the new one, keeping the stream current at the cost
// of a glitch.
//
// the queue is not safe for concurrent use. the Pipeline serialises access.
type queue struct {
	samples  []TimedSample
	head     int
	used     int
	overruns uint64
}

func newQueue(capacity int) *queue {
	return &queue{
		samples: make([]TimedSample, capacity),
	}
}

func (q *queue) push(s TimedSample) {
	if q.used == len(q.samples) {
		q.head = (q.head + 1) % len(q.samples)
		q.used--
		q.overruns++
	}
	q.samples[(q.head+q.used)%len(q.samples)] = s
	q.used++
}

func (q *queue) pop() (TimedSample, bool) {
	if q.used == 0 {
		return TimedSample{}, false
	}
	s := q.samples[q.head]
	q.head = (q.head + 1) % len(q.samples)
	q.used--
	return s, true
}

// newest returns the most recently pushed sample without removing it.
func (q *queue) newest() (TimedSample, bool) {
	if q.used == 0 {
		return TimedSample{}, false
	}
	return q.samples[(q.head+q.used-1)%len(q.samples)], true
}

func (q *queue) reset() {
	q.head = 0
	q.used = 0
	q.overruns = 0
}
