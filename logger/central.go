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

package logger

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// Entry represents a single line/entry in the log.
type Entry struct {
	Timestamp time.Time
	Tag       string
	Detail    string
	Repeated  int
}

func (e *Entry) String() string {
	s := strings.Builder{}
	s.WriteString(fmt.Sprintf("%s: %s", e.Tag, e.Detail))
	if e.Repeated > 0 {
		s.WriteString(fmt.Sprintf(" (repeat x%d)", e.Repeated+1))
	}
	s.WriteString("\n")
	return s.String()
}

type logger struct {
	crit sync.Mutex

	entries    []Entry
	maxEntries int

	// the index of the first entry not yet seen by WriteRecent()
	recentStart int

	// if echo is not nil then new entries are written to it as they arrive
	echo io.Writer
}

func newLogger(maxEntries int) *logger {
	return &logger{
		entries:    make([]Entry, 0, maxEntries),
		maxEntries: maxEntries,
	}
}

func (l *logger) log(tag, detail string) {
	l.crit.Lock()
	defer l.crit.Unlock()

	// if the most recent entry is the same as the new entry then fold the
	// two together rather than adding a new line
	if len(l.entries) > 0 {
		last := &l.entries[len(l.entries)-1]
		if last.Tag == tag && last.Detail == detail {
			last.Repeated++
			return
		}
	}

	// split multi-line log messages into separate entries
	for _, d := range strings.Split(detail, "\n") {
		if d == "" {
			continue
		}

		e := Entry{
			Timestamp: time.Now(),
			Tag:       tag,
			Detail:    d,
		}

		if len(l.entries) >= l.maxEntries {
			over := len(l.entries) - l.maxEntries + 1
			l.entries = l.entries[over:]
			l.recentStart -= over
			if l.recentStart < 0 {
				l.recentStart = 0
			}
		}
		l.entries = append(l.entries, e)

		if l.echo != nil {
			l.echo.Write([]byte(e.String()))
		}
	}
}

func (l *logger) logf(tag, detail string, args ...interface{}) {
	l.log(tag, fmt.Sprintf(detail, args...))
}

func (l *logger) clear() {
	l.crit.Lock()
	defer l.crit.Unlock()

	l.entries = l.entries[:0]
	l.recentStart = 0
}

func (l *logger) write(output io.Writer) {
	l.crit.Lock()
	defer l.crit.Unlock()

	for i := range l.entries {
		io.WriteString(output, l.entries[i].String())
	}
}

func (l *logger) writeRecent(output io.Writer) {
	l.crit.Lock()
	defer l.crit.Unlock()

	for i := l.recentStart; i < len(l.entries); i++ {
		io.WriteString(output, l.entries[i].String())
	}
	l.recentStart = len(l.entries)
}

func (l *logger) tail(output io.Writer, number int) {
	l.crit.Lock()
	defer l.crit.Unlock()

	s := len(l.entries) - number
	if s < 0 {
		s = 0
	}

	for i := s; i < len(l.entries); i++ {
		io.WriteString(output, l.entries[i].String())
	}
}

func (l *logger) setEcho(output io.Writer, writeRecent bool) {
	l.crit.Lock()
	l.echo = output
	l.crit.Unlock()

	if output != nil && writeRecent {
		l.writeRecent(output)
	}
}

func (l *logger) borrowLog(f func([]Entry)) {
	l.crit.Lock()
	defer l.crit.Unlock()

	f(l.entries)
}
