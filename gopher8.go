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

package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/jetsetilly/gopher8/backend"
	"github.com/jetsetilly/gopher8/logger"
	"github.com/jetsetilly/gopher8/session"
	"github.com/jetsetilly/gopher8/statsview"
	"github.com/jetsetilly/gopher8/wavwriter"
)

// the cadence of the headless run loop. emulation progress is independent
// of this value; it only decides how often the session is ticked
const tickInterval = 10 * time.Millisecond

func main() {
	variant := flag.String("variant", "chip8", "machine variant: chip8, superchip or simple")
	duration := flag.Duration("duration", 10*time.Second, "how long to run the emulation")
	wav := flag.String("wav", "", "write emulated audio to WAV file")
	stats := flag.Bool("statsview", false, "run stats server (requires the statsview build tag)")
	structure := flag.String("structure", "", "write session object graph (dot format) to file and exit")
	echo := flag.Bool("log", false, "echo log entries to stderr as they happen")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: gopher8 [flags] program")
		flag.PrintDefaults()
		os.Exit(10)
	}

	if *echo {
		logger.SetEcho(os.Stderr, true)
	}

	err := run(*variant, flag.Arg(0), *duration, *wav, *stats, *structure)
	if err != nil {
		fmt.Fprintf(os.Stderr, "* %v\n", err)
		os.Exit(10)
	}
}

func lookupVariant(s string) (backend.Variant, bool) {
	switch s {
	case "chip8":
		return backend.Chip8, true
	case "superchip":
		return backend.SuperChip, true
	case "simple":
		return backend.Simple, true
	}
	return "", false
}

func run(variant string, programFile string, duration time.Duration, wav string, stats bool, structure string) error {
	v, ok := lookupVariant(variant)
	if !ok {
		return fmt.Errorf("unrecognised variant: %s", variant)
	}

	program, err := os.ReadFile(programFile)
	if err != nil {
		return err
	}

	sess, err := session.NewSession(v)
	if err != nil {
		return err
	}

	if err := sess.LoadProgram(program); err != nil {
		return err
	}

	if structure != "" {
		f, err := os.Create(structure)
		if err != nil {
			return err
		}
		defer f.Close()
		sess.WriteStructure(f)
		return nil
	}

	if stats {
		if statsview.Available() {
			statsview.Launch(os.Stdout)
		} else {
			fmt.Fprintln(os.Stderr, "* statsview not available in this build")
		}
	}

	var aw *wavwriter.WavWriter
	if wav != "" {
		aw, err = wavwriter.New(wav, session.DefaultHostSampleRate)
		if err != nil {
			return err
		}
	}

	// how many host samples are produced per tick interval
	pullSize := int(tickInterval * session.DefaultHostSampleRate / time.Second)

	intsig := make(chan os.Signal, 1)
	signal.Notify(intsig, os.Interrupt)

	if err := sess.Run(); err != nil {
		return err
	}

	end := time.Now().Add(duration)
	prev := time.Now()

	tick := time.NewTicker(tickInterval)
	defer tick.Stop()

	for time.Now().Before(end) {
		select {
		case <-intsig:
			logger.Log(logger.Allow, "main", "interrupted")
			end = time.Now()
		case now := <-tick.C:
			rep := sess.Tick(now.Sub(prev))
			prev = now

			if rep.Fault != nil {
				fmt.Fprintf(os.Stderr, "* %v\n", rep.Fault)
				end = time.Now()
			}

			samples := sess.AudioPullBuffer(pullSize)
			if aw != nil {
				aw.Write(samples)
			}
		}
	}

	if aw != nil {
		if err := aw.End(); err != nil {
			return err
		}
	}

	st := sess.AudioStatus()
	logger.Logf(logger.Allow, "main", "audio: %d overruns, %d underruns", st.Overruns, st.Underruns)
	logger.WriteRecent(os.Stdout)

	return nil
}
