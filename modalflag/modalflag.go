// This file is part of Gopher2600.
//
// Gopher2600 is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Gopher2600 is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Gopher2600.  If not, see <https://www.gnu.org/licenses/>.

// Package modalflag wraps flag.FlagSet with optional sub-modes (a leading
// positional argument that selects a sub-command) and a help presentation
// that covers both flags and modes in one place. A Modes value with no
// sub-modes registered behaves as a plain flat flag set.
package modalflag

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"strings"
)

// ParseResult reports what Parse() did so the caller knows whether to
// continue running or whether help was requested (and already printed).
type ParseResult int

const (
	ParseContinue ParseResult = iota
	ParseHelp
)

// Modes parses a flat or sub-moded command line. The zero value is usable
// once Output is set and NewArgs has been called.
type Modes struct {
	Output io.Writer

	fs            *flag.FlagSet
	args          []string
	remainingArgs []string

	subModes []string
	mode     string
	path     string
}

// NewArgs resets Modes to parse args from scratch, discarding any
// previously registered flags or sub-modes.
func (md *Modes) NewArgs(args []string) {
	md.args = args
	md.fs = flag.NewFlagSet("", flag.ContinueOnError)
	md.fs.SetOutput(io.Discard)
	md.remainingArgs = nil
	md.subModes = nil
	md.mode = ""
	md.path = ""
}

// AddBool registers a boolean flag and returns a pointer to its value,
// populated once Parse() returns.
func (md *Modes) AddBool(name string, value bool, usage string) *bool {
	return md.fs.Bool(name, value, usage)
}

// AddString registers a string flag and returns a pointer to its value,
// populated once Parse() returns.
func (md *Modes) AddString(name string, value string, usage string) *string {
	return md.fs.String(name, value, usage)
}

// AddVar registers a flag.Value-implementing flag, for cases (repeated
// flags, custom parsing) the typed Add* helpers don't cover.
func (md *Modes) AddVar(value flag.Value, name string, usage string) {
	md.fs.Var(value, name, usage)
}

// AddSubModes registers the list of valid sub-modes. The first entry is the
// default, used when the command line names none of them.
func (md *Modes) AddSubModes(modes ...string) {
	md.subModes = modes
}

// Mode returns the sub-mode resolved by the most recent Parse(), or the
// empty string if no sub-modes are registered.
func (md *Modes) Mode() string {
	return md.mode
}

// Path returns the same value as Mode(); it exists for symmetry with
// nested mode hierarchies that name a mode by a "/"-joined path.
func (md *Modes) Path() string {
	return md.path
}

// RemainingArgs returns the positional arguments left over once flags (and
// any sub-mode) have been consumed.
func (md *Modes) RemainingArgs() []string {
	return md.remainingArgs
}

// Parse parses the arguments given to NewArgs. If -help (or -h or --help)
// appears before the first positional argument, help is printed to Output
// and ParseHelp is returned; the caller should stop.
func (md *Modes) Parse() (ParseResult, error) {
	for _, a := range md.args {
		if !strings.HasPrefix(a, "-") {
			break
		}
		switch strings.TrimLeft(a, "-") {
		case "help", "h":
			md.printHelp()
			return ParseHelp, nil
		}
	}

	if err := md.fs.Parse(md.args); err != nil {
		return ParseContinue, err
	}
	md.remainingArgs = md.fs.Args()

	if len(md.subModes) > 0 {
		if len(md.remainingArgs) > 0 {
			for _, m := range md.subModes {
				if strings.EqualFold(m, md.remainingArgs[0]) {
					md.mode = m
					md.remainingArgs = md.remainingArgs[1:]
					break
				}
			}
		}
		if md.mode == "" {
			md.mode = md.subModes[0]
		}
		md.path = md.mode
	}

	return ParseContinue, nil
}

func (md *Modes) printHelp() {
	hasFlags := false
	md.fs.VisitAll(func(*flag.Flag) { hasFlags = true })

	if !hasFlags && len(md.subModes) == 0 {
		fmt.Fprint(md.Output, "No help available\n")
		return
	}

	var buf bytes.Buffer
	buf.WriteString("Usage:\n")

	if hasFlags {
		md.fs.SetOutput(&buf)
		md.fs.PrintDefaults()
		md.fs.SetOutput(io.Discard)
	}

	if hasFlags && len(md.subModes) > 0 {
		buf.WriteString("\n")
	}

	if len(md.subModes) > 0 {
		fmt.Fprintf(&buf, "  available sub-modes: %s\n", strings.Join(md.subModes, ", "))
		fmt.Fprintf(&buf, "    default: %s\n", md.subModes[0])
	}

	fmt.Fprint(md.Output, buf.String())
}
