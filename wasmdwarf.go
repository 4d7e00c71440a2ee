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

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/jetsetilly/wasmdwarf/httpmap"
	"github.com/jetsetilly/wasmdwarf/logger"
	"github.com/jetsetilly/wasmdwarf/modalflag"
	"github.com/jetsetilly/wasmdwarf/wasmdebug"
	"github.com/jetsetilly/wasmdwarf/wasmdebug/diagnostics"
	"github.com/jetsetilly/wasmdwarf/wasmrewrite"
)

// prefixFlag accumulates repeated -p OLD=NEW command line arguments.
type prefixFlag struct {
	reps []wasmdebug.PrefixReplacement
}

func (p *prefixFlag) String() string {
	return ""
}

func (p *prefixFlag) Set(v string) error {
	r, err := wasmdebug.ParsePrefixReplacement(v)
	if err != nil {
		return err
	}
	p.reps = append(p.reps, r)
	return nil
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "* wasmdwarf: %s\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	md := modalflag.Modes{Output: os.Stdout}
	md.NewArgs(args)

	output := md.AddString("o", "-", "output path for the emitted source map ('-' for stdout)")
	rewritten := md.AddString("w", "", "path to write a rewritten wasm binary (sourceMappingURL appended)")
	stripDebug := md.AddBool("x", false, "omit debug, reloc and linking sections from the rewritten wasm (only with -w)")
	relocate := md.AddBool("relocation", false, "apply wasm linking relocations before walking DWARF")
	embed := md.AddBool("s", false, "embed source file contents into the emitted source map")
	dump := md.AddString("d", "", "dump internal debug-section structures as a DOT graph to this path")
	dashboard := md.AddBool("m", false, "after converting, serve a runtime-stats dashboard and the source map over HTTP")

	var prefixes prefixFlag
	md.AddVar(&prefixes, "p", "OLD=NEW prefix replacement applied to every source path (repeatable)")

	p, err := md.Parse()
	if err != nil {
		return err
	}
	if p == modalflag.ParseHelp {
		return nil
	}

	remaining := md.RemainingArgs()
	if len(remaining) != 1 {
		return fmt.Errorf("exactly one wasm file must be given")
	}

	start := time.Now()

	wasm, err := os.ReadFile(remaining[0])
	if err != nil {
		return err
	}

	ds, err := wasmdebug.ExtractDebugSections(wasm)
	if err != nil {
		return err
	}

	if dump != nil && *dump != "" {
		if err := diagnostics.DumpStructures(*dump, ds); err != nil {
			return err
		}
	}

	stats := wasmdebug.ConversionStats{
		DebugBytes:    totalDebugBytes(ds),
		FunctionCount: len(ds.FuncOffsets),
	}

	if *relocate {
		n, err := wasmdebug.ApplyRelocations(ds)
		if err != nil {
			return err
		}
		stats.RelocationsApplied = n
	}

	info, err := wasmdebug.WalkLineProgram(ds)
	if err != nil {
		return err
	}
	stats.LocationCount = len(info.Locations)
	stats.SourceCount = len(info.Sources)

	wasmdebug.ApplyPrefixReplacements(info.Sources, prefixes.reps)

	if *embed {
		info.SourcesContent = make([]string, len(info.Sources))
		for i, src := range info.Sources {
			content, err := os.ReadFile(src)
			if err != nil {
				logger.Logf("wasmdwarf", "could not embed source %q: %v", src, err)
				continue
			}
			info.SourcesContent[i] = string(content)
		}
	}

	sm, err := wasmdebug.EmitSourceMap(info)
	if err != nil {
		return err
	}

	smJSON, err := json.Marshal(sm)
	if err != nil {
		return err
	}

	if *output == "-" {
		os.Stdout.Write(smJSON)
		os.Stdout.Write([]byte("\n"))
	} else {
		if err := os.WriteFile(*output, smJSON, 0o644); err != nil {
			return err
		}
	}

	var rewrittenWasm []byte
	if *rewritten != "" {
		rewrittenWasm = wasm
		if *stripDebug {
			rewrittenWasm, err = wasmrewrite.StripDebugSections(rewrittenWasm)
			if err != nil {
				return err
			}
		}
		rewrittenWasm = wasmrewrite.AppendSourceMappingURL(rewrittenWasm, sourceMapURL(*output))
		if err := os.WriteFile(*rewritten, rewrittenWasm, 0o644); err != nil {
			return err
		}
	}

	stats.Elapsed = time.Since(start)
	logger.Logf("wasmdwarf", "converted %d bytes of debug info into %d locations across %d sources in %s",
		stats.DebugBytes, stats.LocationCount, stats.SourceCount, stats.Elapsed)

	if *dashboard {
		diagnostics.StartDashboard("localhost:18066")
		srv := &httpmap.Server{SourceMap: smJSON, Wasm: rewrittenWasm}
		return srv.ListenAndServe("localhost:8420")
	}

	return nil
}

func sourceMapURL(outputPath string) string {
	if outputPath == "-" {
		return "sourcemap.json"
	}
	return outputPath
}

func totalDebugBytes(ds *wasmdebug.DebugSections) int {
	n := 0
	for _, b := range ds.Tables {
		n += len(b)
	}
	return n
}
