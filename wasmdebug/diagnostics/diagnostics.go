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

// Package diagnostics offers optional, off-by-default visibility into a
// conversion run: a memviz dump of the extracted debug-section bookkeeping,
// and a live statsview dashboard of the process's runtime stats.
package diagnostics

import (
	"os"

	"github.com/bradleyjkemp/memviz"
	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"

	"github.com/jetsetilly/wasmdwarf/logger"
	"github.com/jetsetilly/wasmdwarf/wasmdebug"
)

// DumpStructures writes a DOT graph of ds to path, for inspection with
// graphviz. It is intended purely as a debugging aid during development of
// this tool, not as output a user of the conversion would consume.
func DumpStructures(path string, ds *wasmdebug.DebugSections) error {
	f, err := os.Create(path)
	if err != nil {
		return wasmdebug.Errorf(wasmdebug.Io, "creating memviz dump %q: %v", path, err)
	}
	defer f.Close()

	memviz.Map(f, ds)
	return nil
}

// StartDashboard launches a background HTTP server presenting a live
// runtime-stats dashboard (goroutines, heap, GC pauses) at addr, returning
// immediately; the server runs for the remainder of the process's life.
func StartDashboard(addr string) {
	logger.Logf("diagnostics", "stats dashboard available at http://%s/debug/statsview", addr)
	mgr := statsview.New(viewer.WithAddr(addr))
	go mgr.Start()
}
