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

// Package httpmap optionally serves a just-emitted source map (and its
// companion wasm binary, if one was rewritten) over plain HTTP, for
// browser-based debugging sessions that fetch maps directly from the
// converter instead of from disk. CORS is wide open by design: the
// consumer is a developer's browser devtools, not a production deployment.
package httpmap

import (
	"net/http"

	"github.com/rs/cors"

	"github.com/jetsetilly/wasmdwarf/logger"
)

// Server serves a single conversion's output: the source map JSON at /map
// and, if present, the rewritten wasm binary at /wasm.
type Server struct {
	SourceMap []byte
	Wasm      []byte
}

// ListenAndServe blocks, serving addr until the process exits or the
// listener fails.
func (s *Server) ListenAndServe(addr string) error {
	mux := http.NewServeMux()

	mux.HandleFunc("/map", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(s.SourceMap)
	})

	if s.Wasm != nil {
		mux.HandleFunc("/wasm", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/wasm")
			_, _ = w.Write(s.Wasm)
		})
	}

	handler := cors.Default().Handler(mux)

	logger.Logf("httpmap", "serving source map on %s", addr)
	return http.ListenAndServe(addr, handler)
}
