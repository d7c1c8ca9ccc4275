// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package serve

import (
	"net/http"
	"path/filepath"
	"strings"

	qerrors "github.com/pollination/queenbee/pkg/errors"
	"github.com/pollination/queenbee/pkg/serializer"
)

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "method not allowed", false, nil)
		return
	}

	s.mu.RLock()
	ready := s.ready
	s.mu.RUnlock()

	serializer.RespondJSON(w, http.StatusOK, map[string]any{
		"name":    s.config.Name,
		"version": s.config.Version,
		"ready":   ready,
		"routes": []string{
			"GET /index.json",
			"GET /plugins/{name}-{tag}.tgz",
			"GET /recipes/{name}-{tag}.tgz",
			"GET /health",
			"GET /ready",
			"GET /metrics",
		},
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "method not allowed", false, nil)
		return
	}

	snapshot := s.index.Snapshot()
	w.Header().Set("Cache-Control", "public, max-age=30")
	serializer.RespondJSON(w, http.StatusOK, snapshot)
}

// handleArchive serves a single archive file straight off disk: the mux
// pattern "/plugins/" or "/recipes/" has already selected the subfolder,
// so the remainder of the path is the file name within it. http.ServeFile
// handles range requests and conditional GETs for us.
func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		writeError(w, r, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "method not allowed", false, nil)
		return
	}

	sub := "plugins"
	if strings.HasPrefix(r.URL.Path, "/recipes/") {
		sub = "recipes"
	}
	name := strings.TrimPrefix(r.URL.Path, "/"+sub+"/")
	if name == "" || strings.Contains(name, "/") || strings.Contains(name, "..") || !strings.HasSuffix(name, ".tgz") {
		writeErrorFromErr(w, r, qerrors.New(qerrors.CodePackageNotFound, "no such archive"), "no such archive")
		return
	}

	path := filepath.Join(s.config.Dir, sub, name)
	w.Header().Set("Content-Type", "application/gzip")
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	http.ServeFile(w, r, path)
}
