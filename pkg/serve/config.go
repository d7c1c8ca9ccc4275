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
	"time"

	"golang.org/x/time/rate"
)

// Server timeout defaults, matching common values for a small internal
// HTTP listener.
const (
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 30 * time.Second
	defaultIdleTimeout     = 120 * time.Second
	defaultShutdownTimeout = 30 * time.Second
	defaultIndexRefresh    = 30 * time.Second
)

// Config holds repo serve configuration.
type Config struct {
	// Name and Version are reported by the root handler.
	Name    string
	Version string

	// Dir is the repository folder served: its plugins/ and recipes/
	// subdirectories hold the archives, and the index generated in memory
	// from those archives (regenerated every IndexRefresh) is served at
	// GET /index.json.
	Dir string

	Address string
	Port    int

	RateLimit      rate.Limit
	RateLimitBurst int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// IndexRefresh is how often the in-memory index is regenerated from
	// Dir. A zero value disables the refresh loop; the index is then
	// generated once at startup.
	IndexRefresh time.Duration
}

// DefaultConfig returns a Config with sensible defaults for dir, serving
// on the given address and port.
func DefaultConfig(dir, address string, port int) *Config {
	return &Config{
		Name:            "queenbee-repo",
		Version:         "undefined",
		Dir:             dir,
		Address:         address,
		Port:            port,
		RateLimit:       50,
		RateLimitBurst:  100,
		ReadTimeout:     defaultReadTimeout,
		WriteTimeout:    defaultWriteTimeout,
		IdleTimeout:     defaultIdleTimeout,
		ShutdownTimeout: defaultShutdownTimeout,
		IndexRefresh:    defaultIndexRefresh,
	}
}
