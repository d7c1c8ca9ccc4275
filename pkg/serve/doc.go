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

// Package serve implements the HTTP server behind "repo serve": it mirrors
// a repository folder straight off disk, refreshing the in-memory index
// on a timer so index.json always reflects whatever archives currently
// sit under plugins/ and recipes/.
//
// # Endpoints
//
//	GET /index.json                     current repository index
//	GET /plugins/{name}-{tag}.tgz        plugin archive
//	GET /recipes/{name}-{tag}.tgz        recipe archive
//	GET /health                          liveness probe
//	GET /ready                           readiness probe
//	GET /metrics                         Prometheus exposition
//
// Requests to the root, index and archive routes pass through a
// middleware chain of metrics, request-ID injection, panic recovery, a
// token-bucket rate limiter, and structured access logging; the health,
// ready and metrics probes do not. Start the server with Run, which installs a SIGINT/SIGTERM
// handler and shuts the HTTP listener down gracefully.
package serve
