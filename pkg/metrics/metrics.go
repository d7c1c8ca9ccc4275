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

// Package metrics holds the process-wide Prometheus collectors shared by
// the baker, dependency resolver, packager, and repository index.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BakeDuration observes one pkg/baker.Bake call end to end.
	BakeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "queenbee_bake_duration_seconds",
			Help:    "Duration of recipe baking in seconds",
			Buckets: []float64{.01, .05, .1, .5, 1, 5, 10},
		},
	)

	// DependencyFetchDuration observes one dependency resolve-and-fetch,
	// labeled by kind ("plugin" or "recipe").
	DependencyFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "queenbee_dependency_fetch_duration_seconds",
			Help:    "Duration of a single dependency fetch in seconds",
			Buckets: []float64{.05, .1, .5, 1, 5, 10, 30},
		},
		[]string{"kind"},
	)

	// DependencyFetchTotal counts dependency fetch outcomes, labeled by
	// kind and result ("locked", "cache_hit", or "error").
	DependencyFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queenbee_dependency_fetch_total",
			Help: "Total dependency fetch attempts by kind and result",
		},
		[]string{"kind", "result"},
	)

	// PackageBytes observes the size of a packed archive.
	PackageBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "queenbee_package_bytes",
			Help:    "Size in bytes of a packed queenbee archive",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
		},
	)

	// IndexPackages reports the number of package versions currently held
	// by a repository index, labeled by kind.
	IndexPackages = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "queenbee_index_packages",
			Help: "Number of package versions in a repository index",
		},
		[]string{"kind"},
	)

	// HTTPRequestsTotal counts requests handled by repo serve, labeled by
	// method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queenbee_http_requests_total",
			Help: "Total number of HTTP requests handled by repo serve",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration observes repo serve request latency, labeled by
	// method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "queenbee_http_request_duration_seconds",
			Help:    "Repo serve HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// HTTPRateLimitRejects counts requests rejected by repo serve's token
	// bucket limiter.
	HTTPRateLimitRejects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "queenbee_http_rate_limit_rejects_total",
			Help: "Total requests rejected by repo serve due to rate limiting",
		},
	)

	// HTTPPanicRecoveries counts panics recovered in repo serve handlers.
	HTTPPanicRecoveries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "queenbee_http_panic_recoveries_total",
			Help: "Total number of panics recovered in repo serve handlers",
		},
	)
)

// ObserveFetch records a dependency fetch outcome in one call.
func ObserveFetch(kind, result string, seconds float64) {
	DependencyFetchDuration.WithLabelValues(kind).Observe(seconds)
	DependencyFetchTotal.WithLabelValues(kind, result).Inc()
}

// SetIndexSize publishes the current number of package versions indexed
// under kind.
func SetIndexSize(kind string, count int) {
	IndexPackages.WithLabelValues(kind).Set(float64(count))
}
