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

package dependency

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	qerrors "github.com/pollination/queenbee/pkg/errors"
	"github.com/pollination/queenbee/pkg/manifest"
	"github.com/pollination/queenbee/pkg/metrics"
	"github.com/pollination/queenbee/pkg/packager"
	"github.com/pollination/queenbee/pkg/registry"
	"github.com/pollination/queenbee/pkg/transport"

	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 8

// Resolved is one fully-fetched, verified dependency: its locked
// Dependency record, the decoded manifest body, and its README if the
// archive carried one.
type Resolved struct {
	Dependency manifest.Dependency
	Manifest   manifest.Resource
	README     string
}

// LockResult is the output of a Lock call: Dependencies is the caller
// Recipe's own dependency list with every entry's Digest now set, in the
// original order; ByDigest additionally holds every dependency discovered
// anywhere in the transitive graph, keyed by its locked digest, which
// pkg/baker consumes to recursively bake nested Recipe dependencies
// memoized by digest.
type LockResult struct {
	Dependencies []manifest.Dependency
	ByDigest     map[string]Resolved
}

// Find locates the Resolved entry for dep: an exact digest match when dep
// is already locked, otherwise a linear scan for the first entry anywhere
// in the transitive graph whose (kind, name, version, source) all match.
// pkg/baker uses the fallback path to look up a nested Recipe dependency's
// own Dependencies, which arrive straight off its archived manifest and
// so carry no digest of their own.
func (lr LockResult) Find(dep manifest.Dependency) (Resolved, bool) {
	if dep.Digest != "" {
		resolved, ok := lr.ByDigest[dep.Digest]
		return resolved, ok
	}
	for _, resolved := range lr.ByDigest {
		d := resolved.Dependency
		if d.Kind == dep.Kind && d.Name == dep.Name && d.Version == dep.Version && d.Source == dep.Source {
			return resolved, true
		}
	}
	return Resolved{}, false
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithConcurrency bounds how many dependencies are fetched in parallel at
// a single recursion level.
func WithConcurrency(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithStrictDigest disables the digest-disappeared-so-refetch-by-version
// fallback: a locked dependency whose digest is no longer
// present in its source index fails with DEP_NOT_FOUND instead of
// silently relocking to whatever the index now serves under that name
// and version.
func WithStrictDigest(strict bool) Option {
	return func(r *Resolver) { r.strictDigest = strict }
}

// WithVerifyDigest toggles archive digest verification after fetch.
// Enabled by default.
func WithVerifyDigest(verify bool) Option {
	return func(r *Resolver) { r.verifyDigest = verify }
}

// Resolver implements the dependency resolution algorithm over a
// transport.Fetcher.
type Resolver struct {
	fetcher      *transport.Fetcher
	concurrency  int
	strictDigest bool
	verifyDigest bool
}

// New builds a Resolver that fetches through fetcher.
func New(fetcher *transport.Fetcher, opts ...Option) *Resolver {
	r := &Resolver{
		fetcher:      fetcher,
		concurrency:  defaultConcurrency,
		verifyDigest: true,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Lock resolves every Dependency of recipe against its source, fetching
// and verifying each archive and recursing into Recipe dependencies'
// transitive dependencies. Failure at any point is reported without
// partial state: the caller should only persist Dependencies/ByDigest
// once Lock returns nil.
func (r *Resolver) Lock(ctx context.Context, recipe manifest.Recipe, authHeader string) (LockResult, error) {
	byDigest := make(map[string]Resolved)
	var mu sync.Mutex

	locked, err := r.resolveAll(ctx, recipe.Dependencies, map[string]bool{}, authHeader, &mu, byDigest)
	if err != nil {
		return LockResult{}, err
	}
	return LockResult{Dependencies: locked, ByDigest: byDigest}, nil
}

func (r *Resolver) resolveAll(
	ctx context.Context,
	deps []manifest.Dependency,
	visited map[string]bool,
	authHeader string,
	mu *sync.Mutex,
	byDigest map[string]Resolved,
) ([]manifest.Dependency, error) {
	locked := make([]manifest.Dependency, len(deps))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i, dep := range deps {
		g.Go(func() error {
			key := visitedKey(dep)

			mu.Lock()
			cyclic := visited[key]
			// branch copies the visited set for this dependency's own
			// recursion and marks the dependency only there, so sibling
			// dependencies don't see each other's standing as an ancestor
			// cycle.
			branch := make(map[string]bool, len(visited)+1)
			for k, v := range visited {
				branch[k] = v
			}
			branch[key] = true
			mu.Unlock()

			if cyclic {
				return qerrors.New(qerrors.CodeCycleDetected, fmt.Sprintf("dependency cycle detected at %s", key))
			}

			lockedDep, resolved, err := r.resolveOne(gctx, dep, authHeader)
			if err != nil {
				return err
			}

			if nested, ok := resolved.Manifest.(manifest.Recipe); ok {
				if _, err := r.resolveAll(gctx, nested.Dependencies, branch, authHeader, mu, byDigest); err != nil {
					return err
				}
			}

			mu.Lock()
			byDigest[lockedDep.Digest] = resolved
			locked[i] = lockedDep
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return locked, nil
}

func visitedKey(dep manifest.Dependency) string {
	return fmt.Sprintf("%s|%s|%s", dep.Source, dep.Name, dep.Version)
}

// resolveOne resolves a single dependency against its source's index.json,
// then fetches, unpacks (verifying the digest when enabled) and decodes
// the matched archive, returning the dependency with its digest pinned.
func (r *Resolver) resolveOne(ctx context.Context, dep manifest.Dependency, authHeader string) (manifest.Dependency, Resolved, error) {
	start := time.Now()
	kind := manifest.PackageKind(dep.Kind)

	idx, err := r.fetchIndex(ctx, dep.Source, authHeader)
	if err != nil {
		metrics.ObserveFetch(string(dep.Kind), "error", time.Since(start).Seconds())
		return manifest.Dependency{}, Resolved{}, err
	}

	pv, result, err := r.lockVersion(idx, kind, dep)
	if err != nil {
		metrics.ObserveFetch(string(dep.Kind), "error", time.Since(start).Seconds())
		return manifest.Dependency{}, Resolved{}, err
	}
	dep.Digest = pv.Digest

	archiveURL := urljoin(dep.Source, pv.URL)
	archive, err := r.fetcher.Fetch(ctx, archiveURL, authHeader)
	if err != nil {
		metrics.ObserveFetch(string(dep.Kind), "error", time.Since(start).Seconds())
		return manifest.Dependency{}, Resolved{}, err
	}

	unpacked, err := packager.Unpack(archive, dep.Digest, r.verifyDigest)
	if err != nil {
		metrics.ObserveFetch(string(dep.Kind), "error", time.Since(start).Seconds())
		return manifest.Dependency{}, Resolved{}, err
	}

	resource, err := decodeResource(kind, unpacked.ResourceBytes)
	if err != nil {
		metrics.ObserveFetch(string(dep.Kind), "error", time.Since(start).Seconds())
		return manifest.Dependency{}, Resolved{}, err
	}

	metrics.ObserveFetch(string(dep.Kind), result, time.Since(start).Seconds())
	return dep, Resolved{Dependency: dep, Manifest: resource, README: unpacked.Version.README}, nil
}

// lockVersion matches an unlocked dependency by
// (kind, name, version); a locked one prefers exact digest match, falling
// back to (name, version) if the digest has disappeared from the index
// (unless strictDigest forbids the fallback). Returns the matched
// PackageVersion and a metrics result label ("locked" or "cache_hit").
func (r *Resolver) lockVersion(idx manifest.RepositoryIndex, kind manifest.PackageKind, dep manifest.Dependency) (manifest.PackageVersion, string, error) {
	if !dep.IsLocked() {
		pv, ok := registry.PackageByVersion(idx, kind, dep.Name, dep.Version)
		if !ok {
			return manifest.PackageVersion{}, "", qerrors.New(qerrors.CodeDependencyNotFound, fmt.Sprintf(
				"no %s package named %s@%s in index at %s", kind, dep.Name, dep.Version, dep.Source))
		}
		return pv, "locked", nil
	}

	if pv, ok := registry.PackageByDigest(idx, kind, dep.Name, dep.Digest); ok {
		return pv, "cache_hit", nil
	}

	if r.strictDigest {
		return manifest.PackageVersion{}, "", qerrors.New(qerrors.CodeDependencyNotFound, fmt.Sprintf(
			"locked digest %s for %s %s no longer present in index at %s", dep.Digest, kind, dep.Name, dep.Source))
	}

	pv, ok := registry.PackageByVersion(idx, kind, dep.Name, dep.Version)
	if !ok {
		return manifest.PackageVersion{}, "", qerrors.New(qerrors.CodeDependencyNotFound, fmt.Sprintf(
			"no %s package named %s@%s in index at %s", kind, dep.Name, dep.Version, dep.Source))
	}
	return pv, "locked", nil
}

func (r *Resolver) fetchIndex(ctx context.Context, source, authHeader string) (manifest.RepositoryIndex, error) {
	data, err := r.fetcher.Fetch(ctx, urljoin(source, "index.json"), authHeader)
	if err != nil {
		return manifest.RepositoryIndex{}, err
	}
	var idx manifest.RepositoryIndex
	if err := json.Unmarshal(data, &idx); err != nil {
		return manifest.RepositoryIndex{}, qerrors.Wrap(qerrors.CodeParse, fmt.Sprintf("parse index.json from %s", source), err)
	}
	return idx, nil
}

func decodeResource(kind manifest.PackageKind, resourceBytes []byte) (manifest.Resource, error) {
	switch kind {
	case manifest.PackageKindPlugin:
		var p manifest.Plugin
		if err := json.Unmarshal(resourceBytes, &p); err != nil {
			return nil, qerrors.Wrap(qerrors.CodeParse, "decode plugin resource.json", err)
		}
		return p, nil
	case manifest.PackageKindRecipe:
		var rcp manifest.Recipe
		if err := json.Unmarshal(resourceBytes, &rcp); err != nil {
			return nil, qerrors.Wrap(qerrors.CodeParse, "decode recipe resource.json", err)
		}
		return rcp, nil
	default:
		return nil, qerrors.New(qerrors.CodeSchemaViolation, fmt.Sprintf("unknown dependency kind %q", kind))
	}
}

// urljoin joins url segments with "/", trimming any trailing slash from
// each part first, matching the source's own URL-joining behavior across
// both file and http(s) sources.
func urljoin(parts ...string) string {
	cleaned := make([]string, len(parts))
	for i, p := range parts {
		cleaned[i] = strings.TrimRight(p, "/")
	}
	return strings.Join(cleaned, "/")
}
