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

package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	qerrors "github.com/pollination/queenbee/pkg/errors"
	"github.com/pollination/queenbee/pkg/manifest"
	"github.com/pollination/queenbee/pkg/metrics"
	"github.com/pollination/queenbee/pkg/packager"

	"github.com/agnivade/levenshtein"
)

// subfolder maps a PackageKind to its folder name under a repository root.
var subfolder = map[manifest.PackageKind]string{
	manifest.PackageKindPlugin: "plugins",
	manifest.PackageKindRecipe: "recipes",
}

// Index wraps a manifest.RepositoryIndex with a reader/writer lock, so a
// long-lived process (e.g. `repo serve`) can refresh it while concurrent
// searches are in flight.
type Index struct {
	mu   sync.RWMutex
	data manifest.RepositoryIndex
}

// NewIndex returns an empty, ready-to-use Index.
func NewIndex() *Index {
	return &Index{data: *manifest.NewRepositoryIndex()}
}

// Snapshot returns a shallow copy of the current index data, safe for the
// caller to read without holding any lock.
func (x *Index) Snapshot() manifest.RepositoryIndex {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.data
}

// Replace swaps in a freshly generated or merged index atomically.
func (x *Index) Replace(idx manifest.RepositoryIndex) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.data = idx
}

// GenerateFromFolder scans "<dir>/plugins" and "<dir>/recipes" for ".tgz"
// archives, unpacks enough of each to read its digest and PackageVersion,
// and groups the results by name into a fresh index with generated=now.
func GenerateFromFolder(dir string) (manifest.RepositoryIndex, error) {
	idx := manifest.NewRepositoryIndex()

	for kind, sub := range subfolder {
		dirPath := filepath.Join(dir, sub)
		entries, err := os.ReadDir(dirPath)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return *idx, qerrors.Wrap(qerrors.CodeIO, fmt.Sprintf("scan %s", dirPath), err)
		}

		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".tgz") {
				continue
			}
			archivePath := filepath.Join(dirPath, entry.Name())
			data, err := os.ReadFile(archivePath)
			if err != nil {
				return *idx, qerrors.Wrap(qerrors.CodeIO, fmt.Sprintf("read %s", archivePath), err)
			}
			unpacked, err := packager.Unpack(data, "", false)
			if err != nil {
				return *idx, qerrors.Wrap(qerrors.CodeCorruptArchive, fmt.Sprintf("unpack %s", archivePath), err)
			}
			pv := unpacked.Version
			pv.Kind = kind
			pv.URL = filepath.ToSlash(filepath.Join(sub, entry.Name()))
			pv = pv.WithoutBody()
			idx.Append(kind, pv)
		}
	}

	idx.Generated = time.Now().UTC()
	reportIndexSize(*idx)
	return *idx, nil
}

// MergeFolder discovers the archives under dir (as GenerateFromFolder
// does) and merges each discovered (kind, name, tag) into existing:
// absent entries are inserted, same-digest entries are kept
// untouched, differing-digest entries are resolved by force (overwrite),
// skip (retain existing), or PACKAGE_CONFLICT (neither set).
func MergeFolder(existing manifest.RepositoryIndex, dir string, force, skip bool) (manifest.RepositoryIndex, error) {
	discovered, err := GenerateFromFolder(dir)
	if err != nil {
		return existing, err
	}

	merged := existing
	if merged.Plugin == nil {
		merged.Plugin = map[string][]manifest.PackageVersion{}
	}
	if merged.Recipe == nil {
		merged.Recipe = map[string][]manifest.PackageVersion{}
	}

	for _, group := range discovered.AllKinds() {
		for name, versions := range group.Versions {
			for _, pv := range versions {
				current := merged.ByName(group.Kind, name)
				i, found := findByTag(current, pv.Tag)
				switch {
				case !found:
					current = append(current, pv)
				case current[i].Digest == pv.Digest:
					// keep existing entry untouched
				case force:
					current[i] = pv
				case skip:
					// retain existing entry
				default:
					return existing, qerrors.New(qerrors.CodePackageConflict, fmt.Sprintf(
						"%s %s@%s already indexed with a different digest", group.Kind, name, pv.Tag))
				}
				merged.Set(group.Kind, name, current)
			}
		}
	}

	merged.Generated = time.Now().UTC()
	reportIndexSize(merged)
	return merged, nil
}

func reportIndexSize(idx manifest.RepositoryIndex) {
	for _, group := range idx.AllKinds() {
		count := 0
		for _, versions := range group.Versions {
			count += len(versions)
		}
		metrics.SetIndexSize(string(group.Kind), count)
	}
}

func findByTag(versions []manifest.PackageVersion, tag string) (int, bool) {
	for i, v := range versions {
		if v.Tag == tag {
			return i, true
		}
	}
	return 0, false
}

// PackageByTag returns the PackageVersion of kind/name whose tag matches
// tag. Tag "latest" selects the entry with the greatest Created timestamp,
// tie-broken by the lexicographically greatest Tag.
func PackageByTag(idx manifest.RepositoryIndex, kind manifest.PackageKind, name, tag string) (manifest.PackageVersion, bool) {
	versions := idx.ByName(kind, name)
	if len(versions) == 0 {
		return manifest.PackageVersion{}, false
	}
	if tag == "latest" {
		sorted := append([]manifest.PackageVersion(nil), versions...)
		sort.Slice(sorted, func(i, j int) bool {
			if !sorted[i].Created.Equal(sorted[j].Created) {
				return sorted[i].Created.Before(sorted[j].Created)
			}
			return sorted[i].Tag < sorted[j].Tag
		})
		return sorted[len(sorted)-1], true
	}
	if i, ok := findByTag(versions, tag); ok {
		return versions[i], true
	}
	return manifest.PackageVersion{}, false
}

// PackageByVersion is identical to PackageByTag — a package version is
// addressed the same way whether the caller calls the field "tag" or
// "version".
func PackageByVersion(idx manifest.RepositoryIndex, kind manifest.PackageKind, name, version string) (manifest.PackageVersion, bool) {
	return PackageByTag(idx, kind, name, version)
}

// PackageByDigest returns the PackageVersion of kind/name matching digest
// exactly.
func PackageByDigest(idx manifest.RepositoryIndex, kind manifest.PackageKind, name, digest string) (manifest.PackageVersion, bool) {
	for _, v := range idx.ByName(kind, name) {
		if v.Digest == digest {
			return v, true
		}
	}
	return manifest.PackageVersion{}, false
}

// Search iterates every PackageVersion in idx, optionally filtered by
// kind (nil means both), and returns those matching query (empty query
// matches everything). Results omit README, license, and manifest bodies.
// When a non-empty query has no substring/keyword match, Search falls
// back to a Levenshtein-distance-3 fuzzy match against package names so a
// typo'd query still surfaces its likely target.
func Search(idx manifest.RepositoryIndex, kind *manifest.PackageKind, query string) []manifest.PackageVersion {
	var exact []manifest.PackageVersion
	var fuzzy []manifest.PackageVersion

	for _, group := range idx.AllKinds() {
		if kind != nil && group.Kind != *kind {
			continue
		}
		for _, versions := range group.Versions {
			for _, pv := range versions {
				stripped := pv.WithoutBody()
				if pv.MatchesQuery(query) {
					exact = append(exact, stripped)
					continue
				}
				if query != "" && levenshtein.ComputeDistance(strings.ToLower(pv.Name), strings.ToLower(query)) <= 3 {
					fuzzy = append(fuzzy, stripped)
				}
			}
		}
	}

	if len(exact) > 0 || query == "" {
		return exact
	}
	return fuzzy
}

// DecorateSlug returns a copy of idx with every PackageVersion's Slug set
// to "<repoLocalName>/<package-name>", as applied to a remote index once
// it is adopted locally under a named repository.
func DecorateSlug(idx manifest.RepositoryIndex, repoLocalName string) manifest.RepositoryIndex {
	decorated := manifest.RepositoryIndex{Generated: idx.Generated,
		Plugin: map[string][]manifest.PackageVersion{},
		Recipe: map[string][]manifest.PackageVersion{},
	}
	for _, group := range idx.AllKinds() {
		for name, versions := range group.Versions {
			slugged := make([]manifest.PackageVersion, len(versions))
			for i, pv := range versions {
				pv.Slug = fmt.Sprintf("%s/%s", repoLocalName, pv.Name)
				slugged[i] = pv
			}
			decorated.Set(group.Kind, name, slugged)
		}
	}
	return decorated
}
