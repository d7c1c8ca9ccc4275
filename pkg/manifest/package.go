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

package manifest

import (
	"strings"
	"time"
)

// Resource is the common surface Plugin and Recipe both satisfy, enough
// for a packager to describe and digest either one without caring which.
type Resource interface {
	ResourceMetadata() MetaData
	Digest() (string, error)
	Kind() PackageKind
	Validate() error
}

// PackageKind discriminates the two archive kinds a repository indexes.
type PackageKind string

const (
	PackageKindPlugin PackageKind = "plugin"
	PackageKindRecipe PackageKind = "recipe"
)

// PackageVersion is the metadata row a repository index stores for one
// archive. Manifest is only populated when the caller asked for the full
// manifest body (e.g. a local `from_folder` scan); Search results omit it.
type PackageVersion struct {
	Type        string       `json:"type" yaml:"type"`
	Name        string       `json:"name" yaml:"name"`
	Tag         string       `json:"tag" yaml:"tag"`
	Digest      string       `json:"digest" yaml:"digest"`
	Created     time.Time    `json:"created" yaml:"created"`
	URL         string       `json:"url" yaml:"url"`
	Kind        PackageKind  `json:"kind" yaml:"kind"`
	Keywords    []string     `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	Maintainers []Maintainer `json:"maintainers,omitempty" yaml:"maintainers,omitempty"`
	License     *License     `json:"license,omitempty" yaml:"license,omitempty"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
	Icon        string       `json:"icon,omitempty" yaml:"icon,omitempty"`
	Home        string       `json:"home,omitempty" yaml:"home,omitempty"`
	Sources     []string     `json:"sources,omitempty" yaml:"sources,omitempty"`
	Deprecated  bool         `json:"deprecated,omitempty" yaml:"deprecated,omitempty"`
	AppVersion  string       `json:"app_version,omitempty" yaml:"app_version,omitempty"`
	README      string       `json:"readme,omitempty" yaml:"readme,omitempty"`
	Manifest    any          `json:"manifest,omitempty" yaml:"manifest,omitempty"`

	// Slug is set when the entry was fetched from a remote index the caller
	// also tracks locally as a named repository; it is "<repo-local-name>/
	// <package-name>" and is otherwise opaque to the core.
	Slug string `json:"slug,omitempty" yaml:"slug,omitempty"`
}

// WithoutBody returns a copy of pv with README, license, and manifest body
// stripped, as returned by repository search.
func (pv PackageVersion) WithoutBody() PackageVersion {
	stripped := pv
	stripped.README = ""
	stripped.License = nil
	stripped.Manifest = nil
	return stripped
}

// MatchesQuery reports whether query is a case-insensitive substring of
// pv.Name or an exact case-insensitive match of one of pv.Keywords. An
// empty query matches everything.
func (pv PackageVersion) MatchesQuery(query string) bool {
	if query == "" {
		return true
	}
	if strings.Contains(strings.ToLower(pv.Name), strings.ToLower(query)) {
		return true
	}
	for _, kw := range pv.Keywords {
		if strings.EqualFold(kw, query) {
			return true
		}
	}
	return false
}
