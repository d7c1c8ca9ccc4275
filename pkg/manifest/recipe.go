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
	"fmt"

	qerrors "github.com/pollination/queenbee/pkg/errors"
)

// Recipe is a named, versioned package of one or more DAGs (one MUST be
// named "main") plus a list of Dependencies. A Recipe's digest is the
// SHA-256 of the canonical JSON of metadata + dependencies + flow.
type Recipe struct {
	Metadata     MetaData     `json:"metadata" yaml:"metadata"`
	Dependencies []Dependency `json:"dependencies" yaml:"dependencies"`
	Flow         []DAG        `json:"flow" yaml:"flow"`
}

// Digest returns the SHA-256 of the Recipe's canonical JSON.
func (r Recipe) Digest() (string, error) {
	return Digest(r)
}

// ResourceMetadata returns the Recipe's MetaData, satisfying Resource.
func (r Recipe) ResourceMetadata() MetaData {
	return r.Metadata
}

// Kind reports the package kind a Recipe packs as.
func (r Recipe) Kind() PackageKind {
	return PackageKindRecipe
}

// Main returns the Recipe's "main" DAG. Callers should validate the
// Recipe first; Main panics-free returns ok=false if absent.
func (r Recipe) Main() (DAG, bool) {
	return r.DAGByName(MainDAGName)
}

// DAGByName returns the named DAG from the Recipe's flow.
func (r Recipe) DAGByName(name string) (DAG, bool) {
	for _, d := range r.Flow {
		if d.Name == name {
			return d, true
		}
	}
	return DAG{}, false
}

// DependencyByRefName returns the Dependency whose alias-or-name matches
// ref, used when rewriting task template references during baking.
func (r Recipe) DependencyByRefName(ref string) (Dependency, bool) {
	for _, d := range r.Dependencies {
		if d.RefName() == ref {
			return d, true
		}
	}
	return Dependency{}, false
}

// Validate checks metadata, dependency ref-name uniqueness, DAG name
// uniqueness (invariant 1), presence of "main" (invariant 2), and
// recursively validates every Dependency and DAG. It does not resolve
// cross-DAG template references — see pkg/reference and pkg/baker.
func (r Recipe) Validate() error {
	var errs []error
	errs = append(errs, r.Metadata.Validate())

	refNames := make(map[string]bool, len(r.Dependencies))
	for _, dep := range r.Dependencies {
		errs = append(errs, dep.Validate())
		ref := dep.RefName()
		if refNames[ref] {
			errs = append(errs, qerrors.New(qerrors.CodeSchemaViolation, fmt.Sprintf("duplicate dependency ref-name %q", ref)))
			continue
		}
		refNames[ref] = true
	}

	dagNames := make(map[string]bool, len(r.Flow))
	hasMain := false
	for _, dag := range r.Flow {
		if dagNames[dag.Name] {
			errs = append(errs, qerrors.New(qerrors.CodeSchemaViolation, fmt.Sprintf("duplicate dag name %q", dag.Name)))
			continue
		}
		dagNames[dag.Name] = true
		if dag.Name == MainDAGName {
			hasMain = true
		}
		errs = append(errs, dag.Validate())
	}
	if !hasMain {
		errs = append(errs, qerrors.New(qerrors.CodeSchemaViolation, fmt.Sprintf("recipe %s: flow has no %q dag", r.Metadata.Name, MainDAGName)))
	}

	return qerrors.Flatten(errs...).OrNil()
}
