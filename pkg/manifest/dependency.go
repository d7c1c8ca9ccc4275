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
	qerrors "github.com/pollination/queenbee/pkg/errors"
)

// DependencyKind discriminates whether a Dependency points at a Recipe or a
// Plugin.
type DependencyKind string

const (
	DependencyRecipe DependencyKind = "recipe"
	DependencyPlugin DependencyKind = "plugin"
)

// Dependency is a reference to a Recipe or Plugin hosted in a repository.
// Digest is empty until the dependency is locked by the resolver, after
// which it is immutable for the lifetime of the in-memory value.
type Dependency struct {
	Kind    DependencyKind `json:"kind" yaml:"kind"`
	Name    string         `json:"name" yaml:"name"`
	Version string         `json:"version" yaml:"version"`
	Source  string         `json:"source" yaml:"source"`
	Alias   string         `json:"alias,omitempty" yaml:"alias,omitempty"`
	Digest  string         `json:"digest,omitempty" yaml:"digest,omitempty"`
}

// RefName is the name by which a Recipe refers to this dependency: its
// alias if set, otherwise its name.
func (d Dependency) RefName() string {
	if d.Alias != "" {
		return d.Alias
	}
	return d.Name
}

// IsLocked reports whether this dependency has a recorded digest.
func (d Dependency) IsLocked() bool {
	return d.Digest != ""
}

// Validate checks the dependency's required fields and that Kind is one of
// the two recognized values.
func (d Dependency) Validate() error {
	var errs []error
	if d.Kind != DependencyRecipe && d.Kind != DependencyPlugin {
		errs = append(errs, qerrors.New(qerrors.CodeSchemaViolation, "dependency kind must be \"recipe\" or \"plugin\""))
	}
	if d.Name == "" {
		errs = append(errs, qerrors.New(qerrors.CodeSchemaViolation, "dependency name is required"))
	}
	if d.Version == "" {
		errs = append(errs, qerrors.New(qerrors.CodeSchemaViolation, "dependency version is required"))
	}
	if d.Source == "" {
		errs = append(errs, qerrors.New(qerrors.CodeSchemaViolation, "dependency source is required"))
	}
	return qerrors.Flatten(errs...).OrNil()
}
