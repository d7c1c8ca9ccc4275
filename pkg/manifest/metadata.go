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

// Maintainer is a person or organization responsible for a Plugin or Recipe.
type Maintainer struct {
	Name  string `json:"name" yaml:"name"`
	Email string `json:"email,omitempty" yaml:"email,omitempty"`
}

// License identifies the terms under which a package is distributed.
type License struct {
	Name string `json:"name" yaml:"name"`
	URL  string `json:"url,omitempty" yaml:"url,omitempty"`
}

// MetaData is the descriptive header carried by every Plugin and Recipe.
// Name and Tag participate in package identity (<name>-<tag>.tgz); the
// remaining fields are informational and are preserved verbatim through
// baking and packaging.
type MetaData struct {
	Name        string       `json:"name" yaml:"name"`
	Tag         string       `json:"tag" yaml:"tag"`
	AppVersion  string       `json:"app_version,omitempty" yaml:"app_version,omitempty"`
	Keywords    []string     `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	Maintainers []Maintainer `json:"maintainers,omitempty" yaml:"maintainers,omitempty"`
	Home        string       `json:"home,omitempty" yaml:"home,omitempty"`
	Sources     []string     `json:"sources,omitempty" yaml:"sources,omitempty"`
	Icon        string       `json:"icon,omitempty" yaml:"icon,omitempty"`
	Deprecated  bool         `json:"deprecated,omitempty" yaml:"deprecated,omitempty"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
	License     *License     `json:"license,omitempty" yaml:"license,omitempty"`
}

// Validate checks the required identity fields of a MetaData block.
func (m MetaData) Validate() error {
	var errs qerrors.ValidationErrors
	if m.Name == "" {
		errs = append(errs, qerrors.New(qerrors.CodeSchemaViolation, "metadata.name is required"))
	}
	if m.Tag == "" {
		errs = append(errs, qerrors.New(qerrors.CodeSchemaViolation, "metadata.tag is required"))
	}
	return errs.OrNil()
}
