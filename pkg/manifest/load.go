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
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	qerrors "github.com/pollination/queenbee/pkg/errors"
)

// LoadPluginFolder reads a Plugin folder laid out as:
//
//	package.yaml    metadata
//	config.yaml     run configuration
//	functions/*.yaml one file per Function
//
// Every component file is passed through InlineImportFrom, so a function
// body may pull shared fragments in with "import_from: <relative-path>".
func LoadPluginFolder(dir string) (Plugin, error) {
	var p Plugin
	if err := loadYAMLDoc(filepath.Join(dir, "package.yaml"), &p.Metadata); err != nil {
		return Plugin{}, err
	}
	if err := loadYAMLDoc(filepath.Join(dir, "config.yaml"), &p.Config); err != nil {
		return Plugin{}, err
	}

	names, err := sortedYAMLFiles(filepath.Join(dir, "functions"))
	if err != nil {
		return Plugin{}, err
	}
	for _, name := range names {
		var fn Function
		if err := loadYAMLDoc(filepath.Join(dir, "functions", name), &fn); err != nil {
			return Plugin{}, err
		}
		p.Functions = append(p.Functions, fn)
	}
	return p, nil
}

// LoadRecipeFolder reads a Recipe folder laid out as:
//
//	recipe.yaml          metadata
//	dependencies.yaml    { dependencies: [...] }
//	flow/*.yaml          one file per DAG, at least one named "main"
//
// Every component file is passed through InlineImportFrom.
func LoadRecipeFolder(dir string) (Recipe, error) {
	var r Recipe
	if err := loadYAMLDoc(filepath.Join(dir, "recipe.yaml"), &r.Metadata); err != nil {
		return Recipe{}, err
	}

	depsPath := filepath.Join(dir, "dependencies.yaml")
	if _, err := os.Stat(depsPath); err == nil {
		var wrapper struct {
			Dependencies []Dependency `json:"dependencies" yaml:"dependencies"`
		}
		if err := loadYAMLDoc(depsPath, &wrapper); err != nil {
			return Recipe{}, err
		}
		r.Dependencies = wrapper.Dependencies
	} else if !os.IsNotExist(err) {
		return Recipe{}, qerrors.Wrap(qerrors.CodeIO, fmt.Sprintf("stat %s", depsPath), err)
	}

	names, err := sortedYAMLFiles(filepath.Join(dir, "flow"))
	if err != nil {
		return Recipe{}, err
	}
	for _, name := range names {
		var dag DAG
		if err := loadYAMLDoc(filepath.Join(dir, "flow", name), &dag); err != nil {
			return Recipe{}, err
		}
		r.Flow = append(r.Flow, dag)
	}
	return r, nil
}

// loadYAMLDoc inlines import_from references in path and decodes the
// result into out. InlineImportFrom hands back a generic map decoded from
// YAML; it is re-encoded as JSON and decoded through out's own
// json.Unmarshal so the discriminated io.Descriptor/io.Binding variants
// still go through their "type"-driven decode logic rather than a plain
// field-by-field YAML bind.
func loadYAMLDoc(path string, out any) error {
	doc, err := InlineImportFrom(path)
	if err != nil {
		return err
	}
	merged, err := json.Marshal(doc)
	if err != nil {
		return qerrors.Wrap(qerrors.CodeInternal, fmt.Sprintf("re-encode %s", path), err)
	}
	if err := json.Unmarshal(merged, out); err != nil {
		return qerrors.Wrap(qerrors.CodeParse, fmt.Sprintf("decode %s", path), err)
	}
	return nil
}

// sortedYAMLFiles lists the ".yaml"/".yml" file names directly under dir,
// sorted for deterministic load order.
func sortedYAMLFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, qerrors.Wrap(qerrors.CodeIO, fmt.Sprintf("read dir %s", dir), err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext == ".yaml" || ext == ".yml" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
