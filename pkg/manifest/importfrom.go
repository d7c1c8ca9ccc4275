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
	"os"
	"path/filepath"

	qerrors "github.com/pollination/queenbee/pkg/errors"
	"gopkg.in/yaml.v3"
)

const importFromKey = "import_from"

// InlineImportFrom loads the YAML or JSON file at path and recursively
// inlines any "import_from: <relative-path>" key found in a mapping: the
// referenced file is parsed the same way, and its keys are merged under
// keys already present in the enclosing map (enclosing keys win), after
// which the import_from key itself is removed. Cycles are detected by
// tracking visited absolute paths and reported as CodeCycleDetected.
func InlineImportFrom(path string) (map[string]any, error) {
	return inlineImportFrom(path, map[string]bool{})
}

func inlineImportFrom(path string, visited map[string]bool) (map[string]any, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, qerrors.Wrap(qerrors.CodeIO, fmt.Sprintf("resolve path %s", path), err)
	}
	if visited[abs] {
		return nil, qerrors.New(qerrors.CodeCycleDetected, fmt.Sprintf("import_from cycle detected at %s", abs))
	}
	visited[abs] = true

	raw, err := os.ReadFile(abs)
	if err != nil {
		return nil, qerrors.Wrap(qerrors.CodeIO, fmt.Sprintf("read %s", abs), err)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, qerrors.Wrap(qerrors.CodeParse, fmt.Sprintf("parse %s", abs), err)
	}
	if doc == nil {
		doc = map[string]any{}
	}

	if err := inlineInPlace(doc, filepath.Dir(abs), visited); err != nil {
		return nil, err
	}
	return doc, nil
}

// inlineInPlace walks a decoded map, resolving import_from keys depth-first
// so that nested maps (e.g. a DAG's individual task bodies) are inlined
// too.
func inlineInPlace(doc map[string]any, baseDir string, visited map[string]bool) error {
	if ref, ok := doc[importFromKey]; ok {
		relPath, ok := ref.(string)
		if !ok {
			return qerrors.New(qerrors.CodeParse, fmt.Sprintf("import_from value must be a string, got %T", ref))
		}
		importPath := relPath
		if !filepath.IsAbs(importPath) {
			importPath = filepath.Join(baseDir, importPath)
		}
		// visited is shared across the recursive call so a cycle anywhere in
		// the chain is caught; branch through siblings still need their own
		// standing, so we copy before recursing into the import target.
		branch := make(map[string]bool, len(visited))
		for k, v := range visited {
			branch[k] = v
		}
		imported, err := inlineImportFrom(importPath, branch)
		if err != nil {
			return err
		}
		for k, v := range imported {
			if _, present := doc[k]; !present {
				doc[k] = v
			}
		}
		delete(doc, importFromKey)
	}

	for k, v := range doc {
		if nested, ok := v.(map[string]any); ok {
			if err := inlineInPlace(nested, baseDir, visited); err != nil {
				return err
			}
			doc[k] = nested
			continue
		}
		if list, ok := v.([]any); ok {
			for i, item := range list {
				if nested, ok := item.(map[string]any); ok {
					if err := inlineInPlace(nested, baseDir, visited); err != nil {
						return err
					}
					list[i] = nested
				}
			}
			doc[k] = list
		}
	}
	return nil
}
