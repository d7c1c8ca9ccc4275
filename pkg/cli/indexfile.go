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

package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	qerrors "github.com/pollination/queenbee/pkg/errors"
	"github.com/pollination/queenbee/pkg/manifest"
)

const indexFileName = "index.json"

// writeIndexFile writes idx to dir/index.json, the form pkg/serve and
// "repo get"/"repo search" both read back.
func writeIndexFile(dir string, idx manifest.RepositoryIndex) error {
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return qerrors.Wrap(qerrors.CodeInternal, "encode index.json", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return qerrors.Wrap(qerrors.CodeIO, fmt.Sprintf("create %s", dir), err)
	}
	if err := os.WriteFile(filepath.Join(dir, indexFileName), data, 0o644); err != nil {
		return qerrors.Wrap(qerrors.CodeIO, fmt.Sprintf("write %s", filepath.Join(dir, indexFileName)), err)
	}
	return nil
}

// readIndexFile reads dir/index.json, returning an empty index if the
// repository has not been indexed yet.
func readIndexFile(dir string) (manifest.RepositoryIndex, error) {
	data, err := os.ReadFile(filepath.Join(dir, indexFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return *manifest.NewRepositoryIndex(), nil
		}
		return manifest.RepositoryIndex{}, qerrors.Wrap(qerrors.CodeIO, fmt.Sprintf("read %s", filepath.Join(dir, indexFileName)), err)
	}
	var idx manifest.RepositoryIndex
	if err := decodeIndexJSON(data, &idx); err != nil {
		return manifest.RepositoryIndex{}, err
	}
	return idx, nil
}

// decodeIndexJSON unmarshals raw index.json bytes, fetched either from
// disk or over HTTP(S), into idx.
func decodeIndexJSON(data []byte, idx *manifest.RepositoryIndex) error {
	if err := json.Unmarshal(data, idx); err != nil {
		return qerrors.Wrap(qerrors.CodeParse, "decode index.json", err)
	}
	return nil
}
