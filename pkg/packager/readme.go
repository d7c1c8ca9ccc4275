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

package packager

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	qerrors "github.com/pollination/queenbee/pkg/errors"
)

// FindReadme scans dir's direct entries for a file named "readme.md"
// case-insensitively and returns its contents, or "" if none exists.
func FindReadme(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", qerrors.Wrap(qerrors.CodeIO, fmt.Sprintf("scan %s", dir), err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(entry.Name(), "readme.md") {
			data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
			if err != nil {
				return "", qerrors.Wrap(qerrors.CodeIO, fmt.Sprintf("read %s", entry.Name()), err)
			}
			return string(data), nil
		}
	}
	return "", nil
}
