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
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	qerrors "github.com/pollination/queenbee/pkg/errors"
)

// ChecksumFileName is the name of the sha256sum-compatible manifest
// written at the root of a repository folder.
const ChecksumFileName = "checksums.txt"

// WriteChecksums walks "<dir>/plugins" and "<dir>/recipes" for ".tgz"
// archives and writes a checksums.txt at dir's root recording each
// archive's SHA-256, keyed by its path relative to dir. The file is
// sorted by path so repeated regeneration over an unchanged folder is
// byte-for-byte reproducible.
func WriteChecksums(dir string) error {
	lines, err := checksumLines(dir)
	if err != nil {
		return err
	}

	content := strings.Join(lines, "\n")
	if len(lines) > 0 {
		content += "\n"
	}

	path := filepath.Join(dir, ChecksumFileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return qerrors.Wrap(qerrors.CodeIO, fmt.Sprintf("write %s", path), err)
	}
	return nil
}

// VerifyChecksums recomputes the SHA-256 of every archive under dir and
// compares it against the recorded checksums.txt, returning CodeDigestMismatch
// naming the first archive whose contents no longer match.
func VerifyChecksums(dir string) error {
	recorded, err := readChecksumFile(filepath.Join(dir, ChecksumFileName))
	if err != nil {
		return err
	}

	current, err := checksumLines(dir)
	if err != nil {
		return err
	}
	currentByPath := map[string]string{}
	for _, line := range current {
		sum, path, ok := splitChecksumLine(line)
		if ok {
			currentByPath[path] = sum
		}
	}

	for path, wantSum := range recorded {
		gotSum, ok := currentByPath[path]
		if !ok {
			return qerrors.New(qerrors.CodeDigestMismatch, fmt.Sprintf("%s missing from repository", path))
		}
		if gotSum != wantSum {
			return qerrors.New(qerrors.CodeDigestMismatch, fmt.Sprintf("%s checksum mismatch", path))
		}
	}
	return nil
}

func checksumLines(dir string) ([]string, error) {
	var paths []string
	for _, sub := range subfolder {
		dirPath := filepath.Join(dir, sub)
		entries, err := os.ReadDir(dirPath)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, qerrors.Wrap(qerrors.CodeIO, fmt.Sprintf("scan %s", dirPath), err)
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".tgz") {
				continue
			}
			paths = append(paths, filepath.ToSlash(filepath.Join(sub, entry.Name())))
		}
	}
	sort.Strings(paths)

	lines := make([]string, 0, len(paths))
	for _, rel := range paths {
		data, err := os.ReadFile(filepath.Join(dir, rel))
		if err != nil {
			return nil, qerrors.Wrap(qerrors.CodeIO, fmt.Sprintf("read %s", rel), err)
		}
		sum := sha256.Sum256(data)
		lines = append(lines, fmt.Sprintf("%s  %s", hex.EncodeToString(sum[:]), rel))
	}
	return lines, nil
}

func readChecksumFile(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, qerrors.New(qerrors.CodePackageNotFound, fmt.Sprintf("no %s in repository", ChecksumFileName))
		}
		return nil, qerrors.Wrap(qerrors.CodeIO, fmt.Sprintf("read %s", path), err)
	}
	defer f.Close()

	recorded := map[string]string{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		sum, rel, ok := splitChecksumLine(scanner.Text())
		if ok {
			recorded[rel] = sum
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, qerrors.Wrap(qerrors.CodeIO, fmt.Sprintf("scan %s", path), err)
	}
	return recorded, nil
}

func splitChecksumLine(line string) (sum, path string, ok bool) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return "", "", false
	}
	return fields[0], fields[1], true
}
