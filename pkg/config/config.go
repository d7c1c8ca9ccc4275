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

package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	qerrors "github.com/pollination/queenbee/pkg/errors"
	"github.com/pollination/queenbee/pkg/serializer"
)

// DefaultFileName is the config file name under the queenbee home
// directory.
const DefaultFileName = "config.yaml"

// DefaultDirName is the directory under the user's home directory that
// holds the config file.
const DefaultDirName = ".queenbee"

// Auth is a single authentication entry, matched against a manifest
// source's domain by C7 before an HTTP(S) fetch.
type Auth struct {
	Domain      string `json:"domain" yaml:"domain"`
	AccessToken string `json:"access_token,omitempty" yaml:"access_token,omitempty"`
	APIToken    string `json:"api_token,omitempty" yaml:"api_token,omitempty"`
	HeaderName  string `json:"header_name,omitempty" yaml:"header_name,omitempty"`
}

// Repository is a named, locally registered repository location.
type Repository struct {
	Name string `json:"name" yaml:"name"`
	Path string `json:"path" yaml:"path"`
}

// Config is the full contents of the local queenbee config file.
type Config struct {
	Auth         []Auth       `json:"auth,omitempty" yaml:"auth,omitempty"`
	Repositories []Repository `json:"repositories,omitempty" yaml:"repositories,omitempty"`

	// path is the file this Config was loaded from, or will be written to;
	// empty for a Config built programmatically with New.
	path string
}

// DefaultPath returns "<home>/.queenbee/config.yaml" for the current user.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", qerrors.Wrap(qerrors.CodeIO, "resolve user home directory", err)
	}
	return filepath.Join(home, DefaultDirName, DefaultFileName), nil
}

// New returns an empty Config bound to path, for callers building one from
// scratch (e.g. a first "repo add" with no existing file).
func New(path string) *Config {
	return &Config{path: path}
}

// Load reads and parses the config file at path. A missing file is not an
// error: it returns an empty Config bound to path, so a first write creates
// it.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return New(path), nil
	} else if err != nil {
		return nil, qerrors.Wrap(qerrors.CodeIO, fmt.Sprintf("stat %s", path), err)
	}

	cfg, err := serializer.FromFile[Config](path)
	if err != nil {
		return nil, qerrors.Wrap(qerrors.CodeParse, fmt.Sprintf("parse config %s", path), err)
	}
	cfg.path = path
	return cfg, nil
}

// LoadDefault loads the config file at DefaultPath.
func LoadDefault() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return Load(path)
}

// RepositoryByName returns the named repository, or false if none is
// registered under that name.
func (c *Config) RepositoryByName(name string) (Repository, bool) {
	for _, r := range c.Repositories {
		if r.Name == name {
			return r, true
		}
	}
	return Repository{}, false
}

// SetRepository inserts or replaces the repository entry matching name.
func (c *Config) SetRepository(repo Repository) {
	for i, r := range c.Repositories {
		if r.Name == repo.Name {
			c.Repositories[i] = repo
			return
		}
	}
	c.Repositories = append(c.Repositories, repo)
}

// RemoveRepository deletes the repository entry matching name, reporting
// whether one was found.
func (c *Config) RemoveRepository(name string) bool {
	for i, r := range c.Repositories {
		if r.Name == name {
			c.Repositories = append(c.Repositories[:i], c.Repositories[i+1:]...)
			return true
		}
	}
	return false
}

// AuthHeaderFor resolves the HTTP header C7 should send for a request to
// domain: the header name (default "Authorization") and its value, built
// from whichever of AccessToken/APIToken is set (access_token takes
// precedence, "Bearer "-prefixed unless a custom header_name is given).
// ok is false if no auth entry matches domain or the entry has no token.
func (c *Config) AuthHeaderFor(domain string) (name, value string, ok bool) {
	for _, a := range c.Auth {
		if a.Domain != domain {
			continue
		}
		switch {
		case a.AccessToken != "":
			if a.HeaderName != "" {
				return a.HeaderName, a.AccessToken, true
			}
			return "Authorization", "Bearer " + a.AccessToken, true
		case a.APIToken != "":
			if a.HeaderName != "" {
				return a.HeaderName, a.APIToken, true
			}
			return "Authorization", "Bearer " + a.APIToken, true
		default:
			return "", "", false
		}
	}
	return "", "", false
}

// Write persists the config to its bound path, replacing any existing
// file atomically: the new content is written to a temp file in the same
// directory and renamed over the target, so a crash mid-write never
// leaves a truncated config behind.
func (c *Config) Write() error {
	if c.path == "" {
		return qerrors.New(qerrors.CodeInvalidArgument, "config has no bound path to write to")
	}
	return writeAtomic(c.path, c)
}

func writeAtomic(path string, v any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return qerrors.Wrap(qerrors.CodeIO, fmt.Sprintf("create config directory %s", dir), err)
	}

	tmp, err := os.CreateTemp(dir, ".config-*.yaml")
	if err != nil {
		return qerrors.Wrap(qerrors.CodeIO, "create temp config file", err)
	}
	tmpPath := tmp.Name()
	removeTmp := true
	defer func() {
		if removeTmp {
			os.Remove(tmpPath)
		}
	}()

	w := serializer.NewWriter(serializer.FormatYAML, tmp)
	writeErr := w.Serialize(context.Background(), v)
	closeErr := tmp.Close()
	if writeErr != nil {
		return qerrors.Wrap(qerrors.CodeIO, fmt.Sprintf("serialize config to %s", tmpPath), writeErr)
	}
	if closeErr != nil {
		return qerrors.Wrap(qerrors.CodeIO, fmt.Sprintf("close temp config file %s", tmpPath), closeErr)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return qerrors.Wrap(qerrors.CodeIO, fmt.Sprintf("rename %s to %s", tmpPath, path), err)
	}
	removeTmp = false
	return nil
}
