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
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/pollination/queenbee/pkg/config"
	qerrors "github.com/pollination/queenbee/pkg/errors"
	"github.com/pollination/queenbee/pkg/serializer"
	"github.com/pollination/queenbee/pkg/transport"
	"github.com/urfave/cli/v3"

	"gopkg.in/yaml.v3"
)

// loadConfig reads the config file named by the "config" flag, or the
// default path when unset.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	path := cmd.String("config")
	if path != "" {
		return config.Load(path)
	}
	return config.LoadDefault()
}

// renderResult writes v to the "output" flag's destination in the
// "format" flag's serialization.
func renderResult(ctx context.Context, cmd *cli.Command, v any) error {
	f, err := parseOutputFormat(cmd)
	if err != nil {
		return err
	}
	w, err := serializer.NewFileWriterOrStdout(f, cmd.String("output"))
	if err != nil {
		return err
	}
	if closer, ok := w.(serializer.Closer); ok {
		defer closer.Close()
	}
	return w.Serialize(ctx, v)
}

// authHeaderForSource resolves the Authorization header (if any) cfg
// carries for uri's domain. A non-HTTP(S) uri (a local path or file:/oci:
// URI) has no domain and so never carries auth.
func authHeaderForSource(cfg *config.Config, uri string) string {
	u, err := url.Parse(uri)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return ""
	}
	_, value, ok := cfg.AuthHeaderFor(u.Host)
	if !ok {
		return ""
	}
	return value
}

// newFetcher returns a transport.Fetcher with default settings, shared by
// every command that resolves remote dependencies or repositories.
func newFetcher() *transport.Fetcher {
	return transport.New()
}

// reportCLIError formats err for a terminal: a *qerrors.StructuredError
// prints its code and message without a Go stack, anything else prints
// verbatim.
func reportCLIError(err error) error {
	if se, ok := qerrors.AsStructuredError(err); ok {
		return fmt.Errorf("%s: %s", se.Code, se.Message)
	}
	return err
}

// writeYAMLFile marshals v as YAML to path, creating parent directories
// as needed. Used by the scaffolding commands ("plugin new", "recipe
// new") to lay out a folder LoadPluginFolder/LoadRecipeFolder can read
// back.
func writeYAMLFile(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return qerrors.Wrap(qerrors.CodeIO, fmt.Sprintf("create directory for %s", path), err)
	}
	data, err := yaml.Marshal(v)
	if err != nil {
		return qerrors.Wrap(qerrors.CodeInternal, fmt.Sprintf("encode %s", path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return qerrors.Wrap(qerrors.CodeIO, fmt.Sprintf("write %s", path), err)
	}
	return nil
}

// requireArg returns args[i], or an error naming what was expected.
func requireArg(cmd *cli.Command, i int, name string) (string, error) {
	if cmd.Args().Len() <= i {
		return "", fmt.Errorf("missing required argument: %s", name)
	}
	return cmd.Args().Get(i), nil
}
