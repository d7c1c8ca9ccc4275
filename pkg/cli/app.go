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
	"os"
	"os/signal"
	"syscall"

	"github.com/pollination/queenbee/pkg/logging"
	"github.com/urfave/cli/v3"
)

// Version is set at build time via -ldflags and reported by both
// --version and the structured log base attributes.
var Version = "dev"

var logLevelFlag = &cli.StringFlag{
	Name:  "log-level",
	Value: "info",
	Usage: "log level: debug, info, warn, error",
}

// NewApp assembles the root "queenbee" command: global flags plus the
// plugin, recipe, repo and config command groups.
func NewApp() *cli.Command {
	return &cli.Command{
		Name:                  "queenbee",
		Usage:                 "compile, package and distribute Queenbee recipes and plugins",
		Version:               Version,
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			logLevelFlag,
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			logging.SetDefaultStructuredLoggerWithLevel("queenbee", Version, cmd.String("log-level"))
			return ctx, nil
		},
		Commands: []*cli.Command{
			pluginCmd(),
			recipeCmd(),
			repoCmd(),
			configCmd(),
		},
	}
}

// Execute runs the root command against os.Args, canceling its context on
// SIGINT/SIGTERM so in-flight fetches and server listeners shut down
// cleanly.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return NewApp().Run(ctx, os.Args)
}
