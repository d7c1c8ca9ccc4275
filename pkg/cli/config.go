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
	"log/slog"

	"github.com/pollination/queenbee/pkg/config"
	"github.com/urfave/cli/v3"
)

func configCmd() *cli.Command {
	return &cli.Command{
		Name:                  "config",
		EnableShellCompletion: true,
		Usage:                 "inspect and edit the local queenbee config file",
		Commands: []*cli.Command{
			configViewCmd(),
			configAuthCmd(),
		},
	}
}

func configViewCmd() *cli.Command {
	return &cli.Command{
		Name:  "view",
		Usage: "print the resolved config file",
		Flags: []cli.Flag{outputFlag, formatFlag, configFlag},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return reportCLIError(err)
			}
			return renderResult(ctx, cmd, cfg)
		},
	}
}

func configAuthCmd() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "manage per-domain authentication entries",
		Commands: []*cli.Command{
			configAuthAddCmd(),
			configAuthRemoveCmd(),
		},
	}
}

func configAuthAddCmd() *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "add or replace the authentication entry for a domain",
		ArgsUsage: "<domain>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "access-token", Usage: "bearer access token sent as \"Authorization: Bearer <token>\""},
			&cli.StringFlag{Name: "api-token", Usage: "opaque API token sent verbatim under --header-name"},
			&cli.StringFlag{Name: "header-name", Usage: "header name for --api-token (default \"Authorization\")"},
			configFlag,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			domain, err := requireArg(cmd, 0, "domain")
			if err != nil {
				return err
			}
			accessToken := cmd.String("access-token")
			apiToken := cmd.String("api-token")
			if accessToken == "" && apiToken == "" {
				return fmt.Errorf("one of --access-token or --api-token is required")
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return reportCLIError(err)
			}

			entry := config.Auth{
				Domain:      domain,
				AccessToken: accessToken,
				APIToken:    apiToken,
				HeaderName:  cmd.String("header-name"),
			}
			replaced := false
			for i := range cfg.Auth {
				if cfg.Auth[i].Domain == domain {
					cfg.Auth[i] = entry
					replaced = true
					break
				}
			}
			if !replaced {
				cfg.Auth = append(cfg.Auth, entry)
			}

			if err := cfg.Write(); err != nil {
				return reportCLIError(err)
			}

			slog.Info("updated auth entry", "domain", domain)
			fmt.Fprintf(cmd.Writer, "updated auth entry for %s\n", domain)
			return nil
		},
	}
}

func configAuthRemoveCmd() *cli.Command {
	return &cli.Command{
		Name:      "remove",
		Usage:     "remove the authentication entry for a domain",
		ArgsUsage: "<domain>",
		Flags:     []cli.Flag{configFlag},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			domain, err := requireArg(cmd, 0, "domain")
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return reportCLIError(err)
			}

			kept := cfg.Auth[:0]
			found := false
			for _, entry := range cfg.Auth {
				if entry.Domain == domain {
					found = true
					continue
				}
				kept = append(kept, entry)
			}
			if !found {
				return fmt.Errorf("no auth entry for domain %q", domain)
			}
			cfg.Auth = kept

			if err := cfg.Write(); err != nil {
				return reportCLIError(err)
			}

			slog.Info("removed auth entry", "domain", domain)
			fmt.Fprintf(cmd.Writer, "removed auth entry for %s\n", domain)
			return nil
		},
	}
}
