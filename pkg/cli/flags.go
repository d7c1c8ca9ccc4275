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
	"fmt"

	"github.com/pollination/queenbee/pkg/serializer"
	"github.com/urfave/cli/v3"
)

// outputFlag names the file a command's result is written to; empty means
// stdout.
var outputFlag = &cli.StringFlag{
	Name:    "output",
	Aliases: []string{"o"},
	Usage:   "write result to this file instead of stdout",
}

// formatFlag selects the serialization format of a command's result.
var formatFlag = &cli.StringFlag{
	Name:    "format",
	Aliases: []string{"f"},
	Value:   string(serializer.FormatTable),
	Usage:   fmt.Sprintf("output format: %v", serializer.SupportedFormats()),
}

// configFlag overrides the local config file path; empty means
// config.DefaultPath().
var configFlag = &cli.StringFlag{
	Name:  "config",
	Usage: "path to the queenbee config file (default ~/.queenbee/config.yaml)",
}

// parseOutputFormat extracts and validates the "format" flag.
func parseOutputFormat(cmd *cli.Command) (serializer.Format, error) {
	f := serializer.Format(cmd.String("format"))
	if f.IsUnknown() {
		return "", fmt.Errorf("unknown output format %q, valid formats are: %v", f, serializer.SupportedFormats())
	}
	return f, nil
}
