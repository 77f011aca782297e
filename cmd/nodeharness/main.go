// Copyright 2025 Tom Barlow
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

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nodeharness/bitcoind/internal/commands/run"
	versioncmd "github.com/nodeharness/bitcoind/internal/commands/version"
)

// Version information (injected via ldflags at build time)
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	root := &cobra.Command{
		Use:   "nodeharness",
		Short: "Launch and supervise bitcoind regtest nodes",
		Long: `nodeharness launches bitcoind regtest nodes with isolated data
directories and freshly allocated ports, waits until their RPC interface
answers and tears them down cleanly.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(run.NewRunCommand())
	root.AddCommand(versioncmd.NewVersionCommand(version, commit, buildDate))

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
