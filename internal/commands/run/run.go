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

// Package run implements the `nodeharness run` command.
package run

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/nodeharness/bitcoind"
	"github.com/nodeharness/bitcoind/internal/config"
)

type runOptions struct {
	profilePath string
	exe         string
	dir         string
	p2p         bool
	zmq         bool
	showOutput  bool
}

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Launch a regtest node and wait",
		Long: `Launch a bitcoind regtest node, print its connection parameters and keep
it running until interrupted. On SIGINT/SIGTERM the node is torn down and
its temporary data directory removed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNode(cmd, opts)
		},
	}

	addFlags(cmd.Flags(), opts)
	return cmd
}

func addFlags(flags *pflag.FlagSet, opts *runOptions) {
	flags.StringVarP(&opts.profilePath, "conf", "c", "", "node profile YAML file")
	flags.StringVar(&opts.exe, "exe", "", "daemon executable (default: standard resolution order)")
	flags.StringVar(&opts.dir, "dir", "", "persistent data directory (default: temporary)")
	flags.BoolVar(&opts.p2p, "p2p", false, "open a p2p port")
	flags.BoolVar(&opts.zmq, "zmq", false, "expose ZMQ publication endpoints")
	flags.BoolVar(&opts.showOutput, "show-output", false, "pass the daemon's stdout through")
}

func runNode(cmd *cobra.Command, opts *runOptions) error {
	profile := &config.Profile{}
	if opts.profilePath != "" {
		loaded, err := config.Load(opts.profilePath)
		if err != nil {
			return err
		}
		profile = loaded
	}

	conf, err := profile.Conf()
	if err != nil {
		return err
	}

	// Flags override the profile.
	if opts.dir != "" {
		conf.StaticDir = opts.dir
	}
	if opts.p2p {
		conf.P2P = bitcoind.P2PEnabled()
	}
	if opts.zmq {
		conf.EnableZMQ = true
	}
	if opts.showOutput {
		conf.ViewStdout = true
	}

	exe := opts.exe
	if exe == "" {
		exe = profile.Exe
	}
	if exe == "" {
		exe, err = bitcoind.ExePath()
		if err != nil {
			return err
		}
	}

	node, err := bitcoind.WithConf(exe, conf)
	if err != nil {
		return fmt.Errorf("failed to launch node: %w", err)
	}
	defer node.Shutdown()

	printParams(cmd, node)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	cmd.Printf("\nreceived %s, shutting down\n", sig)

	return node.Shutdown()
}

func printParams(cmd *cobra.Command, node *bitcoind.Node) {
	label := func(s string) string { return s }
	if term.IsTerminal(int(os.Stdout.Fd())) {
		style := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
		label = func(s string) string { return style.Render(s) }
	}

	cmd.Printf("%s %d\n", label("pid:"), node.PID())
	cmd.Printf("%s %s\n", label("rpc:"), node.RPCURL())
	cmd.Printf("%s %s\n", label("cookie:"), node.Params.CookieFile)
	cmd.Printf("%s %s\n", label("workdir:"), node.Workdir())
	if node.Params.P2PAddr != "" {
		cmd.Printf("%s %s\n", label("p2p:"), node.Params.P2PAddr)
	}
	if node.Params.ZMQPubRawTxAddr != "" {
		cmd.Printf("%s %s\n", label("zmq rawtx:"), node.Params.ZMQPubRawTxAddr)
		cmd.Printf("%s %s\n", label("zmq rawblock:"), node.Params.ZMQPubRawBlockAddr)
	}
}
