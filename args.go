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

package bitcoind

import (
	"fmt"
	"strings"
)

// deprecatedAuthArgs are rejected by prefix: the daemon is phasing these
// out and they conflict with cookie authentication.
var deprecatedAuthArgs = []string{"-rpcuser", "-rpcpassword"}

// reservedArgs are flags the harness injects itself.
var reservedArgs = []string{"-port", "-rpcport", "-connect", "-datadir", "-listen"}

// validateArgs rejects user argument tokens the harness cannot accept.
func validateArgs(args []string) error {
	for _, arg := range args {
		for _, prefix := range deprecatedAuthArgs {
			if strings.HasPrefix(arg, prefix) {
				return fmt.Errorf("%w (got %q)", ErrRPCUserAndPassword, arg)
			}
		}
		for _, flag := range reservedArgs {
			// Exact or -flag=value form only: -listenonion etc. stay legal.
			if arg == flag || strings.HasPrefix(arg, flag+"=") {
				return fmt.Errorf("%w: %q", ErrReservedArg, arg)
			}
		}
	}
	return nil
}

// resolved carries the concrete resource bindings an argv is built from.
type resolved struct {
	dataDir      string
	rpcPort      int
	p2pPort      int
	zmqTxPort    int
	zmqBlockPort int
}

// buildArgs composes the daemon argv from user tokens plus the mandatory
// overrides. Mandatory tokens come after user tokens: the daemon applies
// last-token-wins per flag, so a user token can never shadow a binding the
// harness depends on.
func buildArgs(conf *Conf, r resolved) ([]string, error) {
	if err := validateArgs(conf.Args); err != nil {
		return nil, err
	}

	argv := make([]string, 0, len(conf.Args)+8)
	argv = append(argv, conf.Args...)
	argv = append(argv,
		"-datadir="+r.dataDir,
		fmt.Sprintf("-rpcport=%d", r.rpcPort),
	)

	switch conf.P2P.mode {
	case p2pDisabled:
		argv = append(argv, "-listen=0")
	case p2pEnabled:
		argv = append(argv, fmt.Sprintf("-port=%d", r.p2pPort))
	case p2pConnect:
		argv = append(argv,
			fmt.Sprintf("-port=%d", r.p2pPort),
			"-connect="+conf.P2P.addr,
		)
		if conf.P2P.allowInbound {
			// -connect alone implies -listen=0; re-enable it explicitly.
			argv = append(argv, "-listen=1")
		}
	}

	if conf.EnableZMQ {
		argv = append(argv,
			fmt.Sprintf("-zmqpubrawtx=tcp://0.0.0.0:%d", r.zmqTxPort),
			fmt.Sprintf("-zmqpubrawblock=tcp://0.0.0.0:%d", r.zmqBlockPort),
		)
	}

	return argv, nil
}
