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

import "time"

// Conf holds the node configuration. Obtain one with DefaultConf and adjust
// fields before passing it to WithConf; the harness does not mutate it.
type Conf struct {
	// Args are extra bitcoind command-line tokens, each without embedded
	// whitespace, e.g. "-dbcache=300". The flags port, rpcport, connect,
	// datadir and listen are injected by the harness and cannot appear
	// here, nor can -rpcuser/-rpcpassword (see ErrRPCUserAndPassword).
	Args []string

	// ViewStdout passes the daemon's stdout through instead of
	// discarding it.
	ViewStdout bool

	// P2P selects how the node participates in peer-to-peer networking.
	// The zero value disables it.
	P2P P2P

	// Network must match the network selected in Args (without the dash);
	// it names the subdirectory where the daemon writes its cookie file.
	Network string

	// TmpDir is the base path under which a temporary work directory is
	// created. Empty means the TEMPDIR_ROOT environment variable, then the
	// OS default. Mutually exclusive with StaticDir.
	TmpDir string

	// StaticDir is a persistent work directory, created if missing and
	// never removed by the harness. Reusing it across runs resumes the
	// node's prior state.
	StaticDir string

	// Attempts is how many times a spawn is retried when the daemon exits
	// before answering RPC. The allocated ports are not reserved, so
	// another process can rarely grab one first; a retry re-allocates
	// everything and makes the residual collision chance negligible.
	Attempts int

	// EnableZMQ allocates two extra ports and exposes the raw block and
	// raw transaction ZMQ publication endpoints.
	EnableZMQ bool

	// Timeout caps how long New waits for the daemon to become ready.
	// Zero waits forever, which matches the behavior of a healthy daemon
	// that is merely slow to start.
	Timeout time.Duration
}

// DefaultConf returns the configuration used by New: a regtest node with
// p2p and zmq off, suppressed stdout and three spawn attempts.
func DefaultConf() *Conf {
	return &Conf{
		Args:     []string{"-regtest", "-fallbackfee=0.0001"},
		Network:  "regtest",
		Attempts: 3,
	}
}

type p2pMode int

const (
	p2pDisabled p2pMode = iota
	p2pEnabled
	p2pConnect
)

// P2P selects the node's peer-to-peer behavior. Construct values with
// P2PDisabled, P2PEnabled or P2PConnectTo.
type P2P struct {
	mode         p2pMode
	addr         string
	allowInbound bool
}

// P2PDisabled keeps the p2p port closed; the node runs standalone.
func P2PDisabled() P2P {
	return P2P{}
}

// P2PEnabled opens a p2p port on a freshly allocated loopback port.
func P2PEnabled() P2P {
	return P2P{mode: p2pEnabled}
}

// P2PConnectTo opens a p2p port and connects out to addr, typically another
// node's P2PConnect result. allowInbound additionally accepts inbound
// connections, which a connect-only node otherwise refuses.
func P2PConnectTo(addr string, allowInbound bool) P2P {
	return P2P{mode: p2pConnect, addr: addr, allowInbound: allowInbound}
}

// Enabled reports whether the node opens a p2p port at all.
func (p P2P) Enabled() bool {
	return p.mode != p2pDisabled
}
