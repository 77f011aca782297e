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
	"errors"
	"fmt"
	"os"
)

var (
	// ErrBothDirsSpecified is returned when a configuration requests both a
	// temporary and a persistent work directory.
	ErrBothDirsSpecified = errors.New("TmpDir and StaticDir cannot both be set")

	// ErrRPCUserAndPassword is returned when user arguments contain -rpcuser
	// or -rpcpassword. These flags are deprecated upstream and conflict with
	// the cookie-file authentication the harness relies on; use -rpcauth
	// instead, which works alongside cookie auth.
	ErrRPCUserAndPassword = errors.New("-rpcuser and -rpcpassword cannot be used, use -rpcauth instead")

	// ErrReservedArg is returned when user arguments contain a flag the
	// harness injects itself (port, rpcport, connect, datadir, listen).
	ErrReservedArg = errors.New("argument is managed by the harness")

	// ErrNoVersionConfigured is returned by DownloadedExePath when no
	// downloaded node version is selected via BITCOIND_VERSION.
	ErrNoVersionConfigured = errors.New("BITCOIND_VERSION is not set")

	// ErrNoBitcoindExecutableFound is returned when no executable source
	// resolves: no BITCOIND_EXE, no downloaded binary, no bitcoind in PATH.
	ErrNoBitcoindExecutableFound = errors.New("bitcoind executable not found: set BITCOIND_EXE, select a downloaded version with BITCOIND_VERSION, or add bitcoind to PATH")

	// ErrStartupTimeout is returned when Conf.Timeout elapses before the
	// daemon answers its first RPC probe.
	ErrStartupTimeout = errors.New("daemon did not become ready before the timeout")
)

// EarlyExitError is returned when the daemon process terminates before its
// RPC interface ever answered and the spawn attempt budget is exhausted.
type EarlyExitError struct {
	// State describes how the process exited.
	State *os.ProcessState
}

func (e *EarlyExitError) Error() string {
	return fmt.Sprintf("daemon terminated early: %v", e.State)
}
