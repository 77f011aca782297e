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
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nodeharness/bitcoind/internal/lifecycle"
	"github.com/nodeharness/bitcoind/internal/log"
	"github.com/nodeharness/bitcoind/rpc"
)

const (
	// pollInterval is the pause between readiness probes. The daemon
	// writes its cookie file and opens its sockets at unspecified times
	// after spawn, so polling is the only readiness mechanism available.
	pollInterval = 100 * time.Millisecond

	// defaultWallet is the wallet ensured before a Node is handed to the
	// caller.
	defaultWallet = "default"
)

// waitForReady polls until the daemon answers RPC, then performs the
// one-time default-wallet bootstrap and returns a client scoped to that
// wallet.
//
// The probe is version-agnostic: only the success of the call matters, the
// payload is never decoded, so the harness works across daemon versions
// with incompatible response schemas.
func waitForReady(proc *lifecycle.Supervisor, params ConnectParams, timeout time.Duration, logger *slog.Logger) (*rpc.Client, error) {
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	url := "http://" + params.RPCAddr

	for attempt := 1; ; attempt++ {
		// An exited daemon will never answer; report it so the caller can
		// decide whether the attempt budget allows a fresh spawn.
		if state, exited := proc.ExitState(); exited {
			return nil, &EarlyExitError{State: state}
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			return nil, fmt.Errorf("%w (%s)", ErrStartupTimeout, timeout)
		}

		time.Sleep(pollInterval)

		// Client construction fails while the cookie file is missing;
		// that just means the daemon has not finished starting.
		client, err := rpc.New(url, rpc.WithCookieFile(params.CookieFile))
		if err != nil {
			logger.Debug("daemon not ready", slog.Int(log.AttemptKey, attempt), log.Error(err))
			continue
		}

		ctx := context.Background()
		if _, err := client.Call(ctx, "getblockchaininfo"); err != nil {
			logger.Debug("daemon not ready", slog.Int(log.AttemptKey, attempt), log.Error(err))
			continue
		}

		// Create the default wallet; when it already exists (persistent
		// directory from a prior run) load it instead. A load failure at
		// this point is a real error, not a readiness condition.
		if err := client.CreateWallet(ctx, defaultWallet); err != nil {
			if err := client.LoadWallet(ctx, defaultWallet); err != nil {
				return nil, fmt.Errorf("failed to load %q wallet: %w", defaultWallet, err)
			}
		}

		return client.ForWallet(defaultWallet), nil
	}
}
