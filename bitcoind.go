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
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/nodeharness/bitcoind/internal/lifecycle"
	"github.com/nodeharness/bitcoind/internal/log"
	"github.com/nodeharness/bitcoind/internal/ports"
	"github.com/nodeharness/bitcoind/internal/workdir"
	"github.com/nodeharness/bitcoind/rpc"
)

// Node is a running daemon instance. It owns the child process, the work
// directory and the allocated ports; none of these are shared between
// Nodes.
type Node struct {
	// Client is an RPC client scoped to the node's default wallet, live
	// and authenticated by the time New returns.
	Client *rpc.Client

	// Params holds the information another process needs to connect to
	// this node.
	Params ConnectParams

	id     string
	logger *slog.Logger
	proc   *lifecycle.Supervisor
	work   *workdir.Dir

	shutdownOnce sync.Once
	shutdownErr  error
}

// New launches the given executable with DefaultConf and waits for it to
// become ready.
func New(exe string) (*Node, error) {
	return WithConf(exe, DefaultConf())
}

// WithConf launches the given executable with an explicit configuration
// and waits for it to become ready. The caller must arrange for Shutdown
// to run on every exit path.
func WithConf(exe string, conf *Conf) (*Node, error) {
	if conf == nil {
		conf = DefaultConf()
	}

	// Configuration errors fail before any OS resource is allocated.
	tmpBase := conf.TmpDir
	if tmpBase == "" {
		tmpBase = os.Getenv(workdir.TempBaseEnv)
	}
	if tmpBase != "" && conf.StaticDir != "" {
		return nil, ErrBothDirsSpecified
	}
	if err := validateArgs(conf.Args); err != nil {
		return nil, err
	}

	logger := log.New(log.FromEnv())

	attempts := conf.Attempts
	for {
		node, err := launch(exe, conf, logger)
		if err == nil {
			return node, nil
		}

		var early *EarlyExitError
		if errors.As(err, &early) && attempts > 0 {
			// The usual cause is another process grabbing one of our
			// unreserved ports between allocation and the daemon's bind.
			// A resume cannot fix that, so the whole sequence restarts
			// with fresh ports, a fresh argv and a fresh poll loop.
			logger.Warn("daemon exited early, relaunching with fresh ports",
				slog.String("status", early.State.String()),
				slog.Int("attempts_remaining", attempts))
			attempts--
			continue
		}
		return nil, err
	}
}

// launch performs one full spawn attempt: work directory, ports, argv,
// process, readiness. On failure every resource acquired so far is
// released.
func launch(exe string, conf *Conf, logger *slog.Logger) (_ *Node, err error) {
	id := uuid.NewString()
	logger = logger.With(slog.String(log.NodeIDKey, id))

	var work *workdir.Dir
	if conf.StaticDir != "" {
		work, err = workdir.NewPersistent(conf.StaticDir)
	} else {
		work, err = workdir.NewTemporary(conf.TmpDir)
	}
	if err != nil {
		return nil, err
	}

	var proc *lifecycle.Supervisor
	defer func() {
		if err != nil {
			if proc != nil {
				proc.Kill()
			}
			work.Cleanup()
		}
	}()

	logger.Debug("work directory ready",
		slog.String(log.WorkdirKey, work.Path()),
		slog.Bool("temporary", work.Temporary()))

	rpcPort, err := ports.Allocate()
	if err != nil {
		return nil, err
	}

	params := ConnectParams{
		CookieFile: filepath.Join(work.Path(), conf.Network, ".cookie"),
		RPCAddr:    fmt.Sprintf("127.0.0.1:%d", rpcPort),
	}
	res := resolved{dataDir: work.Path(), rpcPort: rpcPort}

	if conf.P2P.Enabled() {
		p2pPort, err := ports.Allocate()
		if err != nil {
			return nil, err
		}
		res.p2pPort = p2pPort
		params.P2PAddr = fmt.Sprintf("127.0.0.1:%d", p2pPort)
	}

	if conf.EnableZMQ {
		zmqPorts, err := ports.Batch(2)
		if err != nil {
			return nil, err
		}
		res.zmqTxPort, res.zmqBlockPort = zmqPorts[0], zmqPorts[1]
		params.ZMQPubRawTxAddr = fmt.Sprintf("127.0.0.1:%d", zmqPorts[0])
		params.ZMQPubRawBlockAddr = fmt.Sprintf("127.0.0.1:%d", zmqPorts[1])
	}

	argv, err := buildArgs(conf, res)
	if err != nil {
		return nil, err
	}

	logger.Debug("launching daemon", slog.String("exe", exe), slog.Any("args", argv))
	proc, err = lifecycle.Spawn(exe, argv, conf.ViewStdout)
	if err != nil {
		return nil, err
	}
	logger = logger.With(slog.Int(log.PIDKey, proc.PID()))

	client, err := waitForReady(proc, params, conf.Timeout, logger)
	if err != nil {
		return nil, err
	}

	logger.Debug("daemon ready", slog.String("rpc_addr", params.RPCAddr))
	return &Node{
		Client: client,
		Params: params,
		id:     id,
		logger: logger,
		proc:   proc,
		work:   work,
	}, nil
}

// ID returns the harness-assigned identifier for this node, carried in
// every log line the node emits.
func (n *Node) ID() string {
	return n.id
}

// RPCURL returns the node RPC URL including the scheme,
// e.g. http://127.0.0.1:39716.
func (n *Node) RPCURL() string {
	return "http://" + n.Params.RPCAddr
}

// RPCURLWithWallet returns the RPC URL of the named wallet's endpoint,
// e.g. http://127.0.0.1:39716/wallet/mine.
func (n *Node) RPCURLWithWallet(name string) string {
	return n.RPCURL() + "/wallet/" + name
}

// Workdir returns the node's data directory path.
func (n *Node) Workdir() string {
	return n.work.Path()
}

// PID returns the daemon's OS process id.
func (n *Node) PID() int {
	return n.proc.PID()
}

// P2PConnect returns a P2P configuration that makes another node connect
// to this one. It reports false when this node has p2p disabled.
func (n *Node) P2PConnect(allowInbound bool) (P2P, bool) {
	if n.Params.P2PAddr == "" {
		return P2P{}, false
	}
	return P2PConnectTo(n.Params.P2PAddr, allowInbound), true
}

// CreateWallet creates a wallet on the node and returns a client scoped to
// it.
func (n *Node) CreateWallet(ctx context.Context, name string) (*rpc.Client, error) {
	if err := n.Client.CreateWallet(ctx, name); err != nil {
		return nil, err
	}
	base, err := rpc.New(n.RPCURL(), rpc.WithCookieFile(n.Params.CookieFile))
	if err != nil {
		return nil, err
	}
	return base.ForWallet(name), nil
}

// Stop shuts the node down gracefully via RPC and waits for the process to
// exit, returning its final state. Stop is single-shot: a second call
// targets an already-stopped RPC server and fails.
func (n *Node) Stop() (*os.ProcessState, error) {
	if err := n.Client.Stop(context.Background()); err != nil {
		return nil, err
	}
	state, err := n.proc.Wait()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// The state carries the exit status; a non-zero code during a
		// requested shutdown is not an error for the caller.
		return state, nil
	}
	return state, err
}

// Shutdown tears the node down. For a persistent work directory a graceful
// stop is attempted first, its result ignored, so the on-disk state stays
// reusable; the process is then unconditionally killed. For a temporary
// directory the data is discarded anyway, so the process is killed outright
// and the directory removed. Shutdown is idempotent and must run on every
// exit path, typically via defer or RegisterCleanup.
func (n *Node) Shutdown() error {
	n.shutdownOnce.Do(func() {
		if !n.work.Temporary() {
			if _, err := n.Stop(); err != nil {
				n.logger.Debug("graceful stop during teardown failed", log.Error(err))
			}
		}
		if err := n.proc.Kill(); err != nil {
			n.shutdownErr = err
			return
		}
		n.shutdownErr = n.work.Cleanup()
	})
	return n.shutdownErr
}

// cleaner is the subset of testing.TB needed to register teardown.
type cleaner interface {
	Cleanup(func())
}

// RegisterCleanup arranges for Shutdown to run when the test finishes,
// including on failures and panics inside the test body.
func (n *Node) RegisterCleanup(t cleaner) {
	t.Cleanup(func() {
		n.Shutdown()
	})
}
