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

// Package bitcoind launches and supervises bitcoind regtest nodes for
// integration tests.
//
// A Node owns one daemon process, its data directory, and the loopback
// ports it listens on. New blocks until the node's RPC interface answers
// and a default wallet is ready, so the returned handle is immediately
// usable:
//
//	exe, err := bitcoind.ExePath()
//	if err != nil {
//		// no bitcoind available
//	}
//	node, err := bitcoind.New(exe)
//	if err != nil {
//		// ...
//	}
//	defer node.Shutdown()
//
//	raw, err := node.Client.Call(ctx, "getblockchaininfo")
//
// Shutdown must run on every exit path; in tests, node.RegisterCleanup(t)
// wires it to t.Cleanup. Nodes can be chained into a p2p network by feeding
// one node's P2PConnect result into another node's Conf.
package bitcoind
