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

import "github.com/nodeharness/bitcoind/rpc"

// ConnectParams holds everything another process needs to connect to a
// node. It is immutable once the Node is constructed.
type ConnectParams struct {
	// CookieFile is the path of the authentication cookie the daemon
	// writes at startup. The daemon writes it asynchronously, so read it
	// through CookieValues rather than caching its content.
	CookieFile string

	// RPCAddr is the loopback address of the control RPC interface,
	// e.g. "127.0.0.1:39716".
	RPCAddr string

	// P2PAddr is the loopback address of the p2p port. Empty when p2p is
	// disabled.
	P2PAddr string

	// ZMQPubRawTxAddr is the raw transaction ZMQ publication endpoint.
	// Empty unless Conf.EnableZMQ was set.
	ZMQPubRawTxAddr string

	// ZMQPubRawBlockAddr is the raw block ZMQ publication endpoint.
	// Empty unless Conf.EnableZMQ was set.
	ZMQPubRawBlockAddr string
}

// CookieValues reads the cookie file fresh and returns the credential pair
// it contains.
func (p ConnectParams) CookieValues() (rpc.Cookie, error) {
	return rpc.ReadCookie(p.CookieFile)
}
