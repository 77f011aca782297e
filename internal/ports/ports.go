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

// Package ports allocates ephemeral TCP ports on the loopback interface.
//
// Ports are obtained by binding to port 0 and reading back the address the
// OS assigned. The listener is closed before the port is returned, so there
// is an inherent race: another process may claim the port before the daemon
// binds it. Callers are expected to handle that by retrying the spawn.
package ports

import (
	"fmt"
	"net"
)

// Allocate returns a free TCP port on 127.0.0.1.
func Allocate() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, fmt.Errorf("failed to allocate port: %w", err)
	}
	port := l.Addr().(*net.TCPAddr).Port
	if err := l.Close(); err != nil {
		return 0, fmt.Errorf("failed to release port %d: %w", port, err)
	}
	return port, nil
}

// Batch returns n distinct free TCP ports on 127.0.0.1.
// All listeners are held open until every port has been assigned, so the
// ports within one batch are guaranteed to differ from each other.
func Batch(n int) ([]int, error) {
	listeners := make([]net.Listener, 0, n)
	defer func() {
		for _, l := range listeners {
			l.Close()
		}
	}()

	result := make([]int, 0, n)
	for i := 0; i < n; i++ {
		l, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return nil, fmt.Errorf("failed to allocate port %d of %d: %w", i+1, n, err)
		}
		listeners = append(listeners, l)
		result = append(result, l.Addr().(*net.TCPAddr).Port)
	}
	return result, nil
}
