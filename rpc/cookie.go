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

package rpc

import (
	"fmt"
	"os"
	"strings"
)

// Cookie holds the credentials the daemon writes to its cookie file.
type Cookie struct {
	User     string
	Password string
}

// ParseCookie parses a `user:password` line as written by the daemon.
// Only the first colon separates the fields; the password may contain
// further colons.
func ParseCookie(content string) (Cookie, error) {
	user, password, found := strings.Cut(strings.TrimSpace(content), ":")
	if !found {
		return Cookie{}, fmt.Errorf("malformed cookie: missing ':' separator")
	}
	return Cookie{User: user, Password: password}, nil
}

// ReadCookie reads and parses the cookie file at path.
// The daemon writes the file asynchronously after startup and rewrites it
// on restart, so callers must read it fresh rather than cache it.
func ReadCookie(path string) (Cookie, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Cookie{}, fmt.Errorf("failed to read cookie file: %w", err)
	}
	return ParseCookie(string(content))
}
