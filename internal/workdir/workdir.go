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

// Package workdir manages the data directory handed to the daemon.
//
// A directory is either temporary (created by this package, removed at
// teardown) or persistent (created if missing, never removed). Exactly one
// of the two modes is active for any Dir.
package workdir

import (
	"fmt"
	"os"
)

// TempBaseEnv overrides the base directory for temporary work directories.
// Pointing it at a ramdisk makes node startup noticeably faster.
const TempBaseEnv = "TEMPDIR_ROOT"

// Dir is a daemon data directory.
type Dir struct {
	path      string
	temporary bool
}

// NewTemporary creates a fresh temporary directory under base.
// An empty base falls back to the TEMPDIR_ROOT environment variable, then
// to the OS default temp location.
func NewTemporary(base string) (*Dir, error) {
	if base == "" {
		base = os.Getenv(TempBaseEnv)
	}
	path, err := os.MkdirTemp(base, "bitcoind-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary work directory: %w", err)
	}
	return &Dir{path: path, temporary: true}, nil
}

// NewPersistent uses path as the data directory, creating it if needed.
// The directory is owned by the caller and survives Cleanup.
func NewPersistent(path string) (*Dir, error) {
	if err := os.MkdirAll(path, 0700); err != nil {
		return nil, fmt.Errorf("failed to create work directory %s: %w", path, err)
	}
	return &Dir{path: path}, nil
}

// Path returns the directory path.
func (d *Dir) Path() string {
	return d.path
}

// Temporary reports whether the directory is removed at teardown.
func (d *Dir) Temporary() bool {
	return d.temporary
}

// Cleanup removes the directory if it is temporary. Persistent directories
// are left untouched. Safe to call more than once.
func (d *Dir) Cleanup() error {
	if !d.temporary {
		return nil
	}
	if err := os.RemoveAll(d.path); err != nil {
		return fmt.Errorf("failed to remove work directory %s: %w", d.path, err)
	}
	return nil
}
