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
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// Environment variables consumed when resolving the daemon executable.
const (
	// ExeEnv overrides the daemon executable path outright.
	ExeEnv = "BITCOIND_EXE"

	// VersionEnv selects which downloaded node version DownloadedExePath
	// looks for, e.g. "27.1".
	VersionEnv = "BITCOIND_VERSION"
)

// downloadCacheDir is the directory the download tooling populates,
// relative to the user cache dir.
const downloadCacheDir = "nodeharness"

// ExePath resolves the bitcoind executable with the following precedence:
//
//  1. the BITCOIND_EXE environment variable
//  2. a binary downloaded by the fetch tooling (see DownloadedExePath)
//  3. a bitcoind found in PATH
//
// It returns ErrNoBitcoindExecutableFound when none resolve.
func ExePath() (string, error) {
	if path := os.Getenv(ExeEnv); path != "" {
		return path, nil
	}
	if path, err := DownloadedExePath(); err == nil {
		return path, nil
	}
	if path, err := exec.LookPath("bitcoind"); err == nil {
		return path, nil
	}
	return "", ErrNoBitcoindExecutableFound
}

// DownloadedExePath returns the path of the node binary the fetch tooling
// placed in the user cache for the version named by BITCOIND_VERSION.
// It returns ErrNoVersionConfigured when no version is selected, and a
// not-exist error when the version is selected but not downloaded.
func DownloadedExePath() (string, error) {
	version := os.Getenv(VersionEnv)
	if version == "" {
		return "", ErrNoVersionConfigured
	}

	cache, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user cache directory: %w", err)
	}

	name := "bitcoind"
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	path := filepath.Join(cache, downloadCacheDir, "bitcoin-"+version, "bin", name)

	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("downloaded bitcoind %s not found: %w", version, err)
	}
	return path, nil
}
