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
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExePath(t *testing.T) {
	t.Run("env override wins", func(t *testing.T) {
		t.Setenv(ExeEnv, "/opt/custom/bitcoind")

		path, err := ExePath()
		require.NoError(t, err)
		assert.Equal(t, "/opt/custom/bitcoind", path)
	})

	t.Run("falls back to PATH lookup", func(t *testing.T) {
		t.Setenv(ExeEnv, "")
		t.Setenv(VersionEnv, "")

		dir := t.TempDir()
		stub := filepath.Join(dir, "bitcoind")
		require.NoError(t, os.WriteFile(stub, []byte("#!/bin/sh\nexit 0\n"), 0755))
		t.Setenv("PATH", dir)

		path, err := ExePath()
		require.NoError(t, err)
		assert.Equal(t, stub, path)
	})

	t.Run("nothing resolves", func(t *testing.T) {
		t.Setenv(ExeEnv, "")
		t.Setenv(VersionEnv, "")
		t.Setenv("PATH", t.TempDir())

		_, err := ExePath()
		require.ErrorIs(t, err, ErrNoBitcoindExecutableFound)
	})
}

func TestDownloadedExePath(t *testing.T) {
	t.Run("no version configured", func(t *testing.T) {
		t.Setenv(VersionEnv, "")

		_, err := DownloadedExePath()
		require.ErrorIs(t, err, ErrNoVersionConfigured)
	})

	t.Run("version configured but not downloaded", func(t *testing.T) {
		t.Setenv(VersionEnv, "0.0.0-nonexistent")

		_, err := DownloadedExePath()
		require.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("downloaded binary resolves", func(t *testing.T) {
		if runtime.GOOS != "linux" {
			t.Skip("XDG_CACHE_HOME is only honored on Linux")
		}
		cache := t.TempDir()
		t.Setenv("XDG_CACHE_HOME", cache)
		t.Setenv(VersionEnv, "27.1")

		binDir := filepath.Join(cache, downloadCacheDir, "bitcoin-27.1", "bin")
		require.NoError(t, os.MkdirAll(binDir, 0755))
		exe := filepath.Join(binDir, "bitcoind")
		require.NoError(t, os.WriteFile(exe, []byte("#!/bin/sh\n"), 0755))

		path, err := DownloadedExePath()
		require.NoError(t, err)
		assert.Equal(t, exe, path)
	})
}
