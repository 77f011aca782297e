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

// Package config loads node profiles for the nodeharness CLI.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nodeharness/bitcoind"
)

// Profile is a YAML description of a node to launch.
type Profile struct {
	// Exe is the daemon executable. Empty means the standard resolution
	// order (BITCOIND_EXE, downloaded binary, PATH).
	Exe string `yaml:"exe"`

	// Network names the daemon network; must match any network flag in
	// Args.
	Network string `yaml:"network"`

	// Args are extra daemon arguments.
	Args []string `yaml:"args"`

	// P2P is "disabled", "enabled" or a "host:port" address to connect to.
	P2P string `yaml:"p2p"`

	// P2PAllowInbound re-enables inbound connections when P2P is an
	// address.
	P2PAllowInbound bool `yaml:"p2p_allow_inbound"`

	// Dir is a persistent data directory. Empty means a temporary one.
	Dir string `yaml:"dir"`

	// ShowOutput passes the daemon's stdout through.
	ShowOutput bool `yaml:"show_output"`

	// Attempts is the spawn retry budget.
	Attempts int `yaml:"attempts"`

	// ZMQ enables the ZMQ publication endpoints.
	ZMQ bool `yaml:"zmq"`

	// Timeout caps the wait for readiness, e.g. "30s". Empty waits
	// forever.
	Timeout string `yaml:"timeout"`
}

// Load reads a profile from a YAML file.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile %s: %w", path, err)
	}

	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse profile %s: %w", path, err)
	}
	return &p, nil
}

// Conf converts the profile into a harness configuration, starting from
// the library defaults.
func (p *Profile) Conf() (*bitcoind.Conf, error) {
	conf := bitcoind.DefaultConf()

	if p.Network != "" {
		conf.Network = p.Network
	}
	if len(p.Args) > 0 {
		conf.Args = p.Args
	}
	if p.Dir != "" {
		conf.StaticDir = p.Dir
	}
	if p.Attempts > 0 {
		conf.Attempts = p.Attempts
	}
	conf.ViewStdout = p.ShowOutput
	conf.EnableZMQ = p.ZMQ

	switch p.P2P {
	case "", "disabled":
		conf.P2P = bitcoind.P2PDisabled()
	case "enabled":
		conf.P2P = bitcoind.P2PEnabled()
	default:
		conf.P2P = bitcoind.P2PConnectTo(p.P2P, p.P2PAllowInbound)
	}

	if p.Timeout != "" {
		timeout, err := time.ParseDuration(p.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout %q: %w", p.Timeout, err)
		}
		conf.Timeout = timeout
	}

	return conf, nil
}
