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

// Package lifecycle spawns and supervises the daemon child process.
//
// Unlike a detached background service, the daemon here is an attached
// child owned by the harness: it must die when the harness decides, and
// the harness must be able to observe an unexpected early exit without
// blocking.
package lifecycle

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
)

// Supervisor owns one running daemon process.
type Supervisor struct {
	cmd *exec.Cmd

	// done is closed once the wait goroutine has reaped the process.
	done    chan struct{}
	waitErr error

	killOnce sync.Once
	killErr  error
}

// Spawn starts the executable with the given arguments. When showOutput is
// false the child's stdout is discarded; stderr is always inherited so
// fatal daemon errors remain visible in test output.
func Spawn(exe string, args []string, showOutput bool) (*Supervisor, error) {
	cmd := exec.Command(exe, args...)
	cmd.Stderr = os.Stderr
	if showOutput {
		cmd.Stdout = os.Stdout
	} else {
		cmd.Stdout = io.Discard
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", exe, err)
	}

	s := &Supervisor{
		cmd:  cmd,
		done: make(chan struct{}),
	}

	// Reap the child as soon as it exits so ExitState never reports a
	// zombie as alive.
	go func() {
		s.waitErr = cmd.Wait()
		close(s.done)
	}()

	return s, nil
}

// PID returns the OS process id of the child.
func (s *Supervisor) PID() int {
	return s.cmd.Process.Pid
}

// ExitState reports, without blocking, whether the process has exited.
// When it has, the returned state describes how.
func (s *Supervisor) ExitState() (*os.ProcessState, bool) {
	select {
	case <-s.done:
		return s.cmd.ProcessState, true
	default:
		return nil, false
	}
}

// Wait blocks until the process exits and returns its final state.
// The error mirrors exec.Cmd.Wait: non-nil for non-zero exit status.
func (s *Supervisor) Wait() (*os.ProcessState, error) {
	<-s.done
	return s.cmd.ProcessState, s.waitErr
}

// Kill forcefully terminates the process and waits for it to be reaped.
// It is idempotent and succeeds if the process already exited.
func (s *Supervisor) Kill() error {
	s.killOnce.Do(func() {
		if err := s.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			s.killErr = fmt.Errorf("failed to kill process %d: %w", s.PID(), err)
			return
		}
		<-s.done
	})
	return s.killErr
}
