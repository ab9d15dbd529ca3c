// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package supervisor

import (
	"fmt"
	"os"
	"os/exec"
)

// environment passed to a worker process
const (
	WorkerIDVariable = "LEDGERD_WORKER_ID"
	ChannelVariable  = "LEDGERD_CHANNEL"
)

// Process - a started worker
type Process interface {
	Pid() int
	Signal(sig os.Signal) error
	Kill() error
	Wait() int // exit code
}

// Spawner - starts worker processes
type Spawner interface {
	Spawn(id int) (Process, error)
}

// ExecSpawner - run the same executable again in worker mode
type ExecSpawner struct {
	Path     string
	Args     []string
	Endpoint string
}

// Spawn - implements Spawner
func (e *ExecSpawner) Spawn(id int) (Process, error) {
	cmd := exec.Command(e.Path, e.Args...)
	cmd.Env = append(os.Environ(),
		fmt.Sprintf("%s=%d", WorkerIDVariable, id),
		fmt.Sprintf("%s=%s", ChannelVariable, e.Endpoint),
	)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); nil != err {
		return nil, err
	}
	return &execProcess{cmd: cmd}, nil
}

type execProcess struct {
	cmd *exec.Cmd
}

func (p *execProcess) Pid() int {
	return p.cmd.Process.Pid
}

func (p *execProcess) Signal(sig os.Signal) error {
	return p.cmd.Process.Signal(sig)
}

func (p *execProcess) Kill() error {
	return p.cmd.Process.Kill()
}

// Wait - -1 when terminated by a signal
func (p *execProcess) Wait() int {
	_ = p.cmd.Wait()
	return p.cmd.ProcessState.ExitCode()
}
