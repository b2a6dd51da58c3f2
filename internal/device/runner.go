package device

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
)

// Process is a started command.
type Process interface {
	// Stop terminates the process and waits for it to exit.
	Stop() error
}

// Runner executes host commands.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) error
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
	Start(ctx context.Context, name string, args ...string) (Process, error)
	// Pipe starts the command and streams its standard output.
	// The reader hits EOF once the process exits.
	Pipe(ctx context.Context, name string, args ...string) (Process, io.ReadCloser, error)
	LookPath(name string) (string, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run runs the command to completion.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

// Output runs the command and returns its standard output.
func (ExecRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Start starts the command without waiting for it.
func (ExecRunner) Start(ctx context.Context, name string, args ...string) (Process, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if err := cmd.Start(); err != nil {
		return nil, err
	}

	return watch(cmd), nil
}

// Pipe starts the command with its standard output connected to the returned reader.
// The pipe is an *os.File so Wait never closes it under a pending read.
func (ExecRunner) Pipe(ctx context.Context, name string, args ...string) (Process, io.ReadCloser, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, nil, fmt.Errorf("create pipe: %w", err)
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = w

	if err = cmd.Start(); err != nil {
		_ = r.Close()
		_ = w.Close()

		return nil, nil, err
	}

	// The child holds its own copy of the write end.
	_ = w.Close()

	return watch(cmd), r, nil
}

// watch reaps cmd in the background.
func watch(cmd *exec.Cmd) *execProcess {
	p := &execProcess{
		cmd:  cmd,
		done: make(chan struct{}),
	}

	go func() {
		p.err = cmd.Wait()
		close(p.done)
	}()

	return p
}

// LookPath searches PATH for the binary.
func (ExecRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// execProcess wraps a started command.
type execProcess struct {
	cmd  *exec.Cmd
	done chan struct{}
	err  error
	once sync.Once
}

// Stop kills the process unless it already exited.
func (p *execProcess) Stop() error {
	var err error

	p.once.Do(func() {
		select {
		case <-p.done:
			return
		default:
		}

		if killErr := p.cmd.Process.Kill(); killErr != nil && !errors.Is(killErr, os.ErrProcessDone) {
			err = fmt.Errorf("kill %s: %w", p.cmd.Path, killErr)
		}

		<-p.done
	})

	return err
}
