package device

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	ps "github.com/mitchellh/go-ps"
)

// ErrAlreadyRunning indicates another device agent is running on this machine.
var ErrAlreadyRunning = errors.New("device agent is already running")

// processLister lists running processes; ps.Processes in production.
type processLister func() ([]ps.Process, error)

// ensureSingleInstance fails when another process runs the same executable.
func ensureSingleInstance(list processLister, executable string, selfPID int) error {
	processList, err := list()
	if err != nil {
		return fmt.Errorf("list processes: %w", err)
	}

	for _, process := range processList {
		if process.Pid() == selfPID {
			continue
		}

		if !sameExecutable(process.Executable(), executable) {
			continue
		}

		return fmt.Errorf("%w: pid %d", ErrAlreadyRunning, process.Pid())
	}

	return nil
}

// sameExecutable compares names ignoring a Windows ".exe" suffix.
func sameExecutable(a, b string) bool {
	trim := func(name string) string {
		return strings.TrimSuffix(strings.ToLower(filepath.Base(name)), ".exe")
	}

	return trim(a) == trim(b)
}

// currentExecutable is the name this process was started as.
func currentExecutable() string {
	if path, err := os.Executable(); err == nil {
		return filepath.Base(path)
	}

	return filepath.Base(os.Args[0])
}
