package executor

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
)

// Runner abstracts process execution so the tolerance policy can be tested
type Runner interface {
	// Run waits for argv and returns its output and exit code
	Run(ctx context.Context, argv []string) (stdout, stderr []byte, exitCode int, err error)

	// Start launches argv detached from this process
	Start(argv []string) error
}

// ExecRunner executes commands on the local host.
type ExecRunner struct{}

// Run executes argv with os/exec
func (r ExecRunner) Run(ctx context.Context, argv []string) ([]byte, []byte, int, error) {
	if len(argv) == 0 {
		return nil, nil, 1, errors.New("empty command")
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return stdout.Bytes(), stderr.Bytes(), 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return stdout.Bytes(), stderr.Bytes(), exitErr.ExitCode(), err
	}

	exitCode := 1
	var execErr *exec.Error
	if errors.As(err, &execErr) {
		exitCode = 127
	}
	return stdout.Bytes(), stderr.Bytes(), exitCode, err
}

// Start launches argv in its own session with stdio detached
func (r ExecRunner) Start(argv []string) error {
	if len(argv) == 0 {
		return errors.New("empty command")
	}
	devNull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		return err
	}
	defer devNull.Close()

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdin = devNull
	cmd.Stdout = devNull
	cmd.Stderr = devNull
	detach(cmd)

	if err := cmd.Start(); err != nil {
		return err
	}
	return cmd.Process.Release()
}

// DryRunRunner succeeds without running anything. The executor still logs each command.
type DryRunRunner struct{}

// Run reports success
func (DryRunRunner) Run(ctx context.Context, argv []string) ([]byte, []byte, int, error) {
	return nil, nil, 0, nil
}

// Start reports success
func (DryRunRunner) Start(argv []string) error {
	return nil
}
