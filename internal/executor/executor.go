// Package executor runs typed OS network-configuration commands and applies the
// tolerance policy that makes multi-step provisioning safe to retry.
package executor

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// Executor runs a single command
type Executor interface {
	Execute(ctx context.Context, cmd Command, opts ...Option) (*Result, error)
}

// Result is the outcome of a command that did not return an error
type Result struct {
	Stdout    string
	OK        bool
	Tolerated bool
	ExitCode  int
	Code      Code
}

type options struct {
	failOnError    bool
	tolerateExists bool
	tolerateAny    bool
	capture        bool
	background     bool
}

// Option adjusts how a command failure is handled
type Option func(*options)

// NoFail returns a failed Result instead of a CommandError
func NoFail() Option {
	return func(o *options) { o.failOnError = false }
}

// TolerateExists degrades "already present" and "endpoint missing" failures to warnings
func TolerateExists() Option {
	return func(o *options) { o.tolerateExists = true }
}

// TolerateAny degrades every failure to a warning
func TolerateAny() Option {
	return func(o *options) { o.tolerateAny = true }
}

// Capture keeps standard output in the Result
func Capture() Option {
	return func(o *options) { o.capture = true }
}

// Background starts the command detached and does not wait for it
func Background() Option {
	return func(o *options) { o.background = true }
}

// Local executes commands through a Runner on this host
type Local struct {
	runner Runner
	logger *zap.Logger
}

// New creates an Executor backed by runner
func New(runner Runner, logger *zap.Logger) *Local {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Local{runner: runner, logger: logger}
}

// Execute runs cmd and applies the tolerance options
func (e *Local) Execute(ctx context.Context, cmd Command, opts ...Option) (*Result, error) {
	o := options{failOnError: true}
	for _, opt := range opts {
		opt(&o)
	}

	e.logger.Info("executing", zap.String("command", cmd.String()))

	if o.background {
		if err := e.runner.Start(cmd.Argv()); err != nil {
			return nil, &CommandError{Command: cmd.String(), Stderr: err.Error(), ExitCode: -1, Code: CodeFailed, Err: err}
		}
		return &Result{OK: true}, nil
	}

	stdout, stderr, exitCode, err := e.runner.Run(ctx, cmd.Argv())
	if err == nil && exitCode == 0 {
		res := &Result{OK: true}
		if o.capture {
			res.Stdout = string(stdout)
		}
		return res, nil
	}
	if exitCode == 0 {
		exitCode = -1
	}

	msg := strings.TrimSpace(string(stderr))
	if msg == "" && err != nil {
		msg = err.Error()
	}
	code := Classify(cmd, exitCode, msg)

	if o.tolerateAny || (o.tolerateExists && code.Benign()) {
		e.logger.Warn("command failed, continuing",
			zap.String("command", cmd.String()),
			zap.Stringer("code", code),
			zap.String("stderr", msg))
		return &Result{OK: true, Tolerated: true, ExitCode: exitCode, Code: code}, nil
	}

	if o.failOnError {
		return nil, &CommandError{Command: cmd.String(), Stderr: msg, ExitCode: exitCode, Code: code, Err: err}
	}

	res := &Result{OK: false, ExitCode: exitCode, Code: code}
	if o.capture {
		res.Stdout = string(stdout)
	}
	return res, nil
}
