// Package compiler turns rendered OpenSCAD source into printable artifacts
// by running an external program.
package compiler

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrNoOutput is returned when the external program exits cleanly but the
// artifact was not written.
var ErrNoOutput = errors.New("compiler produced no output")

// Job is one source file to compile into one artifact.
type Job struct {
	Source string
	Output string
}

// Compiler defines the interface for a CAD compiler backend
type Compiler interface {
	Name() string
	Compile(ctx context.Context, job Job) error
}

// Runner executes an external command and returns its combined output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return out, &ExitError{Command: name, Code: exitErr.ExitCode(), Output: string(out)}
		}
		return out, fmt.Errorf("failed to run %s: %w", name, err)
	}
	return out, nil
}

// ExitError reports a non-zero exit status from the external program.
type ExitError struct {
	Command string
	Code    int
	Output  string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s exited with status %d", e.Command, e.Code)
	if last := lastLine(e.Output); last != "" {
		msg += ": " + last
	}
	return msg
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
