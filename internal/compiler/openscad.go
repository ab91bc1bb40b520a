package compiler

import (
	"context"
	"fmt"
	"log/slog"
	"os"
)

// OpenSCAD compiles sources with a local openscad binary.
type OpenSCAD struct {
	Path   string
	Runner Runner
}

// NewOpenSCAD locates the openscad binary with resolver.
func NewOpenSCAD(resolver Resolver) (*OpenSCAD, error) {
	path, err := resolver.Resolve()
	if err != nil {
		return nil, fmt.Errorf("could not find openscad binary: %w", err)
	}
	slog.Debug("Using openscad", "path", path)
	return &OpenSCAD{Path: path, Runner: ExecRunner{}}, nil
}

func (o *OpenSCAD) Name() string {
	return "openscad"
}

// Compile runs <openscad> -o <output> <source>.
func (o *OpenSCAD) Compile(ctx context.Context, job Job) error {
	out, err := o.Runner.Run(ctx, o.Path, "-o", job.Output, job.Source)
	if err != nil {
		return fmt.Errorf("failed to compile %s: %w", job.Source, err)
	}
	slog.Debug("openscad finished", "source", job.Source, "output", string(out))
	return checkOutput(job.Output)
}

func checkOutput(path string) error {
	info, err := os.Stat(path)
	if err != nil || info.Size() == 0 {
		return fmt.Errorf("%w: %s", ErrNoOutput, path)
	}
	return nil
}
