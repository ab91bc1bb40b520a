package compiler

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"strings"
)

const (
	containerWorkspace = "/workspace"
	colorscadBin       = "/usr/local/bin/colorscad"
)

// ColorSCADConfig configures the containerized colorscad backend.
type ColorSCADConfig struct {
	// Runtime is the container CLI, usually docker or podman.
	Runtime string
	Image   string
	// Pull is passed as --pull=<Pull> when set.
	Pull string
	// Workspace is bind-mounted read-write at /workspace. Every source and
	// output must live under it.
	Workspace string
}

// ColorSCAD renders multi-colour 3MF files with colorscad inside a container.
type ColorSCAD struct {
	config    ColorSCADConfig
	runtime   string
	workspace string
	Runner    Runner
}

// NewColorSCAD resolves the container runtime and workspace.
func NewColorSCAD(config ColorSCADConfig) (*ColorSCAD, error) {
	if config.Image == "" {
		return nil, fmt.Errorf("colorscad image is required")
	}
	if config.Runtime == "" {
		config.Runtime = "docker"
	}

	runtime, err := Chain{Explicit(absIfPath(config.Runtime)), FromPath(config.Runtime)}.Resolve()
	if err != nil {
		return nil, fmt.Errorf("could not find container runtime %q: %w", config.Runtime, err)
	}

	workspace, err := filepath.Abs(config.Workspace)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve workspace: %w", err)
	}

	slog.Debug("Using colorscad container", "runtime", runtime, "image", config.Image, "workspace", workspace)
	return &ColorSCAD{
		config:    config,
		runtime:   runtime,
		workspace: workspace,
		Runner:    ExecRunner{},
	}, nil
}

func (c *ColorSCAD) Name() string {
	return "colorscad"
}

// Compile runs colorscad in a throwaway container against the mounted workspace.
func (c *ColorSCAD) Compile(ctx context.Context, job Job) error {
	src, err := c.containerPath(job.Source)
	if err != nil {
		return err
	}
	dst, err := c.containerPath(job.Output)
	if err != nil {
		return err
	}

	if _, err := c.Runner.Run(ctx, c.runtime, c.Args(src, dst)...); err != nil {
		return fmt.Errorf("failed to render %s with colorscad: %w", job.Source, err)
	}
	return checkOutput(job.Output)
}

// Args builds the container runtime arguments for in-container paths src and dst.
func (c *ColorSCAD) Args(src, dst string) []string {
	args := []string{"run", "--rm"}
	if c.config.Pull != "" {
		args = append(args, "--pull="+c.config.Pull)
	}
	script := fmt.Sprintf("%s -i %s -o %s", colorscadBin, shellQuote(src), shellQuote(dst))
	return append(args,
		fmt.Sprintf("-v%s:%s:rw", c.workspace, containerWorkspace),
		c.config.Image,
		"/bin/bash", "-c", script,
	)
}

func (c *ColorSCAD) containerPath(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(c.workspace, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside the mounted workspace %s", p, c.workspace)
	}
	return path.Join(containerWorkspace, filepath.ToSlash(rel)), nil
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// absIfPath leaves bare command names alone so they go through PATH lookup.
func absIfPath(name string) string {
	if !strings.ContainsRune(name, filepath.Separator) && !strings.ContainsRune(name, '/') {
		return ""
	}
	return name
}
