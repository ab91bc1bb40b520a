package gencmd

import (
	"fmt"
	"os"

	"github.com/lehigh-university-libraries/partgen/internal/compiler"
	"github.com/lehigh-university-libraries/partgen/internal/config"
)

// compilerOptions are the flag values that pick and locate a backend.
type compilerOptions struct {
	renderer     string
	openscadPath string
	runtime      string
	image        string
	pull         string
	workspace    string
}

func newCompiler(opts compilerOptions) (compiler.Compiler, error) {
	switch opts.renderer {
	case config.RendererOpenSCAD:
		return compiler.NewOpenSCAD(compiler.OpenSCADResolver(opts.openscadPath))
	case config.RendererColorSCAD:
		runtime := opts.runtime
		if runtime == "" {
			runtime = os.Getenv("CONTAINER_RUNTIME")
		}
		return compiler.NewColorSCAD(compiler.ColorSCADConfig{
			Runtime:   runtime,
			Image:     opts.image,
			Pull:      opts.pull,
			Workspace: opts.workspace,
		})
	default:
		return nil, fmt.Errorf("unsupported renderer: %s", opts.renderer)
	}
}

// artifactExt is the file extension each renderer produces.
func artifactExt(renderer string) string {
	if renderer == config.RendererColorSCAD {
		return ".3mf"
	}
	return ".stl"
}
