package gencmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/partgen/internal/compiler"
	"github.com/lehigh-university-libraries/partgen/internal/config"
	"github.com/lehigh-university-libraries/partgen/internal/dimension"
	"github.com/lehigh-university-libraries/partgen/internal/manifest"
	"github.com/lehigh-university-libraries/partgen/internal/scad"
	"github.com/lehigh-university-libraries/partgen/internal/sweep"
)

type washerOptions struct {
	configPath   string
	outDir       string
	renderer     string
	openscadPath string
	runtime      string
	parquet      bool
	failFast     bool
}

// NewWashersCmd creates the washers command
func NewWashersCmd() *cobra.Command {
	var opts washerOptions

	cmd := &cobra.Command{
		Use:   "washers",
		Short: "Generate labelled socket washers from a YAML config",
		Long: `Generate one washer per label text for every part listed in a YAML config.

Each part gets its own directory under --out with the generated OpenSCAD
sources in a scad/ subdirectory. When adjust_for_socket is set, the washer
width is read from the label: "1/2" and "1 3/8" are inches, "15mm" or "15.875"
are millimetres.

Rendering uses either a local openscad binary (STL output) or the colorscad
container image (multi-colour 3MF output).`,
		Example: `  # Render with the colorscad container
  partgen washers --config washers.yaml

  # Render plain STLs with a local openscad
  partgen washers --config washers.yaml --renderer openscad --out ./build

  # Also write a parquet manifest
  partgen washers --config washers.yaml --parquet`,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := config.LoadDocument(opts.configPath)
			if err != nil {
				return err
			}
			if opts.renderer != "" {
				doc.Options.Renderer = opts.renderer
				if err := doc.Validate(); err != nil {
					return err
				}
			}

			comp, err := newCompiler(compilerOptions{
				renderer:     doc.Options.Renderer,
				openscadPath: opts.openscadPath,
				runtime:      opts.runtime,
				image:        doc.Options.ColorSCADImage,
				pull:         doc.Options.Pull,
				workspace:    opts.outDir,
			})
			if err != nil {
				return err
			}

			return executeWashers(cmd.Context(), doc, opts, comp)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "washers.yaml", "Path to the washer YAML config")
	cmd.Flags().StringVarP(&opts.outDir, "out", "o", "out", "Output directory")
	cmd.Flags().StringVar(&opts.renderer, "renderer", "", "Override the config renderer (openscad or colorscad)")
	cmd.Flags().StringVar(&opts.openscadPath, "openscad", "", "Path to the openscad binary (default: $OPENSCAD_BIN, PATH, known install locations)")
	cmd.Flags().StringVar(&opts.runtime, "runtime", "", "Container runtime for colorscad (default: $CONTAINER_RUNTIME or docker)")
	cmd.Flags().BoolVar(&opts.parquet, "parquet", false, "Also write manifest.parquet")
	cmd.Flags().BoolVar(&opts.failFast, "fail-fast", false, "Stop at the first washer that fails")

	return cmd
}

func executeWashers(ctx context.Context, doc *config.Document, opts washerOptions, comp compiler.Compiler) error {
	slog.Info("Starting washer generation", "config", opts.configPath, "out", opts.outDir, "renderer", comp.Name())

	renderer, err := scad.NewRenderer()
	if err != nil {
		return err
	}

	jobs, err := buildWasherJobs(doc, opts.outDir, renderer)
	if err != nil {
		return err
	}

	driver := &sweep.Driver{
		Compiler:   comp,
		KeepSource: doc.Options.KeepSource(),
		FailFast:   opts.failFast,
	}
	summary, runErr := driver.Run(ctx, jobs)

	report := manifest.FromSummary("washers", comp.Name(), map[string]string{
		"config": opts.configPath,
		"out":    opts.outDir,
	}, summary)

	return finish(report, opts.outDir, opts.parquet, runErr)
}

// buildWasherJobs prepares the output directories and returns one job per
// label text.
func buildWasherJobs(doc *config.Document, outDir string, renderer *scad.Renderer) ([]sweep.Job, error) {
	ext := artifactExt(doc.Options.Renderer)
	var jobs []sweep.Job
	// output path -> label that claimed it first
	claimed := make(map[string]string)

	for _, washer := range doc.Washers {
		if washer.Params == nil || len(washer.Texts) == 0 {
			continue
		}

		partDir := filepath.Join(outDir, washer.Name)
		scadDir := filepath.Join(partDir, "scad")
		if err := sweep.PrepareDir(partDir, doc.Options.ClearOutputDir); err != nil {
			return nil, err
		}
		if err := sweep.PrepareDir(scadDir, false); err != nil {
			return nil, err
		}

		params := *washer.Params
		paramsErr := params.Validate()
		if paramsErr != nil {
			slog.Warn("Invalid washer params", "name", washer.Name, "error", paramsErr)
		}

		for _, text := range washer.Texts {
			base := "washer_" + sanitize(text)
			output := filepath.Join(partDir, base+ext)

			first, clash := claimed[output]
			if clash {
				slog.Warn("Washer label maps to an existing file", "name", washer.Name, "label", text, "first_label", first, "output", output)
			} else {
				claimed[output] = text
			}

			jobs = append(jobs, sweep.Job{
				Part:   washer.Name,
				Label:  text,
				Source: filepath.Join(scadDir, base+".scad"),
				Output: output,
				Render: func() (sweep.Rendered, error) {
					if clash {
						return sweep.Rendered{}, fmt.Errorf("output %s already produced for label %q", output, first)
					}
					if paramsErr != nil {
						return sweep.Rendered{}, fmt.Errorf("invalid params: %w", paramsErr)
					}
					return renderWasher(renderer, params, text, doc.Options.LibDir)
				},
			})
		}
	}

	return jobs, nil
}

func renderWasher(renderer *scad.Renderer, p config.WasherParams, text, libDir string) (sweep.Rendered, error) {
	width, err := dimension.CalculateWidth(text, p.MinWidth, p.AdjustForSocket, p.WallThickness)
	if err != nil {
		return sweep.Rendered{}, err
	}

	src, err := renderer.RenderWasher(scad.WasherModel{
		EdgeThickness: p.EdgeThickness,
		EngraveDepth:  p.EngraveDepth,
		EngraveText:   text,
		Height:        p.Height,
		HoleDiameter:  p.HoleDiameter,
		LetterOffset:  p.LetterOffset,
		Thickness:     p.Thickness,
		Width:         width,
		Font:          p.Font,
		TextSize:      p.TextSize,
		LibDir:        libDir,
	})
	if err != nil {
		return sweep.Rendered{}, err
	}
	return sweep.Rendered{Source: src, Size: width}, nil
}

var filenameReplacer = strings.NewReplacer(" ", "_", "/", "_")

func sanitize(text string) string {
	return filenameReplacer.Replace(text)
}

// finish writes the run report, prints the summary and turns failures into
// a command error.
func finish(report *manifest.Report, outDir string, writeParquet bool, runErr error) error {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	yamlPath := filepath.Join(outDir, "manifest.yaml")
	if err := report.SaveYAML(yamlPath); err != nil {
		slog.Warn("Failed to save manifest", "path", yamlPath, "error", err)
	} else {
		slog.Info("Manifest saved", "path", yamlPath)
	}

	if writeParquet {
		parquetPath := filepath.Join(outDir, "manifest.parquet")
		if err := report.SaveParquet(parquetPath); err != nil {
			slog.Warn("Failed to save parquet manifest", "path", parquetPath, "error", err)
		} else {
			slog.Info("Parquet manifest saved", "path", parquetPath)
		}
	}

	report.PrintSummary(os.Stdout)

	if runErr != nil {
		return runErr
	}
	if report.Failed > 0 {
		return fmt.Errorf("%d of %d parts failed", report.Failed, len(report.Entries))
	}
	return nil
}
