package gencmd

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/partgen/internal/compiler"
	"github.com/lehigh-university-libraries/partgen/internal/config"
	"github.com/lehigh-university-libraries/partgen/internal/manifest"
	"github.com/lehigh-university-libraries/partgen/internal/scad"
	"github.com/lehigh-university-libraries/partgen/internal/sweep"
)

type holderOptions struct {
	params       config.HolderParams
	outDir       string
	openscadPath string
	keepSCAD     bool
	parquet      bool
	failFast     bool
}

// NewHoldersCmd creates the holders command
func NewHoldersCmd() *cobra.Command {
	opts := holderOptions{
		params: config.HolderParams{WallThickness: config.DefaultCradleWall},
	}

	cmd := &cobra.Command{
		Use:   "holders",
		Short: "Generate socket holder cradles over a range of inner diameters",
		Long: `Generate one cylindrical holder STL per inner diameter, starting at --id_start
and stepping by --increment while below --id_end.

The end of the range is exclusive: --id_start 1 --id_end 2 --increment 0.5
produces holder_1mm.stl and holder_1.5mm.stl.`,
		Example: `  # Holders from 1mm up to one inch for a 5/8" nut
  partgen holders --id_start 1 --id_end 25.4 --increment .5 --nut_size 15.875

  # Attach a base STL and round the top edges with fillets3d.scad
  partgen holders --id_start 10 --id_end 20 --increment 1 --nut_size 15.875 \
    --base-stl "./holders/1-2 inch holder base.STL" --fillet-lib fillets3d.scad`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.params.Validate(); err != nil {
				return err
			}

			comp, err := newCompiler(compilerOptions{
				renderer:     config.RendererOpenSCAD,
				openscadPath: opts.openscadPath,
			})
			if err != nil {
				return err
			}

			return executeHolders(cmd.Context(), opts, comp)
		},
	}

	cmd.Flags().Float64Var(&opts.params.IDStart, "id_start", 0, "First inner diameter of the holder in mm (required)")
	cmd.Flags().Float64Var(&opts.params.IDEnd, "id_end", 0, "Inner diameter to stop before, in mm (required)")
	cmd.Flags().Float64Var(&opts.params.Increment, "increment", 0, "Inner diameter step in mm (required)")
	cmd.Flags().Float64Var(&opts.params.NutSize, "nut_size", 0, "Size of the nut in mm, used as the cradle depth (required)")
	cmd.Flags().Float64Var(&opts.params.WallThickness, "wall", config.DefaultCradleWall, "Cradle wall thickness in mm")
	cmd.Flags().StringVar(&opts.params.BaseSTL, "base-stl", "", "Optional STL to import as the holder base")
	cmd.Flags().StringVar(&opts.params.FilletLib, "fillet-lib", "", "Optional path to fillets3d.scad; rounds the top of the cradle")
	cmd.Flags().StringVarP(&opts.outDir, "out", "o", ".", "Output directory")
	cmd.Flags().StringVar(&opts.openscadPath, "openscad", "", "Path to the openscad binary (default: $OPENSCAD_BIN, PATH, known install locations)")
	cmd.Flags().BoolVar(&opts.keepSCAD, "keep-scad", false, "Keep the generated .scad files")
	cmd.Flags().BoolVar(&opts.parquet, "parquet", false, "Also write manifest.parquet")
	cmd.Flags().BoolVar(&opts.failFast, "fail-fast", false, "Stop at the first holder that fails")

	for _, name := range []string{"id_start", "id_end", "increment", "nut_size"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

func executeHolders(ctx context.Context, opts holderOptions, comp compiler.Compiler) error {
	p := opts.params
	slog.Info("Starting holder generation",
		"id_start", p.IDStart,
		"id_end", p.IDEnd,
		"increment", p.Increment,
		"nut_size", p.NutSize,
		"out", opts.outDir)

	renderer, err := scad.NewRenderer()
	if err != nil {
		return err
	}

	jobs, err := buildHolderJobs(p, opts.outDir, renderer)
	if err != nil {
		return err
	}
	if err := sweep.PrepareDir(opts.outDir, false); err != nil {
		return err
	}

	driver := &sweep.Driver{
		Compiler:   comp,
		KeepSource: opts.keepSCAD,
		FailFast:   opts.failFast,
	}
	summary, runErr := driver.Run(ctx, jobs)

	report := manifest.FromSummary("holders", comp.Name(), map[string]string{
		"id_start":  scad.Number(p.IDStart),
		"id_end":    scad.Number(p.IDEnd),
		"increment": scad.Number(p.Increment),
		"nut_size":  scad.Number(p.NutSize),
	}, summary)

	return finish(report, opts.outDir, opts.parquet, runErr)
}

func buildHolderJobs(p config.HolderParams, outDir string, renderer *scad.Renderer) ([]sweep.Job, error) {
	diameters, err := sweep.Range{Start: p.IDStart, End: p.IDEnd, Increment: p.Increment}.Values()
	if err != nil {
		return nil, err
	}

	jobs := make([]sweep.Job, 0, len(diameters))
	for _, id := range diameters {
		label := scad.Number(id)
		base := fmt.Sprintf("holder_%smm", label)
		jobs = append(jobs, sweep.Job{
			Part:   "holders",
			Label:  label,
			Source: filepath.Join(outDir, base+".scad"),
			Output: filepath.Join(outDir, base+".stl"),
			Render: func() (sweep.Rendered, error) {
				src, err := renderer.RenderHolder(scad.HolderModel{
					InnerDiameter: id,
					NutSize:       p.NutSize,
					WallThickness: p.WallThickness,
					BaseSTL:       p.BaseSTL,
					FilletLib:     p.FilletLib,
				})
				if err != nil {
					return sweep.Rendered{}, err
				}
				return sweep.Rendered{Source: src, Size: id}, nil
			},
		})
	}
	return jobs, nil
}
