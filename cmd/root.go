package cmd

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/partgen/internal/gencmd"
)

func NewRootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "partgen",
		Short: "Parametric 3D-printable part generator built on OpenSCAD",
		Long: `Partgen generates printable socket washers and socket holders by templating
OpenSCAD source and handing it to openscad, or to the colorscad container for
multi-colour output.

Environment (also read from a .env file):
  OPENSCAD_BIN       path to the openscad binary
  PARTGEN_RENDERER   default washer renderer (openscad or colorscad)
  COLORSCAD_IMAGE    colorscad container image
  CONTAINER_RUNTIME  container CLI used for colorscad (default docker)`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")

	// Add subcommands
	cmd.AddCommand(gencmd.NewWashersCmd())
	cmd.AddCommand(gencmd.NewHoldersCmd())
	cmd.AddCommand(gencmd.NewManifestCmd())

	return cmd
}
