package gencmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/partgen/internal/manifest"
)

// NewManifestCmd creates the manifest command
func NewManifestCmd() *cobra.Command {
	var path string
	var failedOnly bool

	cmd := &cobra.Command{
		Use:   "manifest",
		Short: "Summarize a run manifest written by washers or holders",
		Long: `Load a manifest.yaml or manifest.parquet written after a run and print what
was generated and what failed.`,
		Example: `  partgen manifest --file out/manifest.yaml
  partgen manifest --file out/manifest.parquet --failed`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeManifest(path, failedOnly)
		},
	}

	cmd.Flags().StringVarP(&path, "file", "f", "", "Path to manifest.yaml or manifest.parquet (required)")
	cmd.Flags().BoolVar(&failedOnly, "failed", false, "List only failed entries")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func executeManifest(path string, failedOnly bool) error {
	report, err := manifest.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load manifest: %w", err)
	}

	report.PrintSummary(os.Stdout)

	fmt.Println("\nEntries:")
	for _, e := range report.Entries {
		if failedOnly && !e.Failed() {
			continue
		}
		status := "ok"
		if e.Failed() {
			status = "FAILED"
		}
		fmt.Printf("  [%s] %s %s -> %s (%.3f mm, %d ms)\n", status, e.Part, e.Label, e.Artifact, e.SizeMM, e.DurationMS)
	}
	return nil
}
