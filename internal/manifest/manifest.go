// Package manifest records what a sweep produced, as a YAML run report or a
// Parquet table with one row per artifact.
package manifest

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"
	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/partgen/internal/sweep"
)

// Entry is one generated artifact.
type Entry struct {
	Part       string  `yaml:"part" parquet:"part"`
	Label      string  `yaml:"label" parquet:"label"`
	Source     string  `yaml:"source,omitempty" parquet:"source"`
	Artifact   string  `yaml:"artifact" parquet:"artifact"`
	SizeMM     float64 `yaml:"size_mm" parquet:"size_mm"`
	DurationMS int64   `yaml:"duration_ms" parquet:"duration_ms"`
	Error      string  `yaml:"error,omitempty" parquet:"error"`
}

// Failed reports whether the artifact could not be produced.
func (e Entry) Failed() bool {
	return e.Error != ""
}

// Report is the YAML run report written after each sweep.
type Report struct {
	Generator string            `yaml:"generator"`
	Renderer  string            `yaml:"renderer"`
	Timestamp string            `yaml:"timestamp"`
	Settings  map[string]string `yaml:"settings,omitempty"`
	Succeeded int               `yaml:"succeeded"`
	Failed    int               `yaml:"failed"`
	Entries   []Entry           `yaml:"entries"`
}

// FromSummary builds a report from a finished sweep.
func FromSummary(generator, renderer string, settings map[string]string, summary *sweep.Summary) *Report {
	r := &Report{
		Generator: generator,
		Renderer:  renderer,
		Timestamp: time.Now().Format("2006-01-02_15-04-05"),
		Settings:  settings,
		Entries:   make([]Entry, 0, len(summary.Results)),
	}
	for _, res := range summary.Results {
		r.Entries = append(r.Entries, Entry{
			Part:       res.Part,
			Label:      res.Label,
			Source:     res.Source,
			Artifact:   res.Output,
			SizeMM:     res.Size,
			DurationMS: res.Duration.Milliseconds(),
			Error:      res.Error,
		})
	}
	r.count()
	return r
}

func (r *Report) count() {
	r.Succeeded, r.Failed = 0, 0
	for _, e := range r.Entries {
		if e.Failed() {
			r.Failed++
		} else {
			r.Succeeded++
		}
	}
}

// SaveYAML writes the report to path.
func (r *Report) SaveYAML(path string) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write YAML file: %w", err)
	}
	return nil
}

// SaveParquet writes the report entries to path as a Parquet file.
func (r *Report) SaveParquet(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create parquet file: %w", err)
	}
	defer file.Close()

	writer := parquet.NewGenericWriter[Entry](file)
	if _, err := writer.Write(r.Entries); err != nil {
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return file.Close()
}

// Load reads a report from a .yaml/.yml or .parquet file. Parquet files only
// carry entries; counts are recomputed from them.
func Load(path string) (*Report, error) {
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".yaml", ".yml":
		return loadYAML(path)
	case ".parquet":
		return loadParquet(path)
	default:
		return nil, fmt.Errorf("unsupported manifest format: %s (supported: .yaml, .parquet)", ext)
	}
}

func loadYAML(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var r Report
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	r.count()
	return &r, nil
}

func loadParquet(path string) (*Report, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}
	slog.Debug("Parquet manifest opened", "path", path, "num_rows", pf.NumRows())

	reader := parquet.NewGenericReader[Entry](pf)
	defer reader.Close()

	r := &Report{}
	rows := make([]Entry, 128)
	for {
		n, err := reader.Read(rows)
		r.Entries = append(r.Entries, rows[:n]...)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read parquet rows: %w", err)
		}
	}

	r.count()
	return r, nil
}

// PrintSummary writes a human readable summary of the report.
func (r *Report) PrintSummary(w io.Writer) {
	fmt.Fprintln(w, "========================================")
	fmt.Fprintln(w, "Part Generation Summary")
	fmt.Fprintln(w, "========================================")
	if r.Generator != "" {
		fmt.Fprintf(w, "Generator:  %s\n", r.Generator)
	}
	if r.Renderer != "" {
		fmt.Fprintf(w, "Renderer:   %s\n", r.Renderer)
	}
	if r.Timestamp != "" {
		fmt.Fprintf(w, "Timestamp:  %s\n", r.Timestamp)
	}
	fmt.Fprintf(w, "Total:      %d\n", len(r.Entries))
	fmt.Fprintf(w, "Succeeded:  %d\n", r.Succeeded)
	fmt.Fprintf(w, "Failed:     %d\n", r.Failed)

	perPart := make(map[string]int)
	for _, e := range r.Entries {
		if !e.Failed() {
			perPart[e.Part]++
		}
	}
	parts := make([]string, 0, len(perPart))
	for p := range perPart {
		parts = append(parts, p)
	}
	sort.Strings(parts)
	if len(parts) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Artifacts per part:")
		for _, p := range parts {
			fmt.Fprintf(w, "  %s: %d\n", p, perPart[p])
		}
	}

	if r.Failed > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Failures:")
		for _, e := range r.Entries {
			if e.Failed() {
				fmt.Fprintf(w, "  %s %s: %s\n", e.Part, e.Label, e.Error)
			}
		}
	}
	fmt.Fprintln(w, "========================================")
}
