package gencmd

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/lehigh-university-libraries/partgen/internal/compiler"
	"github.com/lehigh-university-libraries/partgen/internal/config"
	"github.com/lehigh-university-libraries/partgen/internal/manifest"
	"github.com/lehigh-university-libraries/partgen/internal/scad"
)

// stubCompiler copies the source into the artifact so tests can inspect it.
type stubCompiler struct {
	jobs []compiler.Job
}

func (s *stubCompiler) Name() string { return "stub" }

func (s *stubCompiler) Compile(_ context.Context, job compiler.Job) error {
	s.jobs = append(s.jobs, job)
	data, err := os.ReadFile(job.Source)
	if err != nil {
		return err
	}
	return os.WriteFile(job.Output, data, 0644)
}

func newRenderer(t *testing.T) *scad.Renderer {
	t.Helper()
	r, err := scad.NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer failed: %v", err)
	}
	return r
}

func testDocument() *config.Document {
	return &config.Document{
		Options: config.Options{Renderer: config.RendererOpenSCAD},
		Washers: []config.Washer{
			{
				Name: "drive_1_2",
				Params: &config.WasherParams{
					AdjustForSocket: true,
					EdgeThickness:   1,
					EngraveDepth:    0.6,
					Height:          20,
					HoleDiameter:    6,
					LetterOffset:    4,
					MinWidth:        5,
					Thickness:       1.5,
					WallThickness:   3,
					Font:            config.DefaultFont,
					TextSize:        config.DefaultTextSize,
				},
				Texts: []string{"1/2", "1 3/8", "1/0"},
			},
			{Name: "skipped"},
		},
	}
}

func TestSanitize(t *testing.T) {
	tests := map[string]string{
		"1/2":    "1_2",
		"1 3/8":  "1_3_8",
		"15mm":   "15mm",
		"M8 / 8": "M8___8",
	}
	for in, want := range tests {
		if got := sanitize(in); got != want {
			t.Errorf("sanitize(%q) = %q, expected %q", in, got, want)
		}
	}
}

func TestBuildWasherJobs(t *testing.T) {
	out := t.TempDir()
	jobs, err := buildWasherJobs(testDocument(), out, newRenderer(t))
	if err != nil {
		t.Fatalf("buildWasherJobs failed: %v", err)
	}

	var outputs []string
	for _, j := range jobs {
		rel, _ := filepath.Rel(out, j.Output)
		outputs = append(outputs, filepath.ToSlash(rel))
	}
	want := []string{
		"drive_1_2/washer_1_2.stl",
		"drive_1_2/washer_1_3_8.stl",
		"drive_1_2/washer_1_0.stl",
	}
	if diff := cmp.Diff(want, outputs); diff != "" {
		t.Errorf("outputs mismatch (-want +got):\n%s", diff)
	}

	if _, err := os.Stat(filepath.Join(out, "drive_1_2", "scad")); err != nil {
		t.Errorf("Expected scad directory: %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, "skipped")); !os.IsNotExist(err) {
		t.Errorf("Expected no directory for skipped washer, got %v", err)
	}

	rendered, err := jobs[0].Render()
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(rendered.Source, "width = 18.7;") {
		t.Errorf("Expected width 18.7 in source:\n%s", rendered.Source)
	}

	if _, err := jobs[2].Render(); err == nil {
		t.Error("Expected render error for 1/0, got nil")
	}
}

func TestBuildWasherJobsColorSCADExtension(t *testing.T) {
	doc := testDocument()
	doc.Options.Renderer = config.RendererColorSCAD

	jobs, err := buildWasherJobs(doc, t.TempDir(), newRenderer(t))
	if err != nil {
		t.Fatalf("buildWasherJobs failed: %v", err)
	}
	if filepath.Ext(jobs[0].Output) != ".3mf" {
		t.Errorf("Expected .3mf output, got %s", jobs[0].Output)
	}
}

func TestBuildWasherJobsInvalidParams(t *testing.T) {
	doc := testDocument()
	doc.Washers[0].Params.Height = 0

	jobs, err := buildWasherJobs(doc, t.TempDir(), newRenderer(t))
	if err != nil {
		t.Fatalf("buildWasherJobs failed: %v", err)
	}
	for _, j := range jobs {
		if _, err := j.Render(); err == nil || !strings.Contains(err.Error(), "height") {
			t.Errorf("Expected invalid params error for %s, got %v", j.Label, err)
		}
	}
}

func TestBuildWasherJobsDuplicateOutput(t *testing.T) {
	doc := testDocument()
	doc.Washers[0].Texts = []string{"1 1/2", "1_1/2", "1/2", "1/2"}

	jobs, err := buildWasherJobs(doc, t.TempDir(), newRenderer(t))
	if err != nil {
		t.Fatalf("buildWasherJobs failed: %v", err)
	}
	if len(jobs) != 4 {
		t.Fatalf("Expected 4 jobs, got %d", len(jobs))
	}

	tests := []struct {
		label   string
		wantErr bool
	}{
		{label: "1 1/2"},
		{label: "1_1/2", wantErr: true},
		{label: "1/2"},
		{label: "1/2", wantErr: true},
	}
	for i, tt := range tests {
		_, err := jobs[i].Render()
		if (err != nil) != tt.wantErr {
			t.Errorf("job %d (%s): Render() error = %v, wantErr %v", i, tt.label, err, tt.wantErr)
		}
		if tt.wantErr && !strings.Contains(err.Error(), "already produced") {
			t.Errorf("job %d (%s): unexpected error %v", i, tt.label, err)
		}
	}
}

func TestExecuteWashers(t *testing.T) {
	out := t.TempDir()
	stub := &stubCompiler{}

	err := executeWashers(context.Background(), testDocument(), washerOptions{configPath: "washers.yaml", outDir: out}, stub)
	if err == nil || !strings.Contains(err.Error(), "1 of 3 parts failed") {
		t.Fatalf("Expected one failed part, got %v", err)
	}
	if len(stub.jobs) != 2 {
		t.Errorf("Expected 2 compiled washers, got %d", len(stub.jobs))
	}

	report, err := manifest.Load(filepath.Join(out, "manifest.yaml"))
	if err != nil {
		t.Fatalf("Expected manifest: %v", err)
	}
	if report.Generator != "washers" || report.Succeeded != 2 || report.Failed != 1 {
		t.Errorf("Unexpected manifest %+v", report)
	}

	// openscad renderer removes sources by default
	if _, err := os.Stat(filepath.Join(out, "drive_1_2", "scad", "washer_1_2.scad")); !os.IsNotExist(err) {
		t.Errorf("Expected source to be removed, got %v", err)
	}
}

func TestBuildHolderJobs(t *testing.T) {
	out := t.TempDir()
	params := config.HolderParams{IDStart: 1, IDEnd: 2, Increment: 0.5, NutSize: 15.875, WallThickness: 3}

	jobs, err := buildHolderJobs(params, out, newRenderer(t))
	if err != nil {
		t.Fatalf("buildHolderJobs failed: %v", err)
	}

	var names []string
	for _, j := range jobs {
		names = append(names, filepath.Base(j.Output))
	}
	if diff := cmp.Diff([]string{"holder_1mm.stl", "holder_1.5mm.stl"}, names); diff != "" {
		t.Errorf("outputs mismatch (-want +got):\n%s", diff)
	}

	rendered, err := jobs[1].Render()
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if rendered.Size != 1.5 || !strings.Contains(rendered.Source, "cradle_id = 1.5;") {
		t.Errorf("Unexpected render %v:\n%s", rendered.Size, rendered.Source)
	}
}

func TestExecuteHolders(t *testing.T) {
	out := t.TempDir()
	stub := &stubCompiler{}
	opts := holderOptions{
		params:  config.HolderParams{IDStart: 1, IDEnd: 2, Increment: 0.5, NutSize: 15.875, WallThickness: 3},
		outDir:  out,
		parquet: true,
	}

	if err := executeHolders(context.Background(), opts, stub); err != nil {
		t.Fatalf("executeHolders failed: %v", err)
	}

	for _, name := range []string{"holder_1mm.stl", "holder_1.5mm.stl", "manifest.yaml", "manifest.parquet"} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Errorf("Expected %s: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(out, "holder_1mm.scad")); !os.IsNotExist(err) {
		t.Errorf("Expected source to be removed, got %v", err)
	}

	report, err := manifest.Load(filepath.Join(out, "manifest.parquet"))
	if err != nil {
		t.Fatalf("Load parquet manifest failed: %v", err)
	}
	if len(report.Entries) != 2 || report.Entries[1].SizeMM != 1.5 {
		t.Errorf("Unexpected parquet entries %+v", report.Entries)
	}
}

func TestExecuteManifest(t *testing.T) {
	if err := executeManifest(filepath.Join(t.TempDir(), "missing.yaml"), false); err == nil {
		t.Error("Expected error for missing manifest, got nil")
	}
}

func TestNewCompilerUnsupported(t *testing.T) {
	if _, err := newCompiler(compilerOptions{renderer: "blender"}); err == nil {
		t.Error("Expected error for unsupported renderer, got nil")
	}
}

func TestHoldersCmdRequiresFlags(t *testing.T) {
	cmd := NewHoldersCmd()
	cmd.SetArgs([]string{"--id_start", "1"})
	cmd.SetOut(&strings.Builder{})
	cmd.SetErr(&strings.Builder{})
	if err := cmd.Execute(); err == nil || !strings.Contains(err.Error(), "required flag") {
		t.Errorf("Expected required flag error, got %v", err)
	}
}
