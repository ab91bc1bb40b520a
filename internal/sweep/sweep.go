// Package sweep runs a list of independent render jobs one after another:
// render source, write it, compile it, clean up.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/lehigh-university-libraries/partgen/internal/compiler"
)

// MaxJobs bounds a numeric sweep so a tiny increment cannot run forever.
const MaxJobs = 10000

// Resolution is the smallest step a Range can take. Values are rounded to
// 6 decimals to match.
const Resolution = 1e-6

// Range is an end-exclusive numeric sweep.
type Range struct {
	Start     float64
	End       float64
	Increment float64
}

// Values returns Start, Start+Increment, ... while below End. Values are
// rounded to Resolution so accumulated float error does not leak into
// file names, and are strictly increasing.
func (r Range) Values() ([]float64, error) {
	if r.Increment <= 0 || math.IsNaN(r.Increment) {
		return nil, fmt.Errorf("increment must be greater than zero, got %g", r.Increment)
	}
	if r.Increment < Resolution {
		return nil, fmt.Errorf("increment %g is below the %g resolution", r.Increment, Resolution)
	}
	if math.IsNaN(r.Start) || math.IsNaN(r.End) || math.IsInf(r.End, 0) {
		return nil, fmt.Errorf("invalid range %g..%g", r.Start, r.End)
	}

	var values []float64
	for i := 0; ; i++ {
		v := math.Round((r.Start+float64(i)*r.Increment)*1e6) / 1e6
		if v >= r.End {
			break
		}
		if n := len(values); n > 0 && v <= values[n-1] {
			return nil, fmt.Errorf("range %g..%g step %g repeats value %g after rounding", r.Start, r.End, r.Increment, v)
		}
		if len(values) == MaxJobs {
			return nil, fmt.Errorf("range %g..%g step %g produces more than %d values", r.Start, r.End, r.Increment, MaxJobs)
		}
		values = append(values, v)
	}
	return values, nil
}

// Rendered is the output of a job's render step.
type Rendered struct {
	Source string
	// Size is the primary resolved dimension in mm (washer width, holder
	// inner diameter), recorded in the run manifest.
	Size float64
}

// Job pairs a part configuration with its output paths.
type Job struct {
	Part   string
	Label  string
	Source string
	Output string
	Render func() (Rendered, error)
}

// Result records how one job went.
type Result struct {
	Part     string
	Label    string
	Source   string
	Output   string
	Size     float64
	Duration time.Duration
	Error    string
}

// Summary collects results of a sweep.
type Summary struct {
	Results   []Result
	Succeeded int
	Failed    int
}

func (s *Summary) add(r Result) {
	s.Results = append(s.Results, r)
	if r.Error != "" {
		s.Failed++
	} else {
		s.Succeeded++
	}
}

// ErrAborted is returned when FailFast stops the sweep.
var ErrAborted = errors.New("sweep aborted")

// Driver runs jobs sequentially against a compiler.
type Driver struct {
	Compiler compiler.Compiler
	// KeepSource leaves the generated .scad next to the artifact.
	KeepSource bool
	// FailFast stops at the first failed job instead of recording it and
	// moving on.
	FailFast bool
}

// Run executes jobs in order. The returned summary is complete for every
// job that was attempted, even when an error is returned.
func (d *Driver) Run(ctx context.Context, jobs []Job) (*Summary, error) {
	summary := &Summary{Results: make([]Result, 0, len(jobs))}

	for i, job := range jobs {
		if err := ctx.Err(); err != nil {
			return summary, fmt.Errorf("sweep interrupted after %d/%d jobs: %w", i, len(jobs), err)
		}

		slog.Info("Processing job", "part", job.Part, "label", job.Label, "progress", fmt.Sprintf("%d/%d", i+1, len(jobs)))

		result := d.runJob(ctx, job)
		summary.add(result)

		if result.Error != "" {
			slog.Warn("Job failed", "part", job.Part, "label", job.Label, "error", result.Error)
			if d.FailFast {
				return summary, fmt.Errorf("%w: %s %s: %s", ErrAborted, job.Part, job.Label, result.Error)
			}
			continue
		}
		slog.Info("Job complete", "output", result.Output, "duration", result.Duration)
	}

	return summary, nil
}

func (d *Driver) runJob(ctx context.Context, job Job) Result {
	start := time.Now()
	result := Result{
		Part:   job.Part,
		Label:  job.Label,
		Source: job.Source,
		Output: job.Output,
	}
	fail := func(err error) Result {
		result.Error = err.Error()
		result.Duration = time.Since(start)
		return result
	}

	rendered, err := job.Render()
	if err != nil {
		return fail(fmt.Errorf("failed to render source: %w", err))
	}
	result.Size = rendered.Size

	if err := os.MkdirAll(filepath.Dir(job.Source), 0755); err != nil {
		return fail(fmt.Errorf("failed to create source directory: %w", err))
	}
	if err := os.WriteFile(job.Source, []byte(rendered.Source), 0644); err != nil {
		return fail(fmt.Errorf("failed to write source: %w", err))
	}

	compileErr := d.Compiler.Compile(ctx, compiler.Job{Source: job.Source, Output: job.Output})

	if !d.KeepSource {
		if err := os.Remove(job.Source); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Warn("Failed to remove source", "path", job.Source, "error", err)
		}
		result.Source = ""
	}

	if compileErr != nil {
		return fail(compileErr)
	}

	result.Duration = time.Since(start)
	return result
}

// PrepareDir creates dir, removing whatever was there first when clear is set.
func PrepareDir(dir string, clear bool) error {
	if clear {
		slog.Info("Clearing output directory", "dir", dir)
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("failed to clear %s: %w", dir, err)
		}
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	return nil
}
