package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	RendererOpenSCAD  = "openscad"
	RendererColorSCAD = "colorscad"

	DefaultColorSCADImage = "ghcr.io/thehonker/colorscad:latest"
	DefaultFont           = "Calibri:style=Bold"
	DefaultTextSize       = 8.0
)

// Options are the global settings of a washer document.
type Options struct {
	ClearOutputDir bool   `yaml:"clear_output_dir"`
	Renderer       string `yaml:"renderer"`
	ColorSCADImage string `yaml:"colorscad_image"`
	Pull           string `yaml:"pull"`
	KeepSCAD       *bool  `yaml:"keep_scad"`
	LibDir         string `yaml:"lib_dir"`
}

// WasherParams are the geometry parameters shared by every text of one washer.
type WasherParams struct {
	AdjustForSocket bool    `yaml:"adjust_for_socket"`
	EdgeThickness   float64 `yaml:"edge_thickness"`
	EngraveDepth    float64 `yaml:"engrave_depth"`
	Height          float64 `yaml:"height"`
	HoleDiameter    float64 `yaml:"hole_diameter"`
	LetterOffset    float64 `yaml:"letter_offset"`
	MinWidth        float64 `yaml:"min_width"`
	Thickness       float64 `yaml:"thickness"`
	WallThickness   float64 `yaml:"wall_thickness"`
	Font            string  `yaml:"font,omitempty"`
	TextSize        float64 `yaml:"text_size,omitempty"`
}

// Washer is one named part with the label texts to render it for.
type Washer struct {
	Name   string        `yaml:"name"`
	Params *WasherParams `yaml:"params"`
	Texts  []string      `yaml:"texts"`
}

// Document is the top level washer configuration file.
type Document struct {
	Options Options  `yaml:"options"`
	Washers []Washer `yaml:"washers"`
}

// LoadDocument reads and validates a washer document from disk.
func LoadDocument(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	doc, err := ParseDocument(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return doc, nil
}

// ParseDocument decodes a washer document. Unknown keys are rejected.
func ParseDocument(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	doc.applyDefaults()
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (d *Document) applyDefaults() {
	if d.Options.Renderer == "" {
		d.Options.Renderer = os.Getenv("PARTGEN_RENDERER")
	}
	if d.Options.Renderer == "" {
		d.Options.Renderer = RendererColorSCAD
	}
	if d.Options.ColorSCADImage == "" {
		d.Options.ColorSCADImage = os.Getenv("COLORSCAD_IMAGE")
	}
	if d.Options.ColorSCADImage == "" {
		d.Options.ColorSCADImage = DefaultColorSCADImage
	}
	if d.Options.Pull == "" {
		d.Options.Pull = "always"
	}
	for i := range d.Washers {
		p := d.Washers[i].Params
		if p == nil {
			continue
		}
		if p.Font == "" {
			p.Font = DefaultFont
		}
		if p.TextSize == 0 {
			p.TextSize = DefaultTextSize
		}
	}
}

// KeepSource reports whether generated .scad files stay on disk. The
// colorscad renderer reads them from the mounted workspace, so they are
// kept unless the document says otherwise.
func (o Options) KeepSource() bool {
	if o.KeepSCAD != nil {
		return *o.KeepSCAD
	}
	return o.Renderer == RendererColorSCAD
}

// Validate checks the document shape. Parts without params or texts are
// only warned about, matching how they are skipped at render time.
func (d *Document) Validate() error {
	switch d.Options.Renderer {
	case RendererOpenSCAD, RendererColorSCAD:
	default:
		return fmt.Errorf("unsupported renderer: %s (supported: %s, %s)", d.Options.Renderer, RendererOpenSCAD, RendererColorSCAD)
	}

	if len(d.Washers) == 0 {
		return errors.New("no washers defined")
	}

	seen := make(map[string]bool, len(d.Washers))
	for i, w := range d.Washers {
		name := strings.TrimSpace(w.Name)
		if name == "" {
			return fmt.Errorf("washers[%d]: name is required", i)
		}
		if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
			return fmt.Errorf("washers[%d]: name %q must be a plain directory name", i, name)
		}
		if seen[name] {
			return fmt.Errorf("washers[%d]: duplicate name %q", i, name)
		}
		seen[name] = true

		if w.Params == nil || len(w.Texts) == 0 {
			slog.Warn("Washer has no params or texts, it will be skipped", "name", name)
		}
	}
	return nil
}

// Validate checks that the parameters describe a printable plate.
func (p *WasherParams) Validate() error {
	type field struct {
		name  string
		value float64
	}

	for _, f := range []field{
		{"height", p.Height},
		{"thickness", p.Thickness},
		{"text_size", p.TextSize},
	} {
		if f.value <= 0 {
			return fmt.Errorf("%s must be greater than zero, got %g", f.name, f.value)
		}
	}

	for _, f := range []field{
		{"edge_thickness", p.EdgeThickness},
		{"engrave_depth", p.EngraveDepth},
		{"hole_diameter", p.HoleDiameter},
		{"letter_offset", p.LetterOffset},
		{"min_width", p.MinWidth},
		{"wall_thickness", p.WallThickness},
	} {
		if f.value < 0 {
			return fmt.Errorf("%s must not be negative, got %g", f.name, f.value)
		}
	}

	if !p.AdjustForSocket && p.MinWidth <= 0 {
		return errors.New("min_width must be greater than zero when adjust_for_socket is false")
	}
	return nil
}
