// Package scad renders OpenSCAD source for the generated parts.
package scad

import (
	"embed"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"github.com/flosch/pongo2/v6"
)

//go:embed templates/*.tpl
var embeddedTemplates embed.FS

const (
	washerTemplate = "washer.scad.tpl"
	holderTemplate = "holder.scad.tpl"
)

// WasherModel is everything the washer template needs for one label.
type WasherModel struct {
	EdgeThickness float64
	EngraveDepth  float64
	EngraveText   string
	Height        float64
	HoleDiameter  float64
	LetterOffset  float64
	Thickness     float64
	Width         float64
	Font          string
	TextSize      float64
	// LibDir, when set, emits a use <LibDir/fillets3d.scad> line.
	LibDir string
}

// HolderModel is everything the holder template needs for one diameter.
type HolderModel struct {
	InnerDiameter float64
	NutSize       float64
	WallThickness float64
	BaseSTL       string
	FilletLib     string
}

// Renderer renders the embedded part templates.
type Renderer struct {
	set       *pongo2.TemplateSet
	templates map[string]*pongo2.Template
}

// NewRenderer loads and compiles the embedded templates.
func NewRenderer() (*Renderer, error) {
	sub, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		return nil, fmt.Errorf("scad: templates fs: %w", err)
	}
	return newRenderer(sub)
}

func newRenderer(files fs.FS) (*Renderer, error) {
	r := &Renderer{
		set:       pongo2.NewSet("scad", pongo2.NewFSLoader(files)),
		templates: make(map[string]*pongo2.Template, 2),
	}
	for _, name := range []string{washerTemplate, holderTemplate} {
		tmpl, err := r.set.FromFile(name)
		if err != nil {
			return nil, fmt.Errorf("scad: load template %q: %w", name, err)
		}
		r.templates[name] = tmpl
	}
	return r, nil
}

// RenderWasher returns the OpenSCAD source for one washer.
func (r *Renderer) RenderWasher(m WasherModel) (string, error) {
	return r.execute(washerTemplate, pongo2.Context{
		"lib_dir":        strings.TrimSuffix(m.LibDir, "/"),
		"edge_thickness": Number(m.EdgeThickness),
		"engrave_depth":  Number(m.EngraveDepth),
		"engrave_text":   Quote(m.EngraveText),
		"height":         Number(m.Height),
		"hole_diameter":  Number(m.HoleDiameter),
		"letter_offset":  Number(m.LetterOffset),
		"thickness":      Number(m.Thickness),
		"width":          Number(m.Width),
		"font":           Quote(m.Font),
		"text_size":      Number(m.TextSize),
	})
}

// RenderHolder returns the OpenSCAD source for one holder.
func (r *Renderer) RenderHolder(m HolderModel) (string, error) {
	return r.execute(holderTemplate, pongo2.Context{
		"inner_diameter": Number(m.InnerDiameter),
		"nut_size":       Number(m.NutSize),
		"wall_thickness": Number(m.WallThickness),
		"base_stl":       Quote(filepathToSCAD(m.BaseSTL)),
		"fillet_lib":     filepathToSCAD(m.FilletLib),
	})
}

func (r *Renderer) execute(name string, ctx pongo2.Context) (string, error) {
	tmpl, ok := r.templates[name]
	if !ok {
		return "", fmt.Errorf("scad: unknown template %q", name)
	}
	out, err := tmpl.Execute(ctx)
	if err != nil {
		return "", fmt.Errorf("scad: execute template %q: %w", name, err)
	}
	return strings.TrimLeft(out, "\n"), nil
}

// Number formats v with the fewest digits that round-trip.
func Number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

var scadStringEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

// Quote escapes s for use inside an OpenSCAD string literal.
func Quote(s string) string {
	return scadStringEscaper.Replace(s)
}

// OpenSCAD accepts forward slashes on every platform.
func filepathToSCAD(p string) string {
	return strings.ReplaceAll(p, `\`, "/")
}
