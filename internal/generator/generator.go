// Package generator renders resolved union schemas into Go source.
package generator

import (
	"bytes"
	"path/filepath"
	"text/template"

	"github.com/cockroachdb/errors"
	"golang.org/x/tools/imports"

	"github.com/gork-labs/uniongen/internal/schema"
)

// RuntimeImport is the package generated code imports for its error values.
const RuntimeImport = "github.com/gork-labs/uniongen/pkg/unions"

// Artifact is one generated file.
type Artifact struct {
	// Key is the schema's unique emission key.
	Key string
	// Path is where the file belongs: the schema's output directory joined
	// with its file name.
	Path   string
	Source []byte
}

// Generator renders schemas through a template. It holds no state between
// calls, so one Generator can render many schemas concurrently.
type Generator struct {
	source        TemplateSource
	template      string
	runtimeImport string
}

// Option configures a Generator.
type Option func(*Generator)

// WithTemplate selects the template name looked up in the source.
func WithTemplate(name string) Option {
	return func(g *Generator) { g.template = name }
}

// WithRuntimeImport overrides the import path of the runtime package.
func WithRuntimeImport(path string) Option {
	return func(g *Generator) { g.runtimeImport = path }
}

// New creates a generator reading templates from source.
func New(source TemplateSource, opts ...Option) *Generator {
	g := &Generator{
		source:        source,
		template:      DefaultTemplate,
		runtimeImport: RuntimeImport,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Render produces the formatted source of one union. Rendering the same
// schema twice yields identical bytes.
func (g *Generator) Render(s schema.UnionSchema) ([]byte, error) {
	view, err := newUnionView(s, g.runtimeImport)
	if err != nil {
		return nil, err
	}

	text, err := g.source.Template(g.template)
	if err != nil {
		return nil, err
	}
	tmpl, err := template.New(g.template).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, errors.Wrapf(err, "parse template %s", g.template)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, view); err != nil {
		return nil, errors.Wrapf(err, "execute template %s for %s", g.template, s.UniqueKey)
	}

	formatted, err := imports.Process(s.FileName, buf.Bytes(), &imports.Options{
		FormatOnly: true,
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
	})
	if err != nil {
		return nil, errors.WithHint(
			errors.Wrapf(err, "format generated code for %s", s.UniqueKey),
			"check that every field type and constraint is valid Go")
	}
	return formatted, nil
}

// Emit renders s and wraps the result as an artifact.
func (g *Generator) Emit(s schema.UnionSchema) (Artifact, error) {
	src, err := g.Render(s)
	if err != nil {
		return Artifact{}, err
	}
	return Artifact{
		Key:    s.UniqueKey,
		Path:   filepath.Join(s.OutputDir, s.FileName),
		Source: src,
	}, nil
}
