package frontend

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/gork-labs/uniongen/internal/schema"
)

// SchemaFile is the document format read by YAMLFeed.
//
//	package: shapes
//	import_path: example.com/shapes
//	unions:
//	  - name: Shape
//	    cases:
//	      - name: Dot
//	      - name: Circle
//	        fields:
//	          - {name: radius, type: float64}
type SchemaFile struct {
	Package    string          `yaml:"package"`
	ImportPath string          `yaml:"import_path,omitempty"`
	OutputDir  string          `yaml:"output_dir,omitempty"`
	Imports    []schema.Import `yaml:"imports,omitempty"`
	Unions     []UnionSpec     `yaml:"unions"`
}

// UnionSpec declares one union in a schema file.
type UnionSpec struct {
	Name       string                 `yaml:"name"`
	TypeParams []schema.TypeParameter `yaml:"type_params,omitempty"`
	// String reports that the package defines String on the union itself.
	String bool              `yaml:"string,omitempty"`
	Cases  []schema.CaseDecl `yaml:"cases"`
}

// YAMLFeed reads declarations from schema files. Paths may be files or
// glob patterns; relative output directories are resolved against the
// directory of the file declaring them.
type YAMLFeed struct {
	Paths []string
}

func (f *YAMLFeed) Declarations(ctx context.Context) ([]schema.Declaration, error) {
	files, err := f.files()
	if err != nil {
		return nil, err
	}

	var decls []schema.Declaration
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "read schema %s", path)
		}
		found, err := ParseSchema(path, data)
		if err != nil {
			return nil, err
		}
		decls = append(decls, found...)
	}
	return decls, nil
}

func (f *YAMLFeed) files() ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, pattern := range f.Paths {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, errors.Wrapf(err, "schema pattern %s", pattern)
		}
		if matches == nil {
			return nil, errors.Newf("no schema files match %s", pattern)
		}
		sort.Strings(matches)
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	return out, nil
}

// ParseSchema decodes one schema file. Unknown keys are rejected; a file may
// hold several YAML documents.
func ParseSchema(path string, data []byte) ([]schema.Declaration, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var decls []schema.Declaration
	for {
		var doc SchemaFile
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "parse schema %s", path)
		}
		if doc.Package == "" {
			return nil, errors.WithHint(
				errors.Newf("schema %s: missing package", path),
				"every schema document names the Go package its unions belong to")
		}

		outDir := doc.OutputDir
		switch {
		case outDir == "":
			outDir = filepath.Dir(path)
		case !filepath.IsAbs(outDir):
			outDir = filepath.Join(filepath.Dir(path), outDir)
		}

		scope := schema.Scope{Name: doc.Package, Path: doc.ImportPath, Imports: doc.Imports}
		for _, u := range doc.Unions {
			decls = append(decls, schema.Declaration{
				ID:                   filepath.ToSlash(path) + "#" + u.Name,
				Name:                 u.Name,
				TypeParameters:       u.TypeParams,
				Scopes:               []schema.Scope{scope},
				Cases:                u.Cases,
				HasUserDefinedString: u.String,
				OutputDir:            outDir,
			})
		}
	}
	return decls, nil
}

// StaticFeed serves a fixed set of declarations.
type StaticFeed []schema.Declaration

func (f StaticFeed) Declarations(context.Context) ([]schema.Declaration, error) {
	out := make([]schema.Declaration, len(f))
	copy(out, f)
	return out, nil
}

// Multi concatenates the declarations of several feeds in order.
type Multi []Feed

func (m Multi) Declarations(ctx context.Context) ([]schema.Declaration, error) {
	var out []schema.Declaration
	for _, f := range m {
		decls, err := f.Declarations(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, decls...)
	}
	return out, nil
}
