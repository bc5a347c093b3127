// Package frontend discovers union declarations and feeds them to the
// pipeline.
package frontend

import (
	"context"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"golang.org/x/mod/modfile"

	"github.com/gork-labs/uniongen/internal/schema"
)

// Directive marks an interface as a union declaration. It may be followed
// by the union's name.
const Directive = "//union:generate"

// GeneratedSuffix is the file suffix of generated unions, which are never
// scanned for declarations.
const GeneratedSuffix = "_union.go"

// Feed is the declaration source of a build cycle.
type Feed interface {
	Declarations(ctx context.Context) ([]schema.Declaration, error)
}

// GoFeed reads union declarations from Go source. Every interface type
// annotated with the directive becomes a declaration; its methods, in
// source order, become the cases and their parameters the fields:
//
//	//union:generate Shape
//	type shape interface {
//		Dot()
//		Circle(radius float64)
//	}
type GoFeed struct {
	// Dirs are the package directories to scan.
	Dirs []string
	// Recursive also scans every subdirectory except vendor, testdata and
	// directories starting with "." or "_".
	Recursive bool
	Logger    *zap.Logger
}

func (f *GoFeed) logger() *zap.Logger {
	if f.Logger == nil {
		return zap.NewNop()
	}
	return f.Logger
}

// Declarations parses the configured directories.
func (f *GoFeed) Declarations(ctx context.Context) ([]schema.Declaration, error) {
	dirs, err := f.packageDirs()
	if err != nil {
		return nil, err
	}

	var decls []schema.Declaration
	for _, dir := range dirs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		found, err := f.parsePackageDir(dir)
		if err != nil {
			return nil, err
		}
		decls = append(decls, found...)
	}
	return decls, nil
}

func (f *GoFeed) packageDirs() ([]string, error) {
	seen := make(map[string]bool)
	var dirs []string
	add := func(dir string) {
		dir = filepath.Clean(dir)
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}

	for _, root := range f.Dirs {
		info, err := os.Stat(root)
		if err != nil {
			return nil, errors.Wrapf(err, "scan %s", root)
		}
		if !info.IsDir() {
			return nil, errors.Newf("scan %s: not a directory", root)
		}
		if !f.Recursive {
			add(root)
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				return nil
			}
			if path != root && SkipDir(d.Name()) {
				return filepath.SkipDir
			}
			add(path)
			return nil
		})
		if err != nil {
			return nil, errors.Wrapf(err, "walk %s", root)
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

// SkipDir reports whether a directory is left out of recursive scans.
func SkipDir(name string) bool {
	return name == "vendor" || name == "testdata" || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")
}

// SourceFile reports whether a file may contain declarations.
func SourceFile(name string) bool {
	return strings.HasSuffix(name, ".go") &&
		!strings.HasSuffix(name, "_test.go") &&
		!strings.HasSuffix(name, GeneratedSuffix)
}

type parsedFile struct {
	path string
	file *ast.File
}

func (f *GoFeed) parsePackageDir(dir string) ([]schema.Declaration, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", dir)
	}

	fset := token.NewFileSet()
	var files []parsedFile
	for _, e := range entries {
		if e.IsDir() || !SourceFile(e.Name()) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		file, err := parser.ParseFile(fset, path, nil, parser.ParseComments|parser.SkipObjectResolution)
		if err != nil {
			// Files being edited often don't parse; the rest of the package
			// is still usable.
			f.logger().Warn("skipping unparsable file", zap.String("file", path), zap.Error(err))
			continue
		}
		files = append(files, parsedFile{path: path, file: file})
	}
	if len(files) == 0 {
		return nil, nil
	}

	importPath, err := ImportPath(dir)
	if err != nil {
		f.logger().Debug("no module for package", zap.String("dir", dir), zap.Error(err))
	}

	var decls []schema.Declaration
	for _, pf := range files {
		for _, decl := range f.fileDeclarations(pf, importPath) {
			decl.HasUserDefinedString = hasStringMethod(files, pf.file.Name.Name, decl.Name)
			decls = append(decls, decl)
		}
	}
	return decls, nil
}

func (f *GoFeed) fileDeclarations(pf parsedFile, importPath string) []schema.Declaration {
	scope := schema.Scope{
		Name:    pf.file.Name.Name,
		Path:    importPath,
		Imports: fileImports(pf.file),
	}

	var decls []schema.Declaration
	for _, d := range pf.file.Decls {
		gen, ok := d.(*ast.GenDecl)
		if !ok || gen.Tok != token.TYPE {
			continue
		}
		for _, spec := range gen.Specs {
			ts := spec.(*ast.TypeSpec)
			iface, ok := ts.Type.(*ast.InterfaceType)
			if !ok {
				continue
			}
			doc := ts.Doc
			if doc == nil && len(gen.Specs) == 1 {
				doc = gen.Doc
			}
			name, ok := directiveName(doc)
			if !ok {
				continue
			}
			if name == "" {
				name = schema.UpperFirst(ts.Name.Name)
			}
			if name == ts.Name.Name {
				f.logger().Warn("union would redeclare its interface; name it in the directive",
					zap.String("file", pf.path), zap.String("interface", ts.Name.Name))
				continue
			}

			decl := schema.Declaration{
				ID:             filepath.ToSlash(pf.path) + "#" + name,
				Name:           name,
				TypeParameters: typeParams(ts.TypeParams),
				Scopes:         []schema.Scope{scope},
				OutputDir:      filepath.Dir(pf.path),
				Cases:          interfaceCases(iface),
			}
			decls = append(decls, decl)
		}
	}
	return decls
}

// directiveName finds the directive in doc and returns the name following
// it, which is empty when none was given.
func directiveName(doc *ast.CommentGroup) (string, bool) {
	if doc == nil {
		return "", false
	}
	for _, c := range doc.List {
		rest, ok := strings.CutPrefix(c.Text, Directive)
		if !ok {
			continue
		}
		if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
			continue
		}
		fields := strings.Fields(rest)
		if len(fields) == 0 {
			return "", true
		}
		return fields[0], true
	}
	return "", false
}

func fileImports(file *ast.File) []schema.Import {
	var out []schema.Import
	for _, spec := range file.Imports {
		path, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			continue
		}
		imp := schema.Import{Path: path}
		if spec.Name != nil {
			imp.Name = spec.Name.Name
		}
		out = append(out, imp)
	}
	return out
}

func typeParams(list *ast.FieldList) []schema.TypeParameter {
	if list == nil {
		return nil
	}
	var out []schema.TypeParameter
	for _, field := range list.List {
		constraint := types.ExprString(field.Type)
		for _, name := range field.Names {
			out = append(out, schema.TypeParameter{Name: name.Name, Constraint: constraint})
		}
	}
	return out
}

// interfaceCases turns interface methods into cases. Embedded interfaces
// and type terms carry no case and are ignored. Unnamed parameters are
// called v1, v2 and so on by position.
func interfaceCases(iface *ast.InterfaceType) []schema.CaseDecl {
	var cases []schema.CaseDecl
	for _, m := range iface.Methods.List {
		fn, ok := m.Type.(*ast.FuncType)
		if !ok || len(m.Names) == 0 {
			continue
		}
		var fields []schema.FieldDecl
		pos := 0
		for _, p := range fn.Params.List {
			typ := fieldType(p.Type)
			if len(p.Names) == 0 {
				pos++
				fields = append(fields, schema.FieldDecl{Type: typ, Name: "v" + strconv.Itoa(pos)})
				continue
			}
			for _, n := range p.Names {
				pos++
				fields = append(fields, schema.FieldDecl{Type: typ, Name: n.Name})
			}
		}
		for _, n := range m.Names {
			cases = append(cases, schema.CaseDecl{Name: n.Name, Fields: fields})
		}
	}
	return cases
}

// fieldType renders a parameter type as a struct field type; variadic
// parameters are stored as slices.
func fieldType(expr ast.Expr) string {
	if ell, ok := expr.(*ast.Ellipsis); ok {
		return "[]" + types.ExprString(ell.Elt)
	}
	return types.ExprString(expr)
}

// hasStringMethod reports whether the package declares a String() string
// method on the named type, with a value or pointer receiver.
func hasStringMethod(files []parsedFile, pkg, typeName string) bool {
	for _, pf := range files {
		if pf.file.Name.Name != pkg {
			continue
		}
		for _, d := range pf.file.Decls {
			fn, ok := d.(*ast.FuncDecl)
			if !ok || fn.Recv == nil || len(fn.Recv.List) != 1 || fn.Name.Name != "String" {
				continue
			}
			if fn.Type.Params.NumFields() != 0 || fn.Type.Results.NumFields() != 1 {
				continue
			}
			if res, ok := fn.Type.Results.List[0].Type.(*ast.Ident); !ok || res.Name != "string" {
				continue
			}
			if receiverName(fn.Recv.List[0].Type) == typeName {
				return true
			}
		}
	}
	return false
}

func receiverName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.StarExpr:
		return receiverName(t.X)
	case *ast.IndexExpr:
		return receiverName(t.X)
	case *ast.IndexListExpr:
		return receiverName(t.X)
	case *ast.Ident:
		return t.Name
	}
	return ""
}

// ImportPath derives the import path of the package in dir from the
// nearest enclosing go.mod.
func ImportPath(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", errors.Wrapf(err, "resolve %s", dir)
	}
	for root := abs; ; {
		data, err := os.ReadFile(filepath.Join(root, "go.mod"))
		if err == nil {
			modPath := modfile.ModulePath(data)
			if modPath == "" {
				return "", errors.Newf("%s/go.mod has no module directive", root)
			}
			rel, err := filepath.Rel(root, abs)
			if err != nil {
				return "", errors.Wrapf(err, "relate %s to module root", dir)
			}
			if rel == "." {
				return modPath, nil
			}
			return modPath + "/" + filepath.ToSlash(rel), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", errors.Wrapf(err, "read go.mod for %s", dir)
		}
		parent := filepath.Dir(root)
		if parent == root {
			return "", errors.Newf("no go.mod above %s", dir)
		}
		root = parent
	}
}
