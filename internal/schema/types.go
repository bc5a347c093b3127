package schema

import "slices"

// Declaration is the raw record a front-end produces for one candidate
// union. It is validated and turned into a UnionSchema by Extract.
type Declaration struct {
	// ID identifies the declaration across build cycles, e.g. "shapes/shape.go#Shape".
	ID                   string          `json:"id" yaml:"id"`
	Name                 string          `json:"name" yaml:"name" validate:"goident"`
	TypeParameters       []TypeParameter `json:"type_params,omitempty" yaml:"type_params,omitempty" validate:"unique=Name,dive"`
	Scopes               []Scope         `json:"scopes" yaml:"scopes" validate:"min=1,dive"`
	Cases                []CaseDecl      `json:"cases" yaml:"cases" validate:"min=1,unique=Name,dive"`
	HasUserDefinedString bool            `json:"has_string,omitempty" yaml:"has_string,omitempty"`
	// OutputDir is the directory that receives the generated file.
	OutputDir string `json:"output_dir,omitempty" yaml:"output_dir,omitempty"`
}

// TypeParameter is one generic parameter of a union.
type TypeParameter struct {
	Name string `json:"name" yaml:"name" validate:"goident"`
	// Constraint is printed verbatim in the type parameter list; empty means any.
	Constraint string `json:"constraint,omitempty" yaml:"constraint,omitempty"`
}

// Scope is one enclosing context of a declaration, outermost first. For Go
// sources this is the package the union lives in.
type Scope struct {
	Name    string   `json:"name" yaml:"name" validate:"goident"`
	Path    string   `json:"path,omitempty" yaml:"path,omitempty"`
	Imports []Import `json:"imports,omitempty" yaml:"imports,omitempty" validate:"dive"`
}

// Import makes a package available to field types of the generated code.
type Import struct {
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	Path string `json:"path" yaml:"path" validate:"required"`
}

// CaseDecl is a candidate case as seen by the front-end.
type CaseDecl struct {
	Name   string      `json:"name" yaml:"name" validate:"goident"`
	Fields []FieldDecl `json:"fields,omitempty" yaml:"fields,omitempty" validate:"unique=Name,dive"`
}

// FieldDecl is one (type, name) pair of a candidate case.
type FieldDecl struct {
	Type string `json:"type" yaml:"type" validate:"required"`
	Name string `json:"name" yaml:"name" validate:"goident"`
}

// Equal reports whether two declarations describe the same union. The
// transform cache uses it to decide whether a cached result can be reused.
func (d Declaration) Equal(o Declaration) bool {
	return d.ID == o.ID &&
		d.Name == o.Name &&
		d.HasUserDefinedString == o.HasUserDefinedString &&
		d.OutputDir == o.OutputDir &&
		slices.Equal(d.TypeParameters, o.TypeParameters) &&
		slices.EqualFunc(d.Scopes, o.Scopes, Scope.Equal) &&
		slices.EqualFunc(d.Cases, o.Cases, CaseDecl.Equal)
}

// Equal compares scopes including their imports, in order.
func (s Scope) Equal(o Scope) bool {
	return s.Name == o.Name && s.Path == o.Path && slices.Equal(s.Imports, o.Imports)
}

// Equal compares the case name and its fields in order.
func (c CaseDecl) Equal(o CaseDecl) bool {
	return c.Name == o.Name && slices.Equal(c.Fields, o.Fields)
}

// UnionSchema is the validated, immutable description of one union. The
// identifier fields are empty until Resolve fills them in.
type UnionSchema struct {
	Name                 string          `json:"name" yaml:"name"`
	TypeParameters       []TypeParameter `json:"type_params,omitempty" yaml:"type_params,omitempty"`
	Scopes               []Scope         `json:"scopes" yaml:"scopes"`
	Cases                []CaseSchema    `json:"cases" yaml:"cases"`
	HasUserDefinedString bool            `json:"has_string,omitempty" yaml:"has_string,omitempty"`
	OutputDir            string          `json:"output_dir,omitempty" yaml:"output_dir,omitempty"`

	// DisplayName is the type name with its parameter list, e.g. "Result[T, E]".
	DisplayName string `json:"display_name,omitempty" yaml:"display_name,omitempty"`
	// QualifiedName prefixes DisplayName with the enclosing scopes.
	QualifiedName string `json:"qualified_name,omitempty" yaml:"qualified_name,omitempty"`
	// UniqueKey keys the generated output; safe as a file or identifier fragment.
	UniqueKey string `json:"unique_key,omitempty" yaml:"unique_key,omitempty"`
	// FileName is the base name of the generated file.
	FileName string `json:"file_name,omitempty" yaml:"file_name,omitempty"`
	Names    Names  `json:"names" yaml:"names"`
}

// Names are the union-wide identifiers of the generated code.
type Names struct {
	CaseType      string `json:"case_type" yaml:"case_type"`
	CaseMember    string `json:"case_member" yaml:"case_member"`
	Handlers      string `json:"handlers" yaml:"handlers"`
	Actions       string `json:"actions" yaml:"actions"`
	Switch        string `json:"switch" yaml:"switch"`
	SwitchPartial string `json:"switch_partial" yaml:"switch_partial"`

	CaseMethod      string `json:"case_method" yaml:"case_method"`
	StringMethod    string `json:"string_method" yaml:"string_method"`
	DoMethod        string `json:"do_method" yaml:"do_method"`
	DoPartialMethod string `json:"do_partial_method" yaml:"do_partial_method"`

	Receiver      string `json:"receiver" yaml:"receiver"`
	Result        string `json:"result" yaml:"result"`
	HandlersParam string `json:"handlers_param" yaml:"handlers_param"`
	ActionsParam  string `json:"actions_param" yaml:"actions_param"`
	Fallback      string `json:"fallback" yaml:"fallback"`
}

// CaseSchema is one variant of a union.
type CaseSchema struct {
	Name   string        `json:"name" yaml:"name"`
	Index  int           `json:"index" yaml:"index"`
	Fields []FieldSchema `json:"fields,omitempty" yaml:"fields,omitempty"`

	Const       string `json:"const,omitempty" yaml:"const,omitempty"`
	Constructor string `json:"constructor,omitempty" yaml:"constructor,omitempty"`
	Is          string `json:"is,omitempty" yaml:"is,omitempty"`
	TryGet      string `json:"try_get,omitempty" yaml:"try_get,omitempty"`
	Get         string `json:"get,omitempty" yaml:"get,omitempty"`
	// Handler names the case's parameter in the exhaustive dispatch functions.
	Handler string `json:"handler,omitempty" yaml:"handler,omitempty"`
}

// FieldSchema is one named, typed parameter of a case.
type FieldSchema struct {
	Type string `json:"type" yaml:"type"`
	Name string `json:"name" yaml:"name"`
	// StorageSlot is "<Case>_<Field>", suffixed when two derivations coincide.
	StorageSlot string `json:"storage_slot,omitempty" yaml:"storage_slot,omitempty"`
	// Param names the field in the constructor's parameter list.
	Param string `json:"param,omitempty" yaml:"param,omitempty"`
}

// Member is the struct field holding the slot. The leading underscore keeps
// it unexported whatever the case name looks like.
func (f FieldSchema) Member() string {
	return "_" + f.StorageSlot
}

// Package is the name used in the generated file's package clause.
func (s UnionSchema) Package() string {
	if len(s.Scopes) == 0 {
		return ""
	}
	return s.Scopes[len(s.Scopes)-1].Name
}

// Imports lists every import carried by the enclosing scopes, outermost
// scope first, without duplicate paths.
func (s UnionSchema) Imports() []Import {
	var out []Import
	seen := make(map[string]bool)
	for _, scope := range s.Scopes {
		for _, imp := range scope.Imports {
			if seen[imp.Path] {
				continue
			}
			seen[imp.Path] = true
			out = append(out, imp)
		}
	}
	return out
}

// FieldCount is the total number of storage slots.
func (s UnionSchema) FieldCount() int {
	n := 0
	for _, c := range s.Cases {
		n += len(c.Fields)
	}
	return n
}

// PackageNames lists the package-level identifiers the generated file declares.
func (s UnionSchema) PackageNames() []string {
	names := []string{s.Name, s.Names.CaseType, s.Names.Handlers, s.Names.Actions, s.Names.Switch, s.Names.SwitchPartial}
	for _, c := range s.Cases {
		names = append(names, c.Const, c.Constructor)
	}
	return names
}
