package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shapeDecl() Declaration {
	return Declaration{
		ID:     "shapes/shape.go#Shape",
		Name:   "Shape",
		Scopes: []Scope{{Name: "shapes", Path: "example.com/shapes"}},
		Cases: []CaseDecl{
			{Name: "Dot"},
			{Name: "Circle", Fields: []FieldDecl{{Type: "float64", Name: "radius"}}},
			{Name: "Rectangle", Fields: []FieldDecl{{Type: "float64", Name: "width"}, {Type: "float64", Name: "length"}}},
		},
	}
}

func resultDecl() Declaration {
	return Declaration{
		ID:             "result/result.go#Result",
		Name:           "Result",
		TypeParameters: []TypeParameter{{Name: "T"}, {Name: "E", Constraint: "comparable"}},
		Scopes:         []Scope{{Name: "result", Path: "example.com/result"}},
		Cases: []CaseDecl{
			{Name: "Ok", Fields: []FieldDecl{{Type: "T", Name: "value"}}},
			{Name: "Error", Fields: []FieldDecl{{Type: "E", Name: "err"}}},
		},
	}
}

func TestExtract(t *testing.T) {
	s, ok := Extract(shapeDecl())
	require.True(t, ok)

	assert.Equal(t, "Shape", s.Name)
	require.Len(t, s.Cases, 3)
	for i, c := range s.Cases {
		assert.Equal(t, i, c.Index)
	}
	assert.Equal(t, "Rectangle", s.Cases[2].Name)
	assert.Equal(t, []FieldSchema{{Type: "float64", Name: "width"}, {Type: "float64", Name: "length"}}, s.Cases[2].Fields)
	assert.Equal(t, 3, s.FieldCount())
	assert.Equal(t, "shapes", s.Package())
	assert.Empty(t, s.UniqueKey, "Extract must not resolve identifiers")
}

func TestExtractRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Declaration)
	}{
		{
			name:   "no cases",
			mutate: func(d *Declaration) { d.Cases = nil },
		},
		{
			name: "duplicate case name",
			mutate: func(d *Declaration) {
				d.Cases = []CaseDecl{{Name: "Ok"}, {Name: "Ok"}}
			},
		},
		{
			name: "duplicate field name",
			mutate: func(d *Declaration) {
				d.Cases[2].Fields[1].Name = "width"
			},
		},
		{
			name:   "keyword case name",
			mutate: func(d *Declaration) { d.Cases[0].Name = "func" },
		},
		{
			name:   "empty field type",
			mutate: func(d *Declaration) { d.Cases[1].Fields[0].Type = "" },
		},
		{
			name:   "invalid union name",
			mutate: func(d *Declaration) { d.Name = "my-shape" },
		},
		{
			name:   "no scope",
			mutate: func(d *Declaration) { d.Scopes = nil },
		},
		{
			name: "duplicate type parameter",
			mutate: func(d *Declaration) {
				d.TypeParameters = []TypeParameter{{Name: "T"}, {Name: "T"}}
			},
		},
		{
			name:   "blank case name",
			mutate: func(d *Declaration) { d.Cases[0].Name = "_" },
		},
		{
			name:   "blank field name",
			mutate: func(d *Declaration) { d.Cases[1].Fields[0].Name = "_" },
		},
		{
			name:   "blank type parameter",
			mutate: func(d *Declaration) { d.TypeParameters = []TypeParameter{{Name: "_"}} },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decl := shapeDecl()
			tt.mutate(&decl)

			_, ok := Extract(decl)
			assert.False(t, ok)
			assert.Error(t, Validate(decl))

			_, ok = Transform(decl)
			assert.False(t, ok)
		})
	}
}

func TestExtractCaseNamesAreCaseSensitive(t *testing.T) {
	decl := shapeDecl()
	decl.Cases = []CaseDecl{{Name: "Dot"}, {Name: "dot"}}

	_, ok := Extract(decl)
	assert.True(t, ok)
}

func TestExtractDoesNotAlias(t *testing.T) {
	decl := shapeDecl()
	s, ok := Extract(decl)
	require.True(t, ok)

	decl.Cases[1].Fields[0].Name = "diameter"
	decl.Scopes[0].Name = "other"

	assert.Equal(t, "radius", s.Cases[1].Fields[0].Name)
	assert.Equal(t, "shapes", s.Scopes[0].Name)
}

func TestResolveShape(t *testing.T) {
	s, ok := Transform(shapeDecl())
	require.True(t, ok)

	assert.Equal(t, "Shape", s.DisplayName)
	assert.Equal(t, "example.com/shapes.Shape", s.QualifiedName)
	assert.Equal(t, "example.com.shapes.Shape", s.UniqueKey)
	assert.Equal(t, "shape_union.go", s.FileName)

	assert.Equal(t, Names{
		CaseType:        "ShapeCase",
		CaseMember:      "_case",
		Handlers:        "ShapeHandlers",
		Actions:         "ShapeActions",
		Switch:          "SwitchShape",
		SwitchPartial:   "SwitchShapePartial",
		CaseMethod:      "Case",
		StringMethod:    "String",
		DoMethod:        "Do",
		DoPartialMethod: "DoPartial",
		Receiver:        "u",
		Result:          "R",
		HandlersParam:   "handlers",
		ActionsParam:    "actions",
		Fallback:        "fallback",
	}, s.Names)

	circle := s.Cases[1]
	assert.Equal(t, "ShapeCircle", circle.Constructor)
	assert.Equal(t, "ShapeCaseCircle", circle.Const)
	assert.Equal(t, "IsCircle", circle.Is)
	assert.Equal(t, "TryGetCircle", circle.TryGet)
	assert.Equal(t, "GetCircle", circle.Get)
	assert.Equal(t, "circle", circle.Handler)

	rect := s.Cases[2]
	assert.Equal(t, "Rectangle_width", rect.Fields[0].StorageSlot)
	assert.Equal(t, "_Rectangle_width", rect.Fields[0].Member())
	assert.Equal(t, "Rectangle_length", rect.Fields[1].StorageSlot)
	assert.Equal(t, "length", rect.Fields[1].Param)
}

func TestResolveGeneric(t *testing.T) {
	s, ok := Transform(resultDecl())
	require.True(t, ok)

	assert.Equal(t, "Result[T, E]", s.DisplayName)
	assert.Equal(t, "example.com.result.Result[T,E]", s.UniqueKey)
	assert.Equal(t, "[T any, E comparable]", s.TypeParamList())
}

func TestResolveSameNameInDifferentScopes(t *testing.T) {
	a := shapeDecl()
	b := shapeDecl()
	b.Scopes = []Scope{{Name: "shapes", Path: "example.com/other/shapes"}}

	sa, ok := Transform(a)
	require.True(t, ok)
	sb, ok := Transform(b)
	require.True(t, ok)

	assert.NotEqual(t, sa.UniqueKey, sb.UniqueKey)
}

func TestResolveScopeWithoutPath(t *testing.T) {
	decl := shapeDecl()
	decl.Scopes = []Scope{{Name: "shapes"}}

	s, ok := Transform(decl)
	require.True(t, ok)
	assert.Equal(t, "shapes.Shape", s.UniqueKey)
}

func TestResolveStorageSlotCollision(t *testing.T) {
	decl := shapeDecl()
	decl.Cases = []CaseDecl{
		{Name: "A", Fields: []FieldDecl{{Type: "int", Name: "b_c"}}},
		{Name: "A_b", Fields: []FieldDecl{{Type: "string", Name: "c"}}},
	}

	s, ok := Transform(decl)
	require.True(t, ok)

	assert.Equal(t, "A_b_c", s.Cases[0].Fields[0].StorageSlot)
	assert.Equal(t, "A_b_c2", s.Cases[1].Fields[0].StorageSlot)
}

func TestResolvePackageNameCollision(t *testing.T) {
	decl := shapeDecl()
	decl.Cases = []CaseDecl{{Name: "Dot"}, {Name: "CaseDot"}}

	s, ok := Transform(decl)
	require.True(t, ok)

	assert.Equal(t, "ShapeDot", s.Cases[0].Constructor)
	assert.Equal(t, "ShapeCaseDot", s.Cases[1].Constructor)
	assert.Equal(t, "ShapeCaseDot2", s.Cases[0].Const)
	assert.Equal(t, "ShapeCaseCaseDot", s.Cases[1].Const)
}

func TestResolveLocalCollisions(t *testing.T) {
	decl := resultDecl()
	decl.TypeParameters = []TypeParameter{{Name: "R"}, {Name: "u"}}
	decl.Cases = []CaseDecl{
		{Name: "Ok", Fields: []FieldDecl{{Type: "R", Name: "R"}, {Type: "u", Name: "fmt"}}},
		{Name: "Type", Fields: []FieldDecl{{Type: "int", Name: "Result"}}},
		{Name: "type_"},
	}

	s, ok := Transform(decl)
	require.True(t, ok)

	assert.Equal(t, "R_", s.Names.Result)
	assert.Equal(t, "u_", s.Names.Receiver)
	assert.Equal(t, "R__", s.Cases[0].Fields[0].Param)
	assert.Equal(t, "fmt_", s.Cases[0].Fields[1].Param)
	assert.Equal(t, "Result_", s.Cases[1].Fields[0].Param)
	assert.Equal(t, "type_", s.Cases[1].Handler)
	assert.Equal(t, "type__", s.Cases[2].Handler)
}

func TestResolveDeterministic(t *testing.T) {
	first, ok := Transform(resultDecl())
	require.True(t, ok)
	second, ok := Transform(resultDecl())
	require.True(t, ok)

	assert.Equal(t, first, second)
}

func TestResolveReservesImportNames(t *testing.T) {
	decl := shapeDecl()
	decl.Scopes[0].Imports = []Import{{Path: "time"}}
	decl.Cases[1].Fields[0] = FieldDecl{Type: "time.Duration", Name: "time"}

	s, ok := Transform(decl)
	require.True(t, ok)
	assert.Equal(t, "time_", s.Cases[1].Fields[0].Param)
}

func TestImports(t *testing.T) {
	s := UnionSchema{Scopes: []Scope{
		{Name: "a", Imports: []Import{{Path: "time"}, {Path: "fmt"}}},
		{Name: "b", Imports: []Import{{Path: "time"}, {Name: "y", Path: "gopkg.in/yaml.v3"}}},
	}}
	assert.Equal(t, []Import{{Path: "time"}, {Path: "fmt"}, {Name: "y", Path: "gopkg.in/yaml.v3"}}, s.Imports())
	assert.Equal(t, "b", s.Package())
}

func TestImportName(t *testing.T) {
	tests := []struct {
		imp  Import
		want string
	}{
		{Import{Path: "time"}, "time"},
		{Import{Path: "net/http"}, "http"},
		{Import{Path: "gopkg.in/yaml.v3"}, "yaml"},
		{Import{Path: "github.com/go-playground/validator/v10"}, "validator"},
		{Import{Path: "github.com/mattn/go-isatty"}, "isatty"},
		{Import{Name: "pb", Path: "example.com/api/proto"}, "pb"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ImportName(tt.imp), tt.imp.Path)
	}
}

func TestSnakeCase(t *testing.T) {
	tests := map[string]string{
		"Shape":       "shape",
		"HTTPRequest": "http_request",
		"myUnion":     "my_union",
		"Result":      "result",
		"A_b":         "a_b",
	}
	for in, want := range tests {
		assert.Equal(t, want, SnakeCase(in), in)
	}
}

func TestDeclarationEqual(t *testing.T) {
	a := shapeDecl()
	b := shapeDecl()
	assert.True(t, a.Equal(b))

	b.Cases[2].Fields[1].Type = "float32"
	assert.False(t, a.Equal(b))

	c := shapeDecl()
	c.HasUserDefinedString = true
	assert.False(t, a.Equal(c))

	d := shapeDecl()
	d.Scopes[0].Imports = []Import{{Path: "time"}}
	assert.False(t, a.Equal(d))
}
