package schema

import (
	"go/token"
	"slices"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validatorInstance *validator.Validate
	validatorOnce     sync.Once
)

func getValidator() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		// goident accepts Go identifiers and rejects keywords and the blank
		// identifier, which generated code could not refer to.
		_ = v.RegisterValidation("goident", func(fl validator.FieldLevel) bool {
			name := fl.Field().String()
			return name != "_" && token.IsIdentifier(name)
		})
		validatorInstance = v
	})
	return validatorInstance
}

// Validate reports why a declaration cannot become a schema, or nil when it
// can. Extract only needs the verdict; Validate exists so callers can log
// the reason.
func Validate(decl Declaration) error {
	return getValidator().Struct(decl)
}

// Extract turns a declaration into an unresolved schema. It reports false,
// without error, when the declaration has no cases, repeats a case name,
// repeats a field name within a case, or uses a name that is not a Go
// identifier. The result shares no memory with decl.
func Extract(decl Declaration) (UnionSchema, bool) {
	if Validate(decl) != nil {
		return UnionSchema{}, false
	}

	s := UnionSchema{
		Name:                 decl.Name,
		TypeParameters:       slices.Clone(decl.TypeParameters),
		Scopes:               make([]Scope, len(decl.Scopes)),
		Cases:                make([]CaseSchema, len(decl.Cases)),
		HasUserDefinedString: decl.HasUserDefinedString,
		OutputDir:            decl.OutputDir,
	}
	for i, scope := range decl.Scopes {
		scope.Imports = slices.Clone(scope.Imports)
		s.Scopes[i] = scope
	}
	for i, c := range decl.Cases {
		fields := make([]FieldSchema, len(c.Fields))
		for j, f := range c.Fields {
			fields[j] = FieldSchema{Type: f.Type, Name: f.Name}
		}
		s.Cases[i] = CaseSchema{Name: c.Name, Index: i, Fields: fields}
	}
	return s, true
}

// Transform runs Extract and Resolve, the work the pipeline memoizes per
// declaration.
func Transform(decl Declaration) (UnionSchema, bool) {
	s, ok := Extract(decl)
	if !ok {
		return UnionSchema{}, false
	}
	return Resolve(s), true
}
