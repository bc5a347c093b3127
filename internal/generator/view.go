package generator

import (
	"go/ast"
	"go/parser"
	"sort"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/gork-labs/uniongen/internal/schema"
)

// unionView is the template data for one union. Everything the template
// prints is computed here so the template stays declarative.
type unionView struct {
	schema.Names

	Name                 string
	Package              string
	RuntimeImport        string
	Imports              []string
	HasUserDefinedString bool

	// Type is the instantiated union type, e.g. "Result[T, E]".
	Type        string
	TypeParams  string
	NameLiteral string
	CaseList    string
	FirstCase   string

	HandlersTypeParams string
	HandlersType       string
	ActionsType        string
	ActionParams       string

	Cases []caseView
}

type caseView struct {
	schema.CaseSchema

	Params        string
	SlotArgs      string
	SlotArgsComma string
	Init          string
	Others        string
	TryGetResults string
	GetResults    string
	HandlerType   string
	ActionType    string
	StringExpr    string
}

func newUnionView(s schema.UnionSchema, runtimeImport string) (*unionView, error) {
	if s.UniqueKey == "" || s.Names.CaseType == "" {
		return nil, errors.Newf("schema %s has not been resolved", s.Name)
	}
	if len(s.Cases) == 0 {
		return nil, errors.Newf("schema %s has no cases", s.Name)
	}
	if s.Package() == "" {
		return nil, errors.Newf("schema %s has no enclosing package", s.Name)
	}

	imports, err := usedImports(s, runtimeImport)
	if err != nil {
		return nil, err
	}

	v := &unionView{
		Names:                s.Names,
		Name:                 s.Name,
		Package:              s.Package(),
		RuntimeImport:        runtimeImport,
		Imports:              imports,
		HasUserDefinedString: s.HasUserDefinedString,
		Type:                 s.DisplayName,
		TypeParams:           s.TypeParamList(),
		NameLiteral:          strconv.Quote(s.DisplayName),
		FirstCase:            s.Cases[0].Name,
	}

	typeArgs := make([]string, 0, len(s.TypeParameters)+1)
	typeParams := make([]string, 0, len(s.TypeParameters)+1)
	for _, tp := range s.TypeParameters {
		constraint := tp.Constraint
		if constraint == "" {
			constraint = "any"
		}
		typeArgs = append(typeArgs, tp.Name)
		typeParams = append(typeParams, tp.Name+" "+constraint)
	}
	v.ActionsType = instantiate(s.Names.Actions, typeArgs)
	v.HandlersType = instantiate(s.Names.Handlers, append(typeArgs, s.Names.Result))
	v.HandlersTypeParams = "[" + strings.Join(append(typeParams, s.Names.Result+" any"), ", ") + "]"

	caseNames := make([]string, len(s.Cases))
	actionParams := make([]string, len(s.Cases))
	for i, c := range s.Cases {
		cv := newCaseView(s, c)
		v.Cases = append(v.Cases, cv)
		caseNames[i] = c.Name
		actionParams[i] = c.Handler + " " + cv.ActionType
	}
	v.CaseList = joinList(caseNames)
	v.ActionParams = strings.Join(actionParams, ", ")
	return v, nil
}

func newCaseView(s schema.UnionSchema, c schema.CaseSchema) caseView {
	cv := caseView{CaseSchema: c}

	params := make([]string, len(c.Fields))
	types := make([]string, len(c.Fields))
	slots := make([]string, len(c.Fields))
	verbs := make([]string, len(c.Fields))
	var init strings.Builder
	for i, f := range c.Fields {
		params[i] = f.Param + " " + f.Type
		types[i] = f.Type
		slots[i] = s.Names.Receiver + "." + f.Member()
		verbs[i] = "%v"
		init.WriteString(", " + f.Member() + ": " + f.Param)
	}

	cv.Params = strings.Join(params, ", ")
	cv.SlotArgs = strings.Join(slots, ", ")
	if len(slots) > 0 {
		cv.SlotArgsComma = cv.SlotArgs + ", "
	}
	cv.Init = init.String()
	cv.HandlerType = "func(" + cv.Params + ") " + s.Names.Result
	cv.ActionType = "func(" + cv.Params + ")"

	if len(types) == 0 {
		cv.TryGetResults = "bool"
		cv.GetResults = "error"
	} else {
		cv.TryGetResults = "(" + strings.Join(append(types, "bool"), ", ") + ")"
		cv.GetResults = "(" + strings.Join(append(types, "error"), ", ") + ")"
	}

	var others []string
	for _, o := range s.Cases {
		if o.Index != c.Index {
			others = append(others, o.Const)
		}
	}
	cv.Others = strings.Join(others, ", ")

	if len(c.Fields) == 0 {
		cv.StringExpr = strconv.Quote(c.Name + "()")
	} else {
		format := c.Name + "(" + strings.Join(verbs, ", ") + ")"
		cv.StringExpr = "fmt.Sprintf(" + strconv.Quote(format) + ", " + cv.SlotArgs + ")"
	}
	return cv
}

func instantiate(name string, args []string) string {
	if len(args) == 0 {
		return name
	}
	return name + "[" + strings.Join(args, ", ") + "]"
}

// joinList renders "A", "A and B" or "A, B and C".
func joinList(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	default:
		return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
	}
}

// usedImports keeps the scope imports whose name qualifies a field type or
// a constraint, rendered as import specs in path order.
func usedImports(s schema.UnionSchema, runtimeImport string) ([]string, error) {
	qualifiers := make(map[string]bool)
	collect := func(expr string) error {
		node, err := parser.ParseExpr(expr)
		if err != nil {
			return errors.Wrapf(err, "%s: %q is not a Go type expression", s.Name, expr)
		}
		ast.Inspect(node, func(n ast.Node) bool {
			if sel, ok := n.(*ast.SelectorExpr); ok {
				if id, ok := sel.X.(*ast.Ident); ok {
					qualifiers[id.Name] = true
				}
			}
			return true
		})
		return nil
	}
	for _, tp := range s.TypeParameters {
		if tp.Constraint == "" {
			continue
		}
		if err := collect(tp.Constraint); err != nil {
			return nil, err
		}
	}
	for _, c := range s.Cases {
		for _, f := range c.Fields {
			if err := collect(f.Type); err != nil {
				return nil, err
			}
		}
	}

	byName := make(map[string]schema.Import)
	for _, imp := range s.Imports() {
		name := schema.ImportName(imp)
		if name == "_" || name == "." || !qualifiers[name] {
			continue
		}
		if imp.Path == "fmt" || imp.Path == runtimeImport {
			continue
		}
		if name == "fmt" || name == "unions" {
			return nil, errors.Newf("%s: import %q shadows the generated code's %s import", s.Name, imp.Path, name)
		}
		if prev, ok := byName[name]; ok && prev.Path != imp.Path {
			return nil, errors.Newf("%s: imports %q and %q are both named %s", s.Name, prev.Path, imp.Path, name)
		}
		byName[name] = imp
	}

	specs := make([]schema.Import, 0, len(byName))
	for _, imp := range byName {
		specs = append(specs, imp)
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].Path < specs[j].Path })

	out := make([]string, len(specs))
	for i, imp := range specs {
		if imp.Name != "" {
			out[i] = imp.Name + " " + strconv.Quote(imp.Path)
		} else {
			out[i] = strconv.Quote(imp.Path)
		}
	}
	return out, nil
}
