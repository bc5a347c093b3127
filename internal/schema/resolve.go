package schema

import (
	"slices"
	"strings"
)

var keyReplacer = strings.NewReplacer("/", ".", `\`, ".", " ", "")

// Resolve derives every generated identifier of s: storage slots, the
// package-level, member and local names, the display names and the unique
// emission key. It is deterministic: equal schemas resolve to equal output.
func Resolve(s UnionSchema) UnionSchema {
	s.TypeParameters = slices.Clone(s.TypeParameters)
	s.Cases = slices.Clone(s.Cases)
	for i := range s.Cases {
		s.Cases[i].Fields = slices.Clone(s.Cases[i].Fields)
	}

	s.DisplayName = displayName(s)
	s.QualifiedName = qualifiedName(s)
	s.UniqueKey = keyReplacer.Replace(s.QualifiedName)
	s.FileName = SnakeCase(s.Name) + "_union.go"

	reserved := []string{s.Name}
	for _, tp := range s.TypeParameters {
		reserved = append(reserved, tp.Name)
	}
	for _, imp := range s.Imports() {
		reserved = append(reserved, ImportName(imp))
	}
	reserved = append(reserved, helperPackages...)
	reserved = append(reserved, predeclared...)

	pkg := newNamespace(reserved...)
	resolvePackageNames(&s, pkg)
	resolveMembers(&s)
	resolveLocals(&s, pkg.clone())
	return s
}

func resolvePackageNames(s *UnionSchema, pkg *namespace) {
	// Constructors are the most visible names, so they are claimed first.
	for i := range s.Cases {
		s.Cases[i].Constructor = pkg.claim(s.Name + s.Cases[i].Name)
	}
	s.Names.CaseType = pkg.claim(s.Name + "Case")
	for i := range s.Cases {
		s.Cases[i].Const = pkg.claim(s.Names.CaseType + s.Cases[i].Name)
	}
	s.Names.Handlers = pkg.claim(s.Name + "Handlers")
	s.Names.Actions = pkg.claim(s.Name + "Actions")
	s.Names.Switch = pkg.claim("Switch" + s.Name)
	s.Names.SwitchPartial = pkg.claim("Switch" + s.Name + "Partial")
}

// resolveMembers names methods and struct fields, which share one namespace.
func resolveMembers(s *UnionSchema) {
	members := newNamespace()
	s.Names.CaseMethod = members.claim("Case")
	s.Names.StringMethod = members.claim("String")
	s.Names.DoMethod = members.claim("Do")
	s.Names.DoPartialMethod = members.claim("DoPartial")
	for i := range s.Cases {
		c := &s.Cases[i]
		c.Is = members.claim("Is" + c.Name)
		c.TryGet = members.claim("TryGet" + c.Name)
		c.Get = members.claim("Get" + c.Name)
	}
	s.Names.CaseMember = members.claim("_case")
	for i := range s.Cases {
		c := &s.Cases[i]
		for j := range c.Fields {
			f := &c.Fields[j]
			f.StorageSlot = strings.TrimPrefix(members.claim("_"+c.Name+"_"+f.Name), "_")
		}
	}
}

func resolveLocals(s *UnionSchema, local *namespace) {
	s.Names.Result = local.claimLocal("R")
	s.Names.Receiver = local.claimLocal("u")
	s.Names.HandlersParam = local.claimLocal("handlers")
	s.Names.ActionsParam = local.claimLocal("actions")
	s.Names.Fallback = local.claimLocal("fallback")

	handlers := local.clone()
	for i := range s.Cases {
		s.Cases[i].Handler = handlers.claimLocal(lowerFirst(s.Cases[i].Name))
	}
	for i := range s.Cases {
		params := local.clone()
		for j := range s.Cases[i].Fields {
			f := &s.Cases[i].Fields[j]
			f.Param = params.claimLocal(f.Name)
		}
	}
}

func displayName(s UnionSchema) string {
	if len(s.TypeParameters) == 0 {
		return s.Name
	}
	names := make([]string, len(s.TypeParameters))
	for i, tp := range s.TypeParameters {
		names[i] = tp.Name
	}
	return s.Name + "[" + strings.Join(names, ", ") + "]"
}

func qualifiedName(s UnionSchema) string {
	parts := make([]string, 0, len(s.Scopes)+1)
	for _, scope := range s.Scopes {
		if scope.Path != "" {
			parts = append(parts, scope.Path)
		} else {
			parts = append(parts, scope.Name)
		}
	}
	parts = append(parts, s.DisplayName)
	return strings.Join(parts, ".")
}

// TypeParamList renders the declaration form of the type parameters,
// e.g. "[T any, E comparable]", or "" for a non-generic union.
func (s UnionSchema) TypeParamList() string {
	if len(s.TypeParameters) == 0 {
		return ""
	}
	parts := make([]string, len(s.TypeParameters))
	for i, tp := range s.TypeParameters {
		constraint := tp.Constraint
		if constraint == "" {
			constraint = "any"
		}
		parts[i] = tp.Name + " " + constraint
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
