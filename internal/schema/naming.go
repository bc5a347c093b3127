package schema

import (
	"go/token"
	"path"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// namespace hands out identifiers that are unique within it.
type namespace struct {
	taken map[string]bool
}

func newNamespace(reserved ...string) *namespace {
	ns := &namespace{taken: make(map[string]bool, len(reserved))}
	for _, name := range reserved {
		ns.taken[name] = true
	}
	return ns
}

func (ns *namespace) clone() *namespace {
	c := &namespace{taken: make(map[string]bool, len(ns.taken))}
	for name := range ns.taken {
		c.taken[name] = true
	}
	return c
}

// claim takes base, or base followed by the smallest free numeric suffix.
func (ns *namespace) claim(base string) string {
	name := base
	for i := 2; ns.taken[name] || token.IsKeyword(name); i++ {
		name = base + strconv.Itoa(i)
	}
	ns.taken[name] = true
	return name
}

// claimLocal takes base, appending underscores until it is free. Used for
// parameter names, where a numeric suffix would read like a position.
func (ns *namespace) claimLocal(base string) string {
	name := base
	for ns.taken[name] || token.IsKeyword(name) {
		name += "_"
	}
	ns.taken[name] = true
	return name
}

// predeclared lists the universe identifiers generated bodies rely on.
var predeclared = []string{"any", "bool", "error", "false", "int", "nil", "panic", "string", "true"}

// helperPackages are imported by every generated file.
var helperPackages = []string{"fmt", "unions"}

// ImportName returns the identifier an import is referred to by in code.
// Unnamed imports assume the last path element, minus a major version
// suffix and common "go-" or "-go" decorations.
func ImportName(imp Import) string {
	if imp.Name != "" {
		return imp.Name
	}
	p := imp.Path
	base := path.Base(p)
	if isMajorVersion(base) {
		base = path.Base(path.Dir(p))
	}
	if i := strings.Index(base, ".v"); i > 0 && isDigits(base[i+2:]) {
		base = base[:i]
	}
	base = strings.TrimPrefix(base, "go-")
	base = strings.TrimSuffix(base, "-go")
	if i := strings.IndexAny(base, ".-"); i >= 0 {
		base = base[:i]
	}
	return base
}

func isMajorVersion(s string) bool {
	return len(s) > 1 && s[0] == 'v' && isDigits(s[1:])
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}

// UpperFirst upper-cases the first letter of s.
func UpperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// SnakeCase converts PascalCase or camelCase to snake_case, keeping
// acronyms together ("HTTPRequest" -> "http_request").
func SnakeCase(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prevUpper := unicode.IsUpper(runes[i-1])
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if (!prevUpper || nextLower) && runes[i-1] != '_' {
				b.WriteRune('_')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
