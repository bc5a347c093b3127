package generator

import (
	"embed"
	"io/fs"
	"os"

	"github.com/cockroachdb/errors"
)

// DefaultTemplate is the template rendered when no other name is configured.
const DefaultTemplate = "union.go.tmpl"

//go:embed templates/*.tmpl
var embedded embed.FS

// ErrTemplateNotFound is returned when a TemplateSource has no template of
// the requested name.
var ErrTemplateNotFound = errors.New("template not found")

// TemplateSource returns template text by name. Implementations must return
// the same text for the same name for the lifetime of a build cycle.
type TemplateSource interface {
	Template(name string) (string, error)
}

type fsTemplates struct {
	fsys fs.FS
	desc string
}

// Embedded serves the templates compiled into the binary.
func Embedded() TemplateSource {
	sub, err := fs.Sub(embedded, "templates")
	if err != nil {
		panic(err)
	}
	return &fsTemplates{fsys: sub, desc: "embedded templates"}
}

// Dir serves templates from a directory on disk, read on every call so edits
// are picked up by the next cycle.
func Dir(dir string) TemplateSource {
	return &fsTemplates{fsys: os.DirFS(dir), desc: dir}
}

// FS serves templates from an arbitrary file system.
func FS(fsys fs.FS) TemplateSource {
	return &fsTemplates{fsys: fsys, desc: "template fs"}
}

func (t *fsTemplates) Template(name string) (string, error) {
	data, err := fs.ReadFile(t.fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", errors.WithDetailf(errors.Mark(errors.Newf("%s: %s", t.desc, name), ErrTemplateNotFound), "%v", err)
		}
		return "", errors.Wrapf(err, "read template %s from %s", name, t.desc)
	}
	return string(data), nil
}

// Fallback serves templates from primary, and from secondary for names
// primary does not have.
func Fallback(primary, secondary TemplateSource) TemplateSource {
	return fallbackTemplates{primary, secondary}
}

type fallbackTemplates struct {
	primary, secondary TemplateSource
}

func (f fallbackTemplates) Template(name string) (string, error) {
	text, err := f.primary.Template(name)
	if errors.Is(err, ErrTemplateNotFound) {
		return f.secondary.Template(name)
	}
	return text, err
}
