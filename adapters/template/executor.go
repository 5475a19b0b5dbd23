package pagetemplate

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"
)

// TemplateExecutor executes a named template with data.
type TemplateExecutor interface {
	ExecuteTemplate(w io.Writer, name string, data any) error
}

// Executor holds parsed pongo2 templates keyed by file name.
type Executor struct {
	templates map[string]*pongo2.Template
}

var _ TemplateExecutor = (*Executor)(nil)

// Parse loads the named templates from fsys.
func Parse(fsys fs.FS, names ...string) (*Executor, error) {
	if fsys == nil {
		return nil, errors.New("pagetemplate: fs is nil")
	}
	if err := RegisterToJSON(); err != nil {
		return nil, err
	}

	exec := &Executor{templates: make(map[string]*pongo2.Template, len(names))}
	for _, name := range names {
		raw, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("pagetemplate: read %s: %w", name, err)
		}
		tpl, err := pongo2.FromBytes(raw)
		if err != nil {
			return nil, fmt.Errorf("pagetemplate: parse %s: %w", name, err)
		}
		exec.templates[name] = tpl
	}
	return exec, nil
}

// MustParse is Parse for package-level templates.
func MustParse(fsys fs.FS, names ...string) *Executor {
	exec, err := Parse(fsys, names...)
	if err != nil {
		panic(err)
	}
	return exec
}

// ExecuteTemplate renders name into w. data may be a pongo2.Context, a
// map[string]any, or any other value exposed to the template as "data".
func (e *Executor) ExecuteTemplate(w io.Writer, name string, data any) error {
	if e == nil {
		return errors.New("pagetemplate: executor is nil")
	}
	tpl, ok := e.templates[name]
	if !ok {
		return fmt.Errorf("pagetemplate: template %q not found", name)
	}
	return tpl.ExecuteWriter(toContext(data), w)
}

func toContext(data any) pongo2.Context {
	switch v := data.(type) {
	case nil:
		return pongo2.Context{}
	case pongo2.Context:
		return v
	case map[string]any:
		return pongo2.Context(v)
	default:
		return pongo2.Context{"data": v}
	}
}

var registerOnce sync.Once
var registerErr error

// RegisterToJSON registers the to_json filter with pongo2.
func RegisterToJSON() error {
	registerOnce.Do(func() {
		err := pongo2.RegisterFilter("to_json", func(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
			payload, err := json.Marshal(in.Interface())
			if err != nil {
				return nil, &pongo2.Error{Sender: "filter:to_json", OrigError: err}
			}
			return pongo2.AsSafeValue(string(payload)), nil
		})
		if err != nil && !strings.Contains(err.Error(), "already") {
			registerErr = err
		}
	})
	return registerErr
}
