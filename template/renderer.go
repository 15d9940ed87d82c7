package template

import (
	"fmt"
	htmltemplate "html/template"
	"io/fs"
	"strings"
	"sync"
)

// Renderer evaluates a named template against a variable map and returns
// the rendered body.
type Renderer interface {
	Render(name string, vars map[string]any) (string, error)
}

// FSRenderer renders templates parsed from an fs.FS using html/template.
// Parsed templates are cached after first use; the cache is safe for
// concurrent renders.
type FSRenderer struct {
	fsys fs.FS

	mu    sync.Mutex
	cache map[string]*htmltemplate.Template
}

// NewFSRenderer creates a renderer over fsys.
func NewFSRenderer(fsys fs.FS) *FSRenderer {
	return &FSRenderer{
		fsys:  fsys,
		cache: make(map[string]*htmltemplate.Template),
	}
}

// Render parses name from the file system if not already cached and
// executes it with vars.
func (r *FSRenderer) Render(name string, vars map[string]any) (string, error) {
	tmpl, err := r.lookup(name)
	if err != nil {
		return "", err
	}
	var buf strings.Builder
	if err := tmpl.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("execute template %q: %w", name, err)
	}
	return buf.String(), nil
}

func (r *FSRenderer) lookup(name string) (*htmltemplate.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if tmpl, ok := r.cache[name]; ok {
		return tmpl, nil
	}
	tmpl, err := htmltemplate.ParseFS(r.fsys, name)
	if err != nil {
		return nil, fmt.Errorf("parse template %q: %w", name, err)
	}
	r.cache[name] = tmpl
	return tmpl, nil
}
