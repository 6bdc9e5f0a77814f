// Package component holds small reusable view fragments. A fragment is an
// html/template plus a function that turns the caller's arguments into the
// template's data; page templates invoke fragments by name through the
// "component" template function.
package component

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"sort"
)

//go:embed templates/*.html
var templateFS embed.FS

// ContextFunc builds a fragment's template data from the call arguments.
type ContextFunc func(args ...any) (any, error)

type Component struct {
	Name         string
	TemplateName string // file under templates/
	Context      ContextFunc
}

type registered struct {
	Component
	tmpl *template.Template
}

type Registry struct {
	components map[string]registered
}

func NewRegistry() *Registry {
	return &Registry{components: make(map[string]registered)}
}

// Defaults returns a registry with the stats and flash_messages fragments.
func Defaults() (*Registry, error) {
	r := NewRegistry()
	for _, c := range []Component{Stats(), FlashMessages()} {
		if err := r.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) Register(c Component) error {
	if c.Name == "" {
		return fmt.Errorf("component: empty name")
	}
	if _, exists := r.components[c.Name]; exists {
		return fmt.Errorf("component: %q already registered", c.Name)
	}
	tmpl, err := template.ParseFS(templateFS, "templates/"+c.TemplateName)
	if err != nil {
		return fmt.Errorf("component %q: %w", c.Name, err)
	}
	r.components[c.Name] = registered{Component: c, tmpl: tmpl}
	return nil
}

// Names lists registered fragments in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.components))
	for name := range r.components {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Render executes a fragment. The output was produced by html/template and
// is already escaped.
func (r *Registry) Render(name string, args ...any) (template.HTML, error) {
	c, ok := r.components[name]
	if !ok {
		return "", fmt.Errorf("component: %q is not registered", name)
	}
	data, err := c.Context(args...)
	if err != nil {
		return "", fmt.Errorf("component %q: %w", name, err)
	}
	var buf bytes.Buffer
	if err := c.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("component %q: %w", name, err)
	}
	return template.HTML(buf.String()), nil
}

// FuncMap exposes Render to page templates as {{component "name" args}}.
func (r *Registry) FuncMap() template.FuncMap {
	return template.FuncMap{"component": r.Render}
}
