// Package registry loads the set of page templates a build can target.
//
// A templates directory holds one subdirectory per template:
//
//	templates/
//	  band-landing/
//	    index.tsx       component entry (required)
//	    template.json   display metadata (optional)
//	    schema.json     JSON Schema for the template config (optional)
//
// The registry is built once at startup, is immutable afterwards and is safe
// for concurrent reads.
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/kebapps/pagesmith/internal/core"
)

const (
	componentFile = "index.tsx"
	metadataFile  = "template.json"
	schemaFile    = "schema.json"
)

// Descriptor describes one registered template.
type Descriptor struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	ComponentPath string `json:"-"`

	schema *gojsonschema.Schema
}

// ValidateConfig checks a template configuration against the template's
// schema. Templates without a schema accept any object.
func (d *Descriptor) ValidateConfig(config map[string]any) error {
	if d.schema == nil {
		return nil
	}

	if config == nil {
		config = map[string]any{}
	}

	result, err := d.schema.Validate(gojsonschema.NewGoLoader(config))
	if err != nil {
		return core.WrapError(core.ErrCodeInvalidConfig, err, "validate config for template %q", d.ID)
	}

	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return core.NewError(core.ErrCodeInvalidConfig, "config for template %q: %s", d.ID, strings.Join(msgs, "; "))
	}

	return nil
}

type Registry struct {
	templates map[string]*Descriptor
}

// Load scans dir and builds the registry. A subdirectory without an index.tsx
// is skipped; a malformed metadata or schema file fails the load.
func Load(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read templates dir %s: %w", dir, err)
	}

	templates := make(map[string]*Descriptor)

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		id := entry.Name()
		templateDir := filepath.Join(dir, id)
		componentPath := filepath.Join(templateDir, componentFile)

		if _, err := os.Stat(componentPath); err != nil {
			continue
		}

		absComponent, err := filepath.Abs(componentPath)
		if err != nil {
			return nil, fmt.Errorf("resolve component for template %s: %w", id, err)
		}

		desc := &Descriptor{
			ID:            id,
			Name:          id,
			ComponentPath: absComponent,
		}

		if err := loadMetadata(filepath.Join(templateDir, metadataFile), desc); err != nil {
			return nil, err
		}

		schema, err := loadSchema(filepath.Join(templateDir, schemaFile))
		if err != nil {
			return nil, fmt.Errorf("template %s: %w", id, err)
		}
		desc.schema = schema

		templates[id] = desc
	}

	return &Registry{templates: templates}, nil
}

func loadMetadata(path string, desc *Descriptor) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var meta struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	if meta.Name != "" {
		desc.Name = meta.Name
	}
	desc.Description = meta.Description
	return nil
}

func loadSchema(path string) (*gojsonschema.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

// Lookup resolves a template identifier to its descriptor.
func (r *Registry) Lookup(id string) (*Descriptor, error) {
	desc, ok := r.templates[id]
	if !ok {
		return nil, core.NewError(core.ErrCodeInvalidTemplate, "unknown template %q", id)
	}
	return desc, nil
}

// List returns all descriptors ordered by identifier.
func (r *Registry) List() []*Descriptor {
	out := make([]*Descriptor, 0, len(r.templates))
	for _, desc := range r.templates {
		out = append(out, desc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len reports the number of registered templates.
func (r *Registry) Len() int {
	return len(r.templates)
}
