package definition

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/docsuite/internal/core/domain"
)

// File is a decoded definition file.
type File struct {
	Suite        SuiteDef         `yaml:"suite"`
	Types        []TypeDef        `yaml:"types"`
	Applications []ApplicationDef `yaml:"applications"`
}

// SuiteDef holds suite-level settings. Empty values leave the process
// settings in place.
type SuiteDef struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	BaseURL     string         `yaml:"base_url"`
	Definitions map[string]any `yaml:"definitions"`
}

// TypeDef declares a document type.
type TypeDef struct {
	Name        string         `yaml:"name"`
	Bases       []string       `yaml:"bases"`
	Title       string         `yaml:"title"`
	Description string         `yaml:"description"`
	Template    string         `yaml:"template"`
	Schema      map[string]any `yaml:"schema"`
	Definitions map[string]any `yaml:"definitions"`
	Operations  []OperationDef `yaml:"operations"`
}

// OperationDef declares an operation descriptor.
type OperationDef struct {
	Name        string         `yaml:"name"`
	Slug        string         `yaml:"slug"`
	Description string         `yaml:"description"`
	Request     map[string]any `yaml:"request"`
	Response    map[string]any `yaml:"response"`
}

// ApplicationDef declares an application.
type ApplicationDef struct {
	Name        string          `yaml:"name"`
	Description string          `yaml:"description"`
	Connection  string          `yaml:"connection"`
	Definitions map[string]any  `yaml:"definitions"`
	Operations  []OperationDef  `yaml:"operations"`
	Collections []CollectionDef `yaml:"collections"`
}

// CollectionDef declares a collection.
type CollectionDef struct {
	Name       string               `yaml:"name"`
	Type       string               `yaml:"type"`
	PrimaryKey string               `yaml:"primary_key"`
	Private    bool                 `yaml:"private"`
	Indexes    []string             `yaml:"indexes"`
	Specials   map[string]PluginDef `yaml:"specials"`
	Processors []NamedPluginDef     `yaml:"processors"`
	Operations []OperationDef       `yaml:"operations"`
}

// PluginDef names a registered builder and its config.
type PluginDef struct {
	Handler string         `yaml:"handler"`
	Config  map[string]any `yaml:"config"`
}

// NamedPluginDef is a processor entry.
type NamedPluginDef struct {
	Name   string         `yaml:"name"`
	Config map[string]any `yaml:"config"`
}

// Parse decodes a definition. Unknown fields are rejected.
func Parse(data []byte) (*File, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, &domain.ConfigurationError{Subject: "definition", Reason: "invalid YAML", Err: err}
	}
	f.normalize()
	return &f, nil
}

// LoadFile reads and parses the definition file at path.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading definition: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

func (f *File) normalize() {
	f.Suite.Definitions = normalizeMap(f.Suite.Definitions)
	for i := range f.Types {
		t := &f.Types[i]
		t.Schema = normalizeMap(t.Schema)
		t.Definitions = normalizeMap(t.Definitions)
		normalizeOperations(t.Operations)
	}
	for i := range f.Applications {
		a := &f.Applications[i]
		a.Definitions = normalizeMap(a.Definitions)
		normalizeOperations(a.Operations)
		for j := range a.Collections {
			c := &a.Collections[j]
			normalizeOperations(c.Operations)
			for name, s := range c.Specials {
				s.Config = normalizeMap(s.Config)
				c.Specials[name] = s
			}
			for k := range c.Processors {
				c.Processors[k].Config = normalizeMap(c.Processors[k].Config)
			}
		}
	}
}

func normalizeOperations(ops []OperationDef) {
	for i := range ops {
		ops[i].Request = normalizeMap(ops[i].Request)
		ops[i].Response = normalizeMap(ops[i].Response)
	}
}

func normalizeMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out, _ := normalizeValue(m).(map[string]any)
	return out
}

// normalizeValue turns YAML-decoded values into JSON-compatible ones:
// map[any]any becomes map[string]any and integers become float64.
func normalizeValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = normalizeValue(e)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[fmt.Sprint(k)] = normalizeValue(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalizeValue(e)
		}
		return out
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case uint64:
		return float64(t)
	default:
		return v
	}
}
