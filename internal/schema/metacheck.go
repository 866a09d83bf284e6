package schema

import (
	"fmt"
	"net/url"

	"github.com/goccy/go-json"
	"github.com/google/jsonschema-go/jsonschema"

	"github.com/custodia-labs/docsuite/internal/core/domain"
)

// annotationKeys are members of a composed schema document that describe
// the runtime rather than constrain instances.
var annotationKeys = []string{"id", "$schema", "methods", "documentMethods", "template", "defaults"}

var typeNames = map[string]bool{
	"array": true, "boolean": true, "integer": true, "null": true,
	"number": true, "object": true, "string": true,
}

// schemaMaps are keywords whose value maps names to subschemas.
var schemaMaps = []string{"properties", "definitions", "$defs", "patternProperties", "dependentSchemas"}

// schemaLists are keywords whose value is a list of subschemas.
var schemaLists = []string{"allOf", "anyOf", "oneOf", "prefixItems"}

// schemaValues are keywords whose value is a single subschema.
var schemaValues = []string{"not", "if", "then", "else", "contains", "propertyNames", "additionalItems", "unevaluatedItems", "unevaluatedProperties"}

// validationCopy strips annotation members from a composed document.
func validationCopy(doc Fragment) Fragment {
	out := Clone(doc)
	for _, k := range annotationKeys {
		delete(out, k)
	}
	return out
}

// checkFragment checks the structure of a schema fragment and decodes it
// with the JSON-Schema library, which rejects malformed keywords.
func checkFragment(subject string, doc Fragment) error {
	clean := validationCopy(doc)
	if err := walkSchema("#", clean); err != nil {
		return &domain.ConfigurationError{Subject: subject, Reason: "invalid schema", Err: err}
	}
	if _, err := decode(clean); err != nil {
		return &domain.ConfigurationError{Subject: subject, Reason: "invalid schema", Err: err}
	}
	return nil
}

func decode(doc Fragment) (*jsonschema.Schema, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	return decodeRaw(raw)
}

func decodeRaw(raw []byte) (*jsonschema.Schema, error) {
	var s jsonschema.Schema
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// walkSchema checks type names and the shape of nested subschemas.
func walkSchema(path string, v any) error {
	if _, ok := v.(bool); ok {
		return nil
	}
	s, ok := asMap(v)
	if !ok {
		return fmt.Errorf("%s: schema must be an object, got %T", path, v)
	}

	if t, ok := s["type"]; ok {
		if err := checkType(path+"/type", t); err != nil {
			return err
		}
	}

	for _, key := range schemaMaps {
		raw, ok := s[key]
		if !ok {
			continue
		}
		m, ok := asMap(raw)
		if !ok {
			return fmt.Errorf("%s/%s: must be an object", path, key)
		}
		for name, sub := range m {
			if err := walkSchema(path+"/"+key+"/"+name, sub); err != nil {
				return err
			}
		}
	}

	for _, key := range schemaLists {
		raw, ok := s[key]
		if !ok {
			continue
		}
		list, ok := raw.([]any)
		if !ok {
			return fmt.Errorf("%s/%s: must be an array", path, key)
		}
		for i, sub := range list {
			if err := walkSchema(fmt.Sprintf("%s/%s/%d", path, key, i), sub); err != nil {
				return err
			}
		}
	}

	for _, key := range schemaValues {
		if sub, ok := s[key]; ok {
			if err := walkSchema(path+"/"+key, sub); err != nil {
				return err
			}
		}
	}

	if items, ok := s["items"]; ok {
		if list, isList := items.([]any); isList {
			for i, sub := range list {
				if err := walkSchema(fmt.Sprintf("%s/items/%d", path, i), sub); err != nil {
					return err
				}
			}
		} else if err := walkSchema(path+"/items", items); err != nil {
			return err
		}
	}

	if ap, ok := s["additionalProperties"]; ok {
		if err := walkSchema(path+"/additionalProperties", ap); err != nil {
			return err
		}
	}

	if req, ok := s["required"]; ok {
		list, isList := req.([]any)
		if !isList {
			return fmt.Errorf("%s/required: must be an array", path)
		}
		for _, e := range list {
			if _, isString := e.(string); !isString {
				return fmt.Errorf("%s/required: entries must be strings", path)
			}
		}
	}
	return nil
}

func checkType(path string, t any) error {
	switch v := t.(type) {
	case string:
		if !typeNames[v] {
			return fmt.Errorf("%s: unknown type %q", path, v)
		}
	case []any:
		if len(v) == 0 {
			return fmt.Errorf("%s: type list is empty", path)
		}
		for _, e := range v {
			s, ok := e.(string)
			if !ok || !typeNames[s] {
				return fmt.Errorf("%s: unknown type %v", path, e)
			}
		}
	default:
		return fmt.Errorf("%s: type must be a string or an array, got %T", path, t)
	}
	return nil
}

// resolve checks a composed document against the meta-schema and prepares
// it for instance validation. References to other schema documents are
// loaded through load.
func resolve(subject, baseURI string, doc Fragment, load func(uri string) (*Composed, bool)) ([]byte, *jsonschema.Resolved, error) {
	clean := validationCopy(doc)
	if err := walkSchema("#", clean); err != nil {
		return nil, nil, &domain.ConfigurationError{Subject: subject, Reason: "invalid schema", Err: err}
	}

	raw, err := json.Marshal(clean)
	if err != nil {
		return nil, nil, &domain.ConfigurationError{Subject: subject, Reason: "schema is not JSON", Err: err}
	}
	js, err := decodeRaw(raw)
	if err != nil {
		return nil, nil, &domain.ConfigurationError{Subject: subject, Reason: "invalid schema", Err: err}
	}

	loader := func(u *url.URL) (*jsonschema.Schema, error) {
		if load == nil {
			return nil, fmt.Errorf("no schema registered at %s", u)
		}
		target := *u
		target.Fragment = ""
		c, ok := load(target.String())
		if !ok {
			return nil, fmt.Errorf("%w: schema %s", domain.ErrNotFound, u)
		}
		return decodeRaw(c.raw)
	}

	resolved, err := js.Resolve(&jsonschema.ResolveOptions{BaseURI: baseURI, Loader: loader})
	if err != nil {
		return nil, nil, &domain.ConfigurationError{Subject: subject, Reason: "schema does not resolve", Err: err}
	}
	return raw, resolved, nil
}
