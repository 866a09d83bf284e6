package schema

import "context"

// OperationFunc runs an exposed operation. target is the collection or the
// document the operation was invoked on.
type OperationFunc func(ctx context.Context, target any, args map[string]any) (any, error)

// Operation describes a callable exposed by a collection or by every
// document of a type. The descriptor is declared statically and recorded in
// composed schemas so that consumers can discover it without the code.
type Operation struct {
	// Name is the declared operation name, e.g. "RecentlyAdded".
	Name string

	// Slug addresses the operation. Defaults to Slug(Name).
	Slug string

	Description string

	// Request is the schema of the argument object.
	Request Fragment

	// Response is the schema of the result.
	Response Fragment

	Func OperationFunc
}

// Address returns the operation slug.
func (o Operation) Address() string {
	if o.Slug != "" {
		return o.Slug
	}
	return Slug(o.Name)
}

// Schema returns the schema document of the operation: the request and
// response schemas as definitions, either of which a message may match.
func (o Operation) Schema() Fragment {
	slug := o.Address()
	req := Clone(o.Request)
	if req == nil {
		req = Fragment{"type": "object"}
	}
	resp := Clone(o.Response)
	if resp == nil {
		resp = Fragment{}
	}

	title := Humanize(o.Name)
	if o.Name == "" {
		title = Humanize(slug)
	}
	return Fragment{
		"title":       title,
		"description": o.Description,
		"definitions": map[string]any{
			slug + "-request":  req,
			slug + "-response": resp,
		},
		"oneOf": []any{
			map[string]any{"$ref": "#/definitions/" + slug + "-request"},
			map[string]any{"$ref": "#/definitions/" + slug + "-response"},
		},
	}
}

func operationSlugs(ops []Operation) []string {
	out := make([]string, 0, len(ops))
	for _, op := range ops {
		out = append(out, op.Address())
	}
	return out
}

// mergeOperations overrides operations of base with same-slug entries of own.
func mergeOperations(base, own []Operation) []Operation {
	out := append([]Operation(nil), base...)
	for _, op := range own {
		replaced := false
		for i := range out {
			if out[i].Address() == op.Address() {
				out[i] = op
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, op)
		}
	}
	return out
}
