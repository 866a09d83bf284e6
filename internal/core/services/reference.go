package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/docsuite/internal/core/domain"
)

// ToReferenceForm replaces live entities inside v with their identifiers.
// Unsaved documents are saved first, depth-first, so nested documents are
// persisted before the document that refers to them. Maps and slices are
// rebuilt with the same structure; other values are returned unchanged.
//
// There is no cycle detection: a cycle of documents that have never been
// saved recurses without end. Save one side of a cycle first, or link it by
// identifier string.
func (s *Suite) ToReferenceForm(ctx context.Context, v any) (any, error) {
	switch t := v.(type) {
	case *Document:
		if t == nil {
			return nil, nil
		}
		if t.deleted {
			return nil, fmt.Errorf("reference %s: %w", t.URL(), domain.ErrDeleted)
		}
		if !t.saved {
			if err := t.Save(ctx); err != nil {
				return nil, fmt.Errorf("save referenced %s document: %w", t.coll.slug, err)
			}
		}
		return t.URL(), nil
	case *Collection:
		return t.URL(), nil
	case *Application:
		return t.URL(), nil
	case []*Document:
		out := make([]any, len(t))
		for i, d := range t {
			ref, err := s.ToReferenceForm(ctx, d)
			if err != nil {
				return nil, err
			}
			out[i] = ref
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			ref, err := s.ToReferenceForm(ctx, e)
			if err != nil {
				return nil, err
			}
			out[k] = ref
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			ref, err := s.ToReferenceForm(ctx, e)
			if err != nil {
				return nil, err
			}
			out[i] = ref
		}
		return out, nil
	default:
		return v, nil
	}
}

// ToNativeForm replaces identifier strings inside v with the live objects
// they address. A string that is not under the suite base, addresses a
// schema, or names an absent entity is returned unchanged.
func (s *Suite) ToNativeForm(ctx context.Context, v any) any {
	switch t := v.(type) {
	case string:
		id, ok := domain.ParseIdentifier(s.baseURL, t)
		if !ok || id.Format != "" || id.Depth() == 0 {
			return t
		}
		obj, err := s.Lookup(ctx, t)
		if err != nil {
			s.log.Debug("reference %s left unresolved: %v", t, err)
			return t
		}
		return obj
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = s.ToNativeForm(ctx, e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = s.ToNativeForm(ctx, e)
		}
		return out
	case []string:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = s.ToNativeForm(ctx, e)
		}
		return out
	default:
		return v
	}
}

// collapse converts live entities to identifiers without saving anything.
// Unsaved documents become their wire objects.
func collapse(v any) (any, error) {
	return collapseWith(v, func(d *Document) (any, error) {
		if d.saved && d.URL() != "" {
			return d.URL(), nil
		}
		return d.Wire()
	})
}

// previewReferences converts live entities to the identifiers a save would
// store, without saving anything. Unsaved documents are validated against
// their own collection and stand in as the address they would be stored
// under. A document whose key is generated on save stands in as its
// collection address.
func previewReferences(ctx context.Context, v any) (any, error) {
	var preview func(*Document) (any, error)
	preview = func(d *Document) (any, error) {
		if d.deleted {
			return nil, fmt.Errorf("reference %s: %w", d.URL(), domain.ErrDeleted)
		}
		if d.saved && d.URL() != "" {
			return d.URL(), nil
		}
		nested, err := collapseWith(d.toMap(), preview)
		if err != nil {
			return nil, err
		}
		if err := d.coll.check(ctx, nested.(map[string]any)); err != nil {
			return nil, fmt.Errorf("validate referenced %s document: %w", d.coll.slug, err)
		}
		if u := d.URL(); u != "" {
			return u, nil
		}
		return d.coll.url, nil
	}
	return collapseWith(v, preview)
}

// collapseWith rebuilds maps and slices in v, replacing collections and
// applications with their addresses and documents with whatever doc
// returns for them.
func collapseWith(v any, doc func(*Document) (any, error)) (any, error) {
	switch t := v.(type) {
	case *Document:
		if t == nil {
			return nil, nil
		}
		return doc(t)
	case *Collection:
		return t.URL(), nil
	case *Application:
		return t.URL(), nil
	case []*Document:
		out := make([]any, len(t))
		for i, d := range t {
			c, err := collapseWith(d, doc)
			if err != nil {
				return nil, err
			}
			out[i] = c
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			c, err := collapseWith(e, doc)
			if err != nil {
				return nil, err
			}
			out[k] = c
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			c, err := collapseWith(e, doc)
			if err != nil {
				return nil, err
			}
			out[i] = c
		}
		return out, nil
	default:
		return v, nil
	}
}
