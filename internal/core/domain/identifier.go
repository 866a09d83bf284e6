package domain

import (
	"strings"
)

// SchemaSuffix is appended to an entity identifier to address its schema.
const SchemaSuffix = ";schema"

// Identifier is the parsed form of a global address:
//
//	{base}/{application}/{collection}/{key}[;format]
//
// Trailing segments are empty when the identifier addresses an application
// or a collection.
type Identifier struct {
	Base        string
	Application string
	Collection  string
	Key         string
	// Format is the text after ';' in the last segment, e.g. "schema".
	Format string
}

// JoinURL joins a base address and path segments with '/'.
// A trailing slash on base is ignored.
func JoinURL(base string, segments ...string) string {
	var b strings.Builder
	b.WriteString(strings.TrimSuffix(base, "/"))
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(s)
	}
	return b.String()
}

// ParseIdentifier splits raw into its segments relative to base.
// The second return value is false if raw is not under base or has more
// segments than a document address.
func ParseIdentifier(base, raw string) (Identifier, bool) {
	base = strings.TrimSuffix(base, "/")
	if raw != base && !strings.HasPrefix(raw, base+"/") {
		return Identifier{}, false
	}

	id := Identifier{Base: base}
	rest := strings.TrimPrefix(strings.TrimPrefix(raw, base), "/")
	if i := strings.IndexByte(rest, '#'); i >= 0 {
		rest = rest[:i]
	}
	if i := strings.LastIndexByte(rest, ';'); i >= 0 {
		id.Format = rest[i+1:]
		rest = rest[:i]
	}
	rest = strings.TrimSuffix(rest, "/")
	if rest == "" {
		return id, true
	}

	parts := strings.SplitN(rest, "/", 3)
	id.Application = parts[0]
	if len(parts) > 1 {
		id.Collection = parts[1]
	}
	if len(parts) > 2 {
		if strings.Contains(parts[2], "/") {
			return Identifier{}, false
		}
		id.Key = parts[2]
	}
	return id, true
}

// Depth returns how many path segments are present: 0 for the suite,
// 1 for an application, 2 for a collection and 3 for a document.
func (id Identifier) Depth() int {
	switch {
	case id.Key != "":
		return 3
	case id.Collection != "":
		return 2
	case id.Application != "":
		return 1
	default:
		return 0
	}
}

// String renders the identifier back into its address form.
func (id Identifier) String() string {
	var segs []string
	for _, s := range []string{id.Application, id.Collection, id.Key} {
		if s == "" {
			break
		}
		segs = append(segs, s)
	}
	out := JoinURL(id.Base, segs...)
	if id.Format != "" {
		out += ";" + id.Format
	}
	return out
}
