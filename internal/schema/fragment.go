package schema

// Fragment is a JSON-Schema-compatible object as decoded from JSON or YAML.
type Fragment = map[string]any

// Clone returns a deep copy of f.
func Clone(f Fragment) Fragment {
	if f == nil {
		return nil
	}
	return CloneValue(f).(map[string]any)
}

// CloneValue deep-copies maps and slices inside v. Other values are
// returned as they are.
func CloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = CloneValue(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = CloneValue(e)
		}
		return out
	case []string:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = e
		}
		return out
	case []map[string]any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = CloneValue(e)
		}
		return out
	default:
		return v
	}
}

func asMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

// stringList reads a []string or a []any of strings.
func stringList(v any) []string {
	switch t := v.(type) {
	case []string:
		return append([]string(nil), t...)
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func toAnyList(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// mergeInto copies every entry of src over dst.
func mergeInto(dst, src map[string]any) {
	for k, v := range src {
		dst[k] = CloneValue(v)
	}
}

// appendUnique appends the entries of add that are not yet in list.
func appendUnique(list []string, add ...string) []string {
	seen := make(map[string]bool, len(list))
	for _, s := range list {
		seen[s] = true
	}
	for _, s := range add {
		if !seen[s] {
			seen[s] = true
			list = append(list, s)
		}
	}
	return list
}
