package driving

import "context"

// Resolver locates live objects by identifier and converts values between
// reference form (identifier strings) and native form (live objects).
type Resolver interface {
	// Lookup returns the application, collection or document addressed by
	// url, or the schema document for ";schema" addresses.
	// Unknown addresses wrap domain.ErrNotFound.
	Lookup(ctx context.Context, url string) (any, error)

	// ToReferenceForm replaces live documents in v with their identifiers,
	// saving unsaved documents first.
	ToReferenceForm(ctx context.Context, v any) (any, error)

	// ToNativeForm replaces identifiers in v with live objects. Identifiers
	// that do not resolve are returned unchanged.
	ToNativeForm(ctx context.Context, v any) any
}
