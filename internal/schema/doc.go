// Package schema registers document types and composes their schemas.
//
// A document type is declared once as a TypeDecl: its own JSON-Schema
// fragment, nested definitions, template and exposed operations, plus the
// names of the types it extends. Registration merges the fragments of every
// ancestor, most-base first, so that a derived type carries every property
// and definition of its bases unless it redeclares them.
//
// Binding a registered type to a collection produces a Composed schema: the
// merged fragment plus the collection address, the primary-key rule,
// operation slugs, defaults and allOf references to the schemas of ancestor
// collections. Composition checks the result against the JSON-Schema
// meta-schema and fails with a *domain.ConfigurationError; instance
// validation afterwards fails with a *domain.ValidationError.
package schema
