// Package valuehandlers converts special property values between their three
// shapes: the native shape held in memory, the wire shape emitted as JSON and
// the storage shape written to a driven.Store.
//
// A collection declares which properties are special and which Handler
// serves each. A Table built from that declaration converts whole documents
// by visiting only the special properties; every other property passes
// through unchanged.
package valuehandlers
