// Package memory provides in-process implementations of the driven ports.
//
// Store keeps every table in maps guarded by a RWMutex and copies documents
// on the way in and out, so callers never share state with the store.
// ConfigStore holds configuration values for tests and for runs without a
// configuration file.
package memory
