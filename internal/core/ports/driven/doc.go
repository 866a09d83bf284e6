// Package driven defines what the core needs from infrastructure.
//
// Store persists documents in named tables and provisions tables and
// indexes. ConfigStore reads and writes process configuration.
// DocumentProcessor recomputes derived properties before a save and may be
// omitted.
//
// This package imports only domain; adapters import it, never the reverse.
package driven
