// Package slugger provides a processor that derives a slug property from
// one or more source properties.
package slugger

import (
	"fmt"
	"strings"

	"github.com/gosimple/slug"
)

// DefaultDestination is the property the slug is written to.
const DefaultDestination = "slug"

// Processor joins the slugified values of its source properties with '-'.
// It implements the DocumentProcessor interface.
type Processor struct {
	sources []string
	dest    string
}

// Option configures the slug processor.
type Option func(*Processor)

// WithDestination sets the property the slug is written to.
func WithDestination(dest string) Option {
	return func(p *Processor) {
		if dest != "" {
			p.dest = dest
		}
	}
}

// New creates a slug processor reading the given source properties.
func New(sources []string, opts ...Option) *Processor {
	p := &Processor{
		sources: append([]string(nil), sources...),
		dest:    DefaultDestination,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "slug"
}

// Destination returns the property the slug is written to.
func (p *Processor) Destination() string {
	return p.dest
}

// IsNecessary reports whether any source property changed.
func (p *Processor) IsNecessary(changed ...string) bool {
	for _, c := range changed {
		for _, s := range p.sources {
			if c == s {
				return true
			}
		}
	}
	return false
}

// RunBeforeSave returns true so documents built from a full mapping get a slug.
func (p *Processor) RunBeforeSave() bool {
	return true
}

// Run writes the slug. Absent or empty sources are skipped; when every
// source is empty the destination is left untouched.
func (p *Processor) Run(obj map[string]any, _ string) error {
	parts := make([]string, 0, len(p.sources))
	for _, src := range p.sources {
		v, ok := obj[src]
		if !ok || v == nil {
			continue
		}
		if s := slug.Make(fmt.Sprint(v)); s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return nil
	}
	obj[p.dest] = strings.Join(parts, "-")
	return nil
}
