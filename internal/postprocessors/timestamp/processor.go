// Package timestamp provides processors that stamp the current time on a
// document when it is created or every time it is saved.
package timestamp

import "time"

// Mode selects when the timestamp is written.
type Mode int

const (
	// OnCreate writes the timestamp only if the property is absent.
	OnCreate Mode = iota
	// OnUpdate writes the timestamp on every save.
	OnUpdate
)

// Processor writes the current UTC time to a property before save.
// It implements the DocumentProcessor interface.
type Processor struct {
	dest string
	mode Mode
	now  func() time.Time
}

// Option configures the timestamp processor.
type Option func(*Processor)

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(p *Processor) {
		if now != nil {
			p.now = now
		}
	}
}

// New creates a timestamp processor writing to dest.
func New(dest string, mode Mode, opts ...Option) *Processor {
	p := &Processor{dest: dest, mode: mode, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	if p.mode == OnUpdate {
		return "timestamp_on_update"
	}
	return "timestamp_on_create"
}

// IsNecessary returns false; timestamps are only written before save.
func (p *Processor) IsNecessary(...string) bool {
	return false
}

// RunBeforeSave returns true.
func (p *Processor) RunBeforeSave() bool {
	return true
}

// Run stamps the destination property.
func (p *Processor) Run(obj map[string]any, _ string) error {
	if p.mode == OnCreate {
		if v, ok := obj[p.dest]; ok && v != nil {
			return nil
		}
	}
	obj[p.dest] = p.now().UTC().Round(0)
	return nil
}
