// Package postprocessors provides document processors that maintain derived
// properties, and the pipeline that runs them.
package postprocessors

import (
	"fmt"

	"github.com/custodia-labs/docsuite/internal/core/ports/driven"
)

// Ensure Pipeline implements the interface.
var _ driven.DocumentProcessorPipeline = (*Pipeline)(nil)

// Pipeline chains multiple DocumentProcessors and runs them in order.
type Pipeline struct {
	processors []driven.DocumentProcessor
}

// NewPipeline creates a new processing pipeline with the given processors.
// Processors are executed in the order provided.
func NewPipeline(processors ...driven.DocumentProcessor) *Pipeline {
	return &Pipeline{
		processors: processors,
	}
}

// OnChange runs every processor that needs to react to the changed properties.
func (p *Pipeline) OnChange(obj map[string]any, primaryKey string, changed ...string) error {
	if obj == nil {
		return fmt.Errorf("document is nil")
	}
	for _, processor := range p.processors {
		if !processor.IsNecessary(changed...) {
			continue
		}
		if err := processor.Run(obj, primaryKey); err != nil {
			return fmt.Errorf("processor %s: %w", processor.Name(), err)
		}
	}
	return nil
}

// BeforeSave runs every processor flagged to run before save.
func (p *Pipeline) BeforeSave(obj map[string]any, primaryKey string) error {
	if obj == nil {
		return fmt.Errorf("document is nil")
	}
	for _, processor := range p.processors {
		if !processor.RunBeforeSave() {
			continue
		}
		if err := processor.Run(obj, primaryKey); err != nil {
			return fmt.Errorf("processor %s: %w", processor.Name(), err)
		}
	}
	return nil
}

// Add appends a processor to the pipeline.
func (p *Pipeline) Add(processor driven.DocumentProcessor) {
	p.processors = append(p.processors, processor)
}

// Len returns the number of processors in the pipeline.
func (p *Pipeline) Len() int {
	return len(p.processors)
}
