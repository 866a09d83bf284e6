package driven

// DocumentProcessor recomputes derived properties of a document, either when
// one of the properties it watches changes or just before the document is saved.
type DocumentProcessor interface {
	// Name returns the processor name for logging and configuration.
	Name() string

	// IsNecessary reports whether a change to any of the named properties
	// requires the processor to run.
	IsNecessary(changed ...string) bool

	// RunBeforeSave reports whether the processor also runs on every save.
	RunBeforeSave() bool

	// Run updates obj in place. primaryKey names the collection's key property.
	Run(obj map[string]any, primaryKey string) error
}

// DocumentProcessorPipeline runs a collection's processors in order.
type DocumentProcessorPipeline interface {
	// OnChange runs the processors that watch any of the changed properties.
	OnChange(obj map[string]any, primaryKey string, changed ...string) error

	// BeforeSave runs the processors flagged to run before save.
	BeforeSave(obj map[string]any, primaryKey string) error

	// Len returns the number of processors.
	Len() int
}
