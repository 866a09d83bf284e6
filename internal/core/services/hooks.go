package services

import "context"

// Hooks are optional extension points called around lifecycle operations.
// A hook returning an error aborts the enclosing operation; a nil hook is
// skipped.
//
// On a CollectionSpec, the save, delete and table hooks receive the
// collection's documents or the collection itself, and the init hooks run
// whenever a Document is constructed: BeforeInit receives the raw
// map[string]any and AfterInit the *Document. On an ApplicationSpec the
// init hooks receive the *Application.
type Hooks struct {
	BeforeInit func(ctx context.Context, entity any) error
	AfterInit  func(ctx context.Context, entity any) error

	BeforeSave func(ctx context.Context, doc *Document) error
	AfterSave  func(ctx context.Context, doc *Document) error

	BeforeDelete func(ctx context.Context, doc *Document) error
	AfterDelete  func(ctx context.Context, doc *Document) error

	BeforeTableCreate func(ctx context.Context, c *Collection) error
	AfterTableCreate  func(ctx context.Context, c *Collection) error

	BeforeTableDrop func(ctx context.Context, c *Collection) error
	AfterTableDrop  func(ctx context.Context, c *Collection) error
}

func runEntityHook(ctx context.Context, hook func(context.Context, any) error, entity any) error {
	if hook == nil {
		return nil
	}
	return hook(ctx, entity)
}

func runDocumentHook(ctx context.Context, hook func(context.Context, *Document) error, doc *Document) error {
	if hook == nil {
		return nil
	}
	return hook(ctx, doc)
}

func runCollectionHook(ctx context.Context, hook func(context.Context, *Collection) error, c *Collection) error {
	if hook == nil {
		return nil
	}
	return hook(ctx, c)
}
