package postprocessors

import (
	"errors"
	"testing"
)

// mockProcessor is a test processor that records its runs.
type mockProcessor struct {
	name       string
	watches    string
	beforeSave bool
	err        error
	runs       int
}

func (m *mockProcessor) Name() string { return m.name }

func (m *mockProcessor) IsNecessary(changed ...string) bool {
	for _, c := range changed {
		if c == m.watches {
			return true
		}
	}
	return false
}

func (m *mockProcessor) RunBeforeSave() bool { return m.beforeSave }

func (m *mockProcessor) Run(obj map[string]any, _ string) error {
	if m.err != nil {
		return m.err
	}
	m.runs++
	obj[m.name] = m.runs
	return nil
}

func TestNewPipeline(t *testing.T) {
	p := NewPipeline()
	if p == nil {
		t.Fatal("expected non-nil pipeline")
	}
	if p.Len() != 0 {
		t.Errorf("expected 0 processors, got %d", p.Len())
	}
}

func TestPipeline_Add(t *testing.T) {
	p := NewPipeline()
	p.Add(&mockProcessor{name: "test"})

	if p.Len() != 1 {
		t.Errorf("expected 1 processor, got %d", p.Len())
	}
}

func TestPipeline_NilDocument(t *testing.T) {
	p := NewPipeline()

	if err := p.OnChange(nil, "id", "name"); err == nil {
		t.Error("expected error for nil document")
	}
	if err := p.BeforeSave(nil, "id"); err == nil {
		t.Error("expected error for nil document")
	}
}

func TestPipeline_OnChange_RunsWatchers(t *testing.T) {
	watcher := &mockProcessor{name: "watcher", watches: "name"}
	other := &mockProcessor{name: "other", watches: "price"}
	p := NewPipeline(watcher, other)

	obj := map[string]any{}
	if err := p.OnChange(obj, "id", "name"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if watcher.runs != 1 {
		t.Errorf("expected watcher to run once, got %d", watcher.runs)
	}
	if other.runs != 0 {
		t.Errorf("expected other not to run, got %d", other.runs)
	}
}

func TestPipeline_BeforeSave_RunsFlagged(t *testing.T) {
	flagged := &mockProcessor{name: "flagged", beforeSave: true}
	unflagged := &mockProcessor{name: "unflagged"}
	p := NewPipeline(flagged, unflagged)

	obj := map[string]any{}
	if err := p.BeforeSave(obj, "id"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if obj["flagged"] != 1 {
		t.Errorf("expected flagged to run, got %v", obj["flagged"])
	}
	if _, ok := obj["unflagged"]; ok {
		t.Error("expected unflagged not to run")
	}
}

func TestPipeline_ProcessorError(t *testing.T) {
	expectedErr := errors.New("processor failed")

	p := NewPipeline(&mockProcessor{name: "failing", beforeSave: true, err: expectedErr})

	err := p.BeforeSave(map[string]any{}, "id")
	if err == nil {
		t.Fatal("expected error from failing processor")
	}
	if !errors.Is(err, expectedErr) {
		t.Errorf("expected wrapped error, got: %v", err)
	}
}
