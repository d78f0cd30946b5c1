package errors

import (
	"fmt"
	"testing"
)

func TestBuildDefaults(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("test error")
	ee := New(err).Build()

	if ee.Err.Error() != "test error" {
		t.Errorf("Expected error message 'test error', got '%s'", ee.Err.Error())
	}

	if ee.Category != CategoryGeneric {
		t.Errorf("Expected category 'generic' by default, got '%s'", ee.Category)
	}
}

func TestBuilderSettersAndContext(t *testing.T) {
	t.Parallel()

	ee := Newf("pool %s unavailable", "archive").
		Category(CategoryStoragePool).
		Component("storagepool").
		Context("pool_id", 3).
		Build()

	if ee.GetComponent() != "storagepool" {
		t.Errorf("Expected component 'storagepool', got '%s'", ee.GetComponent())
	}
	if ee.GetCategory() != string(CategoryStoragePool) {
		t.Errorf("Expected category 'storage-pool', got '%s'", ee.GetCategory())
	}

	ctx := ee.GetContext()
	if ctx["pool_id"] != 3 {
		t.Errorf("Expected pool_id context value 3, got %v", ctx["pool_id"])
	}

	// The copy must not alias the internal map
	ctx["pool_id"] = 99
	if ee.GetContext()["pool_id"] != 3 {
		t.Error("GetContext returned an aliased map")
	}
}

func TestIsMatchesCategory(t *testing.T) {
	t.Parallel()

	a := New(fmt.Errorf("a")).Category(CategoryDiskCleanup).Build()
	b := New(fmt.Errorf("b")).Category(CategoryDiskCleanup).Build()
	c := New(fmt.Errorf("c")).Category(CategoryDatabase).Build()

	if !Is(a, b) {
		t.Error("Expected errors with the same category to match")
	}
	if Is(a, c) {
		t.Error("Expected errors with different categories not to match")
	}
}

func TestUnwrapPreservesSentinel(t *testing.T) {
	t.Parallel()

	sentinel := NewStd("sentinel")
	wrapped := New(fmt.Errorf("wrapped: %w", sentinel)).Category(CategoryFileIO).Build()

	if !Is(wrapped, sentinel) {
		t.Error("Expected wrapped sentinel to be found in chain")
	}
}
