package codes

import (
	"strings"
	"testing"
)

// TestGenerateShape verifies generate shape behavior.
func TestGenerateShape(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := Generate(DefaultLength)
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if len(code) != DefaultLength {
			t.Fatalf("expected length %d, got %q", DefaultLength, code)
		}
		for _, r := range code {
			if !strings.ContainsRune(alphabet, r) {
				t.Fatalf("unexpected character %q in %q", r, code)
			}
		}
	}
}

// TestGenerateDefaultsLength verifies generate defaults length behavior.
func TestGenerateDefaultsLength(t *testing.T) {
	code, err := Generate(0)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(code) != DefaultLength {
		t.Fatalf("expected default length %d, got %q", DefaultLength, code)
	}
}

// TestBatchDistinct verifies batch distinct behavior.
func TestBatchDistinct(t *testing.T) {
	batch, err := Batch(100, DefaultLength)
	if err != nil {
		t.Fatalf("Batch: %v", err)
	}
	if len(batch) != 100 {
		t.Fatalf("expected 100 codes, got %d", len(batch))
	}
	seen := make(map[string]struct{}, len(batch))
	for _, code := range batch {
		if _, ok := seen[code]; ok {
			t.Fatalf("duplicate code %q", code)
		}
		seen[code] = struct{}{}
	}
}

// TestBatchRejectsNonPositiveQuantity verifies batch rejects non positive quantity behavior.
func TestBatchRejectsNonPositiveQuantity(t *testing.T) {
	if _, err := Batch(0, DefaultLength); err == nil {
		t.Fatalf("expected error for quantity 0")
	}
}
