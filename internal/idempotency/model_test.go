package idempotency

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateKey(t *testing.T) {
	if err := ValidateKey("order-create-42"); err != nil {
		t.Errorf("valid key: %v", err)
	}
	if err := ValidateKey(""); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("empty key = %v, want ErrInvalidKey", err)
	}
	if err := ValidateKey(strings.Repeat("x", MaxKeyLength)); err != nil {
		t.Errorf("key at max length: %v", err)
	}
	if err := ValidateKey(strings.Repeat("x", MaxKeyLength+1)); !errors.Is(err, ErrKeyTooLong) {
		t.Errorf("oversized key = %v, want ErrKeyTooLong", err)
	}
}

func TestComputeResponseHash(t *testing.T) {
	a := ComputeResponseHash(`{"id":"ev-1"}`)
	b := ComputeResponseHash(`{"id":"ev-1"}`)
	c := ComputeResponseHash(`{"id":"ev-2"}`)

	if a != b {
		t.Error("same body should hash identically")
	}
	if a == c {
		t.Error("different bodies should hash differently")
	}
	if len(a) != 64 {
		t.Errorf("hash length = %d, want 64 hex chars", len(a))
	}
}
