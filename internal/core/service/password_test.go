package service

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	first, err := h.Hash("secret1")
	if err != nil {
		t.Fatalf("failed to hash: %v", err)
	}
	second, err := h.Hash("secret1")
	if err != nil {
		t.Fatalf("failed to hash: %v", err)
	}

	if first == "secret1" {
		t.Error("hash equals plaintext")
	}
	if first == second {
		t.Error("expected distinct salts for repeated hashing")
	}
	if !h.Verify("secret1", first) || !h.Verify("secret1", second) {
		t.Error("expected both hashes to verify")
	}
	if h.Verify("secret2", first) {
		t.Error("wrong password verified")
	}
	if h.Verify("secret1", "not-a-hash") {
		t.Error("garbage hash verified")
	}

	cost, err := bcrypt.Cost([]byte(first))
	if err != nil {
		t.Fatalf("failed to read cost: %v", err)
	}
	if cost != bcrypt.MinCost {
		t.Errorf("expected cost %d, got %d", bcrypt.MinCost, cost)
	}
}

func TestNewPasswordHasherDefaultCost(t *testing.T) {
	if h := NewPasswordHasher(0); h.cost != DefaultBcryptCost {
		t.Errorf("expected default cost %d, got %d", DefaultBcryptCost, h.cost)
	}
}
