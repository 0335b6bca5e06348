package auth

import (
	"errors"
	"strings"
	"testing"
)

const sampleKey = "wsa_abc123_0123456789abcdef0123456789abcdef"

func TestHashKey_Format(t *testing.T) {
	t.Parallel()

	hash, err := HashKey(sampleKey)
	if err != nil {
		t.Fatalf("HashKey failed: %v", err)
	}

	parts := strings.Split(hash, "$")
	if len(parts) != 6 {
		t.Fatalf("Hash should have 6 parts, got: %d", len(parts))
	}
	if parts[1] != "argon2id" || parts[2] != "v=19" || parts[3] != "m=65536,t=3,p=4" {
		t.Errorf("unexpected PHC header: %s", hash)
	}
	if err := ValidateHash(hash); err != nil {
		t.Errorf("ValidateHash() = %v", err)
	}
}

func TestHashKey_SaltedAndVerifiable(t *testing.T) {
	t.Parallel()

	hash1, err := HashKey(sampleKey)
	if err != nil {
		t.Fatalf("HashKey failed: %v", err)
	}
	hash2, err := HashKey(sampleKey)
	if err != nil {
		t.Fatalf("HashKey failed: %v", err)
	}

	if hash1 == hash2 {
		t.Error("Same key should produce different hashes due to random salt")
	}

	for _, h := range []string{hash1, hash2} {
		ok, err := VerifyKey(sampleKey, h)
		if err != nil || !ok {
			t.Errorf("VerifyKey(%s) = %v, %v", h, ok, err)
		}
	}

	ok, err := VerifyKey("wsa_abc123_ffffffffffffffffffffffffffffffff", hash1)
	if err != nil {
		t.Fatalf("VerifyKey should not error for wrong key: %v", err)
	}
	if ok {
		t.Error("Wrong key should not match")
	}
}

func TestVerifyKey_InvalidHash(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		hash    string
		wantErr error
	}{
		{"empty", "", ErrInvalidHash},
		{"wrong format", "not-a-hash", ErrInvalidHash},
		{"wrong algorithm", "$bcrypt$v=19$m=65536,t=3,p=4$salt$hash", ErrInvalidHash},
		{"missing parts", "$argon2id$v=19$m=65536", ErrInvalidHash},
		{"bad params", "$argon2id$v=19$m=x,t=3,p=4$c2FsdA$aGFzaA", ErrInvalidHash},
		{"bad salt", "$argon2id$v=19$m=65536,t=3,p=4$!!!$aGFzaA", ErrInvalidHash},
		{"empty digest", "$argon2id$v=19$m=65536,t=3,p=4$c2FsdA$", ErrInvalidHash},
		{"old version", "$argon2id$v=18$m=65536,t=3,p=4$c29tZXNhbHRoZXJl$c29tZWhhc2hoZXJl", ErrIncompatibleVersion},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ok, err := VerifyKey(sampleKey, tt.hash)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("VerifyKey error = %v, want %v", err, tt.wantErr)
			}
			if ok {
				t.Error("invalid hash must never match")
			}
		})
	}
}

func TestQuickHash(t *testing.T) {
	t.Parallel()

	if QuickHash(sampleKey) != QuickHash(sampleKey) {
		t.Error("Same input should produce same hash")
	}
	if QuickHash("input-one") == QuickHash("input-two") {
		t.Error("Different input should produce different hash")
	}
	for _, in := range []string{"", "abc", strings.Repeat("x", 1000)} {
		if got := len(QuickHash(in)); got != 32 {
			t.Errorf("len(QuickHash(%d chars)) = %d, want 32", len(in), got)
		}
	}
}
