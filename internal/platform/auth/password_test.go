package auth

import "testing"

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("Ramesh#4321")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hash == "Ramesh#4321" {
		t.Fatal("hash must not equal the plaintext")
	}

	if !VerifyPassword(hash, "Ramesh#4321") {
		t.Error("expected correct password to verify")
	}
	if VerifyPassword(hash, "Ramesh#0000") {
		t.Error("expected wrong password to fail")
	}
	if VerifyPassword("not-a-hash", "Ramesh#4321") {
		t.Error("expected malformed hash to fail")
	}
}
