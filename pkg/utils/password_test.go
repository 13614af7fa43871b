package utils

import "testing"

func TestHashAndComparePassword(t *testing.T) {
	hash, err := HashPassword("s3cret-pw")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if hash == "" || hash == "s3cret-pw" {
		t.Fatalf("expected a non-empty hash distinct from the input")
	}
	if !ComparePassword(hash, "s3cret-pw") {
		t.Fatalf("expected password to verify")
	}
	if ComparePassword(hash, "wrong-pw") {
		t.Fatalf("expected wrong password to fail verification")
	}
}
