package cryptox

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func init() {
	HashCost = bcrypt.MinCost
}

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if strings.Contains(hash, "correct horse") {
		t.Fatal("hash must not contain the password")
	}

	ok, err := CheckPassword(hash, "correct horse")
	if err != nil || !ok {
		t.Fatalf("expected match, got %v %v", ok, err)
	}

	ok, err = CheckPassword(hash, "wrong horse")
	if err != nil || ok {
		t.Fatalf("expected mismatch without error, got %v %v", ok, err)
	}
}

func TestHashPassword_Salted(t *testing.T) {
	h1, _ := HashPassword("password1")
	h2, _ := HashPassword("password1")
	if h1 == h2 {
		t.Fatal("two hashes of the same password must differ")
	}
}

func TestCheckPassword_MalformedHash(t *testing.T) {
	if _, err := CheckPassword("not-a-bcrypt-hash", "x"); err == nil {
		t.Fatal("expected error for malformed hash")
	}
}
