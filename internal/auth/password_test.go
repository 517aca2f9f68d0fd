package auth

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher_HashAndVerify(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	hashed, err := h.Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if hashed == "" {
		t.Fatal("Hash() returned empty string")
	}
	if hashed == "correct horse battery staple" {
		t.Fatal("Hash() returned plaintext")
	}

	if !h.Verify("correct horse battery staple", hashed) {
		t.Error("Verify() = false for correct password")
	}
}

func TestPasswordHasher_VerifyWrongPassword(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	hashed, err := h.Hash("password1")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	if h.Verify("password2", hashed) {
		t.Error("Verify() = true for wrong password")
	}
}

// 外部IdP専用ユーザーはローカルパスワードを持たない（ハッシュは空文字列）。
// どんな入力に対しても認証は成立しない。
func TestPasswordHasher_VerifyEmptyHash(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	if h.Verify("anything", "") {
		t.Error("Verify() = true for empty hash")
	}
	if h.Verify("", "") {
		t.Error("Verify() = true for empty password and empty hash")
	}
}

// 不正な形式のハッシュはエラーではなく不一致として扱う。
func TestPasswordHasher_VerifyMalformedHash(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	if h.Verify("anything", "not-a-bcrypt-hash") {
		t.Error("Verify() = true for malformed hash")
	}
}

// 同一パスワードでもソルトにより毎回異なるハッシュが生成される。
func TestPasswordHasher_HashIsSalted(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	h1, err := h.Hash("same password")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	h2, err := h.Hash("same password")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	if h1 == h2 {
		t.Error("Hash() returned identical hashes for same password")
	}
}

func TestNewPasswordHasher_ClampsInvalidCost(t *testing.T) {
	h := NewPasswordHasher(0)

	hashed, err := h.Hash("pw")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	cost, err := bcrypt.Cost([]byte(hashed))
	if err != nil {
		t.Fatalf("bcrypt.Cost() error = %v", err)
	}
	if cost != DefaultBcryptCost {
		t.Errorf("cost = %d, want %d", cost, DefaultBcryptCost)
	}
}
