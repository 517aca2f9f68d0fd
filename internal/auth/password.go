package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost は既定のbcryptコストファクター。
// 一般的なハードウェアでハッシュ化が100ms未満に収まる値。
const DefaultBcryptCost = 10

// PasswordHasher はローカルパスワードの一方向ハッシュ化と照合を提供する。
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher はPasswordHasherを生成する。
// costがbcryptの有効範囲外の場合はDefaultBcryptCostを使用する。
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &PasswordHasher{cost: cost}
}

// Hash は平文パスワードをソルト付きでハッシュ化する。
// 平文をログに出力したり戻り値に含めたりすることはない。
func (h *PasswordHasher) Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify は平文パスワードと保存済みハッシュを定数時間で照合する。
// 不一致・保存ハッシュの形式不正・外部IdP専用マーカー（空文字列）の
// いずれの場合もエラーではなくfalseを返す。
func (h *PasswordHasher) Verify(plaintext, hashedSecret string) bool {
	if hashedSecret == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hashedSecret), []byte(plaintext)) == nil
}
