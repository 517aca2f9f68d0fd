// Package model はドメインモデルを定義する。
package model

import "time"

// Role はユーザーの役割を表す。作成後に変更されることはない。
type Role string

const (
	// RoleUser は一般ユーザー。自身のリソースのみ操作できる。
	RoleUser Role = "user"
	// RoleAdmin は管理者。承認操作と全リソースへのアクセスが許可される。
	RoleAdmin Role = "admin"
)

// User はサービス利用ユーザーを表す。
// PasswordHashが空文字列の場合は外部IdP経由でのみ認証可能なユーザーであり、
// ローカルパスワード認証の対象にならない。
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	Role         Role
	FirstName    string
	LastName     string
	About        string
	CreatedAt    time.Time
}

// IsFederated はローカルパスワードを持たない外部IdP専用ユーザーかどうかを返す。
func (u *User) IsFederated() bool {
	return u.PasswordHash == ""
}

// Session はユーザーのログインセッションを表す。
// UserIDは弱参照であり、参照先ユーザーが存在しない場合は未認証として解決する。
// 有効期限は発行時刻からの絶対時刻で、アクセスによって延長されない。
type Session struct {
	ID        string
	UserID    int64
	ExpiresAt time.Time
	CreatedAt time.Time
}

// FederatedProfile は外部IdPのハンドシェイク完了後に得られるプロフィールを表す。
type FederatedProfile struct {
	Email      string
	GivenName  string
	FamilyName string
}
