// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/bloggy/internal/model"
)

// ErrDuplicateEmail はメールアドレスの一意制約違反を表す。
// check-then-insertの競合はアプリケーション層ではなくこの制約で解決する。
var ErrDuplicateEmail = errors.New("email already registered")

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.User, error)

	// FindByEmail は指定メールアドレスのユーザーを取得する。見つからない場合はnilを返す。
	// メールアドレスは保存時の表記のまま大文字小文字を区別して照合する。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成し、採番されたIDをuser.IDに書き戻す。
	// メールアドレスが既に存在する場合はErrDuplicateEmailを返す。
	Create(ctx context.Context, user *model.User) error

	// UpdateProfile はプロフィール項目（姓・名・自己紹介）のみを更新する。
	// 認証情報と役割はこの経路では変更できない。
	UpdateProfile(ctx context.Context, id int64, firstName, lastName, about string) error

	// DeleteByID は指定IDのユーザーを削除する。
	DeleteByID(ctx context.Context, id int64) error

	// ListByRole は指定役割のユーザー一覧を返す。プレースホルダー著者は含まない。
	ListByRole(ctx context.Context, role model.Role) ([]*model.User, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れまたは不明の場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。存在しない場合も成功として扱う。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID int64) error
	// DeleteExpired は期限切れセッションを削除し、削除件数を返す。
	// 解決時の遅延チェックで正しさは保たれるため、これはストレージ肥大化対策のみを担う。
	DeleteExpired(ctx context.Context) (int64, error)
}

// PostRepository は投稿データの永続化インターフェース。
type PostRepository interface {
	// FindByID は指定IDの投稿を著者情報付きで取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.PostWithAuthor, error)

	// Create は投稿を作成し、採番されたIDをpost.IDに書き戻す。
	Create(ctx context.Context, post *model.Post) error

	// Update はタイトル・本文・カテゴリを更新する。
	Update(ctx context.Context, id int64, title, content, category string) error

	// UpdateStatus は投稿の公開状態と公開日時を更新する。
	UpdateStatus(ctx context.Context, id int64, status model.PostStatus) error

	// DeleteByID は指定IDの投稿を削除する。
	DeleteByID(ctx context.Context, id int64) error

	// SearchApproved は承認済み投稿を検索条件付きで取得し、総件数と併せて返す。
	SearchApproved(ctx context.Context, q model.PostSearchQuery) ([]*model.PostWithAuthor, int, error)

	// ListByStatus は指定状態の投稿一覧を著者情報付きで返す。管理画面用。
	ListByStatus(ctx context.Context, status model.PostStatus) ([]*model.PostWithAuthor, error)

	// ListByAuthor は指定著者の投稿一覧を返す。プロフィール画面用。
	ListByAuthor(ctx context.Context, authorID int64) ([]*model.Post, error)

	// ReassignAuthor は指定著者の全投稿を別の著者に付け替え、付け替え件数を返す。
	// 退会処理でプレースホルダー著者への付け替えに使用する。
	ReassignAuthor(ctx context.Context, fromAuthorID, toAuthorID int64) (int64, error)
}
