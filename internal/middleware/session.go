// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hitoshi/bloggy/internal/model"
)

// SessionCookieName はセッショントークンを保持するCookieの名前。
const SessionCookieName = "session_id"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// currentUserContextKey はリクエストコンテキストに解決済みユーザーを格納するためのキー。
var currentUserContextKey = contextKey("current_user")

// IdentityResolver はセッショントークンからユーザーを解決するインターフェース。
// auth.Serviceの部分集合として定義する。
type IdentityResolver interface {
	// CurrentUser はトークン不明・期限切れ・参照先ユーザー消失のいずれの場合も
	// (nil, nil)を返す。エラーはストレージ障害のみ。
	CurrentUser(ctx context.Context, sessionID string) (*model.User, error)
}

// NewSessionMiddleware はHTTP Only Cookieからセッションを読み取り、
// 解決済みユーザーをリクエストコンテキストに注入するミドルウェアを返す。
// 未認証リクエストもそのまま通過させる（公開コンテンツの閲覧を許可するため）。
// ストレージ障害時は未認証として継続する（フェイルクローズ: 誤って許可しない）。
func NewSessionMiddleware(resolver IdentityResolver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, err := resolver.CurrentUser(r.Context(), cookie.Value)
			if err != nil {
				slog.Error("failed to resolve session",
					slog.String("error", err.Error()),
				)
				next.ServeHTTP(w, r)
				return
			}
			if user == nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), currentUserContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuthentication は認証済みユーザーのみ通過させるミドルウェアを返す。
// NewSessionMiddlewareの後に配置すること。未認証リクエストには401を返す。
func RequireAuthentication() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := CurrentUserFromContext(r.Context()); !ok {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewNotAuthenticatedError())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CurrentUserFromContext はリクエストコンテキストから解決済みユーザーを取得する。
// 未認証の場合は(nil, false)を返す。
func CurrentUserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(currentUserContextKey).(*model.User)
	if !ok || user == nil {
		return nil, false
	}
	return user, true
}

// ContextWithUser はコンテキストに解決済みユーザーを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, currentUserContextKey, user)
}
