package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/bloggy/internal/model"
)

type mockResolver struct {
	currentUserFn func(ctx context.Context, sessionID string) (*model.User, error)
}

func (m *mockResolver) CurrentUser(ctx context.Context, sessionID string) (*model.User, error) {
	if m.currentUserFn != nil {
		return m.currentUserFn(ctx, sessionID)
	}
	return nil, nil
}

var _ IdentityResolver = (*mockResolver)(nil)

// 解決済みユーザーがコンテキストに注入される。
func TestSessionMiddleware_InjectsUser(t *testing.T) {
	resolver := &mockResolver{
		currentUserFn: func(_ context.Context, sessionID string) (*model.User, error) {
			if sessionID != "valid-token" {
				t.Errorf("sessionID = %q, want %q", sessionID, "valid-token")
			}
			return &model.User{ID: 1, Email: "a@example.com"}, nil
		},
	}

	var gotUser *model.User
	handler := NewSessionMiddleware(resolver)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, _ = CurrentUserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "valid-token"})
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if gotUser == nil || gotUser.ID != 1 {
		t.Errorf("context user = %+v, want user ID 1", gotUser)
	}
}

// Cookieなしのリクエストは未認証のまま通過する（公開コンテンツの閲覧を許可）。
func TestSessionMiddleware_NoCookiePassesThrough(t *testing.T) {
	handler := NewSessionMiddleware(&mockResolver{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUserFromContext(r.Context()); ok {
			t.Error("unexpected user in context")
		}
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

// 不明・期限切れトークンは未認証として通過する。
func TestSessionMiddleware_InvalidTokenPassesThroughAnonymous(t *testing.T) {
	resolver := &mockResolver{
		currentUserFn: func(_ context.Context, _ string) (*model.User, error) {
			return nil, nil
		},
	}

	handler := NewSessionMiddleware(resolver)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUserFromContext(r.Context()); ok {
			t.Error("unexpected user in context")
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "stale-token"})
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

// ストレージ障害時は誤って認証済みにせず、未認証として継続する。
func TestSessionMiddleware_StorageErrorFailsClosed(t *testing.T) {
	resolver := &mockResolver{
		currentUserFn: func(_ context.Context, _ string) (*model.User, error) {
			return nil, errors.New("connection refused")
		},
	}

	handler := NewSessionMiddleware(resolver)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUserFromContext(r.Context()); ok {
			t.Error("user must not be authenticated on storage failure")
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "token"})
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

// --- RequireAuthentication ---

func TestRequireAuthentication_RejectsAnonymous(t *testing.T) {
	called := false
	handler := RequireAuthentication()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if called {
		t.Error("next handler should not be called")
	}
}

func TestRequireAuthentication_PassesAuthenticated(t *testing.T) {
	handler := RequireAuthentication()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(ContextWithUser(req.Context(), &model.User{ID: 1}))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
