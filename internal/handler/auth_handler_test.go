package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/bloggy/internal/middleware"
	"github.com/hitoshi/bloggy/internal/model"
)

// --- モック定義 ---

type mockAuthService struct {
	loginFn          func(ctx context.Context, email, password string) (*model.Session, error)
	registerFn       func(ctx context.Context, email, password, firstName, lastName string) (*model.Session, error)
	getLoginURLFn    func(state string) string
	handleCallbackFn func(ctx context.Context, code string) (*model.Session, error)
	logoutFn         func(ctx context.Context, sessionID string) error
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*model.Session, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, email, password)
	}
	return &model.Session{ID: "session-1", UserID: 1}, nil
}

func (m *mockAuthService) Register(ctx context.Context, email, password, firstName, lastName string) (*model.Session, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, email, password, firstName, lastName)
	}
	return &model.Session{ID: "session-1", UserID: 1}, nil
}

func (m *mockAuthService) GetLoginURL(state string) string {
	if m.getLoginURLFn != nil {
		return m.getLoginURLFn(state)
	}
	return "https://accounts.google.com/o/oauth2/auth?state=" + state
}

func (m *mockAuthService) HandleCallback(ctx context.Context, code string) (*model.Session, error) {
	if m.handleCallbackFn != nil {
		return m.handleCallbackFn(ctx, code)
	}
	return &model.Session{ID: "session-1", UserID: 1}, nil
}

func (m *mockAuthService) Logout(ctx context.Context, sessionID string) error {
	if m.logoutFn != nil {
		return m.logoutFn(ctx, sessionID)
	}
	return nil
}

var _ AuthServiceInterface = (*mockAuthService)(nil)

// mockCollector は全メトリクスインターフェースを満たすテスト用コレクター。
type mockCollector struct {
	loginSuccess  int
	loginFailure  int
	registrations int
	sessions      int
	authzDenials  int
}

func (m *mockCollector) RecordLoginSuccess(_ string)          { m.loginSuccess++ }
func (m *mockCollector) RecordLoginFailure(_ string)          { m.loginFailure++ }
func (m *mockCollector) RecordRegistration()                  { m.registrations++ }
func (m *mockCollector) RecordSessionIssued()                 { m.sessions++ }
func (m *mockCollector) RecordAuthzDenial()                   { m.authzDenials++ }
func (m *mockCollector) RecordHTTPStatus(_ int)               {}
func (m *mockCollector) RecordRequestLatency(_ time.Duration) {}

var _ StatusMetricsCollector = (*mockCollector)(nil)

func testAuthConfig() AuthHandlerConfig {
	return AuthHandlerConfig{
		BaseURL:       "http://localhost:8080",
		CookieSecure:  false,
		SessionMaxAge: 86400,
	}
}

func findCookie(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// --- Login ---

func TestLoginHandler_Success(t *testing.T) {
	collector := &mockCollector{}
	h := NewAuthHandler(&mockAuthService{}, collector, testAuthConfig())

	req := httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"email":"a@example.com","password":"secret"}`))
	rec := httptest.NewRecorder()

	h.Login(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}

	cookie := findCookie(t, rec, middleware.SessionCookieName)
	if cookie == nil {
		t.Fatal("session cookie was not set")
	}
	if cookie.Value != "session-1" {
		t.Errorf("cookie value = %q, want session-1", cookie.Value)
	}
	if !cookie.HttpOnly {
		t.Error("session cookie must be HttpOnly")
	}
	if collector.loginSuccess != 1 || collector.sessions != 1 {
		t.Errorf("metrics: loginSuccess=%d sessions=%d, want 1/1", collector.loginSuccess, collector.sessions)
	}
}

func TestLoginHandler_InvalidCredential(t *testing.T) {
	collector := &mockCollector{}
	service := &mockAuthService{
		loginFn: func(_ context.Context, _, _ string) (*model.Session, error) {
			return nil, model.NewInvalidCredentialError()
		},
	}
	h := NewAuthHandler(service, collector, testAuthConfig())

	req := httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"email":"a@example.com","password":"wrong"}`))
	rec := httptest.NewRecorder()

	h.Login(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), model.ErrCodeInvalidCredential) {
		t.Errorf("body = %q, want error code %s", rec.Body.String(), model.ErrCodeInvalidCredential)
	}
	if findCookie(t, rec, middleware.SessionCookieName) != nil {
		t.Error("session cookie must not be set on failure")
	}
	if collector.loginFailure != 1 {
		t.Errorf("loginFailure = %d, want 1", collector.loginFailure)
	}
}

func TestLoginHandler_MalformedBody(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, &mockCollector{}, testAuthConfig())

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{not json`))
	rec := httptest.NewRecorder()

	h.Login(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

// --- Register ---

func TestRegisterHandler_Success(t *testing.T) {
	collector := &mockCollector{}
	h := NewAuthHandler(&mockAuthService{}, collector, testAuthConfig())

	req := httptest.NewRequest(http.MethodPost, "/auth/register",
		strings.NewReader(`{"email":"new@example.com","password":"pw","first_name":"太郎","last_name":"山田"}`))
	rec := httptest.NewRecorder()

	h.Register(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	if findCookie(t, rec, middleware.SessionCookieName) == nil {
		t.Error("session cookie was not set")
	}
	if collector.registrations != 1 {
		t.Errorf("registrations = %d, want 1", collector.registrations)
	}
}

func TestRegisterHandler_DuplicateEmail(t *testing.T) {
	service := &mockAuthService{
		registerFn: func(_ context.Context, _, _, _, _ string) (*model.Session, error) {
			return nil, model.NewDuplicateEmailError()
		},
	}
	h := NewAuthHandler(service, &mockCollector{}, testAuthConfig())

	req := httptest.NewRequest(http.MethodPost, "/auth/register",
		strings.NewReader(`{"email":"dup@example.com","password":"pw"}`))
	rec := httptest.NewRecorder()

	h.Register(rec, req)

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

// --- Google OAuth ---

func TestGoogleLoginHandler_RedirectsWithState(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, &mockCollector{}, testAuthConfig())

	req := httptest.NewRequest(http.MethodGet, "/auth/google/login", nil)
	rec := httptest.NewRecorder()

	h.GoogleLogin(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}

	stateCookie := findCookie(t, rec, stateCookieName)
	if stateCookie == nil || stateCookie.Value == "" {
		t.Fatal("state cookie was not set")
	}
	if !strings.Contains(rec.Header().Get("Location"), stateCookie.Value) {
		t.Error("redirect URL does not carry the state")
	}
}

func TestGoogleCallbackHandler_StateMismatch(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, &mockCollector{}, testAuthConfig())

	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?state=other&code=c", nil)
	req.AddCookie(&http.Cookie{Name: stateCookieName, Value: "expected"})
	rec := httptest.NewRecorder()

	h.GoogleCallback(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestGoogleCallbackHandler_Success(t *testing.T) {
	collector := &mockCollector{}
	h := NewAuthHandler(&mockAuthService{}, collector, testAuthConfig())

	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?state=abc&code=auth-code", nil)
	req.AddCookie(&http.Cookie{Name: stateCookieName, Value: "abc"})
	rec := httptest.NewRecorder()

	h.GoogleCallback(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	if got := rec.Header().Get("Location"); got != "http://localhost:8080" {
		t.Errorf("Location = %q, want base URL", got)
	}
	if findCookie(t, rec, middleware.SessionCookieName) == nil {
		t.Error("session cookie was not set")
	}
	if collector.loginSuccess != 1 {
		t.Errorf("loginSuccess = %d, want 1", collector.loginSuccess)
	}
}

// --- Logout ---

func TestLogoutHandler_ClearsCookie(t *testing.T) {
	var gotSessionID string
	service := &mockAuthService{
		logoutFn: func(_ context.Context, sessionID string) error {
			gotSessionID = sessionID
			return nil
		},
	}
	h := NewAuthHandler(service, &mockCollector{}, testAuthConfig())

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "session-1"})
	rec := httptest.NewRecorder()

	h.Logout(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	if gotSessionID != "session-1" {
		t.Errorf("logout sessionID = %q, want session-1", gotSessionID)
	}

	cookie := findCookie(t, rec, middleware.SessionCookieName)
	if cookie == nil || cookie.MaxAge != -1 {
		t.Error("session cookie was not cleared")
	}
}

// Cookieなしのログアウトも成功として扱う（冪等）。
func TestLogoutHandler_WithoutCookie(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, &mockCollector{}, testAuthConfig())

	rec := httptest.NewRecorder()
	h.Logout(rec, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
}

// --- Me ---

func TestMeHandler_Authenticated(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, &mockCollector{}, testAuthConfig())

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req = req.WithContext(middleware.ContextWithUser(req.Context(), &model.User{
		ID: 1, Email: "a@example.com", PasswordHash: "hash", Role: model.RoleUser,
	}))
	rec := httptest.NewRecorder()

	h.Me(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "a@example.com") {
		t.Errorf("body = %q, missing email", body)
	}
	// パスワードハッシュはレスポンスに含めない
	if strings.Contains(body, "hash") {
		t.Errorf("body = %q, leaks password hash", body)
	}
}

func TestMeHandler_Anonymous(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, &mockCollector{}, testAuthConfig())

	rec := httptest.NewRecorder()
	h.Me(rec, httptest.NewRequest(http.MethodGet, "/auth/me", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}
