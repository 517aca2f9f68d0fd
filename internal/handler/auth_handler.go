package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/bloggy/internal/middleware"
	"github.com/hitoshi/bloggy/internal/model"
)

// stateCookieName はOAuthのCSRF対策用stateを保持するCookieの名前。
const stateCookieName = "oauth_state"

// AuthServiceInterface は認証サービスのインターフェース。
type AuthServiceInterface interface {
	Login(ctx context.Context, email, password string) (*model.Session, error)
	Register(ctx context.Context, email, password, firstName, lastName string) (*model.Session, error)
	GetLoginURL(state string) string
	HandleCallback(ctx context.Context, code string) (*model.Session, error)
	Logout(ctx context.Context, sessionID string) error
}

// AuthMetricsRecorder は認証関連メトリクスの記録インターフェース。
type AuthMetricsRecorder interface {
	RecordLoginSuccess(method string)
	RecordLoginFailure(method string)
	RecordRegistration()
	RecordSessionIssued()
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	BaseURL       string
	CookieSecure  bool
	CookieDomain  string
	SessionMaxAge int // 秒
}

// AuthHandler は認証関連のHTTPハンドラー。
type AuthHandler struct {
	service   AuthServiceInterface
	collector AuthMetricsRecorder
	config    AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, collector AuthMetricsRecorder, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service:   service,
		collector: collector,
		config:    config,
	}
}

// loginRequest はローカルログインのリクエストボディ。
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// registerRequest は新規登録のリクエストボディ。
type registerRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// userResponse はユーザー情報のレスポンスボディ。
// パスワードハッシュは含めない。
type userResponse struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	About     string `json:"about"`
	Federated bool   `json:"federated"`
}

func newUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		Role:      string(u.Role),
		FirstName: u.FirstName,
		LastName:  u.LastName,
		About:     u.About,
		Federated: u.IsFederated(),
	}
}

// Login はローカルパスワード認証を処理する。
// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidInputError("リクエストボディが不正です"))
		return
	}

	session, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) && apiErr.Code == model.ErrCodeInvalidCredential {
			h.collector.RecordLoginFailure("local")
		}
		writeServiceError(w, err)
		return
	}

	h.collector.RecordLoginSuccess("local")
	h.collector.RecordSessionIssued()
	h.setSessionCookie(w, session.ID)
	w.WriteHeader(http.StatusNoContent)
}

// Register は新規ユーザー登録を処理し、続けてログインする。
// POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidInputError("リクエストボディが不正です"))
		return
	}

	session, err := h.service.Register(r.Context(), req.Email, req.Password, req.FirstName, req.LastName)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.collector.RecordRegistration()
	h.collector.RecordSessionIssued()
	h.setSessionCookie(w, session.ID)
	w.WriteHeader(http.StatusCreated)
}

// GoogleLogin はGoogle OAuth認証を開始する。
// stateを生成してCookieに保存し、Google認証画面にリダイレクトする。
// GET /auth/google/login
func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	state, err := generateState()
	if err != nil {
		slog.Error("failed to generate oauth state", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   300,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.service.GetLoginURL(state), http.StatusFound)
}

// GoogleCallback はGoogle OAuthコールバックを処理する。
// stateの検証後、認可コードをセッションに交換しBaseURLにリダイレクトする。
// GET /auth/google/callback
func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != r.URL.Query().Get("state") {
		slog.Warn("oauth state mismatch")
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidInputError("OAuth stateが一致しません"))
		return
	}

	// stateは一度きり
	h.clearCookie(w, stateCookieName)

	code := r.URL.Query().Get("code")
	if code == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidInputError("認可コードがありません"))
		return
	}

	session, err := h.service.HandleCallback(r.Context(), code)
	if err != nil {
		h.collector.RecordLoginFailure("federated")
		slog.Error("oauth callback failed", slog.String("error", err.Error()))
		middleware.WriteErrorResponse(w, http.StatusBadGateway, model.NewStorageUnavailableError())
		return
	}

	h.collector.RecordLoginSuccess("federated")
	h.collector.RecordSessionIssued()
	h.setSessionCookie(w, session.ID)
	http.Redirect(w, r, h.config.BaseURL, http.StatusFound)
}

// Logout はセッションを破棄しCookieを削除する。
// 未認証のまま呼ばれても成功として扱う（冪等）。
// POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sessionID := ""
	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil {
		sessionID = cookie.Value
	}

	if err := h.service.Logout(r.Context(), sessionID); err != nil {
		writeServiceError(w, err)
		return
	}

	h.clearCookie(w, middleware.SessionCookieName)
	w.WriteHeader(http.StatusNoContent)
}

// Me は現在のログインユーザーを返す。
// GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUserFromContext(r.Context())
	if !ok {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewNotAuthenticatedError())
		return
	}

	writeJSON(w, http.StatusOK, newUserResponse(user))
}

// setSessionCookie はセッションCookieを設定する。
// HttpOnly + SameSite=Laxでスクリプトからのアクセスとクロスサイト送信を防ぐ。
func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    sessionID,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   h.config.SessionMaxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearCookie は指定Cookieを削除する。
func (h *AuthHandler) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// generateState はOAuthのCSRF対策用stateを生成する。
func generateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
