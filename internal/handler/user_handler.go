package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hitoshi/bloggy/internal/authz"
	"github.com/hitoshi/bloggy/internal/middleware"
	"github.com/hitoshi/bloggy/internal/model"
)

// UserServiceInterface はユーザーサービスのインターフェース。
type UserServiceInterface interface {
	Get(ctx context.Context, id int64) (*model.User, error)
	UpdateProfile(ctx context.Context, id int64, firstName, lastName, about string) error
	Withdraw(ctx context.Context, userID int64) error
}

// ProfilePostLister はプロフィール画面に表示する投稿一覧のインターフェース。
type ProfilePostLister interface {
	ListByAuthor(ctx context.Context, authorID int64) ([]*model.Post, error)
}

// UserHandler はユーザープロフィール関連のHTTPハンドラー。
type UserHandler struct {
	service   UserServiceInterface
	posts     ProfilePostLister
	collector AuthzMetricsRecorder
	config    AuthHandlerConfig
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface, posts ProfilePostLister, collector AuthzMetricsRecorder, config AuthHandlerConfig) *UserHandler {
	return &UserHandler{
		service:   service,
		posts:     posts,
		collector: collector,
		config:    config,
	}
}

// profileResponse はプロフィール画面のレスポンスボディ。
// 承認待ちを含む本人の全投稿を返すため、本人と管理者のみ閲覧できる。
type profileResponse struct {
	User  userResponse   `json:"user"`
	Posts []postResponse `json:"posts"`
}

// updateProfileRequest はプロフィール更新のリクエストボディ。
// メールアドレス・パスワード・役割はこの経路では変更できない。
type updateProfileRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	About     string `json:"about"`
}

// Profile はユーザーのプロフィールと投稿一覧を返す。本人または管理者のみ。
// GET /api/users/{id}/profile
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	id, ok := h.authorizeOwner(w, r)
	if !ok {
		return
	}

	u, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	posts, err := h.posts.ListByAuthor(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := profileResponse{
		User:  newUserResponse(u),
		Posts: make([]postResponse, len(posts)),
	}
	for i, p := range posts {
		resp.Posts[i] = postResponse{
			ID:          p.ID,
			Title:       p.Title,
			Category:    p.Category,
			AuthorID:    p.AuthorID,
			Status:      string(p.Status),
			PublishedAt: p.PublishedAt,
			CreatedAt:   p.CreatedAt,
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// UpdateProfile はプロフィール項目を更新する。本人または管理者のみ。
// PUT /api/users/{id}/profile
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := h.authorizeOwner(w, r)
	if !ok {
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidInputError("リクエストボディが不正です"))
		return
	}

	if err := h.service.UpdateProfile(r.Context(), id, req.FirstName, req.LastName, req.About); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Withdraw は退会処理を実行する。本人または管理者のみ。
// 投稿はプレースホルダー著者に付け替えられて残る。
// 本人の退会の場合はセッションCookieも削除する。
// DELETE /api/users/{id}
func (h *UserHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	id, ok := h.authorizeOwner(w, r)
	if !ok {
		return
	}

	if err := h.service.Withdraw(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}

	if caller, ok := middleware.CurrentUserFromContext(r.Context()); ok && caller.ID == id {
		http.SetCookie(w, &http.Cookie{
			Name:     middleware.SessionCookieName,
			Value:    "",
			Path:     "/",
			Domain:   h.config.CookieDomain,
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   h.config.CookieSecure,
			SameSite: http.SameSiteLaxMode,
		})
	}

	w.WriteHeader(http.StatusNoContent)
}

// authorizeOwner は対象ユーザーIDを取得し、本人（または管理者）であることを検証する。
// 拒否時は403を応答済みにして(0, false)を返す。
func (h *UserHandler) authorizeOwner(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidInputError("ユーザーIDが不正です"))
		return 0, false
	}

	caller, _ := middleware.CurrentUserFromContext(r.Context())
	if authz.Decide(caller, authz.OwnedBy(id)) == authz.Deny {
		h.collector.RecordAuthzDenial()
		middleware.WriteErrorResponse(w, http.StatusForbidden, model.NewForbiddenError())
		return 0, false
	}

	return id, true
}
