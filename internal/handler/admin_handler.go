package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/bloggy/internal/authz"
	"github.com/hitoshi/bloggy/internal/middleware"
	"github.com/hitoshi/bloggy/internal/model"
)

// AdminPostService は管理画面が必要とする投稿操作のインターフェース。
type AdminPostService interface {
	Get(ctx context.Context, id int64) (*model.PostWithAuthor, error)
	ListByStatus(ctx context.Context, status model.PostStatus) ([]*model.PostWithAuthor, error)
	Approve(ctx context.Context, id int64) error
	Reject(ctx context.Context, id int64) error
}

// AdminUserService は管理画面が必要とするユーザー操作のインターフェース。
type AdminUserService interface {
	ListByRole(ctx context.Context, role model.Role) ([]*model.User, error)
}

// AdminHandler は管理者専用のHTTPハンドラー。
// すべての操作は認可ゲートの管理者判定を通す。
type AdminHandler struct {
	posts     AdminPostService
	users     AdminUserService
	collector AuthzMetricsRecorder
}

// NewAdminHandler はAdminHandlerを生成する。
func NewAdminHandler(posts AdminPostService, users AdminUserService, collector AuthzMetricsRecorder) *AdminHandler {
	return &AdminHandler{
		posts:     posts,
		users:     users,
		collector: collector,
	}
}

// dashboardResponse は管理ダッシュボードのレスポンスボディ。
type dashboardResponse struct {
	PendingPosts  []postResponse `json:"pending_posts"`
	ApprovedPosts []postResponse `json:"approved_posts"`
	Users         []userResponse `json:"users"`
}

// Dashboard は承認待ち・承認済み投稿と一般ユーザーの一覧を返す。
// GET /api/admin/dashboard
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	if !h.authorizeAdmin(w, r) {
		return
	}

	pending, err := h.posts.ListByStatus(r.Context(), model.PostStatusPending)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	approved, err := h.posts.ListByStatus(r.Context(), model.PostStatusApproved)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	users, err := h.users.ListByRole(r.Context(), model.RoleUser)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := dashboardResponse{
		PendingPosts:  make([]postResponse, len(pending)),
		ApprovedPosts: make([]postResponse, len(approved)),
		Users:         make([]userResponse, len(users)),
	}
	for i, p := range pending {
		resp.PendingPosts[i] = newPostResponse(p)
	}
	for i, p := range approved {
		resp.ApprovedPosts[i] = newPostResponse(p)
	}
	for i, u := range users {
		resp.Users[i] = newUserResponse(u)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Approve は承認待ちの投稿を公開する。
// POST /api/admin/posts/{id}/approve
func (h *AdminHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, ok := h.authorizeModeration(w, r)
	if !ok {
		return
	}

	if err := h.posts.Approve(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Reject は承認待ちの投稿を却下し削除する。
// POST /api/admin/posts/{id}/reject
func (h *AdminHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id, ok := h.authorizeModeration(w, r)
	if !ok {
		return
	}

	if err := h.posts.Reject(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// authorizeAdmin は呼び出し元が管理者であることを検証する。
// 拒否時は403を応答済みにしてfalseを返す。
func (h *AdminHandler) authorizeAdmin(w http.ResponseWriter, r *http.Request) bool {
	caller, _ := middleware.CurrentUserFromContext(r.Context())
	if authz.Decide(caller, authz.AdminOnly()) == authz.Deny {
		h.collector.RecordAuthzDenial()
		middleware.WriteErrorResponse(w, http.StatusForbidden, model.NewForbiddenError())
		return false
	}
	return true
}

// authorizeModeration は管理者判定と対象投稿の存在確認を行う。
func (h *AdminHandler) authorizeModeration(w http.ResponseWriter, r *http.Request) (int64, bool) {
	if !h.authorizeAdmin(w, r) {
		return 0, false
	}

	id, err := parseIDParam(r, "id")
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidInputError("投稿IDが不正です"))
		return 0, false
	}

	p, err := h.posts.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return 0, false
	}
	if p == nil {
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewPostNotFoundError(id))
		return 0, false
	}

	return id, true
}
