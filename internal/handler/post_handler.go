package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hitoshi/bloggy/internal/authz"
	"github.com/hitoshi/bloggy/internal/middleware"
	"github.com/hitoshi/bloggy/internal/model"
	"github.com/hitoshi/bloggy/internal/post"
)

// PostServiceInterface は投稿サービスのインターフェース。
type PostServiceInterface interface {
	Create(ctx context.Context, authorID int64, title, content, category string) (*model.Post, error)
	Get(ctx context.Context, id int64) (*model.PostWithAuthor, error)
	Update(ctx context.Context, id int64, title, content, category string) error
	Delete(ctx context.Context, id int64) error
	SearchApproved(ctx context.Context, q model.PostSearchQuery) (*post.SearchResult, error)
	Excerpt(content string) string
}

// AuthzMetricsRecorder は認可拒否メトリクスの記録インターフェース。
type AuthzMetricsRecorder interface {
	RecordAuthzDenial()
}

// PostHandler は投稿関連のHTTPハンドラー。
type PostHandler struct {
	service   PostServiceInterface
	collector AuthzMetricsRecorder
}

// NewPostHandler はPostHandlerを生成する。
func NewPostHandler(service PostServiceInterface, collector AuthzMetricsRecorder) *PostHandler {
	return &PostHandler{
		service:   service,
		collector: collector,
	}
}

// postRequest は投稿作成・更新のリクエストボディ。
// 著者はリクエストボディではなく認証済みセッションから決定する。
type postRequest struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Category string `json:"category"`
}

// postResponse は投稿1件のレスポンスボディ。
type postResponse struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Content     string     `json:"content,omitempty"`
	Excerpt     string     `json:"excerpt,omitempty"`
	Category    string     `json:"category"`
	AuthorID    int64      `json:"author_id"`
	AuthorName  string     `json:"author_name,omitempty"`
	Status      string     `json:"status"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func newPostResponse(p *model.PostWithAuthor) postResponse {
	return postResponse{
		ID:          p.ID,
		Title:       p.Title,
		Content:     p.Content,
		Category:    p.Category,
		AuthorID:    p.AuthorID,
		AuthorName:  authorDisplayName(p),
		Status:      string(p.Status),
		PublishedAt: p.PublishedAt,
		CreatedAt:   p.CreatedAt,
	}
}

// authorDisplayName は著者の表示名を返す。退会済み著者は「退会済みユーザー」。
func authorDisplayName(p *model.PostWithAuthor) string {
	if p.AuthorID == model.WithdrawnAuthorID {
		return "退会済みユーザー"
	}
	return strings.TrimSpace(p.AuthorFirstName + " " + p.AuthorLastName)
}

// listResponse は投稿一覧のレスポンスボディ。
type listResponse struct {
	Posts      []postResponse `json:"posts"`
	Total      int            `json:"total"`
	TotalPages int            `json:"total_pages"`
	Page       int            `json:"page"`
}

// List は承認済み投稿の一覧を返す。未認証でも閲覧できる。
// クエリパラメータ: search（タイトル・本文の部分一致）、category、
// order（asc/desc、タイトル順）、page（1始まり）
// GET /api/posts
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	q := model.PostSearchQuery{
		Search:   r.URL.Query().Get("search"),
		Category: r.URL.Query().Get("category"),
		OrderAsc: !strings.EqualFold(r.URL.Query().Get("order"), "desc"),
		Page:     1,
		PerPage:  10,
	}

	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		q.Page = p
	}

	result, err := h.service.SearchApproved(r.Context(), q)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	posts := make([]postResponse, len(result.Posts))
	for i, p := range result.Posts {
		resp := newPostResponse(p)
		// 一覧では本文の代わりに抜粋を返す
		resp.Content = ""
		resp.Excerpt = result.Excerpts[i]
		posts[i] = resp
	}

	writeJSON(w, http.StatusOK, listResponse{
		Posts:      posts,
		Total:      result.Total,
		TotalPages: result.TotalPages,
		Page:       q.Page,
	})
}

// Get は投稿1件を返す。承認済みなら誰でも、承認待ちは投稿者と管理者のみ。
// 認可拒否は404として返し、未公開投稿の存在を漏らさない。
// GET /api/posts/{id}
func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidInputError("投稿IDが不正です"))
		return
	}

	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if p == nil {
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewPostNotFoundError(id))
		return
	}

	caller, _ := middleware.CurrentUserFromContext(r.Context())
	if authz.Decide(caller, authz.ViewContent(p.AuthorID, p.Status)) == authz.Deny {
		h.collector.RecordAuthzDenial()
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewPostNotFoundError(id))
		return
	}

	writeJSON(w, http.StatusOK, newPostResponse(p))
}

// Create は投稿を承認待ち状態で作成する。認証必須。
// POST /api/posts
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.CurrentUserFromContext(r.Context())
	if !ok {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewNotAuthenticatedError())
		return
	}

	var req postRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidInputError("リクエストボディが不正です"))
		return
	}

	created, err := h.service.Create(r.Context(), caller.ID, req.Title, req.Content, req.Category)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, postResponse{
		ID:        created.ID,
		Title:     created.Title,
		Content:   created.Content,
		Category:  created.Category,
		AuthorID:  created.AuthorID,
		Status:    string(created.Status),
		CreatedAt: created.CreatedAt,
	})
}

// Update は投稿を更新する。投稿者本人または管理者のみ。
// 認可拒否は404として返し、他人の投稿の存在を漏らさない。
// PUT /api/posts/{id}
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	p, ok := h.authorizeOwner(w, r)
	if !ok {
		return
	}

	var req postRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidInputError("リクエストボディが不正です"))
		return
	}

	if err := h.service.Update(r.Context(), p.ID, req.Title, req.Content, req.Category); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Delete は投稿を削除する。投稿者本人または管理者のみ。
// DELETE /api/posts/{id}
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, ok := h.authorizeOwner(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), p.ID); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// authorizeOwner は対象投稿を取得し、所有者（または管理者）であることを検証する。
// 不在と認可拒否はどちらも404として応答済みにし、(nil, false)を返す。
func (h *PostHandler) authorizeOwner(w http.ResponseWriter, r *http.Request) (*model.PostWithAuthor, bool) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidInputError("投稿IDが不正です"))
		return nil, false
	}

	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return nil, false
	}
	if p == nil {
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewPostNotFoundError(id))
		return nil, false
	}

	caller, _ := middleware.CurrentUserFromContext(r.Context())
	if authz.Decide(caller, authz.OwnedBy(p.AuthorID)) == authz.Deny {
		h.collector.RecordAuthzDenial()
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewPostNotFoundError(id))
		return nil, false
	}

	return p, true
}
