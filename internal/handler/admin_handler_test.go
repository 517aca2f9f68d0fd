package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/bloggy/internal/model"
)

// --- モック定義 ---

type mockAdminPostService struct {
	getFn          func(ctx context.Context, id int64) (*model.PostWithAuthor, error)
	listByStatusFn func(ctx context.Context, status model.PostStatus) ([]*model.PostWithAuthor, error)
	approveFn      func(ctx context.Context, id int64) error
	rejectFn       func(ctx context.Context, id int64) error
}

func (m *mockAdminPostService) Get(ctx context.Context, id int64) (*model.PostWithAuthor, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return pendingPost(id, 2), nil
}

func (m *mockAdminPostService) ListByStatus(ctx context.Context, status model.PostStatus) ([]*model.PostWithAuthor, error) {
	if m.listByStatusFn != nil {
		return m.listByStatusFn(ctx, status)
	}
	return nil, nil
}

func (m *mockAdminPostService) Approve(ctx context.Context, id int64) error {
	if m.approveFn != nil {
		return m.approveFn(ctx, id)
	}
	return nil
}

func (m *mockAdminPostService) Reject(ctx context.Context, id int64) error {
	if m.rejectFn != nil {
		return m.rejectFn(ctx, id)
	}
	return nil
}

type mockAdminUserService struct {
	listByRoleFn func(ctx context.Context, role model.Role) ([]*model.User, error)
}

func (m *mockAdminUserService) ListByRole(ctx context.Context, role model.Role) ([]*model.User, error) {
	if m.listByRoleFn != nil {
		return m.listByRoleFn(ctx, role)
	}
	return nil, nil
}

var (
	_ AdminPostService = (*mockAdminPostService)(nil)
	_ AdminUserService = (*mockAdminUserService)(nil)
)

var adminUser = &model.User{ID: 99, Role: model.RoleAdmin}

// --- Dashboard ---

func TestDashboard_AdminOnly(t *testing.T) {
	tests := []struct {
		name       string
		caller     *model.User
		wantStatus int
	}{
		{"anonymous", nil, http.StatusForbidden},
		{"regular user", &model.User{ID: 1, Role: model.RoleUser}, http.StatusForbidden},
		{"admin", adminUser, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAdminHandler(&mockAdminPostService{}, &mockAdminUserService{}, &mockCollector{})

			req := httptest.NewRequest(http.MethodGet, "/api/admin/dashboard", nil)
			if tt.caller != nil {
				req = withUser(req, tt.caller)
			}
			rec := httptest.NewRecorder()

			h.Dashboard(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestDashboard_ReturnsPendingQueueAndUsers(t *testing.T) {
	posts := &mockAdminPostService{
		listByStatusFn: func(_ context.Context, status model.PostStatus) ([]*model.PostWithAuthor, error) {
			switch status {
			case model.PostStatusPending:
				return []*model.PostWithAuthor{pendingPost(1, 2)}, nil
			case model.PostStatusApproved:
				return []*model.PostWithAuthor{approvedPost(2, 2), approvedPost(3, 4)}, nil
			}
			return nil, nil
		},
	}
	users := &mockAdminUserService{
		listByRoleFn: func(_ context.Context, role model.Role) ([]*model.User, error) {
			if role != model.RoleUser {
				t.Errorf("listed role = %q, want user", role)
			}
			return []*model.User{{ID: 2, Email: "u@example.com"}}, nil
		},
	}
	h := NewAdminHandler(posts, users, &mockCollector{})

	req := withUser(httptest.NewRequest(http.MethodGet, "/api/admin/dashboard", nil), adminUser)
	rec := httptest.NewRecorder()

	h.Dashboard(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp dashboardResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if len(resp.PendingPosts) != 1 {
		t.Errorf("len(PendingPosts) = %d, want 1", len(resp.PendingPosts))
	}
	if len(resp.ApprovedPosts) != 2 {
		t.Errorf("len(ApprovedPosts) = %d, want 2", len(resp.ApprovedPosts))
	}
	if len(resp.Users) != 1 {
		t.Errorf("len(Users) = %d, want 1", len(resp.Users))
	}
}

// --- Approve / Reject ---

func TestApprove_AdminAllowed(t *testing.T) {
	var approvedID int64
	posts := &mockAdminPostService{
		approveFn: func(_ context.Context, id int64) error {
			approvedID = id
			return nil
		},
	}
	h := NewAdminHandler(posts, &mockAdminUserService{}, &mockCollector{})

	req := withURLParam(httptest.NewRequest(http.MethodPost, "/api/admin/posts/1/approve", nil), "id", "1")
	req = withUser(req, adminUser)
	rec := httptest.NewRecorder()

	h.Approve(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	if approvedID != 1 {
		t.Errorf("approvedID = %d, want 1", approvedID)
	}
}

// 投稿者本人であっても一般ユーザーは承認できない。
func TestApprove_OwnerIsNotEnough(t *testing.T) {
	approveCalled := false
	posts := &mockAdminPostService{
		approveFn: func(_ context.Context, _ int64) error {
			approveCalled = true
			return nil
		},
	}
	collector := &mockCollector{}
	h := NewAdminHandler(posts, &mockAdminUserService{}, collector)

	req := withURLParam(httptest.NewRequest(http.MethodPost, "/api/admin/posts/1/approve", nil), "id", "1")
	req = withUser(req, &model.User{ID: 2, Role: model.RoleUser}) // pendingPost(1, 2)の投稿者
	rec := httptest.NewRecorder()

	h.Approve(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
	if approveCalled {
		t.Error("approve must not be executed for non-admin")
	}
	if collector.authzDenials != 1 {
		t.Errorf("authzDenials = %d, want 1", collector.authzDenials)
	}
}

func TestApprove_MissingPost(t *testing.T) {
	posts := &mockAdminPostService{
		getFn: func(_ context.Context, _ int64) (*model.PostWithAuthor, error) {
			return nil, nil
		},
	}
	h := NewAdminHandler(posts, &mockAdminUserService{}, &mockCollector{})

	req := withURLParam(httptest.NewRequest(http.MethodPost, "/api/admin/posts/99/approve", nil), "id", "99")
	req = withUser(req, adminUser)
	rec := httptest.NewRecorder()

	h.Approve(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestReject_DeletesPendingPost(t *testing.T) {
	var rejectedID int64
	posts := &mockAdminPostService{
		rejectFn: func(_ context.Context, id int64) error {
			rejectedID = id
			return nil
		},
	}
	h := NewAdminHandler(posts, &mockAdminUserService{}, &mockCollector{})

	req := withURLParam(httptest.NewRequest(http.MethodPost, "/api/admin/posts/5/reject", nil), "id", "5")
	req = withUser(req, adminUser)
	rec := httptest.NewRecorder()

	h.Reject(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	if rejectedID != 5 {
		t.Errorf("rejectedID = %d, want 5", rejectedID)
	}
}
