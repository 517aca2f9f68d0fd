// Package post は投稿の作成・更新・モデレーションのドメインロジックを提供する。
package post

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hitoshi/bloggy/internal/model"
	"github.com/hitoshi/bloggy/internal/repository"
	"github.com/hitoshi/bloggy/internal/security"
)

// excerptLength は一覧画面に表示する抜粋の最大文字数。
const excerptLength = 300

// Service は投稿のサービス層。
// 認可判定は行わない。呼び出し元（ハンドラー）が認可ゲートを通してから呼ぶこと。
type Service struct {
	postRepo  repository.PostRepository
	sanitizer security.ContentSanitizerService
}

// NewService はServiceを生成する。
func NewService(postRepo repository.PostRepository, sanitizer security.ContentSanitizerService) *Service {
	return &Service{
		postRepo:  postRepo,
		sanitizer: sanitizer,
	}
}

// Create は投稿を承認待ち状態で作成する。
// 本文は保存前にサニタイズする。
func (s *Service) Create(ctx context.Context, authorID int64, title, content, category string) (*model.Post, error) {
	if strings.TrimSpace(title) == "" {
		return nil, model.NewInvalidInputError("タイトルは必須です")
	}

	post := &model.Post{
		Title:     title,
		Content:   s.sanitizer.Sanitize(content),
		Category:  category,
		AuthorID:  authorID,
		Status:    model.PostStatusPending,
		CreatedAt: time.Now(),
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	slog.Info("post created",
		slog.Int64("post_id", post.ID),
		slog.Int64("author_id", authorID),
	)
	return post, nil
}

// Get は指定IDの投稿を著者情報付きで取得する。見つからない場合はnilを返す。
func (s *Service) Get(ctx context.Context, id int64) (*model.PostWithAuthor, error) {
	post, err := s.postRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find post: %w", err)
	}
	return post, nil
}

// Update はタイトル・本文・カテゴリを更新する。公開状態は変更しない。
func (s *Service) Update(ctx context.Context, id int64, title, content, category string) error {
	if strings.TrimSpace(title) == "" {
		return model.NewInvalidInputError("タイトルは必須です")
	}

	if err := s.postRepo.Update(ctx, id, title, s.sanitizer.Sanitize(content), category); err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}

	slog.Info("post updated", slog.Int64("post_id", id))
	return nil
}

// Delete は投稿を削除する。
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.postRepo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}

	slog.Info("post deleted", slog.Int64("post_id", id))
	return nil
}

// Approve は承認待ちの投稿を公開する。公開日時には承認時刻が記録される。
func (s *Service) Approve(ctx context.Context, id int64) error {
	if err := s.postRepo.UpdateStatus(ctx, id, model.PostStatusApproved); err != nil {
		return fmt.Errorf("failed to approve post: %w", err)
	}

	slog.Info("post approved", slog.Int64("post_id", id))
	return nil
}

// Reject は承認待ちの投稿を削除する。
func (s *Service) Reject(ctx context.Context, id int64) error {
	if err := s.postRepo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("failed to reject post: %w", err)
	}

	slog.Info("post rejected", slog.Int64("post_id", id))
	return nil
}

// SearchResult は承認済み投稿の検索結果を表す。
type SearchResult struct {
	Posts      []*model.PostWithAuthor
	Excerpts   []string // Postsと同順の抜粋
	Total      int
	TotalPages int
}

// SearchApproved は承認済み投稿を検索し、一覧表示用の抜粋付きで返す。
func (s *Service) SearchApproved(ctx context.Context, q model.PostSearchQuery) (*SearchResult, error) {
	if q.PerPage <= 0 {
		q.PerPage = 10
	}

	posts, total, err := s.postRepo.SearchApproved(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to search posts: %w", err)
	}

	excerpts := make([]string, len(posts))
	for i, p := range posts {
		excerpts[i] = s.Excerpt(p.Content)
	}

	totalPages := (total + q.PerPage - 1) / q.PerPage

	return &SearchResult{
		Posts:      posts,
		Excerpts:   excerpts,
		Total:      total,
		TotalPages: totalPages,
	}, nil
}

// ListByStatus は指定状態の投稿一覧を返す。管理画面用。
func (s *Service) ListByStatus(ctx context.Context, status model.PostStatus) ([]*model.PostWithAuthor, error) {
	posts, err := s.postRepo.ListByStatus(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, nil
}

// ListByAuthor は指定著者の投稿一覧を返す。プロフィール画面用。
func (s *Service) ListByAuthor(ctx context.Context, authorID int64) ([]*model.Post, error) {
	posts, err := s.postRepo.ListByAuthor(ctx, authorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts by author: %w", err)
	}
	return posts, nil
}

// Excerpt は本文からタグを除去し、先頭300文字の抜粋を生成する。
// 300文字を超える場合は末尾に「...」を付ける。文字数はルーン単位で数える。
func (s *Service) Excerpt(content string) string {
	plain := strings.TrimSpace(s.sanitizer.StripTags(content))
	if utf8.RuneCountInString(plain) <= excerptLength {
		return plain
	}

	runes := []rune(plain)
	return string(runes[:excerptLength]) + "..."
}
