// Package user はユーザープロフィールと退会処理のドメインロジックを提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/bloggy/internal/model"
	"github.com/hitoshi/bloggy/internal/repository"
)

// Service はユーザー管理のサービス層。
// 認可判定は行わない。呼び出し元（ハンドラー）が認可ゲートを通してから呼ぶこと。
type Service struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	postRepo    repository.PostRepository
}

// NewService はServiceを生成する。
func NewService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	postRepo repository.PostRepository,
) *Service {
	return &Service{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		postRepo:    postRepo,
	}
}

// Get は指定IDのユーザーを取得する。見つからない場合はUserNotFoundを返す。
func (s *Service) Get(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

// UpdateProfile はプロフィール項目（姓・名・自己紹介）を更新する。
// 認証情報と役割はこの経路では変更できない。
func (s *Service) UpdateProfile(ctx context.Context, id int64, firstName, lastName, about string) error {
	if err := s.userRepo.UpdateProfile(ctx, id, firstName, lastName, about); err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}

	slog.Info("profile updated", slog.Int64("user_id", id))
	return nil
}

// ListByRole は指定役割のユーザー一覧を返す。管理画面用。
func (s *Service) ListByRole(ctx context.Context, role model.Role) ([]*model.User, error) {
	users, err := s.userRepo.ListByRole(ctx, role)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// Withdraw はユーザーの退会処理を実行する。
// 投稿はプレースホルダー著者に付け替えて残し、セッションをすべて破棄した上で
// ユーザーレコードを削除する。
func (s *Service) Withdraw(ctx context.Context, userID int64) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return model.NewUserNotFoundError()
	}

	reassigned, err := s.postRepo.ReassignAuthor(ctx, userID, model.WithdrawnAuthorID)
	if err != nil {
		return fmt.Errorf("failed to reassign posts: %w", err)
	}

	if err := s.sessionRepo.DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete user sessions: %w", err)
	}

	if err := s.userRepo.DeleteByID(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	slog.Info("user withdrawn",
		slog.Int64("user_id", userID),
		slog.Int64("reassigned_posts", reassigned),
	)
	return nil
}
