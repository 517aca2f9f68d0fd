// Package auth は認証フロー（ローカル・OAuth）とセッション管理を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/bloggy/internal/model"
	"github.com/hitoshi/bloggy/internal/repository"
)

// OAuthProvider はOAuth認証プロバイダーのインターフェース。
// 将来的に複数IdP（Google, GitHub等）に対応するための抽象化。
type OAuthProvider interface {
	// GetLoginURL はOAuth認証URLを生成する。
	GetLoginURL(state string) string
	// ExchangeCode は認可コードをトークンに交換し、検証済みプロフィールを取得する。
	ExchangeCode(ctx context.Context, code string) (*model.FederatedProfile, error)
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge int // セッション有効期間（秒）。発行時刻からの絶対期限
}

// Service は認証に関するビジネスロジックを提供する。
// セッションの状態遷移は Anonymous →（ログイン成功）→ Authenticated
// →（ログアウトまたは期限切れ）→ Anonymous のみで、ログイン失敗は状態を変えない。
type Service struct {
	oauth       OAuthProvider
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	hasher      *PasswordHasher
	config      ServiceConfig
}

// NewService はServiceを生成する。
func NewService(
	oauth OAuthProvider,
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	hasher *PasswordHasher,
	config ServiceConfig,
) *Service {
	return &Service{
		oauth:       oauth,
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		hasher:      hasher,
		config:      config,
	}
}

// Login はローカルパスワード認証を行い、成功時にセッションを発行する。
// メールアドレス不明・パスワード不一致・外部IdP専用ユーザーのいずれも
// 同一のInvalidCredentialとして返し、アカウントの存在有無を漏らさない。
func (s *Service) Login(ctx context.Context, email, password string) (*model.Session, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	if user == nil {
		return nil, model.NewInvalidCredentialError()
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, model.NewInvalidCredentialError()
	}

	session, err := s.issueSession(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	slog.Info("user logged in",
		slog.Int64("user_id", user.ID),
		slog.String("method", "local"),
	)
	return session, nil
}

// Register は新規ユーザーを登録し、続けてログインする。
// メールアドレスの重複はストレージ層の一意制約で検出し、DuplicateEmailとして返す。
// ここでの事前チェックは行わない（check-then-insertの競合を作らないため）。
func (s *Service) Register(ctx context.Context, email, password, firstName, lastName string) (*model.Session, error) {
	if email == "" || password == "" {
		return nil, model.NewInvalidInputError("メールアドレスとパスワードは必須です")
	}

	hashed, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hashed,
		Role:         model.RoleUser,
		FirstName:    firstName,
		LastName:     lastName,
		CreatedAt:    time.Now(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, model.NewDuplicateEmailError()
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	session, err := s.issueSession(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	slog.Info("new user registered",
		slog.Int64("user_id", user.ID),
	)
	return session, nil
}

// GetLoginURL はOAuth認証URLを生成する。
func (s *Service) GetLoginURL(state string) string {
	return s.oauth.GetLoginURL(state)
}

// HandleCallback はOAuthコールバックを処理し、セッションを発行する。
func (s *Service) HandleCallback(ctx context.Context, code string) (*model.Session, error) {
	profile, err := s.oauth.ExchangeCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange oauth code: %w", err)
	}

	return s.FederatedLogin(ctx, profile)
}

// FederatedLogin は検証済みの外部IdPプロフィールでログインする。
// 未登録メールアドレスの場合はローカルパスワードを持たないユーザーを自動作成する。
// 登録済みの場合は既存レコードをそのまま使用する。既存のローカルパスワードを
// 上書きすることも役割を昇格することもなく、同一メールアドレスでの再実行は冪等。
func (s *Service) FederatedLogin(ctx context.Context, profile *model.FederatedProfile) (*model.Session, error) {
	user, err := s.userRepo.FindByEmail(ctx, profile.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}

	if user == nil {
		user = &model.User{
			Email:     profile.Email,
			Role:      model.RoleUser,
			FirstName: profile.GivenName,
			LastName:  profile.FamilyName,
			CreatedAt: time.Now(),
		}

		err := s.userRepo.Create(ctx, user)
		if errors.Is(err, repository.ErrDuplicateEmail) {
			// 同時の初回ログインと競合した場合は既存レコードを採用する
			user, err = s.userRepo.FindByEmail(ctx, profile.Email)
			if err != nil {
				return nil, fmt.Errorf("failed to find user after conflict: %w", err)
			}
			if user == nil {
				return nil, fmt.Errorf("user vanished after duplicate email conflict")
			}
		} else if err != nil {
			return nil, fmt.Errorf("failed to create federated user: %w", err)
		} else {
			slog.Info("new federated user created",
				slog.Int64("user_id", user.ID),
				slog.String("provider", "google"),
			)
		}
	}

	session, err := s.issueSession(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	slog.Info("user logged in",
		slog.Int64("user_id", user.ID),
		slog.String("method", "federated"),
	)
	return session, nil
}

// Logout はセッションを破棄する。
// 既に無効なトークンを渡されても成功として扱う（冪等）。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}

	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("user logged out")
	return nil
}

// CurrentUser はセッショントークンから現在のユーザーを解決する。
// トークン不明・期限切れ・参照先ユーザー消失のいずれの場合も(nil, nil)を返し、
// 理由を呼び出し元から区別できなくする。ストレージ障害のみエラーを返し、
// 呼び出し元は未認証として扱う（フェイルクローズ）。
func (s *Service) CurrentUser(ctx context.Context, sessionID string) (*model.User, error) {
	if sessionID == "" {
		return nil, nil
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		return nil, nil
	}

	user, err := s.userRepo.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, nil
	}

	return user, nil
}

// issueSession はセッションを作成し永続化する。
// 有効期限は発行時刻 + SessionMaxAge の絶対時刻で、アクセスによって延長されない。
// 同一ユーザーの複数同時セッションに制限はない。
func (s *Service) issueSession(ctx context.Context, userID int64) (*model.Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	session := &model.Session{
		ID:        sessionID,
		UserID:    userID,
		ExpiresAt: time.Now().Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: time.Now(),
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
