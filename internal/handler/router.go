package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/bloggy/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	IdentityResolver  middleware.IdentityResolver
	RateLimiter       *middleware.RateLimiter
	CORSAllowedOrigin string
	CSRFConfig        middleware.CSRFConfig

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// 投稿・ユーザー・管理
	PostService  PostServiceInterface
	AdminPosts   AdminPostService
	UserService  UserServiceInterface
	AdminUsers   AdminUserService
	ProfilePosts ProfilePostLister

	// 運用
	Collector      StatusMetricsCollector
	MetricsHandler http.Handler
	HealthPinger   Pinger
}

// StatusMetricsCollector はルーター全体で使用するメトリクス記録のインターフェース。
type StatusMetricsCollector interface {
	AuthMetricsRecorder
	AuthzMetricsRecorder
	middleware.StatusRecorder
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → Logging → Recovery → SecurityHeaders → CORS → CSRF → Session
//
// Sessionは全ルートに適用し、未認証リクエストもそのまま通過させる
// （公開投稿の閲覧を許可するため）。認証が必要なルートはRequireAuthenticationで保護し、
// さらにユーザー別レート制限を適用する。ログイン・登録はIP別レート制限で保護する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRequestIDMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger, deps.Collector))
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))
	r.Use(middleware.NewSessionMiddleware(deps.IdentityResolver))

	authHandler := NewAuthHandler(deps.AuthService, deps.Collector, deps.AuthConfig)
	postHandler := NewPostHandler(deps.PostService, deps.Collector)
	adminHandler := NewAdminHandler(deps.AdminPosts, deps.AdminUsers, deps.Collector)
	userHandler := NewUserHandler(deps.UserService, deps.ProfilePosts, deps.Collector, deps.AuthConfig)

	// --- 運用エンドポイント ---
	r.Method(http.MethodGet, "/health", NewHealthHandler(deps.HealthPinger))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}
	r.Method(http.MethodGet, "/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig))

	// --- 認証ルート ---
	r.Route("/auth", func(r chi.Router) {
		// ローカル認証（総当たり対策としてIP別レート制限）
		r.With(deps.RateLimiter.AuthMiddleware()).Post("/login", authHandler.Login)
		r.With(deps.RateLimiter.AuthMiddleware()).Post("/register", authHandler.Register)

		// OAuthフロー
		r.Get("/google/login", authHandler.GoogleLogin)
		r.Get("/google/callback", authHandler.GoogleCallback)

		// セッション管理
		r.Post("/logout", authHandler.Logout)
		r.Get("/me", authHandler.Me)
	})

	// --- 公開ルート（未認証でも閲覧可能） ---
	r.Get("/api/posts", postHandler.List)
	r.Get("/api/posts/{id}", postHandler.Get)

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: RequireAuthentication → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuthentication())
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// 投稿管理
		r.Post("/api/posts", postHandler.Create)
		r.Put("/api/posts/{id}", postHandler.Update)
		r.Delete("/api/posts/{id}", postHandler.Delete)

		// ユーザー管理
		r.Get("/api/users/{id}/profile", userHandler.Profile)
		r.Put("/api/users/{id}/profile", userHandler.UpdateProfile)
		r.Delete("/api/users/{id}", userHandler.Withdraw)

		// 管理者専用
		r.Get("/api/admin/dashboard", adminHandler.Dashboard)
		r.Post("/api/admin/posts/{id}/approve", adminHandler.Approve)
		r.Post("/api/admin/posts/{id}/reject", adminHandler.Reject)
	})

	return r
}
