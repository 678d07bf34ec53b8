package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/minilink/internal/metrics"
	"github.com/hitoshi/minilink/internal/middleware"
	"github.com/hitoshi/minilink/internal/model"
	"github.com/prometheus/client_golang/prometheus"
)

// APIVersion はGET /apiで返すバージョン。
const APIVersion = "1.0.0"

// HealthChecker はヘルスチェック時のデータベース疎通確認に使用する。
// database.Poolの部分集合として定義する。
type HealthChecker interface {
	Ping(ctx context.Context) bool
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Authenticator     middleware.Authenticator
	CORSAllowedOrigin string
	Logger            *slog.Logger

	// サービス
	AuthService AuthServiceInterface
	PostService PostServiceInterface
	UserService UserServiceInterface

	// フィード1ページあたりの最大件数
	FeedMaxLimit int

	// 監視
	Metrics     metrics.MetricsCollector
	Gatherer    prometheus.Gatherer // nilの場合は/metricsを公開しない
	Health      HealthChecker       // nilの場合はインメモリストアとして扱う
	Environment string
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → Metrics → SecurityHeaders → CORS → (Auth | OptionalAuth)
//
// 参照系は任意認証、更新系は必須認証のグループに配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	collector := deps.Metrics
	if collector == nil {
		collector = metrics.Nop{}
	}

	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewMetricsMiddleware(collector))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeAPIErrorResponse(w, http.StatusNotFound, &model.APIError{
			Code:     "ROUTE_NOT_FOUND",
			Message:  "Route not found",
			Category: "system",
			Action:   "URLを確認してください。",
		})
	})

	authHandler := NewAuthHandler(deps.AuthService)
	postHandler := NewPostHandler(deps.PostService, deps.FeedMaxLimit)
	userHandler := NewUserHandler(deps.UserService)
	requireAuth := middleware.NewAuthMiddleware(deps.Authenticator)
	optionalAuth := middleware.NewOptionalAuthMiddleware(deps.Authenticator)

	if deps.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.Gatherer))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/", rootHandler)
		r.Get("/health", healthHandler(deps.Health, deps.Environment))

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.With(requireAuth).Get("/me", authHandler.Me)
		})

		r.Route("/posts", func(r chi.Router) {
			// --- 認証不要のルート（トークンがあればlikedを付与）---
			r.Group(func(r chi.Router) {
				r.Use(optionalAuth)
				r.Get("/feed", postHandler.Feed)
				r.Get("/{id}", postHandler.Get)
			})

			// --- 認証が必要なルート ---
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/", postHandler.Create)
				r.Put("/{id}/like", postHandler.ToggleLike)
				r.Post("/{id}/comment", postHandler.AddComment)
				r.Delete("/{id}", postHandler.Delete)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.With(optionalAuth).Get("/profile/{id}", userHandler.GetProfile)
			r.Get("/search", userHandler.Search)
			r.With(requireAuth).Put("/profile", userHandler.UpdateProfile)
		})
	})

	return r
}

type rootResponse struct {
	Message   string   `json:"message"`
	Version   string   `json:"version"`
	Endpoints []string `json:"endpoints"`
}

// rootHandler はAPIの概要を返す。
// GET /api
func rootHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, rootResponse{
		Message:   "Mini LinkedIn API",
		Version:   APIVersion,
		Endpoints: []string{"/api/auth", "/api/users", "/api/posts", "/api/health"},
	})
}

type healthResponse struct {
	Message     string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
	Environment string    `json:"environment"`
	Database    string    `json:"database"`
}

// healthHandler はプロセスとデータベースの状態を返す。
// データベースに接続できない場合は503を返す。
// GET /api/health
func healthHandler(checker HealthChecker, environment string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		database := "memory"
		if checker != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if checker.Ping(ctx) {
				database = "connected"
			} else {
				database = "unavailable"
				status = http.StatusServiceUnavailable
			}
		}

		writeJSON(w, status, healthResponse{
			Message:     "Mini LinkedIn API is running",
			Timestamp:   time.Now().UTC(),
			Environment: environment,
			Database:    database,
		})
	}
}
