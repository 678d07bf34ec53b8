package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hitoshi/minilink/internal/auth"
	"github.com/hitoshi/minilink/internal/config"
	"github.com/hitoshi/minilink/internal/database"
	"github.com/hitoshi/minilink/internal/handler"
	"github.com/hitoshi/minilink/internal/logger"
	"github.com/hitoshi/minilink/internal/metrics"
	"github.com/hitoshi/minilink/internal/post"
	"github.com/hitoshi/minilink/internal/repository"
	"github.com/hitoshi/minilink/internal/repository/memory"
	"github.com/hitoshi/minilink/internal/security"
	"github.com/hitoshi/minilink/internal/seed"
	"github.com/hitoshi/minilink/internal/user"
	"github.com/hitoshi/minilink/internal/validation"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, slog.LevelInfo)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. LOG_LEVELを反映する
	logger.SetupDefault(w, logger.ParseLevel(cfg.LogLevel))

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "5000"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("store", cfg.StoreBackend),
		slog.String("environment", cfg.AppEnv),
	)

	// グレースフルシャットダウンのためのシグナルハンドリング
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	go func() {
		select {
		case <-stop:
			slog.Info("shutdown signal received")
			cancel()
		case <-ctx.Done():
		}
	}()

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	case CommandSeed:
		return runSeed(ctx, cfg)
	default:
		return runServe(ctx, cfg, nil)
	}
}

// backend はストア実装と付随するリソースをまとめる。
type backend struct {
	users    repository.UserRepository
	posts    repository.PostRepository
	health   handler.HealthChecker // インメモリストアではnil
	resetter seed.Resetter
	close    func() error
}

// openBackend はSTORE_BACKENDに応じてストアを初期化する。
// PostgreSQLの場合は起動時に接続を確立し、失敗すればエラーを返す。
func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	if cfg.IsMemoryStore() {
		store := memory.NewStore()
		slog.Warn("using in-memory store; data is lost on restart")
		return &backend{
			users: store.Users(),
			posts: store.Posts(),
			resetter: seed.ResetFunc(func(context.Context) error {
				store.Reset()
				return nil
			}),
			close: func() error { return nil },
		}, nil
	}

	pool := database.NewPool(cfg.DatabaseURL, database.Options{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnectTimeout:  cfg.DBConnectTimeout,
		ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
	})
	db, err := pool.Get(ctx)
	if err != nil {
		pool.Close()
		return nil, err
	}

	slog.Info("database connection established",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	return &backend{
		users:    repository.NewPostgresUserRepo(db),
		posts:    repository.NewPostgresPostRepo(db),
		health:   pool,
		resetter: seed.NewPostgresResetter(db, slog.Default()),
		close:    pool.Close,
	}, nil
}

// services はドメインサービス一式。
type services struct {
	auth  *auth.Service
	posts *post.Service
	users *user.Service
}

func newServices(cfg *config.Config, b *backend, collector metrics.MetricsCollector) *services {
	v := validation.New()
	sanitizer := security.NewTextSanitizer()

	return &services{
		auth: auth.NewService(
			b.users,
			auth.NewBcryptHasher(cfg.BcryptCost),
			auth.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiresIn),
			v, sanitizer, collector,
		),
		posts: post.NewService(b.posts, v, sanitizer, collector, post.ServiceConfig{
			FeedMaxLimit: cfg.FeedMaxLimit,
		}),
		users: user.NewService(b.users, b.posts, v, sanitizer),
	}
}

// newRegistry はアプリケーションとランタイムのメトリクスを登録したレジストリを返す。
func newRegistry() (*prometheus.Registry, *metrics.Collector) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg, metrics.NewCollector(reg)
}

// runServe はAPIサーバーモードで起動する。
// ストアを開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// ctxがキャンセルされるとグレースフルシャットダウンを行う。
// lnがnilの場合はSERVER_PORTでリッスンする。
func runServe(ctx context.Context, cfg *config.Config, ln net.Listener) error {
	// 1. ストアの初期化
	b, err := openBackend(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer b.close()

	// 2. メトリクスとドメインサービスの初期化
	reg, collector := newRegistry()
	svc := newServices(cfg, b, collector)

	// 3. ルーターの構築
	deps := &handler.RouterDeps{
		Authenticator:     svc.auth,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		Logger:            slog.Default(),

		AuthService: svc.auth,
		PostService: svc.posts,
		UserService: svc.users,

		FeedMaxLimit: cfg.FeedMaxLimit,

		Metrics:     collector,
		Gatherer:    reg,
		Health:      b.health,
		Environment: cfg.AppEnv,
	}

	router := handler.NewRouter(deps)

	// 4. HTTPサーバーの起動
	if ln == nil {
		ln, err = net.Listen("tcp", ":"+cfg.ServerPort)
		if err != nil {
			return fmt.Errorf("failed to listen: %w", err)
		}
	}

	server := &http.Server{
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("API server starting", slog.String("addr", ln.Addr().String()))
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server listen error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down API server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	if cfg.IsMemoryStore() {
		slog.Info("in-memory store has no schema; skipping migrations")
		return nil
	}

	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	result, err := database.RunMigrations(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	if !result.Applied {
		slog.Info("database schema is up to date", slog.Uint64("version", uint64(result.To)))
		return nil
	}
	slog.Info("database migrations completed successfully",
		slog.Uint64("from_version", uint64(result.From)),
		slog.Uint64("to_version", uint64(result.To)),
	)
	return nil
}

// runSeed は既存データを削除し、デモデータを投入する。
func runSeed(ctx context.Context, cfg *config.Config) error {
	b, err := openBackend(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer b.close()

	svc := newServices(cfg, b, nil)
	seeder := seed.NewSeeder(b.resetter, svc.auth, svc.posts, slog.Default())

	if _, err := seeder.Run(ctx); err != nil {
		return fmt.Errorf("seed failed: %w", err)
	}

	for _, u := range seed.DemoUsers {
		slog.Info("demo account",
			slog.String("email", u.Email),
			slog.String("password", seed.DemoPassword),
		)
	}
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /api/health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	endpoint := fmt.Sprintf("http://localhost:%s/api/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(endpoint)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLのパスワードをマスクする。
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "***"
	}
	return u.Redacted()
}
