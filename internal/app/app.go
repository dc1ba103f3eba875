package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hitoshi/eduqa/internal/config"
	"github.com/hitoshi/eduqa/internal/gateway"
	"github.com/hitoshi/eduqa/internal/handler"
	"github.com/hitoshi/eduqa/internal/logger"
	"github.com/hitoshi/eduqa/internal/metrics"
	"github.com/hitoshi/eduqa/internal/middleware"
	"github.com/hitoshi/eduqa/internal/pipeline"
	"github.com/hitoshi/eduqa/internal/session"
	"github.com/hitoshi/eduqa/internal/simulated"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		// 設定読み込み前でもエラーをJSONで出せるようにする
		logger.SetupDefault(w, "info")
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.SetupDefault(w, cfg.LogLevel)
	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		return runHealthcheck(healthcheckURL(os.Getenv("SERVER_HOST"), os.Getenv("SERVER_PORT")))
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("host", cfg.ServerHost),
		slog.String("port", cfg.ServerPort),
		slog.Bool("use_mocks", cfg.UseMocks),
	)

	return runServe(cfg)
}

// Server は起動準備済みのHTTPハンドラーと、終了時に解放するリソースを保持する。
type Server struct {
	Handler http.Handler
	Mode    gateway.Mode
	Session *session.Store

	closers []func() error
}

// Close はセッションバックエンドなどの外部接続を閉じる。
func (s *Server) Close() error {
	var errs []error
	for _, c := range s.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Build は設定から全依存関係をワイヤリングし、HTTPハンドラーを構築する。
//
// 構築順序:
//
//	セッションバックエンド → セッションストア → メトリクス → ゲートウェイ → ハンドラー → ルーター
func Build(ctx context.Context, cfg *config.Config, log *slog.Logger) (*Server, error) {
	srv := &Server{}

	// 1. セッションバックエンド
	backend, closer, err := newSessionBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if closer != nil {
		srv.closers = append(srv.closers, closer)
	}

	// 2. セッションストア（保存済みのログイン状態を復元する）
	store, err := session.Open(ctx, backend, log)
	if err != nil {
		_ = srv.Close()
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}
	srv.Session = store

	// 3. メトリクス
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	collector := metrics.NewCollector(reg)

	// 4. ゲートウェイ
	gw, err := gateway.New(gateway.Options{
		UseMocks: cfg.UseMocks,
		Session:  store,
		Remote: pipeline.Options{
			BaseURL:      cfg.APIBaseURL,
			Timeout:      cfg.RequestTimeout,
			RateLimit:    cfg.RateLimitPerSecond,
			Burst:        cfg.RateLimitBurst,
			StrictEgress: cfg.StrictEgress,
			Metrics:      collector,
			Logger:       log,
		},
		Simulated: simulated.Options{
			Latency:   cfg.SimulatedLatency,
			JWTSecret: cfg.JWTSecret,
			Logger:    log,
		},
		Logger: log,
	})
	if err != nil {
		_ = srv.Close()
		return nil, fmt.Errorf("failed to build gateway: %w", err)
	}
	srv.Mode = gw.Mode()

	// 5. ルーター
	srv.Handler = handler.NewRouter(&handler.RouterDeps{
		Handler:           handler.New(gw, store, collector, log),
		Guard:             store,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		CSRF:              middleware.CSRFConfig{CookieSecure: cfg.CookieSecure},
		Logger:            log,
		Gatherer:          reg,
	})

	return srv, nil
}

// newSessionBackend はRedisのアドレスが設定されていればRedisを、なければファイルを保存先に選ぶ。
func newSessionBackend(ctx context.Context, cfg *config.Config) (session.Backend, func() error, error) {
	if cfg.SessionRedisAddr == "" {
		return session.NewFileBackend(cfg.SessionDir), nil, nil
	}

	rdb := session.NewRedisClient(cfg.SessionRedisAddr, cfg.SessionRedisPassword, cfg.SessionRedisDB)
	backend := session.NewRedisBackend(rdb, cfg.SessionTTL)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := backend.Ping(pingCtx); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("failed to connect to session redis: %w", err)
	}

	slog.Info("session redis connection established", slog.String("addr", cfg.SessionRedisAddr))
	return backend, rdb.Close, nil
}

// runServe はHTTPサーバーモードで起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	srv, err := Build(context.Background(), cfg, slog.Default())
	if err != nil {
		return err
	}
	defer func() {
		if err := srv.Close(); err != nil {
			slog.Error("failed to close resources", slog.String("error", err.Error()))
		}
	}()

	server := &http.Server{
		Addr:         net.JoinHostPort(cfg.ServerHost, cfg.ServerPort),
		Handler:      srv.Handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second + cfg.SimulatedLatency,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
			slog.String("mode", string(srv.Mode)),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(url string) error {
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}
