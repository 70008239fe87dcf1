package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ideacritic/ideacritic/internal/application"
	appdebate "github.com/ideacritic/ideacritic/internal/application/debate"
	appreports "github.com/ideacritic/ideacritic/internal/application/reports"
	"github.com/ideacritic/ideacritic/internal/config"
	domain "github.com/ideacritic/ideacritic/internal/domain/debate"
	"github.com/ideacritic/ideacritic/internal/domain/market"
	aiopenai "github.com/ideacritic/ideacritic/internal/infra/ai/openai"
	rediscache "github.com/ideacritic/ideacritic/internal/infra/cache"
	mysqlp "github.com/ideacritic/ideacritic/internal/infra/db/mysql"
	postgresp "github.com/ideacritic/ideacritic/internal/infra/db/postgres"
	"github.com/ideacritic/ideacritic/internal/infra/httpserver"
	"github.com/ideacritic/ideacritic/internal/infra/report"
	"github.com/ideacritic/ideacritic/internal/infra/search"
	"github.com/ideacritic/ideacritic/internal/infra/search/tavily"
	minioStore "github.com/ideacritic/ideacritic/internal/infra/storage"
	"github.com/ideacritic/ideacritic/internal/logger"
	"github.com/ideacritic/ideacritic/internal/middleware"
)

func main() {
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	zlog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zlog.Sync()

	ctx := context.Background()

	// database by configured driver
	var repo domain.Repository
	var healthDB middleware.HealthChecker
	switch cfg.Database.Driver {
	case "postgres":
		db, err := postgresp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			zlog.Fatal("postgres connect error", zap.Error(err))
		}
		defer db.Close()
		repo = postgresp.NewAnalysisRepository(db)
		healthDB = &middleware.DatabaseHealthChecker{DB: db}
	default:
		db, err := mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			zlog.Fatal("mysql connect error", zap.Error(err))
		}
		defer db.Close()
		repo = mysqlp.NewAnalysisRepository(db)
		healthDB = &middleware.DatabaseHealthChecker{DB: db}
	}

	// market search, wrapped in the redis cache when one is configured
	var searcher market.Searcher
	checkers := map[string]middleware.HealthChecker{"database": healthDB}
	if cfg.Tavily.APIKey != "" {
		searcher = tavily.NewClient(cfg.Tavily.APIKey, cfg.Tavily.BaseURL, cfg.TavilyTimeout())
		if cfg.Redis.Addr != "" {
			cache := rediscache.NewRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.CacheTTL())
			defer cache.Close()
			searcher = search.NewCachedSearcher(searcher, cache, zlog)
			checkers["redis"] = &middleware.PingHealthChecker{Client: cache}
		}
	} else {
		zlog.Warn("no tavily api key configured, market analysis will degrade")
	}

	// init minio
	store, err := minioStore.New(ctx,
		cfg.Minio.Endpoint,
		cfg.Minio.Region,
		cfg.Minio.BucketName,
		cfg.Minio.AccessKey,
		cfg.Minio.SecretKey,
		cfg.Minio.UseSSL,
	)
	if err != nil {
		zlog.Fatal("minio init error", zap.Error(err))
	}

	llm := aiopenai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Model, cfg.OpenAI.MaxTokens)

	debateSvc := &appdebate.Service{
		Repo:             repo,
		LLM:              llm,
		Market:           searcher,
		Clock:            application.SystemClock{},
		Events:           appdebate.NewBroker(),
		Log:              zlog,
		DefaultRounds:    cfg.Debate.DefaultRounds,
		MaxRounds:        cfg.Debate.MaxRounds,
		MarketMaxResults: cfg.Tavily.MaxResults,
	}
	reportsSvc := &appreports.Service{
		Repo:     repo,
		Store:    store,
		Renderer: report.NewPDF(),
		Log:      zlog,
	}

	mux := chi.NewRouter()
	mux.Use(middleware.LoggingMiddleware(zlog))
	mux.Use(middleware.MetricsMiddleware)
	if len(cfg.Auth.Keys) > 0 {
		mux.Use(middleware.APIKeyAuth(cfg.Auth.Keys))
	}
	mux.Use(middleware.RateLimitMiddleware(30, 1))
	mux.Mount("/", httpserver.NewRouter(debateSvc, reportsSvc, checkers))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:        addr,
		Handler:     mux,
		ReadTimeout: 15 * time.Second,
		// No write timeout: the events endpoint holds SSE connections open.
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		zlog.Info("server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal("server error", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	zlog.Info("shutting down server")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		zlog.Error("shutdown error", zap.Error(err))
	}
}
