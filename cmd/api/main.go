package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Anveeka07/TaskManager/internal/app/migrate"
	httpx "github.com/Anveeka07/TaskManager/internal/http"
	"github.com/Anveeka07/TaskManager/internal/repository"
	"github.com/Anveeka07/TaskManager/internal/repository/memory"
	"github.com/Anveeka07/TaskManager/internal/repository/postgres"
	"github.com/Anveeka07/TaskManager/internal/service/auth"
	"github.com/Anveeka07/TaskManager/internal/service/credential"
	"github.com/Anveeka07/TaskManager/internal/service/task"
	"github.com/Anveeka07/TaskManager/pkg/config"
	"github.com/Anveeka07/TaskManager/pkg/logger"
)

type store interface {
	repository.UserRepository
	repository.TaskRepository
}

func main() {
	bootLog := logger.New("api", slog.LevelInfo)
	cfg, err := config.LoadAPIConfig()
	if err != nil {
		bootLog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New("api", logger.ParseLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		repo     store
		dbHealth func(context.Context) error
	)
	switch cfg.Storage {
	case config.StorageMemory:
		mem := memory.New()
		repo, dbHealth = mem, mem.Ping
		log.Warn("using in-memory storage; data is lost on restart")
	default:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		runner, err := migrate.New(pool, cfg.DatabaseURL, cfg.MigrationsDir, log)
		if err != nil {
			log.Error("failed to configure migrations", "error", err)
			os.Exit(1)
		}
		defer runner.Close()
		if err := runner.Ping(ctx); err != nil {
			log.Error("database ping failed", "error", err)
			os.Exit(1)
		}
		if cfg.AutoMigrate {
			if err := runner.Ensure(ctx); err != nil {
				log.Error("migrations failed", "error", err)
				os.Exit(1)
			}
		}
		repo, dbHealth = postgres.New(pool), pool.Ping
	}

	creds := credential.New(cfg.JWTSecret, cfg.TokenTTL, cfg.BcryptCost)
	authSvc := auth.New(repo, creds, log)
	taskSvc := task.New(repo, log)

	limiter := httpx.NewMemoryRateLimiter()
	if addr := strings.TrimSpace(cfg.RateLimitRedisAddr); addr != "" {
		redisLimiter, err := httpx.NewRedisRateLimiter(ctx, addr, cfg.RateLimitRedisPass, cfg.RateLimitRedisDB)
		if err != nil {
			log.Warn("redis rate limiter unavailable, counting in memory", "error", err)
		} else {
			limiter = redisLimiter
		}
	}

	router := httpx.NewRouter(log, authSvc, taskSvc, httpx.Options{
		Limiter: limiter,
		RateLimits: &httpx.RateLimits{
			Register:  httpx.PerMinute(cfg.RateLimitRegister),
			Login:     httpx.PerMinute(cfg.RateLimitLogin),
			TaskRead:  httpx.PerMinute(cfg.RateLimitTaskRead),
			TaskWrite: httpx.PerMinute(cfg.RateLimitTaskWrite),
		},
		TrustProxyHeaders: cfg.TrustProxyHeaders,
		DBHealth:          dbHealth,
		ClientOrigin:      cfg.ClientOrigin,
		MaxBodyBytes:      cfg.MaxBodyBytes,
	})
	defer router.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       time.Minute,
	}

	errorCh := make(chan error, 1)
	go func() {
		log.Info("api server starting", "addr", cfg.Addr, "storage", cfg.Storage, "env", cfg.Environment)
		errorCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
		log.Info("api server stopped")
	case err := <-errorCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}
}
