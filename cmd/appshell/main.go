package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"appshell/internal/config"
	"appshell/internal/logger"
	"appshell/internal/mysql"
	"appshell/internal/redis"
	"appshell/internal/routing"
	"appshell/pkg/apiclient"
	"appshell/pkg/auth"
	"appshell/pkg/session"
	"appshell/pkg/shell"
	"appshell/pkg/toast"
	"appshell/pkg/user"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logger.Load(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := mysql.LoadDB(ctx, cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("mysql: %v", err)
	}
	defer db.Close()

	var sessions session.Repository = session.NewMySQLSessionRepo(db)
	if cfg.RedisURL != "" {
		rdb, err := redis.LoadClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		defer rdb.Close()
		sessions = session.NewCachedRepo(sessions, rdb, logger)
	}

	backend := auth.NewBackend(sessions, auth.Options{
		Secret:       []byte(cfg.JWTSecret),
		CookiePrefix: cfg.CookiePrefix,
		Secure:       cfg.CookieSecure,
		SessionTTL:   cfg.SessionTTL,
	})
	toasts := toast.NewStore([]byte(cfg.ToastSecret), cfg.CookieSecure)

	sh := shell.New(shell.Options{
		Title:  cfg.AppTitle,
		Dev:    cfg.IsDevelopment(),
		Client: apiclient.New(cfg.APIBaseURL, &http.Client{Timeout: 5 * time.Second}),
		Toasts: toasts,
		Logger: logger,
	})
	if cfg.BootstrapAuth {
		sh.Use(shell.AuthBeforeLoad(backend))
		sh.Load(shell.HeaderLoader)
	}

	r := routing.NewRouter(routing.Deps{
		Users:  user.NewService(user.NewMySQLRepo(db)),
		Auth:   backend,
		Toasts: toasts,
		Shell:  sh,
		Logger: logger,
	})

	logger.Info("starting", "env", cfg.Env, "bootstrap_auth", cfg.BootstrapAuth, "session_cache", cfg.RedisURL != "")
	if err := routing.StartServer(ctx, cfg.Addr, r, logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}
