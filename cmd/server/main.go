package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"solveit/internal/api/handler"
	"solveit/internal/api/router"
	"solveit/internal/app"
	"solveit/internal/metrics"
	"solveit/internal/notify"
	"solveit/internal/scheduler"
	"solveit/internal/service"
	"solveit/pkg/jwt"
	"solveit/pkg/redis"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default ./config/config.yaml)")
	flag.Parse()

	// 1. config, logger, database, migrations
	rt, err := app.Bootstrap(*configPath, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "startup failed: %v\n", err)
		os.Exit(1)
	}
	defer rt.Close()
	cfg, logger := rt.Config, rt.Logger

	logger.Info("starting solveit",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
	)

	// 2. Redis is optional: without it tokens cannot be revoked, rate limits
	// are off and every replica sweeps
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("redis unavailable, running degraded", zap.Error(err))
		rdb = nil
	}

	// 3. metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// 4. notifications
	dispatcher := notify.NewAsyncDispatcher(rt.Sender(), cfg.Notify.QueueSize, cfg.Notify.Workers, m, logger)

	// 5. services
	jwtMgr := jwt.NewManager(&cfg.Auth)
	var blacklist service.TokenBlacklist
	if rdb != nil {
		blacklist = rdb
	}
	svc := service.NewService(cfg, rt.Repo, jwtMgr, blacklist, dispatcher, m, logger)

	// 6. escalation job
	var job *scheduler.EscalationJob
	if cfg.Escalation.Enabled {
		job, err = scheduler.NewEscalationJob(cfg.Escalation, svc.Escalation, scheduler.RedisLocker(rdb), logger)
		if err != nil {
			logger.Fatal("escalation job", zap.Error(err))
		}
		job.Start()
	}

	// 7. HTTP
	checks := []handler.HealthCheck{{Name: "database", Check: func(ctx context.Context) error {
		sqlDB, err := rt.DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}}}
	if rdb != nil {
		checks = append(checks, handler.HealthCheck{Name: "redis", Check: rdb.Ping})
	}
	cookies := handler.CookieConfig{
		Secure: strings.HasPrefix(cfg.Server.BaseURL, "https://"),
		MaxAge: cfg.Auth.RefreshTokenTTL,
	}
	h := handler.NewHandler(svc, cookies, checks...)

	gin.SetMode(gin.ReleaseMode)
	engine, err := router.Setup(cfg, h, jwtMgr, router.Deps{Redis: rdb, Metrics: m, Gatherer: reg}, logger)
	if err != nil {
		logger.Fatal("router setup", zap.Error(err))
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server", zap.Error(err))
		}
	}()

	// 8. graceful shutdown: stop intake, finish the sweep, drain notifications
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Info("shutting down", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
	if job != nil {
		if err := job.Stop(ctx); err != nil {
			logger.Error("escalation job stop", zap.Error(err))
		}
	}
	if err := dispatcher.Close(ctx); err != nil {
		logger.Error("notification drain", zap.Error(err))
	}
	if rdb != nil {
		_ = rdb.Close()
	}

	logger.Info("server stopped")
}
