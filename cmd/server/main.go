package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clan-hub/internal/config"
	"clan-hub/internal/handler"
	"clan-hub/internal/logger"
	"clan-hub/internal/middleware"
	"clan-hub/internal/model"
	"clan-hub/internal/scheduler"
	"clan-hub/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	configFile := flag.String("config", "", "config file path (e.g. etc/config-dev.yaml)")
	flag.Parse()

	cfg := config.Load(*configFile)
	logger.Init(cfg.Log)

	schedule, err := cfg.SiegeWarSchedule()
	if err != nil {
		slog.Error("bad siege war config", "err", err)
		os.Exit(1)
	}

	db, err := cfg.OpenGormDB()
	if err != nil {
		slog.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	if cfg.Database.Driver == "sqlite" {
		if err := model.Migrate(db); err != nil {
			slog.Error("db migrate failed", "err", err)
			os.Exit(1)
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := service.NewMetrics(reg)

	tokens := middleware.NewTokens(cfg.Auth.JWTSecret, cfg.TokenTTL())
	push := service.NewPushDispatcher(cfg.Push, metrics)
	authSvc := service.NewAuthService(db)
	memberSvc := service.NewMemberService(db)
	siegeSvc := service.NewSiegeWarService(db, push, metrics, schedule.EventDay, schedule.Location)

	gin.SetMode(gin.ReleaseMode)
	r := handler.NewRouter(handler.Handlers{
		Auth:     handler.NewAuthHandler(authSvc, tokens),
		Members:  handler.NewMemberHandler(memberSvc),
		SiegeWar: handler.NewSiegeWarHandler(siegeSvc),
	}, tokens, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	var sched *scheduler.Scheduler
	if cfg.SiegeWar.SchedulerEnabled {
		sched = scheduler.New(siegeSvc, schedule)
		sched.Start()
	}

	srv := &http.Server{Addr: cfg.Addr(), Handler: r}
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	slog.Info("server stopping")
	if sched != nil {
		sched.Stop()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown failed", "err", err)
	}
}
