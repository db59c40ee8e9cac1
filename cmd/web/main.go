package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hqcatalog/internal/api"
	"hqcatalog/internal/config"
	"hqcatalog/internal/form"
	apphttp "hqcatalog/internal/http"
	"hqcatalog/internal/logger"
	"hqcatalog/internal/session"
	"hqcatalog/internal/telemetry"
	"hqcatalog/internal/usecase"
	"hqcatalog/internal/view"

	"github.com/sirupsen/logrus"
)

func main() {
	config.LoadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	logger.Setup(cfg.LogLevel, cfg.LogJSON, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, "hqcatalog-web", cfg.OTLPEndpoint)
	if err != nil {
		logrus.WithError(err).Warn("tracing disabled")
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(flushCtx)
	}()

	var mock *api.MockStore
	if cfg.MockFallback {
		mock = api.NewMockStore(api.SampleEntries())
	}
	client := api.NewClient(cfg.Backend, mock)

	var offline usecase.OfflineStore
	if mock != nil {
		offline = mock
	}
	catalogUsecase := usecase.NewCatalogUsecase(client, offline)

	views, err := view.New()
	if err != nil {
		logrus.WithError(err).Fatal("cannot parse templates")
	}

	sessions := session.NewManager(cfg.SessionTTL, cfg.EnableHSTS)
	go sessions.Run(ctx, time.Minute)

	handler := apphttp.NewHandler(catalogUsecase, client, views, form.NewValidator(time.Now), apphttp.Options{
		PageSize:      cfg.PageSize,
		Debounce:      cfg.SearchDebounce,
		SecureCookies: cfg.EnableHSTS,
	})
	router := apphttp.NewRouter(ctx, handler, sessions, apphttp.RouterConfig{
		MaxBodyBytes:   cfg.MaxBodyBytes,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		EnableHSTS:     cfg.EnableHSTS,
		ToastTTL:       cfg.ToastDuration,
	})

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: cfg.Backend.Timeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logrus.WithError(err).Error("graceful shutdown failed")
		}
	}()

	logrus.WithFields(logrus.Fields{
		"addr":    cfg.Addr,
		"backend": client.BaseURL(),
		"mock":    cfg.MockFallback,
	}).Info("starting server")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logrus.WithError(err).Fatal("server error")
	}
	logrus.Info("server stopped")
}
