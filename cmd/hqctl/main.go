package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"hqcatalog/internal/api"
	"hqcatalog/internal/config"
	"hqcatalog/internal/logger"
	"hqcatalog/internal/prefs"
	"hqcatalog/internal/shell"
	"hqcatalog/internal/telemetry"
	"hqcatalog/internal/usecase"

	"github.com/sirupsen/logrus"
)

func main() {
	config.LoadEnvFiles()
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	logger.Setup(cfg.LogLevel, cfg.LogJSON, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, "hqcatalog-cli", cfg.OTLPEndpoint)
	if err != nil {
		logrus.WithError(err).Warn("tracing disabled")
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	var (
		mock    *api.MockStore
		offline usecase.OfflineStore
	)
	if cfg.MockFallback {
		mock = api.NewMockStore(api.SampleEntries())
		offline = mock
	}
	client := api.NewClient(cfg.Backend, mock)

	var storage prefs.Storage = prefs.NewMapStorage()
	if db, err := prefs.OpenSQLite(ctx, cfg.PrefsDB); err != nil {
		logrus.WithError(err).Warn("preferences will not be saved")
	} else {
		defer db.Close()
		storage = db
	}

	sh := shell.New(usecase.NewCatalogUsecase(client, offline), client, prefs.NewStore(storage), shell.Options{
		Out:         os.Stdout,
		ProgressOut: os.Stderr,
		PageSize:    cfg.PageSize,
		ToastTTL:    cfg.ToastDuration,
	})
	sh.Restore(ctx)

	if args := os.Args[1:]; len(args) > 0 {
		if _, err := sh.Exec(ctx, strings.Join(args, " ")); err != nil {
			logrus.WithError(err).Error("command failed")
			os.Exit(1)
		}
		return
	}

	if err := sh.Run(ctx, historyPath()); err != nil {
		logrus.WithError(err).Fatal("shell error")
	}
}

func historyPath() string {
	dir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, ".hqctl_history")
}
