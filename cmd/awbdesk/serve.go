package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/xxxsen/awbdesk/internal/config"
	"github.com/xxxsen/awbdesk/internal/filestore"
	"github.com/xxxsen/awbdesk/internal/handler"
	"github.com/xxxsen/awbdesk/internal/ingest"
	"github.com/xxxsen/awbdesk/internal/job"
	"github.com/xxxsen/awbdesk/internal/middleware"
	"github.com/xxxsen/awbdesk/internal/schedule"
	"github.com/xxxsen/awbdesk/internal/service"
	"github.com/xxxsen/awbdesk/internal/session"
)

const apiPrefix = "/api/v1"

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "run the analysis console server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			return runServer(cfg)
		},
	}
}

func runServer(cfg *config.Config) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("api", cfg.API.BaseURL),
		zap.String("export_store", cfg.Export.Store.Type),
	)

	client := newAPIClient(cfg)
	store, err := filestore.New(cfg.Export.Store)
	if err != nil {
		return fmt.Errorf("init export store: %w", err)
	}
	analysisService := service.NewAnalysisService(
		ingest.New(client, ingest.WithTimeout(cfg.API.Timeout())),
		session.NewStore(cfg.Session.Size, cfg.Session.TTL()),
		vaultOptions(cfg, client)...,
	)
	exportService := service.NewExportService(store)

	deps := handler.RouterDeps{
		Analyze:          handler.NewAnalyzeHandler(analysisService, cfg.API.MaxUploadBytes()),
		Sessions:         handler.NewSessionHandler(analysisService),
		Export:           handler.NewExportHandler(analysisService, exportService),
		AnalyzeRateLimit: time.Duration(cfg.AnalyzeRateLimitSeconds) * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewCronScheduler()
	if err := scheduler.AddJob(job.NewExportCleanupJob(store, cfg.Export.MaxAge()), cfg.Export.CleanupCron, schedule.RunOnStart()); err != nil {
		return fmt.Errorf("schedule export cleanup: %w", err)
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	engine, err := webapi.NewEngine(
		apiPrefix,
		addr,
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(cfg.CORSOrigins),
			gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{apiPrefix + handler.AnalyzePath})),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}
	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", addr))

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
