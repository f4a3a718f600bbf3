package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/dvega/docuvec/internal/ai"
	"github.com/dvega/docuvec/internal/config"
	"github.com/dvega/docuvec/internal/db"
	"github.com/dvega/docuvec/internal/embedcache"
	"github.com/dvega/docuvec/internal/extract"
	"github.com/dvega/docuvec/internal/filestore"
	"github.com/dvega/docuvec/internal/handler"
	"github.com/dvega/docuvec/internal/job"
	"github.com/dvega/docuvec/internal/middleware"
	"github.com/dvega/docuvec/internal/repo"
	"github.com/dvega/docuvec/internal/schedule"
	"github.com/dvega/docuvec/internal/service"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "docuvec",
		Short: "document vectorization service",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run docuvec server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

			dbc, err := db.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			if err := db.ApplyMigrations(dbc); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			if err := db.CheckVectorDimension(dbc, cfg.AI.EmbedDim); err != nil {
				return fmt.Errorf("vector schema: %w", err)
			}
			return runServer(cfg, dbc)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config, dbc *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("storage", cfg.Storage.Type),
		zap.String("ai_provider", cfg.AI.Provider),
		zap.String("strategy", cfg.Vectorize.Strategy),
		zap.Int("embed_dim", cfg.AI.EmbedDim),
	)

	vectorRepo := repo.NewVectorRepo(dbc, cfg.AI.EmbedDim)
	cleanupRepo := repo.NewCleanupRepo(dbc)

	providerArgs := cfg.AI.Data
	if providerArgs == nil {
		providerArgs = cfg.AI
	}
	provider, err := ai.NewProvider(cfg.AI.Provider, providerArgs)
	if err != nil {
		return fmt.Errorf("init ai provider: %w", err)
	}
	embedder := embedcache.WrapLRUCacheToEmbedder(
		ai.NewEmbedder(provider, cfg.AI.EmbedModel, cfg.AI.EmbedDim),
		cfg.AI.CacheSize,
	)

	store, err := filestore.New(cfg.Storage)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}
	strategy, err := extract.New(cfg.Vectorize, cfg.AI)
	if err != nil {
		return fmt.Errorf("init extract strategy: %w", err)
	}

	signedTTL := time.Duration(cfg.Storage.SignedURLTTLSecs) * time.Second
	vectorizeService := service.NewVectorizeService(store, strategy, embedder, vectorRepo, cleanupRepo, signedTTL)
	fileService := service.NewFileService(store, vectorizeService)

	requestTimeout := time.Duration(cfg.Vectorize.RequestTimeoutS) * time.Second
	deps := handler.RouterDeps{
		Documents: handler.NewDocumentHandler(vectorizeService, requestTimeout, cfg.IsProduction()),
		Files:     handler.NewFileHandler(fileService),
		JWTSecret: []byte(cfg.JWTSecret),
	}

	engine, err := webapi.NewEngine(
		"/api",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(cfg.CORSOrigins),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}
	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewCronScheduler()
	if err := scheduler.AddJob(job.NewVectorCleanupJob(cleanupRepo, vectorRepo), cfg.CleanupCron); err != nil {
		return fmt.Errorf("schedule cleanup job: %w", err)
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
