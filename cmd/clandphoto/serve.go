package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vbonduro/clandphoto/internal/config"
	"github.com/vbonduro/clandphoto/internal/db"
	"github.com/vbonduro/clandphoto/internal/imaging"
	"github.com/vbonduro/clandphoto/internal/logging"
	"github.com/vbonduro/clandphoto/internal/seed"
	"github.com/vbonduro/clandphoto/internal/service"
	"github.com/vbonduro/clandphoto/internal/store"
	"github.com/vbonduro/clandphoto/internal/web"
	"github.com/vbonduro/clandphoto/internal/web/templates"
)

const (
	thumbnailSize   = 320
	sessionMaxIdle  = 30 * time.Minute
	sweepInterval   = time.Minute
	shutdownTimeout = 10 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web application",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(parent context.Context) error {
	cfg := config.Load()

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer cleanup()

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(cfg.DBName)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return err
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	records := service.NewRecordService(store.NewUserStore(database), store.NewPhotoStore(database), logger)
	fixtures, err := seed.Load(cfg.SeedFile)
	if err != nil {
		logger.Error("failed to load seed data", "file", cfg.SeedFile, "error", err)
		return err
	}
	if err := records.Seed(ctx, fixtures); err != nil {
		logger.Error("failed to seed database", "error", err)
		return err
	}

	vis, err := newBackend(ctx, cfg, logger)
	if err != nil {
		// Collection still works; every analysis becomes a manual review.
		logger.Error("vision backend unavailable, analysis disabled", "error", err)
	}

	thumbs, err := imaging.NewThumbnailer(thumbnailSize, cfg.ThumbnailCacheSize)
	if err != nil {
		logger.Error("failed to create thumbnailer", "error", err)
		return err
	}

	if cfg.MasterPassword == "" {
		logger.Warn("MASTER_PASSWORD is empty, the admin panel cannot be unlocked")
	}

	server := web.NewServer(web.Deps{
		Records:        records,
		Reports:        service.NewReportService(records, vis, cfg.AnalyzeTimeout, logger),
		Admin:          service.NewAdminService(records, cfg.MasterPassword, logger),
		Analyzer:       vis,
		Thumbnails:     thumbs,
		Templates:      templates.FS,
		Logger:         logger,
		MaxUploadBytes: cfg.MaxUploadBytes(),
		AnalyzeTimeout: cfg.AnalyzeTimeout,
	})
	defer server.Close()
	httpServer := server.HTTPServer(cfg.ListenAddr)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting server", "addr", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if n := server.SweepSessions(sessionMaxIdle); n > 0 {
					logger.Info("expired idle sessions", "count", n)
				}
			}
		}
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped", "error", err)
		return err
	}
	return nil
}
