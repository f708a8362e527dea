package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/youruser/certapp/internal/api"
	"github.com/youruser/certapp/internal/batch"
	"github.com/youruser/certapp/internal/catalog"
	"github.com/youruser/certapp/internal/config"
	imagepkg "github.com/youruser/certapp/internal/image"
	"github.com/youruser/certapp/internal/logger"
	"github.com/youruser/certapp/internal/metrics"
	"github.com/youruser/certapp/internal/session"
	"github.com/youruser/certapp/internal/util"
	"github.com/youruser/certapp/internal/watch"
)

func main() {
	// .env is a development convenience; production sets variables directly
	if os.Getenv("ENV") != "production" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("could not read .env", "error", err)
		}
	}

	cfg, err := config.Load(os.Getenv("CERTGEN_CONFIG"))
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}
	cfg.ApplyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	log, closer, err := logger.New(logger.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	})
	if err != nil {
		slog.Error("opening log", "error", err)
		os.Exit(1)
	}
	defer closer.Close()
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		closer.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	for _, w := range cfg.Warnings() {
		log.Warn("config", "warning", w)
	}
	cat, err := catalog.Load(cfg.Assets.Catalog)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	client := util.NewRetryClient(cfg.Assets.HTTPRetryMax, cfg.HTTPTimeout(), log)
	src, err := imagepkg.NewSource(cfg.Assets.Root, client)
	if err != nil {
		return fmt.Errorf("asset source: %w", err)
	}
	loader := imagepkg.NewLoader(src,
		imagepkg.WithAttempts(cfg.Assets.Attempts),
		imagepkg.WithBackoff(cfg.Backoff()),
		imagepkg.WithLoaderLogger(log),
		imagepkg.WithLoaderMetrics(m),
	)
	tr, err := cfg.TextRenderer()
	if err != nil {
		return err
	}

	stamp := &imagepkg.Stamp{Size: cfg.Stamp.Size, Margin: cfg.Stamp.Margin, Prefix: cfg.Stamp.Prefix}
	opts := []imagepkg.CompositorOption{imagepkg.WithCompositorLogger(log)}
	if cfg.Stamp.Enabled {
		opts = append(opts, imagepkg.WithStamp(stamp))
	}
	comp := imagepkg.NewCompositor(cat, loader, imagepkg.NewCache(m), tr, opts...)

	if cfg.Assets.Preload {
		go comp.Preload(ctx)
	}

	remote := strings.HasPrefix(cfg.Assets.Root, "http://") || strings.HasPrefix(cfg.Assets.Root, "https://")
	if cfg.Assets.Watch && !remote {
		w, err := watch.New(cfg.Assets.Root, cfg.Assets.WatchPattern, comp, watch.WithLogger(log))
		if err != nil {
			log.Warn("asset watcher disabled", "error", err)
		} else {
			defer w.Close()
		}
	}

	h := api.NewHandler(api.Deps{
		Catalog:    cat,
		Compositor: comp,
		Batch:      batch.NewRenderer(comp, cat, log, m),
		Sessions:   session.NewStore(),
		Hue:        session.NewCoalescer(cfg.HueDebounce()),
		Stamp:      stamp,
		Logger:     log,
	})

	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(gin.Recovery(), api.RequestLogger(log))
	api.RegisterRoutes(r, h, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.Info("starting server", "addr", "http://localhost:"+cfg.Server.Port, "assets", cfg.Assets.Root, "product", cat.Product())
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
