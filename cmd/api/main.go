package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"house-price-api/config"
	"house-price-api/estimator"
	"house-price-api/features"
	"house-price-api/logging"
	"house-price-api/metrics"
	"house-price-api/repository"
	"house-price-api/server"
	"house-price-api/services"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logging.Fatal().Err(err).Msg("server exited")
	}
}

// loadModel resolves the configured layout and loads the artifact. The
// service must not start without a model that matches the layout.
func loadModel(cfg config.ModelConfig) (*estimator.Forest, features.Layout, error) {
	layout, err := features.LayoutByName(cfg.Layout)
	if err != nil {
		return nil, features.Layout{}, err
	}
	model, err := estimator.Load(cfg.Path)
	if err != nil {
		return nil, features.Layout{}, err
	}
	if err := model.ValidateLayout(layout); err != nil {
		return nil, features.Layout{}, err
	}
	return model, layout, nil
}

func run(ctx context.Context, cfg *config.Config) error {
	model, layout, err := loadModel(cfg.Model)
	if err != nil {
		return fmt.Errorf("load model: %w", err)
	}
	metrics.ModelInfo.
		WithLabelValues(layout.Name, strconv.Itoa(layout.Width())).
		Set(float64(model.NumTrees()))
	logging.Info().
		Str("path", model.Path()).
		Str("layout", layout.Name).
		Int("trees", model.NumTrees()).
		Str("target_transform", model.TargetTransform()).
		Msg("model loaded")

	db, err := repository.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	if cfg.Database.AutoMigrate {
		if err := repository.AutoMigrate(db); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
		logging.Info().Msg("database migrated")
	}

	// Redis is optional: without it analytics are computed per request and
	// the live prediction feed is disabled.
	cache, err := services.NewCacheService(ctx, cfg.Redis)
	if err != nil {
		logging.Warn().Err(err).Msg("redis unavailable, continuing without cache")
	}
	defer cache.Close()

	gin.SetMode(cfg.Server.Mode)
	app := server.New(server.Deps{
		Config: cfg,
		Model:  model,
		Layout: layout,
		DB:     db,
		Cache:  cache,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           app.Router,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.Warmer.Run(gctx)
	})
	g.Go(func() error {
		logging.Info().Str("addr", srv.Addr).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logging.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
