package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/geoforge/dyntile/internal/chunkstore"
	v1 "github.com/geoforge/dyntile/internal/infrastructure/http/v1"
	"github.com/geoforge/dyntile/internal/infrastructure/http/v1/handler"
	"github.com/geoforge/dyntile/internal/render"
	"github.com/geoforge/dyntile/internal/repository/tilerecord"
	"github.com/geoforge/dyntile/internal/usecase"
	"github.com/geoforge/dyntile/pkg/config"
	"github.com/geoforge/dyntile/pkg/http_server"
	"github.com/geoforge/dyntile/pkg/logger"
)

func Run(cfg *config.Config) {
	l := logger.NewZapLogger(cfg.Logger.Level)

	l.Info("app config", "cfg", cfg)

	records, err := tilerecord.NewSQLite(cfg.DB.Path, l)
	if err != nil {
		l.Fatal("failed to initialize tile record store", "error", err)
	}
	defer records.Close()

	store := chunkstore.New(cfg.Tile.ChunkZoom, l)
	renderer := render.New(store, cfg.Tile.Size)
	tileUseCase := usecase.NewTileUseCase(store, renderer, records, l)

	validate := validator.New()
	h := handler.NewHandler(validate, tileUseCase, cfg.Tile.MaxUploadBytes)
	router := v1.NewRouter(h, l, cfg.Session.CookieMaxAge)

	server := http_server.NewServer(cfg.HTTP.Server, router)

	go func() {
		l.Info("starting http server", "port", cfg.HTTP.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Fatal("failed to start server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	l.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		l.Fatal("server forced to shutdown", "error", err)
	}

	l.Info("server stopped")
}
