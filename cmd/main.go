package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"file-controller/internal/adapters/clipboard"
	"file-controller/internal/adapters/localstorage"
	"file-controller/internal/adapters/preview"
	"file-controller/internal/adapters/server"
	uisignal "file-controller/internal/adapters/signal"
	"file-controller/internal/config"
	"file-controller/internal/usecases"
)

// shutdownTimeout - максимальное время на корректное завершение, чтобы не висеть на незакрытых соединениях.
const shutdownTimeout = 5 * time.Second

// requestTimeout не распространяется на websocket подписки.
const requestTimeout = 60 * time.Second

func main() {
	cfg := config.LoadConfig("config.yaml")

	// директории должны существовать до старта сервера.
	for _, dir := range []string{cfg.Storage.BasePath, cfg.Preview.ProcessedPath} {
		if err := os.MkdirAll(dir, cfg.File.DirPermissions); err != nil {
			logrus.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}

	fileStorage := localstorage.NewLocalStorageService(cfg.Storage.BasePath, cfg.File.DirPermissions)
	resources := usecases.NewResourceFactory(fileStorage, cfg)
	clipboardStore := clipboard.NewStore(cfg.Clipboard.Path, cfg.File.DirPermissions)
	previews := preview.NewProcessor(fileStorage, cfg)
	normalizer := usecases.NewResultNormalizer(preview.NewIconFactory(cfg.Icons), previews, cfg)
	hub := uisignal.NewHub()

	controller := usecases.NewFileController(
		usecases.NewProcessorFactory(fileStorage, resources, cfg),
		clipboardStore,
		resources,
		normalizer,
	)

	handler := server.NewHandler(controller, clipboardStore, resources, fileStorage, previews, hub, cfg)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))
		handler.Routes(r)
	})
	if cfg.Routes.Signals != "" {
		router.Handle(cfg.Routes.Signals, hub)
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// graceful shutdown.
	go func() {
		logrus.Infof("Server running on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("Server shutdown error: %v", err)
	} else {
		logrus.Info("Server stopped gracefully")
	}
}
