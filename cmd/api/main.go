package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"prepcoach/infrastructure/config"
	"prepcoach/infrastructure/di"
	"prepcoach/infrastructure/seed"
	"prepcoach/interfaces/http/rest"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	container, cleanup, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	defer cleanup()

	if cfg.SeedFile != "" {
		if err := seedCatalogue(ctx, container, cfg.SeedFile); err != nil {
			container.Logger.Fatal("Failed to seed catalogue", zap.Error(err))
		}
	}

	handler := rest.NewRouter(rest.OptionsFromContainer(container)).Setup()

	srv := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		container.Logger.Info("Starting server",
			zap.String("address", cfg.ServerAddress),
			zap.String("environment", cfg.Environment),
			zap.String("storage", cfg.StorageBackend),
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			container.Logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	container.Logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		container.Logger.Error("Server shutdown error", zap.Error(err))
	}

	if err := container.Logger.Sync(); err != nil {
		log.Printf("Failed to sync logger: %v", err)
	}

	log.Println("Server stopped")
}

// seedCatalogue loads the journey catalogue at startup, mostly for the memory backend
func seedCatalogue(ctx context.Context, container *di.Container, path string) error {
	catalogue, err := seed.ParseFile(path)
	if err != nil {
		return err
	}
	result, err := container.Seeder.Apply(ctx, catalogue, "system")
	if err != nil {
		return err
	}
	container.Logger.Info("Seeded journey catalogue",
		zap.String("file", path),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("nodes", result.Nodes),
		zap.Int("edges", result.Edges),
	)
	return nil
}
