package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sagarc03/cabinet"
	"github.com/sagarc03/cabinet/config"
	"github.com/sagarc03/cabinet/database"
	cabinethttp "github.com/sagarc03/cabinet/http"
	"github.com/sagarc03/cabinet/objectstore"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Start the cabinet HTTP server.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Int("port", 8080, "HTTP server port")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	repo, closeDB, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer closeDB()

	slog.Info("connected to database", "type", cfg.Database.Type)

	client, err := objectstore.NewClient(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("create s3 client: %w", err)
	}
	storage, err := objectstore.NewStore(client, cfg.Storage.Bucket)
	if err != nil {
		return fmt.Errorf("create object store: %w", err)
	}

	service, err := cabinet.NewService(repo, storage, cabinet.ServiceConfig{
		UploadURLTTL:   time.Duration(cfg.Service.UploadURLTTL) * time.Second,
		DownloadURLTTL: time.Duration(cfg.Service.DownloadURLTTL) * time.Second,
	})
	if err != nil {
		return fmt.Errorf("create service: %w", err)
	}

	if err = service.InitBucket(ctx); err != nil {
		return fmt.Errorf("init bucket: %w", err)
	}
	slog.Info("object store ready", "bucket", cfg.Storage.Bucket)

	handlerConfig := cabinethttp.HandlerConfig{
		MaxUploadSize: cfg.Server.MaxUploadSize,
		CORS:          cfg.CORS,
	}
	handler := cabinethttp.NewHandler(&handlerConfig, service)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)

	server := &http.Server{
		Addr:         addr,
		Handler:      handler.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "err", err)
		}
		cancel()
	}()

	slog.Info("starting server", "addr", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}
