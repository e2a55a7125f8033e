// Command notifyd is a local notification service for development. It
// serves the REST surface notifyctl talks to, backed by SQLite.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/nhle/notification-sync/internal/logging"
	"github.com/nhle/notification-sync/internal/model"
	"github.com/nhle/notification-sync/internal/server"
	"github.com/nhle/notification-sync/internal/store"
)

func main() {
	configPath := flag.String("config", model.DefaultConfigPath(), "path to config.yaml")
	seedUser := flag.String("seed", "", "insert sample notifications for this user before serving")
	flag.Parse()

	cfg, err := model.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "notifyd: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewConsole(cfg.Log.Level, cfg.Log.Format)
	defer logger.Sync()

	if err := run(cfg, *seedUser, logger); err != nil {
		logger.Fatal("notifyd failed", zap.Error(err))
	}
}

func run(cfg *model.AppConfig, seedUser string, logger *zap.Logger) error {
	repo, err := store.NewSQLiteStore(cfg.Server.DBPath)
	if err != nil {
		return err
	}
	defer repo.Close()

	if seedUser != "" {
		if err := seed(context.Background(), repo, seedUser); err != nil {
			return err
		}
		logger.Info("seeded sample notifications", zap.String("user_id", seedUser))
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.New(repo, cfg.Server.JWTSecret, logger).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("notifyd listening",
			zap.String("addr", cfg.Server.Addr),
			zap.String("db", cfg.Server.DBPath),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

// seed inserts one notification of each kind, the oldest already read.
func seed(ctx context.Context, repo store.Repository, userID string) error {
	now := time.Now()
	samples := []model.Notification{
		{Kind: model.KindRequestCreatedAdmin, Title: "New access request", Message: "Dana requested access to the billing project", RelatedEntityRef: "request:101"},
		{Kind: model.KindRequestCreatedSystem, Title: "Request created", Message: "Request 102 was opened by the scheduler", RelatedEntityRef: "request:102"},
		{Kind: model.KindRequestApproved, Title: "Request approved", Message: "Request 98 was approved", RelatedEntityRef: "request:98"},
		{Kind: model.KindRequestRejected, Title: "Request rejected", Message: "Request 97 was rejected", RelatedEntityRef: "request:97"},
		{Kind: model.KindRequestStatusUpdated, Title: "Status changed", Message: "Request 95 moved to in review", RelatedEntityRef: "request:95", Read: true},
	}

	for i, n := range samples {
		n.UserID = userID
		n.CreatedAt = now.Add(-time.Duration(i) * time.Hour)
		if _, err := repo.CreateNotification(ctx, n); err != nil {
			return fmt.Errorf("seeding notifications: %w", err)
		}
	}
	return nil
}
