package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/nhle/notification-sync/internal/api"
	"github.com/nhle/notification-sync/internal/credential"
	"github.com/nhle/notification-sync/internal/logging"
	"github.com/nhle/notification-sync/internal/metrics"
	"github.com/nhle/notification-sync/internal/model"
	appsync "github.com/nhle/notification-sync/internal/sync"
)

func defaultConfigPath() string {
	if p := os.Getenv("NOTIFYSYNC_CONFIG"); p != "" {
		return p
	}
	return model.DefaultConfigPath()
}

// runtime holds what every command needs.
type runtime struct {
	cfgPath   string
	cfg       *model.AppConfig
	logger    *zap.Logger
	client    *api.Client
	creds     *credential.Store
	engine    *appsync.Engine
	metricSrv *http.Server
	closed    bool
}

// newRuntime loads config and wires the engine. Interactive mode logs to
// the rotating log file and polls in the background; one-shot commands
// log to stderr and refresh explicitly.
func newRuntime(configPath string, interactive bool) (*runtime, error) {
	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	var logger *zap.Logger
	if interactive {
		logger, err = logging.NewFile(cfg.Log)
		if err != nil {
			return nil, err
		}
	} else {
		logger = logging.NewConsole("warn", "console")
	}

	creds, err := credential.Open()
	if err != nil {
		return nil, err
	}

	client := api.NewClient(cfg.API.BaseURL, "",
		api.WithTimeout(time.Duration(cfg.API.TimeoutSec)*time.Second),
		api.WithMaxRetries(cfg.API.MaxRetries),
	)

	rt := &runtime{
		cfgPath: configPath,
		cfg:     cfg,
		logger:  logger,
		client:  client,
		creds:   creds,
	}

	opts := []appsync.Option{
		appsync.WithLogger(logger),
		appsync.WithInterval(cfg.Poll.Interval()),
		appsync.WithFetchTimeout(cfg.Poll.FetchTimeout()),
	}
	if !interactive {
		opts = append(opts, appsync.WithoutPolling())
	}
	if cfg.Metrics.Addr != "" {
		collector := metrics.New()
		opts = append(opts, appsync.WithMetrics(collector))
		rt.serveMetrics(collector)
	}

	rt.engine = appsync.NewEngine(func(identity model.Identity) appsync.Transport {
		return client.WithToken(identity.Token)
	}, opts...)

	return rt, nil
}

// serveMetrics exposes the collector on cfg.Metrics.Addr.
func (rt *runtime) serveMetrics(collector *metrics.Collector) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())
	rt.metricSrv = &http.Server{
		Addr:              rt.cfg.Metrics.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := rt.metricSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			rt.logger.Error("metrics server failed", zap.Error(err))
		}
	}()
	rt.logger.Info("serving metrics", zap.String("addr", rt.cfg.Metrics.Addr))
}

// probe checks that a service answers at baseURL. A rejected token still
// proves the URL is right.
func (rt *runtime) probe(ctx context.Context, baseURL string) error {
	c := api.NewClient(baseURL, rt.engine.Identity().Token, api.WithMaxRetries(0))
	if _, err := c.UnreadCount(ctx); err != nil && !api.IsAuthError(err) {
		return err
	}
	return nil
}

// activate binds the stored identity, failing when nobody is logged in.
func (rt *runtime) activate() (model.Identity, error) {
	identity, err := rt.creds.LoadIdentity()
	if errors.Is(err, credential.ErrNoSession) {
		return model.Identity{}, errors.New("not logged in, run 'notifyctl login -user <id>' first")
	}
	if err != nil {
		return model.Identity{}, err
	}
	rt.engine.Activate(identity)
	return identity, nil
}

// refresh loads the collection once for one-shot commands.
func (rt *runtime) refresh(ctx context.Context) error {
	if err := rt.engine.Refresh(ctx); err != nil {
		if api.IsAuthError(err) {
			return fmt.Errorf("%w (run 'notifyctl login' again)", err)
		}
		return err
	}
	return nil
}

func (rt *runtime) close() {
	if rt.closed {
		return
	}
	rt.closed = true

	if rt.engine != nil {
		rt.engine.Deactivate()
	}
	if rt.metricSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = rt.metricSrv.Shutdown(ctx)
	}
	_ = rt.logger.Sync()
}
