package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/janekbaraniewski/tokencat/internal/credentials"
	"github.com/janekbaraniewski/tokencat/internal/usage"
	"github.com/janekbaraniewski/tokencat/internal/widget"
)

func runDashboard(ctx context.Context, a *app) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	metrics := usage.NewMetrics(reg)

	engine := usage.New(usage.Options{
		Store:        a.store,
		Client:       a.client,
		PollInterval: a.cfg.PollInterval(),
		Logger:       a.logger,
		Metrics:      metrics,
	})

	model := widget.NewModel(widget.Options{
		Controller:       engine,
		AnimationEnabled: a.cfg.AnimationEnabled,
		ConfigPath:       a.configPath,
		Logger:           a.logger,
	})
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	unsubscribe := engine.Subscribe(func(s usage.Snapshot) {
		program.Send(widget.SnapshotMsg(s))
	})
	defer unsubscribe()

	if a.cfg.MetricsAddr != "" {
		stop := serveMetrics(a.cfg.MetricsAddr, reg, a.logger)
		defer stop()
	}

	if a.cfg.WatchCredentials && a.watchPath != "" {
		w, err := credentials.NewWatcher(a.watchPath, 0, engine.CredentialsChanged, a.logger)
		if err != nil {
			a.logger.Warn("credentials watcher disabled", zap.Error(err))
		} else {
			w.Start(ctx)
			defer func() { _ = w.Close() }()
		}
	}

	engine.Start(ctx)
	defer engine.Close()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			cancel()
			program.Quit()
		case <-ctx.Done():
		}
	}()

	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("widget: %w", err)
	}
	return nil
}

// serveMetrics exposes reg on addr until the returned stop func is called.
func serveMetrics(addr string, reg *prometheus.Registry, logger *zap.Logger) (stop func()) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  15 * time.Second,
	}
	go func() {
		logger.Info("metrics listener starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics listener failed", zap.Error(err))
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
