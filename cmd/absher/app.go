package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Veraticus/absher-session/internal/chat"
	"github.com/Veraticus/absher-session/internal/common"
	"github.com/Veraticus/absher-session/internal/config"
	"github.com/Veraticus/absher-session/internal/demodata"
	"github.com/Veraticus/absher-session/internal/llm"
	"github.com/Veraticus/absher-session/internal/metrics"
	"github.com/Veraticus/absher-session/internal/model"
	"github.com/Veraticus/absher-session/internal/session"
	"github.com/Veraticus/absher-session/internal/verification"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"
)

var envKeyReplacer = strings.NewReplacer(".", "_")

// app wires the session components together from configuration.
type app struct {
	catalog  *demodata.Catalog
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	provider *verification.MockProvider
	cache    *verification.Cache
	engine   *llm.Engine
	machine  *session.Machine
	chat     *chat.Orchestrator
	cfg      config.Config
}

func loadConfig() (config.Config, error) {
	return config.Load(viper.GetViper())
}

func loadCatalog(cfg config.Config) (*demodata.Catalog, error) {
	if cfg.CatalogPath == "" {
		return demodata.Default(), nil
	}
	return demodata.LoadFile(cfg.CatalogPath)
}

func newApp(cfg config.Config, catalog *demodata.Catalog, sink chat.TokenSink) *app {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	m := metrics.New(registry)

	provider := verification.NewMockProvider(cfg.Verification.Latency)
	switch cfg.Verification.FailWith {
	case config.FailSessionExpired:
		provider.FailWith(verification.ErrSessionExpired)
	case config.FailUpstreamUnavailable:
		provider.FailWith(verification.ErrUpstreamUnavailable)
	}

	verificationLogger := slog.Default().With("component", "verification")
	retrying := verification.NewRetryingProvider(provider.FetchVerification, common.RetryOptions{
		Logger:       verificationLogger,
		MaxAttempts:  cfg.Verification.MaxAttempts,
		InitialDelay: cfg.Verification.RetryDelay,
		MaxDelay:     10 * cfg.Verification.RetryDelay,
		Multiplier:   2,
	})

	cache := verification.NewCache(retrying,
		verification.WithFreshnessWindow(cfg.Verification.FreshnessWindow),
		verification.WithMetrics(m),
		verification.WithLogger(verificationLogger))

	engine := llm.NewEngine(llm.Config{
		TokenDelay:          cfg.LLM.TokenDelay,
		ArtifactLoadLatency: cfg.LLM.ArtifactLoadLatency,
		DemoLoadLatency:     cfg.LLM.DemoLoadLatency,
		RequireArtifact:     cfg.LLM.RequireArtifact,
	}, llm.WithMetrics(m), llm.WithLogger(slog.Default().With("component", "llm")))

	subjectID := cfg.Session.SubjectID
	if subjectID == "" {
		subjectID = catalog.Profile().IDNumber
	}

	machine := session.NewMachine(session.Config{
		SubjectID:       subjectID,
		TotalFee:        cfg.Session.TotalFee,
		ProcessingDelay: cfg.Session.ProcessingDelay,
		InitialScreen:   model.ScreenSplash,
	}, cache,
		session.WithCatalog(session.NewServiceCatalog(catalog)),
		session.WithMetrics(m),
		session.WithLogger(slog.Default().With("component", "session")))

	chatOpts := []chat.Option{
		chat.WithDependents(catalog),
		chat.WithMetrics(m),
		chat.WithLogger(slog.Default().With("component", "chat")),
	}
	if sink != nil {
		chatOpts = append(chatOpts, chat.WithTokenSink(sink))
	}

	return &app{
		cfg:      cfg,
		catalog:  catalog,
		registry: registry,
		metrics:  m,
		provider: provider,
		cache:    cache,
		engine:   engine,
		machine:  machine,
		chat:     chat.NewOrchestrator(engine, catalog, chatOpts...),
	}
}

// loadModel loads the configured model into the engine.
func (a *app) loadModel(ctx context.Context) error {
	if err := a.engine.LoadModel(ctx, a.cfg.LLM.ModelPath); err != nil {
		return fmt.Errorf("failed to load model: %w", err)
	}
	return nil
}

// serveMetrics exposes the registry on addr until ctx is done.
func (a *app) serveMetrics(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("Failed to shut down metrics server", "error", err)
		}
	}()

	go func() {
		slog.Info("Serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server failed", "error", err)
		}
	}()
}

func (a *app) close() {
	a.engine.Cancel()
	a.machine.Close()
}
