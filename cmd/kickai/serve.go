package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/kickai-football/kickai/internal/orchestration"
	"github.com/kickai-football/kickai/internal/router"
	"github.com/kickai-football/kickai/internal/startup"
	"github.com/kickai-football/kickai/internal/telegram"
)

func buildServeCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the bot",
		Long: `Validate the assembled system, connect to Telegram, and handle
updates until interrupted. A failed startup validation aborts before
any polling begins.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), flags)
		},
	}
}

func runServe(ctx context.Context, flags *rootFlags) error {
	a, err := buildCore(ctx, flags, false)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), telegram.DefaultStopTimeout)
		defer cancel()
		a.shutdown(shutdownCtx)
	}()

	report := startup.New(a.validatorDeps()).Run(ctx)
	if report.Failed() {
		fmt.Fprint(os.Stderr, report.Render())
		return fmt.Errorf("startup validation failed with %d critical failures", len(report.CriticalFailures))
	}

	agents, err := a.agentFactory.Build(a.cfg.Agents, a.cfg.AI.Model)
	if err != nil {
		return err
	}

	var classifier orchestration.Classifier
	if a.cfg.Pipeline.LLMIntent {
		classifier = &orchestration.LLMClassifier{Provider: a.provider, Model: a.cfg.AI.Model}
	}
	pipeline := orchestration.New(a.cfg.Pipeline, classifier, a.commands, a.tools, agents,
		a.logger, a.metrics, a.tracer)

	rtr := router.New(a.factory.Teams(), a.factory.Services, a.commands, pipeline,
		a.cfg.Pipeline.RequestTimeout, a.logger, a.metrics, a.tracer)

	adapter, err := telegram.NewAdapter(telegram.Config{
		Token:     a.cfg.Telegram.Token,
		RateLimit: a.cfg.Telegram.RateLimit,
		RateBurst: a.cfg.Telegram.RateBurst,
		Logger:    a.logger,
	}, rtr, a.metrics)
	if err != nil {
		return err
	}
	a.sender.set(adapter)

	var metricsSrv *http.Server
	if a.cfg.Metrics.Addr != "" {
		metricsSrv = serveMetrics(a.cfg.Metrics.Addr)
		a.logger.Info(ctx, "metrics listening", "addr", a.cfg.Metrics.Addr)
	}

	if err := adapter.Start(ctx); err != nil {
		return err
	}
	a.logger.Info(ctx, "bot started", "version", version, "provider", a.provider.Name())

	<-ctx.Done()
	a.logger.Info(context.Background(), "shutting down")

	stopCtx, cancel := context.WithTimeout(context.Background(), telegram.DefaultStopTimeout)
	defer cancel()
	if err := adapter.Stop(stopCtx); err != nil {
		a.logger.Warn(stopCtx, "telegram adapter stop failed", "error", err)
	}
	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(stopCtx); err != nil {
			a.logger.Warn(stopCtx, "metrics server shutdown failed", "error", err)
		}
	}
	return nil
}

// serveMetrics exposes /metrics and /healthz on its own listener.
func serveMetrics(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintln(os.Stderr, "metrics server:", err)
		}
	}()
	return srv
}
