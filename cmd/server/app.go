package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/dgallion1/companyapi/internal/company"
	"github.com/dgallion1/companyapi/internal/config"
	"github.com/dgallion1/companyapi/internal/fetcher"
	"github.com/dgallion1/companyapi/internal/metrics"
	"github.com/dgallion1/companyapi/internal/parser"
)

// app holds the wired components shared by every subcommand.
type app struct {
	cfg     config.Config
	log     *slog.Logger
	fetcher *fetcher.Client
	stats   *fetcher.LatencyStats
	metrics *metrics.Metrics
	service *company.Service
}

func loadConfig(path string) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(w io.Writer, lc config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(lc.Level))); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if lc.Format == config.LogFormatText {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func newApp(cfg config.Config, log *slog.Logger) *app {
	a := &app{
		cfg: cfg,
		log: log,
		fetcher: fetcher.New(fetcher.Options{
			BaseURL:      cfg.Upstream.BaseURL,
			Timeout:      cfg.Upstream.Timeout,
			MaxRedirects: cfg.Upstream.MaxRedirects,
			MaxBodyBytes: cfg.Upstream.MaxBodyBytes,
			UserAgent:    cfg.Upstream.UserAgent,
		}),
		stats: fetcher.NewLatencyStats(cfg.Upstream.StatsWindow),
	}
	if cfg.Metrics.Enabled {
		a.metrics = metrics.New(nil)
	}

	a.service = company.NewService(a.fetcher, parser.XMLParser{}, log,
		company.WithMetrics(a.metrics),
		company.WithStats(a.stats),
	)
	return a
}

func (a *app) Close() {
	a.fetcher.Close()
}
