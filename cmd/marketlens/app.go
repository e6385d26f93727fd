package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"MarketLens/internal/analytics"
	"MarketLens/internal/collector"
	"MarketLens/internal/config"
	"MarketLens/internal/export"
	"MarketLens/internal/interval"
	"MarketLens/internal/metrics"
	"MarketLens/internal/palette"
	"MarketLens/internal/recorder"
)

// app holds the wired collaborators for one command invocation.
type app struct {
	cfg     *config.Config
	opts    *options
	out     io.Writer
	metrics *metrics.Registry
	fetcher *collector.Guarded
	facade  *analytics.Facade
	rec     recorder.Recorder
	theme   palette.Theme

	closers []func(context.Context) error
}

func newApp(ctx context.Context, opts *options, out io.Writer) (*app, error) {
	if err := opts.validateOutput(); err != nil {
		return nil, err
	}
	cfg, err := opts.loadConfig()
	if err != nil {
		return nil, err
	}

	theme, err := palette.Lookup(cfg.Theme)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, opts: opts, out: out, metrics: metrics.NewRegistry(), theme: theme}

	if opts.trace {
		if err := a.setupTracing(); err != nil {
			return nil, err
		}
	}
	if opts.metricsAddr != "" {
		a.serveMetrics(opts.metricsAddr)
	}

	base, err := newFetcher(cfg)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	a.fetcher = collector.Guard(base, cfg.Provider.Guard, a.metrics)
	log.Info().Str("provider", a.fetcher.Name()).Int("workers", cfg.Provider.Workers).Msg("data source ready")

	facadeOpts := []analytics.Option{
		analytics.WithWorkers(cfg.Provider.Workers),
		analytics.WithMetrics(a.metrics),
		analytics.WithSelector(interval.Selector{IntradayLimitDays: cfg.Provider.IntradayLimitDays}),
	}
	if cfg.Provider.Profiles {
		facadeOpts = append(facadeOpts, analytics.WithProfiles(a.fetcher))
	}
	a.facade = analytics.New(a.fetcher, facadeOpts...)

	a.rec = newRecorder(cfg)
	a.closers = append(a.closers, func(context.Context) error { return a.rec.Close() })
	return a, nil
}

// newFetcher builds the configured provider.
func newFetcher(cfg *config.Config) (collector.Fetcher, error) {
	switch cfg.Provider.Name {
	case "yahoo":
		f := collector.NewYahooFetcher(cfg.Proxy)
		if cfg.Provider.BaseURL != "" {
			f.BaseURL = cfg.Provider.BaseURL
		}
		return f, nil
	case "polygon":
		return collector.NewPolygonFetcher(cfg.Provider.BaseURL, cfg.Provider.APIKey, cfg.Proxy), nil
	case "static":
		f := collector.NewStaticFetcher()
		f.Generate = true
		return f, nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider.Name)
	}
}

// newRecorder opens the SQLite run log, falling back to a no-op recorder.
func newRecorder(cfg *config.Config) recorder.Recorder {
	if cfg.Database.SQLitePath == "" {
		return recorder.NewNoopRecorder()
	}
	if dir := filepath.Dir(cfg.Database.SQLitePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Warn().Err(err).Msg("create sqlite dir failed, using noop recorder")
			return recorder.NewNoopRecorder()
		}
	}
	sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
	if err != nil {
		log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
		return recorder.NewNoopRecorder()
	}
	return sr
}

func (a *app) setupTracing() error {
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(os.Stderr), stdouttrace.WithPrettyPrint())
	if err != nil {
		return fmt.Errorf("create trace exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", "marketlens"))),
	)
	otel.SetTracerProvider(tp)
	a.closers = append(a.closers, tp.Shutdown)
	return nil
}

func (a *app) serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info().Str("addr", addr).Msg("serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server stopped")
		}
	}()
	a.closers = append(a.closers, srv.Shutdown)
}

// Close releases collaborators in reverse order of creation.
func (a *app) Close(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			log.Warn().Err(err).Msg("shutdown")
		}
	}
}

func (a *app) writeJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// defaultExportFormat is used when --out has no extension.
const defaultExportFormat = "csv"

// exportDoc writes doc to --out when set. The extension picks the format.
func (a *app) exportDoc(doc export.Document) error {
	if a.opts.out == "" {
		return nil
	}
	ext := strings.TrimPrefix(filepath.Ext(a.opts.out), ".")
	if ext == "" {
		ext = defaultExportFormat
	}
	saver := export.NewSaver(ext)
	if saver == nil {
		return fmt.Errorf("unsupported export format %q (want one of %s)", ext, strings.Join(export.Formats, ", "))
	}
	path := export.Path(a.opts.out, saver)
	if err := saver.Save(doc, path); err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}
	log.Info().Str("path", path).Int("rows", len(doc.Summary)).Msg("exported")
	return nil
}
