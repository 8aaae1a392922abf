// Command pdfsplitter runs the PDF splitting service: an HTTP API that
// accepts multi-document loan PDFs and a worker pool that segments them on
// separator barcodes, classifies the pieces, and writes one sub-PDF each.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "modernc.org/sqlite"

	"github.com/hugobastidas/pdf-loan-splitter/barcode"
	"github.com/hugobastidas/pdf-loan-splitter/classify"
	"github.com/hugobastidas/pdf-loan-splitter/config"
	"github.com/hugobastidas/pdf-loan-splitter/dbopen"
	"github.com/hugobastidas/pdf-loan-splitter/httpapi"
	"github.com/hugobastidas/pdf-loan-splitter/ocr/tesseract"
	"github.com/hugobastidas/pdf-loan-splitter/pagescan"
	"github.com/hugobastidas/pdf-loan-splitter/pipeline"
	"github.com/hugobastidas/pdf-loan-splitter/raster"
	"github.com/hugobastidas/pdf-loan-splitter/shield"
	"github.com/hugobastidas/pdf-loan-splitter/splitpdf"
	"github.com/hugobastidas/pdf-loan-splitter/store"
	"github.com/hugobastidas/pdf-loan-splitter/worker"
)

func main() {
	configPath := env("CONFIG", "pdfsplitter.yaml")
	logLevel := env("LOG_LEVEL", "info")

	// Logging.
	var lvl slog.Level
	switch logLevel {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("STORAGE_ROOT"); v != "" {
		cfg.StorageRoot = v
	}
	if v := os.Getenv("DATABASE_PATH"); v != "" {
		cfg.DatabasePath = v
	}

	// Signal context.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := os.MkdirAll(cfg.InputDir(), 0o755); err != nil {
		slog.Error("storage root", "error", err)
		os.Exit(1)
	}

	db, err := dbopen.Open(cfg.DatabasePath, dbopen.WithMkdirAll())
	if err != nil {
		slog.Error("open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	st := store.New(db)
	if err := st.Init(); err != nil {
		slog.Error("init schema", "error", err)
		os.Exit(1)
	}

	// Processing pipeline with production capabilities.
	pipe := pipeline.New(pipeline.Config{
		Rasterizer: raster.NewFitz(),
		Writer:     splitpdf.New(),
		Analyzer: pagescan.New(pagescan.Config{
			BlankThreshold: cfg.BlankThreshold,
			Language:       cfg.OCRLanguage,
			Decoder:        barcode.NewZXing(),
			Engine:         tesseract.New(),
			Logger:         logger,
		}),
		Classifier:      classify.New(cfg.Rules),
		DPI:             cfg.DPI,
		AnalysisWorkers: cfg.AnalysisWorkers,
		Logger:          logger,
	})

	// Worker pool.
	worker.New(cfg, st, pipe, logger).Start(ctx)

	// HTTP server.
	r := chi.NewRouter()
	for _, mw := range shield.APIStack() {
		r.Use(mw)
	}
	limiter := shield.NewRateLimiter(map[string]shield.RateLimitConfig{
		"POST /api/v1/jobs": {MaxRequests: 30, WindowSeconds: 60},
	})
	limiter.StartGC(ctx.Done())
	r.Use(limiter.Middleware)
	httpapi.New(cfg, st, logger).RegisterHTTP(r)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", cfg.HTTPAddr, "workers", cfg.Workers)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "error", err)
	}
	slog.Info("server stopped")
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
